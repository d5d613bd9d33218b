package ports

// Frontend accepts submissions from the outside world
type Frontend interface {
	// Start starts serving in the background
	Start() error

	// Stop stops serving, waiting for in-flight submissions
	Stop() error
}
