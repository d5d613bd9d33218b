package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a submitter's address belongs to a trusted domain
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker. Blank entries are ignored.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make(map[string]struct{}, len(domains))
	names := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
		if d == "" {
			continue
		}
		if _, seen := normalized[d]; !seen {
			normalized[d] = struct{}{}
			names = append(names, d)
		}
	}

	if len(names) > 0 {
		logger.Info("Initialized trusted domains", zap.Strings("domains", names))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsWhitelisted checks if the address's domain, or a parent of it, is trusted
func (c *Checker) IsWhitelisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := domainOf(from)
	for domain != "" {
		if _, ok := c.domains[domain]; ok {
			c.logger.Debug("Domain is trusted",
				zap.String("domain", domain),
				zap.String("email", from))
			return true
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			break
		}
		domain = domain[dot+1:]
	}

	return false
}

func domainOf(from string) string {
	address := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		address = parsed.Address
	}
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
