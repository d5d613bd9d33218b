package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/di"
)

// result is printed to stdout as JSON
type result struct {
	IsSpam              bool   `json:"isSpam"`
	Reason              string `json:"reason"`
	Source              string `json:"source"`
	PersonalizedMessage string `json:"personalizedMessage,omitempty"`
}

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	llmClient core.LLMClient,
	classifier core.SpamClassifier,
	personalizer core.ResponsePersonalizer,
) error {
	defer logger.Sync()

	if closer, ok := llmClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// Read message from file or stdin
	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	message := strings.TrimSpace(string(content))
	if message == "" {
		return fmt.Errorf("message is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	verdict, err := classifier.Classify(ctx, core.ClassificationRequest{
		OriginIdentifier: "cli",
		Content:          message,
		HoneypotFilled:   flags.Honeypot,
	})
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if flags.Honeypot && !verdict.IsSpam {
		verdict = &core.SpamVerdict{IsSpam: true, Reason: "Honeypot field was filled.", Source: "honeypot"}
	}
	out := result{IsSpam: verdict.IsSpam, Reason: verdict.Reason, Source: verdict.Source}

	if !flags.SkipPersonalize {
		input := message
		if verdict.IsSpam {
			input = core.SpamPlaceholder
		}
		text, err := personalizer.Personalize(ctx, input)
		if err != nil {
			logger.Warn("Personalization failed, using fallback", zap.Error(err))
			text = core.FallbackAcknowledgment
		}
		out.PersonalizedMessage = text
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
