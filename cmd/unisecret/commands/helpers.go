package commands

import (
	"fmt"

	"github.com/systmms/unisecret/internal/config"
	uerrors "github.com/systmms/unisecret/internal/errors"
	"github.com/systmms/unisecret/internal/logging"
	"github.com/systmms/unisecret/pkg/resolve"
)

// ExitError ends the process with Code and no message.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// newResolver loads configuration and builds the standard resolver.
func newResolver(cfg *config.Config) (*resolve.Resolver, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	r, err := resolve.NewFromConfig(cfg.Definition, resolve.WithLogger(logger))
	if err != nil {
		return nil, uerrors.UserError{
			Message:    "Failed to initialize resolver",
			Details:    err.Error(),
			Suggestion: "Check the vault section of your configuration",
			Err:        err,
		}
	}
	return r, nil
}
