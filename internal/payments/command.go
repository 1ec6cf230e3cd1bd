// Package payments manages worker payout records with optimistic updates:
// the local state flips immediately, the backend call follows, and a
// failure restores the previous state.
package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	applog "paytrack/internal/log"
)

// Command is one optimistic mutation. Apply runs before the backend call;
// Rollback restores the captured previous state when the call fails.
type Command struct {
	// Name labels the command in logs.
	Name string

	// Apply performs the local mutation.
	Apply func()

	// Rollback undoes Apply using state captured at build time.
	Rollback func()
}

// Run applies the command, executes the backend call, and rolls back on
// failure. Every execution carries a correlation id so an apply and its
// rollback can be tied together in logs.
func Run(ctx context.Context, logger *applog.Logger, cmd Command, do func(ctx context.Context) error) error {
	id := uuid.NewString()

	cmd.Apply()
	logger.DebugContext(ctx, "optimistic apply",
		applog.FieldOperation, cmd.Name, "command_id", id)

	if err := do(ctx); err != nil {
		cmd.Rollback()
		logger.WarnContext(ctx, "optimistic rollback",
			applog.FieldOperation, cmd.Name,
			"command_id", id,
			applog.FieldError, err.Error())
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}
