package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
)

// infraError keeps domain outcomes as they are and wraps everything else.
func infraError(op string, err error) error {
	if domain.IsBusinessError(err) ||
		errors.Is(err, domain.ErrPartialCommit) ||
		errors.Is(err, domain.ErrInfrastructure) {
		return err
	}

	return &domain.InfrastructureError{Op: op, Err: err}
}

// DefaultPublishTimeout bounds publishing when the caller has no earlier deadline.
const DefaultPublishTimeout = 5 * time.Second

// publish runs after the mutation committed, so a failure is only logged.
// A caller that went away still gets its events out, but never past its own deadline.
func publish(ctx context.Context, publisher port.EventPublisher, method string, events ...domain.Event) {
	if publisher == nil || len(events) == 0 {
		return
	}

	deadline := time.Now().Add(DefaultPublishTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	pubCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancel()

	if err := publisher.Publish(pubCtx, events...); err != nil {
		slog.Warn("publish events failed", "method", method, "events", len(events), "error", err)
	}
}

func validateQuantity(qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be positive")
	}
	if qty > domain.MaxQuantity {
		return domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d", domain.MaxQuantity))
	}
	return nil
}
