package events

import (
	"context"
	"errors"

	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
)

// Multi fans events out to every publisher, all of them are attempted.
type Multi []port.EventPublisher

func (m Multi) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
