package port

import (
	"context"

	"github.com/nikolayk812/bookstore/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
