package outbox

import "context"

// Repository defines outbox event persistence. SaveAll must honour the
// transaction carried by ctx so events commit with the aggregate.
type Repository interface {
	SaveAll(ctx context.Context, events []*OutboxEvent) error
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, eventID string) error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
