// Package orders is the order façade: typed Order records over the order_c
// entity of a store.Client.
package orders

import (
	"context"
	"time"

	store "github.com/medatechnology/storefront"
)

// Service exposes the order operations. Every method makes at most one
// backend call; failures are logged and come back as empty values.
type Service struct {
	runner *store.Runner
	now    func() time.Time
}

type Option func(*Service)

// WithLogger sets the logger failures are reported to.
func WithLogger(logger store.Logger) Option {
	return func(s *Service) {
		s.runner.Logger = logger
	}
}

// WithClock replaces time.Now for the dates stamped on create.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(client store.Client, opts ...Option) *Service {
	s := &Service{
		runner: store.NewRunner(client, nil),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every order.
func (s *Service) List(ctx context.Context) []Order {
	return store.List(ctx, s.runner, store.BuildListQuery(store.EntityOrder, Fields), Decode)
}

// Get returns one order, or nil.
func (s *Service) Get(ctx context.Context, id int) *Order {
	return store.Get(ctx, s.runner, id, store.BuildListQuery(store.EntityOrder, Fields), Decode)
}

// ListByStatus returns the orders in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status) []Order {
	q := store.BuildFilterQuery(store.EntityOrder, Fields, FieldStatus, store.OpEqualTo, string(status))
	return store.List(ctx, s.runner, q, Decode)
}

// History is List sorted by order date, newest first.
func (s *Service) History(ctx context.Context) []Order {
	list := s.List(ctx)
	SortNewestFirst(list)
	return list
}

// Create places an order and returns it as stored, or nil.
func (s *Service) Create(ctx context.Context, in NewOrder) *Order {
	payload, err := in.CreatePayload(s.now())
	if err != nil {
		s.runner.Report(store.WrapCreateError(err, store.EntityOrder), "CREATE", store.EntityOrder)
		return nil
	}
	return store.Create(ctx, s.runner, store.EntityOrder, payload, Decode)
}

// Update applies a patch to order id and returns the updated order, or nil.
func (s *Service) Update(ctx context.Context, id int, patch Patch) *Order {
	payload, err := patch.Payload(id)
	if err != nil {
		s.runner.Report(store.WrapUpdateError(err, store.EntityOrder), "UPDATE", store.EntityOrder)
		return nil
	}
	return store.Update(ctx, s.runner, store.EntityOrder, payload, Decode)
}

// Delete removes order id.
func (s *Service) Delete(ctx context.Context, id int) bool {
	return store.Delete(ctx, s.runner, store.EntityOrder, id)
}
