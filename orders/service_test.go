package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/memory"
)

var fixedNow = time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

func newTestService(c store.Client) *Service {
	return NewService(c,
		WithLogger(store.NewNoopLogger()),
		WithClock(func() time.Time { return fixedNow }))
}

func seedOrders(c *memory.Client) {
	c.Seed(store.EntityOrder,
		store.Record{"status_c": "delivered", "order_date_c": "2024-01-01T10:00:00.000Z", "total_c": 10.0},
		store.Record{"status_c": "shipped", "order_date_c": "2024-03-01T10:00:00.000Z", "total_c": 20.0,
			"items_c": `[{"name":"TV","quantity":1}]`},
		store.Record{"status_c": "shipped", "order_date_c": "2024-02-01T10:00:00.000Z", "total_c": 30.0},
	)
}

func ids(list []Order) []int {
	out := make([]int, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func TestServiceReads(t *testing.T) {
	c := memory.New()
	seedOrders(c)
	s := newTestService(c)
	ctx := context.Background()

	assert.Equal(t, []int{1, 2, 3}, ids(s.List(ctx)))
	assert.Equal(t, []int{2, 3, 1}, ids(s.History(ctx)))
	assert.Equal(t, []int{2, 3}, ids(s.ListByStatus(ctx, StatusShipped)))
	assert.Empty(t, s.ListByStatus(ctx, StatusCancelled))

	o := s.Get(ctx, 2)
	require.NotNil(t, o)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "TV", o.Items[0].Name)
	assert.Equal(t, Address{}, o.DeliveryAddress)

	assert.Nil(t, s.Get(ctx, 404))
}

func TestServiceCreate(t *testing.T) {
	c := memory.New()
	s := newTestService(c)

	o := s.Create(context.Background(), NewOrder{
		Items:           []Item{{Name: "Phone", Quantity: 2}},
		Total:           decimal.RequireFromString("598"),
		DeliveryAddress: Address{"city": "Oslo"},
		PaymentMethod:   "card",
	})
	require.NotNil(t, o)

	assert.Equal(t, 1, o.ID)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(598)))
	assert.Equal(t, "Oslo", o.DeliveryAddress["city"])
	assert.True(t, o.OrderDate.Equal(fixedNow))
	assert.True(t, o.EstimatedDelivery.Equal(fixedNow.Add(DeliveryWindow)))
	assert.Equal(t, 1, c.Len(store.EntityOrder))
}

func TestServiceUpdateAndDelete(t *testing.T) {
	c := memory.New()
	seedOrders(c)
	s := newTestService(c)
	ctx := context.Background()

	o := s.Update(ctx, 1, Patch{Total: store.Some(decimal.Zero)})
	require.NotNil(t, o)
	assert.True(t, o.Total.IsZero())
	assert.Equal(t, StatusDelivered, o.Status, "absent status left unchanged")

	assert.Nil(t, s.Update(ctx, 99, Patch{Status: StatusCancelled}))

	assert.True(t, s.Delete(ctx, 1))
	assert.False(t, s.Delete(ctx, 1))
	assert.Equal(t, []int{2, 3}, ids(s.List(ctx)))
}

func TestServiceBackendFailure(t *testing.T) {
	c := memory.New()
	seedOrders(c)
	c.Fail(store.EntityOrder, "backend unavailable")
	s := newTestService(c)
	ctx := context.Background()

	list := s.List(ctx)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Empty(t, s.History(ctx))
	assert.Empty(t, s.ListByStatus(ctx, StatusShipped))
	assert.Nil(t, s.Get(ctx, 1))
	assert.Nil(t, s.Create(ctx, NewOrder{}))
	assert.Nil(t, s.Update(ctx, 1, Patch{Status: StatusShipped}))
	assert.False(t, s.Delete(ctx, 1))
}

func TestServiceWithoutClient(t *testing.T) {
	s := NewService(nil, WithLogger(store.NewNoopLogger()))
	ctx := context.Background()

	assert.Empty(t, s.List(ctx))
	assert.Nil(t, s.Get(ctx, 1))
	assert.False(t, s.Delete(ctx, 1))
}

func TestServiceMalformedRecord(t *testing.T) {
	c := memory.New()
	seedOrders(c)
	c.Seed(store.EntityOrder, store.Record{"items_c": "{broken"})
	s := newTestService(c)

	assert.Empty(t, s.List(context.Background()), "one malformed record fails the whole list")
	assert.NotNil(t, s.Get(context.Background(), 1))
	assert.Nil(t, s.Get(context.Background(), 4))
}
