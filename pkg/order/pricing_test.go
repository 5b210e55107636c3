package order_test

import (
	"context"
	"testing"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndPriceSnapshotsCatalogPrices(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 10.10, Stock: 5, IsActive: true})
	c.seedProduct(t, models.Product{ID: "p2", Name: "Shirt", Price: 20.20, Stock: 5, IsActive: true})

	pricer := order.NewPricer(c.catalog(), c.dir())
	lines, total, err := pricer.ValidateAndPrice(context.Background(), "u1", []order.LineRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 10.10, lines[0].Price)
	assert.InDelta(t, 10.10, lines[0].Subtotal, 1e-9)
	assert.Equal(t, "p2", lines[1].ProductID)
	assert.Equal(t, 20.20, lines[1].Price)
	assert.InDelta(t, 40.40, lines[1].Subtotal, 1e-9)
	assert.InDelta(t, 50.50, total, 1e-9)
}

func TestValidateAndPriceRoundsTotalHalfUpAtTheEnd(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Widget", Price: 1.115, Stock: 10, IsActive: true})

	pricer := order.NewPricer(c.catalog(), c.dir())
	_, total, err := pricer.ValidateAndPrice(context.Background(), "u1", []order.LineRequest{
		{ProductID: "p1", Quantity: 3},
	})
	require.NoError(t, err)

	// 3 * 1.115 = 3.345, rounded half-up once at the end
	assert.InDelta(t, 3.35, total, 1e-9)
}

func TestValidateAndPriceChecksInInputOrder(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedProduct(t, models.Product{ID: "active", Name: "Active", Price: 5, Stock: 10, IsActive: true})
	c.seedProduct(t, models.Product{ID: "inactive", Name: "Retired", Price: 5, Stock: 10, IsActive: false})
	c.seedProduct(t, models.Product{ID: "scarce", Name: "Scarce", Price: 5, Stock: 1, IsActive: true})

	pricer := order.NewPricer(c.catalog(), c.dir())
	ctx := context.Background()

	_, _, err := pricer.ValidateAndPrice(ctx, "nobody", []order.LineRequest{{ProductID: "active", Quantity: 1}})
	assert.Equal(t, order.CodeUserNotFound, order.CodeOf(err))

	_, _, err = pricer.ValidateAndPrice(ctx, "u1", nil)
	assert.Equal(t, order.CodeBadRequest, order.CodeOf(err))

	_, _, err = pricer.ValidateAndPrice(ctx, "u1", []order.LineRequest{{ProductID: "ghost", Quantity: 1}})
	assert.Equal(t, order.CodeProductNotFound, order.CodeOf(err))

	_, _, err = pricer.ValidateAndPrice(ctx, "u1", []order.LineRequest{{ProductID: "inactive", Quantity: 1}})
	assert.Equal(t, order.CodeProductInactive, order.CodeOf(err))

	_, _, err = pricer.ValidateAndPrice(ctx, "u1", []order.LineRequest{{ProductID: "scarce", Quantity: 2}})
	assert.Equal(t, order.CodeInsufficientStock, order.CodeOf(err))
	assert.Contains(t, err.Error(), "available 1")
	assert.Contains(t, err.Error(), "requested 2")

	// first failing line wins even when later lines are fine
	_, _, err = pricer.ValidateAndPrice(ctx, "u1", []order.LineRequest{
		{ProductID: "inactive", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	assert.Equal(t, order.CodeProductInactive, order.CodeOf(err))

	_, _, err = pricer.ValidateAndPrice(ctx, "u1", []order.LineRequest{{ProductID: "active", Quantity: 0}})
	assert.Equal(t, order.CodeBadRequest, order.CodeOf(err))
}

func TestValidateAndPriceHasNoSideEffects(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 10, Stock: 5, IsActive: true})

	pricer := order.NewPricer(c.catalog(), c.dir())
	_, _, err := pricer.ValidateAndPrice(context.Background(), "u1", []order.LineRequest{
		{ProductID: "p1", Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, c.stock(t, "p1"))
}
