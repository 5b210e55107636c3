package order_test

import (
	"context"
	"testing"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListValidatesPagination(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	ctx := context.Background()

	_, err := c.query.List(ctx, "u1", 0, 10)
	assert.Equal(t, order.CodeBadPagination, order.CodeOf(err))

	_, err = c.query.List(ctx, "u1", 1, 0)
	assert.Equal(t, order.CodeBadPagination, order.CodeOf(err))

	_, err = c.query.List(ctx, "u1", 1, 101)
	assert.Equal(t, order.CodeBadPagination, order.CodeOf(err))

	_, err = c.query.List(ctx, "nobody", 1, 10)
	assert.Equal(t, order.CodeUserNotFound, order.CodeOf(err))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedUser(t, "u2", "u2@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 5, Stock: 1000, IsActive: true})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := c.service.Create(ctx, "u1", []order.LineRequest{{ProductID: "p1", Quantity: 1}})
		require.NoError(t, err)
	}
	// another user's order must not leak into u1's listing
	_, err := c.service.Create(ctx, "u2", []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	page, err := c.query.List(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, int64(15), page.Total)

	for i := 1; i < len(page.Data); i++ {
		assert.False(t, page.Data[i].CreatedAt.After(page.Data[i-1].CreatedAt),
			"orders must be sorted by creation time descending")
	}

	page2, err := c.query.List(ctx, "u1", 2, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Data, 5)
	assert.Equal(t, int64(15), page2.Total)

	for _, view := range page.Data {
		assert.Equal(t, "u1", view.User.ID)
	}
}

func TestListExpandsDisplayFields(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "buyer@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 7.50, Stock: 10, IsActive: true, Image: "mug.png"})
	ctx := context.Background()

	_, err := c.service.Create(ctx, "u1", []order.LineRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	page, err := c.query.List(ctx, "u1", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	view := page.Data[0]
	assert.Equal(t, "buyer@example.com", view.User.Email)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Mug", view.Items[0].Product.Name)
	assert.Equal(t, "mug.png", view.Items[0].Product.Image)
	assert.Equal(t, 7.50, view.Items[0].Product.Price)
}

func TestGetAppliesOwnershipAndExpansion(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "owner", "owner@example.com")
	c.seedUser(t, "other", "other@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 5, Stock: 10, IsActive: true})
	ctx := context.Background()

	ord, err := c.service.Create(ctx, "owner", []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	view, err := c.query.Get(ctx, ord.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, ord.ID, view.ID)
	assert.Equal(t, "owner@example.com", view.User.Email)

	_, err = c.query.Get(ctx, ord.ID, "other")
	assert.Equal(t, order.KindForbidden, order.KindOf(err))

	_, err = c.query.Get(ctx, "missing", "owner")
	assert.Equal(t, order.KindNotFound, order.KindOf(err))
}

func TestGetKeepsLinePriceSnapshotWhileShowingCurrentProduct(t *testing.T) {
	c := newCore(t)
	c.seedUser(t, "u1", "u1@example.com")
	c.seedProduct(t, models.Product{ID: "p1", Name: "Mug", Price: 10, Stock: 10, IsActive: true})
	ctx := context.Background()

	ord, err := c.service.Create(ctx, "u1", []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, c.db.Model(&models.Product{}).Where("id = ?", "p1").Update("price", 15.0).Error)

	view, err := c.query.Get(ctx, ord.ID, "u1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 10.0, view.Items[0].Price)         // snapshot
	assert.Equal(t, 15.0, view.Items[0].Product.Price) // current catalog price
	assert.InDelta(t, 10.0, view.TotalAmount, 1e-9)
}
