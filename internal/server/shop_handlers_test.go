package server

import (
	"fmt"
	"net/http"
	"testing"

	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogue_AdminOnlyWrites(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	admin := testutil.CreateUser(t, ts.db, "root", testutil.AsAdmin)

	resp := ts.do(http.MethodPost, "/api/categories", ts.token(alice), CategoryRequest{Name: "Toys"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/categories", "", CategoryRequest{Name: "Toys"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/categories", ts.token(admin), CategoryRequest{Name: "Toys"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decode[models.Category](t, resp)

	resp = ts.do(http.MethodPost, "/api/categories", ts.token(admin), CategoryRequest{Name: "Toys"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	tests := []struct {
		name   string
		body   ProductRequest
		status int
	}{
		{"valid", ProductRequest{Name: "Rope", Price: 9.999, Quantity: 3, CategoryID: category.ID}, http.StatusCreated},
		{"zero price", ProductRequest{Name: "Free", Price: 0, Quantity: 1, CategoryID: category.ID}, http.StatusBadRequest},
		{"negative stock", ProductRequest{Name: "Ghost", Price: 1, Quantity: -1, CategoryID: category.ID}, http.StatusBadRequest},
		{"unknown category", ProductRequest{Name: "Lost", Price: 1, Quantity: 1, CategoryID: 9999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/api/products", ts.token(admin), tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	t.Run("public browsing", func(t *testing.T) {
		resp := ts.do(http.MethodGet, "/api/categories", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.Category](t, resp), 1)

		resp = ts.do(http.MethodGet, fmt.Sprintf("/api/products?categoryId=%d&q=ROPE", category.ID), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		products := decode[[]models.ProductDTO](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, 10.0, products[0].Price, "prices are rounded to cents")
		assert.True(t, products[0].IsAvailable)
		assert.Equal(t, "Toys", products[0].CategoryName)
	})
}

func TestCartAndCheckout(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	kibble := testutil.CreateProduct(t, ts.db, "Kibble", 12.5, 5)
	treats := testutil.CreateProduct(t, ts.db, "Treats", 3.25, 2)
	soldOut := testutil.CreateProduct(t, ts.db, "Collar", 20, 0)
	token := ts.token(alice)

	resp := ts.do(http.MethodPost, "/api/orders/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeEmptyCart, decode[models.ErrorResponse](t, resp).Error)

	resp = ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: kibble.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: kibble.ID, Quantity: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decode[models.CartDTO](t, resp)
	require.Len(t, cart.Items, 1, "adding the same product merges lines")
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 37.5, cart.Total)

	t.Run("stock limits", func(t *testing.T) {
		resp := ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: kibble.ID, Quantity: 3})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, models.CodeOutOfStock, decode[models.ErrorResponse](t, resp).Error)

		resp = ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: soldOut.ID, Quantity: 1})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp = ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: kibble.ID, Quantity: 0})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	resp = ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: treats.ID, Quantity: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = decode[models.CartDTO](t, resp)
	require.Len(t, cart.Items, 2)

	var treatsLine uint
	for _, item := range cart.Items {
		if item.ProductID == treats.ID {
			treatsLine = item.CartItemID
		}
	}
	linePath := fmt.Sprintf("/api/cart/%d", treatsLine)

	t.Run("only the owner may edit a line", func(t *testing.T) {
		resp := ts.do(http.MethodPut, linePath, ts.token(bob), CartItemRequest{Quantity: 1})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp = ts.do(http.MethodDelete, linePath, ts.token(bob), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	resp = ts.do(http.MethodPut, linePath, token, CartItemRequest{Quantity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 44.0, decode[models.CartDTO](t, resp).Total)

	resp = ts.do(http.MethodPost, "/api/orders/checkout", token, CheckoutRequest{TransactionID: ptr("  txn-42  ")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[models.OrderDTO](t, resp)
	assert.Equal(t, 44.0, order.TotalPrice)
	assert.Equal(t, models.OrderStatusPaid, order.OrderStatus)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "txn-42", *order.TransactionID)
	assert.Equal(t, 2, order.ItemsCount)

	var after models.Product
	require.NoError(t, ts.db.First(&after, treats.ID).Error)
	assert.Equal(t, 0, after.Quantity)
	assert.False(t, after.IsAvailable)
	require.NoError(t, ts.db.First(&after, kibble.ID).Error)
	assert.Equal(t, 2, after.Quantity)

	resp = ts.do(http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.CartDTO](t, resp).Items)

	t.Run("order visibility", func(t *testing.T) {
		path := fmt.Sprintf("/api/orders/%d", order.OrderID)
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, path, token, nil).StatusCode)
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, path, ts.token(bob), nil).StatusCode)

		resp := ts.do(http.MethodGet, "/api/orders/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.OrderDTO](t, resp), 1)
	})
}

func TestCheckout_StockChangedAfterAdd(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bowl := testutil.CreateProduct(t, ts.db, "Bowl", 8, 2)
	token := ts.token(alice)

	resp := ts.do(http.MethodPost, "/api/cart", token, CartItemRequest{ProductID: bowl.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// someone else bought one in the meantime
	require.NoError(t, ts.db.Model(&models.Product{}).Where("id = ?", bowl.ID).Update("quantity", 1).Error)

	resp = ts.do(http.MethodPost, "/api/orders/checkout", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var count int64
	require.NoError(t, ts.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, ts.db.Model(&models.CartItem{}).Where("user_id = ?", alice.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "a failed checkout keeps the cart")
}
