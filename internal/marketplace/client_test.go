package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) IClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key", 2*time.Second, zap.NewNop())
}

func TestClient_Categories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":1,"data":[{"id":"c1","name":"Grocery"},{"id":"c2","name":"Fashion"}]}`))
	})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Grocery", cats[0].Name)
}

func TestClient_CitiesByState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Maharashtra", r.URL.Query().Get("state"))
		_, _ = w.Write([]byte(`{"status":1,"data":[{"id":"pune","name":"Pune","state":"Maharashtra"}]}`))
	})

	cities, err := c.Cities(context.Background(), "Maharashtra")
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "pune", cities[0].ID)
}

func TestClient_EnvelopeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"message":"seller suspended"}`))
	})

	_, err := c.Wallet(context.Background(), "m1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "seller suspended", apiErr.Message)
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_WalletDecimal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sellers/m1/wallet", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":1,"data":{"balance":"1520.75","pending_payout":300.1,"currency":"INR"}}`))
	})

	wallet, err := c.Wallet(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("1520.75")))
	assert.True(t, wallet.PendingPayout.Equal(decimal.RequireFromString("300.1")))
}

func TestClient_OrdersQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("per_page"))
		assert.Equal(t, "shipped", q.Get("status"))
		_, _ = w.Write([]byte(`{"status":1,"data":{"items":[{"id":"o1","status":"shipped","total":"99.00","item_count":2}],"page":2,"per_page":10,"total":11}}`))
	})

	page, err := c.Orders(context.Background(), "m1", ListOptions{Page: 2, PerPage: 10, Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "o1", page.Items[0].ID)
}

func TestClient_RegisterSellerNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.RegisterSeller(context.Background(), Registration{SellerID: "s1"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CreateTicket(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in models.NewTicket
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Payout delayed", in.Subject)
		_, _ = w.Write([]byte(`{"status":1,"data":{"id":"t1","subject":"Payout delayed","status":"open"}}`))
	})

	ticket, err := c.CreateTicket(context.Background(), "m1", models.NewTicket{Subject: "Payout delayed", Body: "My payout is late by a week"})
	require.NoError(t, err)
	assert.Equal(t, "t1", ticket.ID)
	assert.Equal(t, "open", ticket.Status)
}
