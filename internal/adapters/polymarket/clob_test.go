package polymarket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyexpiry/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

func newTestClient(clobSrv, gammaSrv *httptest.Server) *polymarket.Client {
	clobURL := ""
	gammaURL := ""
	if clobSrv != nil {
		clobURL = clobSrv.URL
	}
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	return polymarket.NewClient(clobURL, gammaURL, polymarket.WithTimeout(2*time.Second))
}

func TestFetchEvents_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/gamma_events.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "id", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "500", q.Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	markets, err := client.FetchEvents(context.Background(), ports.EventQuery{
		Name: "latest", Order: "id", Ascending: false, Closed: false, Limit: 500,
	})

	require.NoError(t, err)
	// el evento sin id se descarta
	require.Len(t, markets, 3)

	m := markets[0]
	assert.Equal(t, "90001", m.ID)
	assert.Equal(t, "btc-updown-5m-1760531400", m.Ticker)
	assert.Equal(t, "2026-10-15T12:35:00Z", m.EndDate)
	assert.Equal(t, "token_no_001", m.NoTokenID())
	assert.Equal(t, "token_yes_001", m.YesTokenID())

	// ticker vacío → slug; endDate vacío → endDate del mercado; array directo
	m = markets[1]
	assert.Equal(t, "eth-updown-15m-1760531400", m.Ticker)
	assert.Equal(t, "2026-10-15T12:45:00Z", m.EndDate)
	assert.Equal(t, "token_no_002", m.NoTokenID())
	assert.Equal(t, "token_yes_002", m.YesTokenID())

	// par incompleto → se conserva sin tokens
	m = markets[2]
	assert.Equal(t, "90003", m.ID)
	assert.False(t, m.HasTokens())
}

func TestFetchEvents_NoOrderParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("order"))
		assert.False(t, q.Has("ascending"))
		assert.Equal(t, "200", q.Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	markets, err := client.FetchEvents(context.Background(), ports.EventQuery{Name: "fast", Limit: 200})
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestFetchEvents_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad limit"}`))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	_, err := client.FetchEvents(context.Background(), ports.EventQuery{Name: "latest"})
	require.Error(t, err)

	var apiErr *polymarket.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad limit")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMidpoint_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/midpoint", r.URL.Path)
		assert.Equal(t, "token_yes_001", r.URL.Query().Get("token_id"))
		w.Write([]byte(`{"mid":"0.615"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	mid, err := client.Midpoint(context.Background(), "token_yes_001")
	require.NoError(t, err)
	assert.InDelta(t, 0.615, mid, 1e-9)
}

func TestMidpoint_OutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mid":"1.5"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	_, err := client.Midpoint(context.Background(), "token_yes_001")
	assert.Error(t, err)
}

func TestPrice_SendsSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		assert.Equal(t, "BUY", r.URL.Query().Get("side"))
		w.Write([]byte(`{"price":0.41}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	price, err := client.Price(context.Background(), "token_no_001", "BUY")
	require.NoError(t, err)
	assert.InDelta(t, 0.41, price, 1e-9)
}

func TestOrderBook_SortsLevels(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/clob_book.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book", r.URL.Path)
		w.Write(data)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	book, err := client.OrderBook(context.Background(), "token_yes_001")
	require.NoError(t, err)

	assert.Equal(t, "token_yes_001", book.TokenID)
	assert.Equal(t, "0xcond001", book.Market)
	assert.Equal(t, "0.01", book.TickSize)
	assert.InDelta(t, 0.60, book.BestBid(), 1e-9)
	assert.InDelta(t, 0.62, book.BestAsk(), 1e-9)
	assert.InDelta(t, 0.02, book.Spread(), 1e-9)
	require.Len(t, book.Asks, 3)
	assert.InDelta(t, 0.66, book.Asks[2].Price, 1e-9)
}

func TestOrderBooks_Batch(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/clob_books_batch.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/books", r.URL.Path)

		var body []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 2)
		w.Write(data)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	books, err := client.OrderBooks(context.Background(), []string{"token_yes_001", "token_no_001"})
	require.NoError(t, err)
	require.Len(t, books, 2)

	yes := books["token_yes_001"]
	assert.InDelta(t, 0.70, yes.BestBid(), 1e-9)
	assert.InDelta(t, 0.72, yes.BestAsk(), 1e-9)
	assert.InDelta(t, 0.02, yes.Spread(), 1e-9)

	no := books["token_no_001"]
	assert.InDelta(t, 0.27, no.BestBid(), 1e-9)
	assert.InDelta(t, 0.29, no.BestAsk(), 1e-9)
}

func TestOrderBooks_BatchSplitting(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)

	// 25 token_ids → 2 requests (batch de 20 + batch de 5)
	tokenIDs := make([]string, 25)
	for i := range tokenIDs {
		tokenIDs[i] = "token_" + string(rune('a'+i))
	}

	_, err := client.OrderBooks(context.Background(), tokenIDs)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOrderBooks_Empty(t *testing.T) {
	client := newTestClient(nil, nil)
	books, err := client.OrderBooks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestServerError_RetriedThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := newTestClient(srv, nil)
	_, err := client.Midpoint(ctx, "token_yes_001")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestServerError_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"mid":"0.5"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	mid, err := client.Midpoint(context.Background(), "token_yes_001")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mid, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIsNegRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neg-risk", r.URL.Path)
		w.Write([]byte(`{"neg_risk":true}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	neg, err := client.IsNegRisk(context.Background(), "token_yes_002")
	require.NoError(t, err)
	assert.True(t, neg)
}
