package scanner_test

import (
	"context"
	"errors"
	"sync"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// --- mocks ---

type mockCatalog struct {
	byListing map[string][]domain.Market
	errs      map[string]error
	calls     []string
}

func (m *mockCatalog) FetchEvents(_ context.Context, q ports.EventQuery) ([]domain.Market, error) {
	m.calls = append(m.calls, q.Name)
	if err := m.errs[q.Name]; err != nil {
		return nil, err
	}
	return m.byListing[q.Name], nil
}

type quote struct {
	mid   float64
	price float64
	book  domain.OrderBook
}

// mockPrices devuelve cotizaciones fijas por token. failFirst hace fallar la
// primera llamada a Midpoint de ese token; failAlways hace fallar todas.
type mockPrices struct {
	mu         sync.Mutex
	quotes     map[string]quote
	failFirst  map[string]bool
	failAlways map[string]bool
	midCalls   map[string]int
	total      int
}

func newMockPrices(quotes map[string]quote) *mockPrices {
	return &mockPrices{
		quotes:     quotes,
		failFirst:  map[string]bool{},
		failAlways: map[string]bool{},
		midCalls:   map[string]int{},
	}
}

var errUpstream = errors.New("upstream timeout")

func (m *mockPrices) lookup(tokenID string) (quote, error) {
	q, ok := m.quotes[tokenID]
	if !ok {
		return quote{}, errors.New("unknown token " + tokenID)
	}
	return q, nil
}

func (m *mockPrices) Midpoint(_ context.Context, tokenID string) (float64, error) {
	m.mu.Lock()
	m.total++
	m.midCalls[tokenID]++
	n := m.midCalls[tokenID]
	fail := m.failAlways[tokenID] || (m.failFirst[tokenID] && n == 1)
	m.mu.Unlock()
	if fail {
		return 0, errUpstream
	}
	q, err := m.lookup(tokenID)
	return q.mid, err
}

func (m *mockPrices) Price(_ context.Context, tokenID, _ string) (float64, error) {
	m.mu.Lock()
	m.total++
	m.mu.Unlock()
	q, err := m.lookup(tokenID)
	return q.price, err
}

func (m *mockPrices) OrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	m.mu.Lock()
	m.total++
	m.mu.Unlock()
	q, err := m.lookup(tokenID)
	return q.book, err
}

func (m *mockPrices) OrderBooks(_ context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	m.mu.Lock()
	m.total++
	m.mu.Unlock()
	out := make(map[string]domain.OrderBook, len(tokenIDs))
	for _, id := range tokenIDs {
		q, err := m.lookup(id)
		if err != nil {
			return nil, err
		}
		out[id] = q.book
	}
	return out, nil
}

func (m *mockPrices) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func book(market string, bid, ask float64) domain.OrderBook {
	return domain.OrderBook{
		Market: market,
		Bids:   []domain.BookEntry{{Price: bid, Size: 100}},
		Asks:   []domain.BookEntry{{Price: ask, Size: 100}},
	}
}
