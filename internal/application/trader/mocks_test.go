package trader_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// --- mocks ---

// mockOrders devuelve errs[i] en la llamada i; la última entrada se repite.
type mockOrders struct {
	errs   []error
	ack    domain.OrderAck
	orders []domain.MarketOrder
}

func (m *mockOrders) SubmitMarketOrder(_ context.Context, order domain.MarketOrder) (domain.OrderAck, error) {
	m.orders = append(m.orders, order)
	if len(m.errs) == 0 {
		return m.ack, nil
	}
	i := min(len(m.orders)-1, len(m.errs)-1)
	if err := m.errs[i]; err != nil {
		return domain.OrderAck{}, err
	}
	return m.ack, nil
}

func (m *mockOrders) CancelOrder(_ context.Context, _ string) error { return nil }

func (m *mockOrders) Address() string { return "0xabc" }

func (m *mockOrders) calls() int { return len(m.orders) }

type mockCatalog struct {
	markets []domain.Market
	err     error
}

func (m *mockCatalog) FetchEvents(_ context.Context, _ ports.EventQuery) ([]domain.Market, error) {
	return m.markets, m.err
}

type mids struct{ yes, no float64 }

// mockPrices sirve mids por token; los tokens que no conoce fallan.
type mockPrices struct {
	mu  sync.Mutex
	mid map[string]float64
}

func newMockPrices() *mockPrices {
	return &mockPrices{mid: map[string]float64{}}
}

func (m *mockPrices) set(noToken, yesToken string, v mids) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mid[yesToken] = v.yes
	m.mid[noToken] = v.no
}

func (m *mockPrices) get(tokenID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.mid[tokenID]
	if !ok {
		return 0, errors.New("no orderbook exists for token " + tokenID)
	}
	return v, nil
}

func (m *mockPrices) Midpoint(_ context.Context, tokenID string) (float64, error) {
	return m.get(tokenID)
}

func (m *mockPrices) Price(_ context.Context, tokenID, _ string) (float64, error) {
	v, err := m.get(tokenID)
	return 1 - v, err
}

func (m *mockPrices) OrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	v, err := m.get(tokenID)
	if err != nil {
		return domain.OrderBook{}, err
	}
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.BookEntry{{Price: v - 0.01, Size: 50}},
		Asks:    []domain.BookEntry{{Price: v + 0.01, Size: 50}},
	}, nil
}

func (m *mockPrices) OrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	out := make(map[string]domain.OrderBook, len(tokenIDs))
	for _, id := range tokenIDs {
		b, err := m.OrderBook(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = b
	}
	return out, nil
}

type mockBalance struct {
	balance float64
	err     error
	calls   int
}

func (m *mockBalance) USDCBalance(_ context.Context, _ string) (float64, error) {
	m.calls++
	return m.balance, m.err
}

type mockNotifier struct {
	mu      sync.Mutex
	reports []domain.CycleReport
	err     error
}

func (m *mockNotifier) Notify(_ context.Context, report domain.CycleReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

type mockStore struct {
	saved []domain.CycleReport
	err   error
}

func (m *mockStore) SaveCycle(_ context.Context, report domain.CycleReport) error {
	m.saved = append(m.saved, report)
	return m.err
}

func (m *mockStore) Stats(_ context.Context) (domain.RunStats, error) {
	return domain.RunStats{Cycles: len(m.saved)}, nil
}

func (m *mockStore) Close() error { return nil }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func endingIn(d time.Duration) string {
	return testNow.Add(d).Format(time.RFC3339)
}
