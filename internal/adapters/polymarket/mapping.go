package polymarket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// mapEvents convierte los eventos de Gamma a domain.Market.
// Los eventos sin id se descartan; los que no tienen un par de tokens válido se
// conservan con TokenIDs vacíos (se clasificarán como HOLD sin datos).
func mapEvents(raw []gammaEvent) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			continue
		}
		markets = append(markets, mapEvent(e))
	}
	return markets
}

// mapEvent convierte un gammaEvent a domain.Market usando su primer mercado.
func mapEvent(e gammaEvent) domain.Market {
	m := domain.Market{
		ID:      e.ID,
		Ticker:  e.Ticker,
		Title:   e.Title,
		EndDate: e.EndDate,
	}
	if m.Ticker == "" {
		m.Ticker = e.Slug
	}
	if len(e.Markets) == 0 {
		return m
	}

	first := e.Markets[0]
	if m.EndDate == "" {
		m.EndDate = first.EndDate
	}
	ids, err := parseTokenIDs(first.ClobTokenIDs)
	if err != nil {
		slog.Debug("event without usable token pair", "event", e.ID, "ticker", e.Ticker, "err", err)
		return m
	}
	m.TokenIDs = ids
	return m
}

// parseTokenIDs extrae el par [NO, YES] de clobTokenIds. Acepta tanto el
// formato habitual (string con JSON dentro) como un array JSON directo.
// El orden se respeta tal cual: índice 0 es NO, índice 1 es YES.
func parseTokenIDs(raw json.RawMessage) ([2]string, error) {
	var pair [2]string
	if len(raw) == 0 || string(raw) == "null" {
		return pair, fmt.Errorf("missing clobTokenIds")
	}

	payload := []byte(raw)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		payload = []byte(encoded)
	}

	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return pair, fmt.Errorf("parse clobTokenIds: %w", err)
	}
	if len(ids) != 2 {
		return pair, fmt.Errorf("expected 2 token ids, got %d", len(ids))
	}
	if ids[domain.NoIndex] == "" || ids[domain.YesIndex] == "" {
		return pair, fmt.Errorf("empty token id in pair")
	}
	pair[domain.NoIndex] = ids[domain.NoIndex]
	pair[domain.YesIndex] = ids[domain.YesIndex]
	return pair, nil
}

// parseNumber convierte un json.Number a float64 y valida que sea una probabilidad.
func parseNumber(n json.Number, field string) (float64, error) {
	if n == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, n, err)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%s %.4f outside [0, 1]", field, v)
	}
	return v, nil
}

// mapOrderBook convierte un book raw a domain.OrderBook.
func mapOrderBook(r orderBookResponse) domain.OrderBook {
	return domain.OrderBook{
		TokenID:  r.AssetID,
		Market:   r.Market,
		TickSize: r.TickSize,
		Bids:     mapBookEntries(r.Bids, false),
		Asks:     mapBookEntries(r.Asks, true),
	}
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		result[r.AssetID] = mapOrderBook(r)
	}
	return result
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
