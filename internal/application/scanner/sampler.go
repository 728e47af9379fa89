package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// priceSide es el lado que se consulta en /price.
const priceSide = "BUY"

var errMissingTokens = errors.New("market has no token pair")

// SamplerConfig configura el PriceSampler.
type SamplerConfig struct {
	// MaxConcurrentMarkets limita los mercados muestreados en paralelo
	// (0 = NumCPU*2).
	MaxConcurrentMarkets int
}

// Sampler obtiene el snapshot de precios de ambos outcomes de un mercado.
type Sampler struct {
	prices  ports.PriceProvider
	workers int
}

// NewSampler crea un Sampler sobre el PriceProvider dado.
func NewSampler(prices ports.PriceProvider, cfg SamplerConfig) *Sampler {
	workers := cfg.MaxConcurrentMarkets
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &Sampler{prices: prices, workers: workers}
}

// outcomeData son las cuatro lecturas crudas de un token.
type outcomeData struct {
	mid   float64
	price float64
	book  domain.OrderBook
	books int
}

// Sample obtiene el snapshot de un mercado de forma estrictamente secuencial.
func (s *Sampler) Sample(ctx context.Context, m domain.Market) domain.Fetch[domain.PriceSnapshot] {
	if !m.HasTokens() {
		return domain.Unavailable[domain.PriceSnapshot](fmt.Errorf("scanner.Sample: %s: %w", m.ID, errMissingTokens))
	}

	yes, err := s.fetchOutcome(ctx, m.YesTokenID())
	if err != nil {
		return domain.Unavailable[domain.PriceSnapshot](fmt.Errorf("scanner.Sample: %s yes: %w", m.ID, err))
	}
	no, err := s.fetchOutcome(ctx, m.NoTokenID())
	if err != nil {
		return domain.Unavailable[domain.PriceSnapshot](fmt.Errorf("scanner.Sample: %s no: %w", m.ID, err))
	}
	return domain.Ok(buildSnapshot(m, yes, no))
}

// SampleMany muestrea varios mercados en paralelo. El resultado i corresponde
// a markets[i]. Un mercado que falla no cancela a los demás: se reintenta una
// vez por la vía secuencial y, si vuelve a fallar, queda como Unavailable.
func (s *Sampler) SampleMany(ctx context.Context, markets []domain.Market) []domain.Fetch[domain.PriceSnapshot] {
	results := make([]domain.Fetch[domain.PriceSnapshot], len(markets))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, m := range markets {
		if !m.HasTokens() {
			results[i] = domain.Unavailable[domain.PriceSnapshot](fmt.Errorf("scanner.SampleMany: %s: %w", m.ID, errMissingTokens))
			continue
		}
		i, m := i, m
		g.Go(func() error {
			results[i] = s.sampleConcurrent(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	fallbacks := 0
	for i, m := range markets {
		if results[i].OK() || !m.HasTokens() {
			continue
		}
		slog.Debug("concurrent sample failed, retrying sequentially",
			"market", m.ID,
			"err", results[i].Err,
		)
		fallbacks++
		results[i] = s.Sample(ctx, m)
		if !results[i].OK() {
			slog.Warn("market data unavailable", "market", m.ID, "ticker", m.Ticker, "err", results[i].Err)
		}
	}

	slog.Debug("price sampling complete",
		"markets", len(markets),
		"fallbacks", fallbacks,
		"workers", s.workers,
	)
	return results
}

// sampleConcurrent lanza las ocho lecturas del mercado (cuatro por outcome) a
// la vez y espera a todas antes de construir el snapshot.
func (s *Sampler) sampleConcurrent(ctx context.Context, m domain.Market) domain.Fetch[domain.PriceSnapshot] {
	g, gctx := errgroup.WithContext(ctx)

	var yes, no outcomeData
	s.goOutcome(gctx, g, m.YesTokenID(), &yes)
	s.goOutcome(gctx, g, m.NoTokenID(), &no)

	if err := g.Wait(); err != nil {
		return domain.Unavailable[domain.PriceSnapshot](fmt.Errorf("scanner.sampleConcurrent: %s: %w", m.ID, err))
	}
	return domain.Ok(buildSnapshot(m, yes, no))
}

// goOutcome añade al grupo las cuatro lecturas de un token. Cada goroutine
// escribe un campo distinto de out.
func (s *Sampler) goOutcome(ctx context.Context, g *errgroup.Group, tokenID string, out *outcomeData) {
	g.Go(func() error {
		mid, err := s.prices.Midpoint(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("midpoint %s: %w", tokenID, err)
		}
		out.mid = mid
		return nil
	})
	g.Go(func() error {
		price, err := s.prices.Price(ctx, tokenID, priceSide)
		if err != nil {
			return fmt.Errorf("price %s: %w", tokenID, err)
		}
		out.price = price
		return nil
	})
	g.Go(func() error {
		book, err := s.prices.OrderBook(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("book %s: %w", tokenID, err)
		}
		out.book = book
		return nil
	})
	g.Go(func() error {
		books, err := s.prices.OrderBooks(ctx, []string{tokenID})
		if err != nil {
			return fmt.Errorf("books %s: %w", tokenID, err)
		}
		out.books = len(books)
		return nil
	})
}

// fetchOutcome hace las mismas cuatro lecturas una detrás de otra.
func (s *Sampler) fetchOutcome(ctx context.Context, tokenID string) (outcomeData, error) {
	var out outcomeData
	var err error

	if out.mid, err = s.prices.Midpoint(ctx, tokenID); err != nil {
		return out, fmt.Errorf("midpoint %s: %w", tokenID, err)
	}
	if out.price, err = s.prices.Price(ctx, tokenID, priceSide); err != nil {
		return out, fmt.Errorf("price %s: %w", tokenID, err)
	}
	if out.book, err = s.prices.OrderBook(ctx, tokenID); err != nil {
		return out, fmt.Errorf("book %s: %w", tokenID, err)
	}
	books, err := s.prices.OrderBooks(ctx, []string{tokenID})
	if err != nil {
		return out, fmt.Errorf("books %s: %w", tokenID, err)
	}
	out.books = len(books)
	return out, nil
}

// buildSnapshot es el único constructor de snapshots: ambas vías pasan por aquí.
func buildSnapshot(m domain.Market, yes, no outcomeData) domain.PriceSnapshot {
	return domain.PriceSnapshot{
		MarketID: m.ID,
		Yes:      domain.NewOutcomeQuote(m.YesTokenID(), yes.mid, yes.price, yes.book, yes.books),
		No:       domain.NewOutcomeQuote(m.NoTokenID(), no.mid, no.price, no.book, no.books),
	}
}
