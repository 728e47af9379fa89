package scanner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// DefaultQueries son los dos listados de /events que se consultan en cada ciclo:
// el general (los más recientes primero) y el de refresco rápido, donde aparecen
// los mercados deportivos y de cripto que expiran antes.
func DefaultQueries() []ports.EventQuery {
	return []ports.EventQuery{
		{Name: "latest", Order: "id", Ascending: false, Closed: false, Limit: 500},
		{Name: "fast", Closed: false, Limit: 200},
	}
}

// Catalog es el resultado de un fetch del catálogo.
type Catalog struct {
	Markets     []domain.Market
	Failed      []string // nombres de los listados que fallaron
	Diagnostics []string
}

// Unavailable devuelve true si ningún listado respondió.
func (c Catalog) Unavailable(queries int) bool {
	return queries > 0 && len(c.Failed) == queries
}

// Repository obtiene el catálogo de mercados abiertos.
type Repository struct {
	source  ports.CatalogSource
	queries []ports.EventQuery
}

// NewRepository crea un Repository. Sin queries usa DefaultQueries.
func NewRepository(source ports.CatalogSource, queries ...ports.EventQuery) *Repository {
	if len(queries) == 0 {
		queries = DefaultQueries()
	}
	return &Repository{source: source, queries: queries}
}

// FetchOpenMarkets consulta cada listado en orden, fusiona los resultados y
// deduplica por ID conservando la primera aparición.
// Un listado que falla se registra y no aporta mercados; si fallan todos el
// catálogo queda vacío con un diagnóstico, nunca con error.
func (r *Repository) FetchOpenMarkets(ctx context.Context) Catalog {
	var cat Catalog
	seen := make(map[string]bool)

	for _, q := range r.queries {
		markets, err := r.source.FetchEvents(ctx, q)
		if err != nil {
			slog.Warn("catalog listing failed", "listing", q.Name, "err", err)
			cat.Failed = append(cat.Failed, q.Name)
			continue
		}

		added := 0
		for _, m := range markets {
			if m.ID == "" || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			cat.Markets = append(cat.Markets, m)
			added++
		}
		slog.Debug("catalog listing fetched", "listing", q.Name, "markets", len(markets), "new", added)
	}

	if cat.Unavailable(len(r.queries)) {
		cat.Diagnostics = append(cat.Diagnostics, "catalog unavailable: all listings failed")
	}
	return cat
}

// AttachRemainingTime calcula el tiempo restante de cada mercado contra un
// único now. Descarta los endDate que no se pueden parsear y los mercados ya
// cerrados. El resultado queda ordenado del que expira antes al que expira después.
func AttachRemainingTime(markets []domain.Market, now time.Time) []domain.TimedMarket {
	out := make([]domain.TimedMarket, 0, len(markets))
	for _, m := range markets {
		end, err := domain.ParseEndDate(m.EndDate)
		if err != nil {
			slog.Debug("dropping market with bad end date", "id", m.ID, "end_date", m.EndDate, "err", err)
			continue
		}
		remaining := end.Sub(now)
		if remaining <= 0 {
			continue
		}
		out = append(out, domain.TimedMarket{Market: m, EndsAt: end, Remaining: remaining})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Remaining < out[j].Remaining
	})
	return out
}
