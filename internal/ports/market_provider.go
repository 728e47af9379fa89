package ports

import (
	"context"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// EventQuery describe un listado de /events de Gamma.
type EventQuery struct {
	Name      string // etiqueta para logs ("latest", "fast")
	Order     string // campo de ordenación, vacío = orden de la API
	Ascending bool
	Closed    bool
	Limit     int
}

// CatalogSource obtiene el catálogo de mercados abiertos.
type CatalogSource interface {
	// FetchEvents devuelve los mercados de un listado, en el orden de la API.
	// Los eventos sin par de tokens válido se devuelven con TokenIDs vacíos.
	FetchEvents(ctx context.Context, q EventQuery) ([]domain.Market, error)
}
