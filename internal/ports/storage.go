package ports

import (
	"context"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// CycleStore persiste el resultado de cada ciclo.
type CycleStore interface {
	// SaveCycle guarda el reporte y sus intentos de trade.
	SaveCycle(ctx context.Context, report domain.CycleReport) error

	// Stats devuelve las estadísticas acumuladas de todos los ciclos.
	Stats(ctx context.Context) (domain.RunStats, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
