package ports

import (
	"context"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// Notifier presenta el resultado de un ciclo al usuario.
type Notifier interface {
	// Notify muestra las oportunidades evaluadas y los trades del ciclo.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, report domain.CycleReport) error
}
