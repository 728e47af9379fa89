package strategy

import (
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// Classifier define el contrato para convertir un mercado con su snapshot de
// precios en una Opportunity. Debe ser puro y determinista.
type Classifier interface {
	// Classify nunca falla: sin snapshot o sin datos suficientes devuelve HOLD.
	Classify(market domain.Market, remaining time.Duration, snap *domain.PriceSnapshot) domain.Opportunity
}
