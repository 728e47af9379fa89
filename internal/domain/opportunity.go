package domain

import "time"

// Recommendation es la decisión del clasificador para un mercado.
type Recommendation string

const (
	BuyYes Recommendation = "BUY_YES"
	BuyNo  Recommendation = "BUY_NO"
	Hold   Recommendation = "HOLD"
)

// Side devuelve el lado a comprar; ok es false para HOLD.
func (r Recommendation) Side() (side Side, ok bool) {
	switch r {
	case BuyYes:
		return SideYes, true
	case BuyNo:
		return SideNo, true
	default:
		return "", false
	}
}

// Opportunity es el resultado de clasificar un mercado.
// Se consume inmediatamente por el executor o se descarta.
type Opportunity struct {
	Market         Market
	TimeRemaining  time.Duration
	Snapshot       *PriceSnapshot // nil si no hubo datos de mercado
	Recommendation Recommendation
	TradeSize      float64 // USDC, 0 para HOLD
	Reason         string
}

// Tradable devuelve true si la recomendación no es HOLD.
func (o Opportunity) Tradable() bool {
	_, ok := o.Recommendation.Side()
	return ok
}

// YesMid devuelve el mid YES del snapshot, o 0 si no hay snapshot.
func (o Opportunity) YesMid() float64 {
	if o.Snapshot == nil {
		return 0
	}
	return o.Snapshot.Yes.Mid
}

// NoMid devuelve el mid NO del snapshot, o 0 si no hay snapshot.
func (o Opportunity) NoMid() float64 {
	if o.Snapshot == nil {
		return 0
	}
	return o.Snapshot.No.Mid
}
