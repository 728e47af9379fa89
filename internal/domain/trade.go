package domain

import (
	"errors"
	"time"
)

// ErrOrderNotPosted marca los fallos previos al envío de la orden: el CLOB
// no llegó a recibirla y reenviarla es seguro.
var ErrOrderNotPosted = errors.New("order not posted")

// Side es el outcome que se compra.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// OrderType es el tipo de orden del CLOB. Solo se usa FOK.
type OrderType string

// OrderFOK: fill-or-kill, se llena entera al instante o se cancela.
const OrderFOK OrderType = "FOK"

// MarketOrder es una orden de compra a mercado por importe en USDC.
type MarketOrder struct {
	TokenID  string
	Outcome  Side
	Amount   float64 // USDC a gastar
	Slippage float64 // tolerancia sobre el precio de referencia
	Type     OrderType
}

// OrderAck es la respuesta del CLOB a una orden aceptada.
type OrderAck struct {
	OrderID      string
	Status       string
	MakingAmount string
	TakingAmount string
}

// AttemptOutcome es el resultado final de un intento de trade.
type AttemptOutcome string

const (
	OutcomeFilled    AttemptOutcome = "FILLED"
	OutcomeFailed    AttemptOutcome = "FAILED"
	OutcomeSimulated AttemptOutcome = "SIMULATED"
)

// TradeAttempt es el registro de ejecutar una oportunidad.
// Vive solo durante el ciclo; el journal guarda una copia.
type TradeAttempt struct {
	ID           string
	Market       Market
	Side         Side
	TokenID      string
	Size         float64
	Slippage     float64
	AttemptsUsed int
	Outcome      AttemptOutcome
	Kind         FailureKind
	Ack          *OrderAck
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Succeeded devuelve true si el intento cuenta como ejecución
// (orden llenada o simulada).
func (a TradeAttempt) Succeeded() bool {
	return a.Outcome == OutcomeFilled || a.Outcome == OutcomeSimulated
}

// Simulated devuelve true si el intento no envió ninguna orden.
func (a TradeAttempt) Simulated() bool {
	return a.Outcome == OutcomeSimulated
}

// ErrString devuelve el texto del error o "" si no hay.
func (a TradeAttempt) ErrString() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}
