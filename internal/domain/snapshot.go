package domain

// PriceSnapshot es la foto de precios de ambos outcomes de un mercado.
// Se recalcula en cada ciclo; nunca se cachea entre ciclos.
type PriceSnapshot struct {
	MarketID string
	Yes      OutcomeQuote
	No       OutcomeQuote
}

// OutcomeQuote agrupa los datos de precio de un token.
type OutcomeQuote struct {
	TokenID      string
	Mid          float64 // midpoint del CLOB, probabilidad en [0,1]
	Price        float64 // precio BUY crudo de la API
	DisplayPrice float64 // 1 - Price, el precio que muestra la web
	Book         BookSummary
	BookCount    int // books devueltos por el endpoint batch
}

// BookSummary es el resumen top-of-book. Solo para diagnóstico.
type BookSummary struct {
	Market  string
	BestBid float64
	BestAsk float64
	Spread  float64
	Levels  int // niveles de ask
}

// DisplayPrice aplica la conversión de precio API → precio mostrado.
func DisplayPrice(raw float64) float64 {
	return 1.0 - raw
}

// NewOutcomeQuote construye la cotización de un token a partir de los datos crudos.
// Es el único punto donde se aplica DisplayPrice.
func NewOutcomeQuote(tokenID string, mid, rawPrice float64, book OrderBook, bookCount int) OutcomeQuote {
	return OutcomeQuote{
		TokenID:      tokenID,
		Mid:          mid,
		Price:        rawPrice,
		DisplayPrice: DisplayPrice(rawPrice),
		Book:         book.Summary(),
		BookCount:    bookCount,
	}
}
