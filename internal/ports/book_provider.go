package ports

import (
	"context"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// PriceProvider lee precios y orderbooks del CLOB. Todas las llamadas son de
// solo lectura e independientes entre sí.
type PriceProvider interface {
	// Midpoint devuelve el punto medio bid/ask del token.
	Midpoint(ctx context.Context, tokenID string) (float64, error)

	// Price devuelve el precio crudo del lado dado ("BUY" o "SELL").
	Price(ctx context.Context, tokenID, side string) (float64, error)

	// OrderBook devuelve el book completo de un token.
	OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)

	// OrderBooks devuelve los books de varios tokens con el endpoint batch.
	OrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error)
}
