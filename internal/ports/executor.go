package ports

import (
	"context"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// OrderSubmitter signs and submits market orders on the Polymarket CLOB.
type OrderSubmitter interface {
	// SubmitMarketOrder signs and posts a single FOK buy order.
	// It never retries on its own; a returned error means nothing was filled.
	SubmitMarketOrder(ctx context.Context, order domain.MarketOrder) (domain.OrderAck, error)

	// CancelOrder cancels a specific order by its CLOB order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// Address returns the wallet address orders are placed from.
	Address() string
}

// BalanceOracle reads the spendable USDC.e balance of a wallet.
type BalanceOracle interface {
	USDCBalance(ctx context.Context, address string) (float64, error)
}
