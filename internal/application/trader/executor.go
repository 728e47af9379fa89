package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// ErrNotTradable is returned when a HOLD opportunity is passed to the executor.
var ErrNotTradable = errors.New("trader: opportunity is not tradable")

// ExecutorConfig configures order submission.
type ExecutorConfig struct {
	Slippage   float64       // price tolerance passed with every order
	RetryDelay time.Duration // wait between transient failures
}

// Executor turns a BUY_YES / BUY_NO opportunity into one FOK market order
// with bounded retry on "no match".
type Executor struct {
	orders ports.OrderSubmitter
	cfg    ExecutorConfig
}

// NewExecutor creates an Executor.
func NewExecutor(orders ports.OrderSubmitter, cfg ExecutorConfig) *Executor {
	return &Executor{orders: orders, cfg: cfg}
}

// Prepare resolves side and token for an opportunity and returns a pending
// attempt. The token always comes from the market's fixed pair.
func (e *Executor) Prepare(opp domain.Opportunity) (domain.TradeAttempt, error) {
	side, ok := opp.Recommendation.Side()
	if !ok {
		return domain.TradeAttempt{}, fmt.Errorf("trader.Prepare: %s is %s: %w", opp.Market.ID, opp.Recommendation, ErrNotTradable)
	}
	tokenID, err := opp.Market.TokenFor(side)
	if err != nil {
		return domain.TradeAttempt{}, fmt.Errorf("trader.Prepare: %w", err)
	}
	if tokenID == "" {
		return domain.TradeAttempt{}, fmt.Errorf("trader.Prepare: market %s has no %s token", opp.Market.ID, side)
	}

	return domain.TradeAttempt{
		ID:        uuid.NewString(),
		Market:    opp.Market,
		Side:      side,
		TokenID:   tokenID,
		Size:      opp.TradeSize,
		Slippage:  e.cfg.Slippage,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Execute prepares and submits the order for opp. It returns ErrNotTradable
// for HOLD; otherwise exactly one terminal attempt (FILLED or FAILED).
func (e *Executor) Execute(ctx context.Context, opp domain.Opportunity, maxRetries int) (domain.TradeAttempt, error) {
	attempt, err := e.Prepare(opp)
	if err != nil {
		return domain.TradeAttempt{}, err
	}
	return e.Submit(ctx, attempt, maxRetries), nil
}

// Submit sends a prepared attempt, retrying up to maxRetries extra times while
// the venue answers "no match" or could not be read before posting. Any other
// failure stops at once.
//
// Orders are posted on a context detached from ctx: cancelling ctx stops the
// next retry but never aborts an order already in flight. The HTTP client
// timeout still bounds every call.
func (e *Executor) Submit(ctx context.Context, attempt domain.TradeAttempt, maxRetries int) domain.TradeAttempt {
	order := domain.MarketOrder{
		TokenID:  attempt.TokenID,
		Outcome:  attempt.Side,
		Amount:   attempt.Size,
		Slippage: attempt.Slippage,
		Type:     domain.OrderFOK,
	}
	submitCtx := context.WithoutCancel(ctx)

	for {
		attempt.AttemptsUsed++
		res := e.submit(submitCtx, order)

		if res.OK() {
			ack := res.Value
			attempt.Outcome = domain.OutcomeFilled
			attempt.Ack = &ack
			attempt.Err, attempt.Kind = nil, domain.FailureNone
			slog.Info("order filled",
				"market", attempt.Market.Ticker,
				"side", attempt.Side,
				"order_id", ack.OrderID,
				"status", ack.Status,
				"attempts", attempt.AttemptsUsed,
			)
			break
		}

		attempt.Err, attempt.Kind = res.Err, res.Kind
		if res.Status == domain.FetchFatal {
			attempt.Outcome = domain.OutcomeFailed
			slog.Warn("order failed",
				"market", attempt.Market.Ticker,
				"side", attempt.Side,
				"kind", res.Kind,
				"attempts", attempt.AttemptsUsed,
				"err", res.Err,
			)
			break
		}

		if attempt.AttemptsUsed > maxRetries {
			attempt.Outcome = domain.OutcomeFailed
			slog.Warn("order failed, retries exhausted",
				"market", attempt.Market.Ticker,
				"side", attempt.Side,
				"attempts", attempt.AttemptsUsed,
				"err", res.Err,
			)
			break
		}

		slog.Info("order not filled, retrying",
			"market", attempt.Market.Ticker,
			"kind", res.Kind,
			"attempt", attempt.AttemptsUsed,
			"delay", e.cfg.RetryDelay,
		)
		if err := sleepCtx(ctx, e.cfg.RetryDelay); err != nil {
			attempt.Outcome = domain.OutcomeFailed
			attempt.Err = fmt.Errorf("%w (retry cancelled: %w)", res.Err, err)
			break
		}
	}

	attempt.FinishedAt = time.Now().UTC()
	return attempt
}

// submit envía una orden y etiqueta el resultado: Unavailable si es
// reintentable, Fatal si no.
func (e *Executor) submit(ctx context.Context, order domain.MarketOrder) domain.Fetch[domain.OrderAck] {
	ack, err := e.orders.SubmitMarketOrder(ctx, order)
	if err == nil {
		return domain.Ok(ack)
	}
	kind := ClassifyOrderError(err)
	if kind.Transient() {
		res := domain.Unavailable[domain.OrderAck](err)
		res.Kind = kind
		return res
	}
	return domain.Fatal[domain.OrderAck](kind, err)
}

// sleepCtx espera d o hasta que ctx se cancele.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
