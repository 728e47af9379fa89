package polymarket

// trading.go — Real order execution via Polymarket CLOB API.
//
// Implements ports.OrderSubmitter using AuthClient for L1/L2 auth.
// All orders are FOK market buys: filled entirely right away or cancelled.
// POST /order is sent exactly once per call; retrying is the caller's decision.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// errNoMatch uses the CLOB wording so the executor classifies it as a
// transient liquidity failure.
const errNoMatch = "no match"

// clobOrderRequest is the JSON body sent to POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderID"`
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
}

// OrderLimits bounds the USDC amount of a single order.
type OrderLimits struct {
	Min float64
	Max float64
}

// TradingClient implements ports.OrderSubmitter.
type TradingClient struct {
	auth   *AuthClient
	limits OrderLimits
}

// NewTradingClient creates a TradingClient. Zero limits are not enforced.
func NewTradingClient(auth *AuthClient, limits OrderLimits) *TradingClient {
	return &TradingClient{auth: auth, limits: limits}
}

// Address returns the funder address orders are placed from.
func (tc *TradingClient) Address() string {
	return tc.auth.Address()
}

// SubmitMarketOrder signs and submits a FOK buy spending order.Amount USDC.
// The reference price is the ask level at which the book covers the amount;
// the slippage tolerance is added on top.
func (tc *TradingClient) SubmitMarketOrder(ctx context.Context, order domain.MarketOrder) (domain.OrderAck, error) {
	if err := tc.checkAmount(order.Amount); err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: %w", err)
	}
	if order.Type != "" && order.Type != domain.OrderFOK {
		return domain.OrderAck{}, fmt.Errorf("submit order: unsupported order type %q", order.Type)
	}
	// Reads before the POST fail with ErrOrderNotPosted: nothing reached the book.
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: %w: creds: %w", domain.ErrOrderNotPosted, err)
	}

	book, err := tc.auth.OrderBook(ctx, order.TokenID)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: %w: %w", domain.ErrOrderNotPosted, err)
	}
	ref, err := fillPrice(book, order.Amount)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order %s: %w", order.TokenID, err)
	}
	price, err := limitPrice(ref, order.Slippage, book.TickSize)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: %w", err)
	}

	negRisk, err := tc.auth.IsNegRisk(ctx, order.TokenID)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: %w: %w", domain.ErrOrderNotPosted, err)
	}

	signed, err := tc.auth.buildMarketBuyOrder(order.TokenID, decimal.NewFromFloat(order.Amount), price, negRisk)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       order.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.apiKey(),
		OrderType: string(domain.OrderFOK),
	}

	slog.Debug("submitting order",
		"token", order.TokenID,
		"outcome", order.Outcome,
		"amount", order.Amount,
		"ref_price", ref,
		"limit_price", price.String(),
		"neg_risk", negRisk,
	)

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp, false); err != nil {
		return domain.OrderAck{}, fmt.Errorf("submit order: post: %w", err)
	}
	if !resp.Success || resp.ErrorMsg != "" {
		return domain.OrderAck{}, fmt.Errorf("submit order: clob error: %s", resp.ErrorMsg)
	}

	return domain.OrderAck{
		OrderID:      resp.OrderID,
		Status:       resp.Status,
		MakingAmount: resp.MakingAmount,
		TakingAmount: resp.TakingAmount,
	}, nil
}

// CancelOrder cancels a single order by its CLOB order ID.
func (tc *TradingClient) CancelOrder(ctx context.Context, clobOrderID string) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("cancel order: creds: %w", err)
	}

	path := "/order/" + clobOrderID
	if err := tc.auth.doL2(ctx, http.MethodDelete, path, nil, nil, true); err != nil {
		return fmt.Errorf("cancel order %s: %w", clobOrderID, err)
	}
	return nil
}

func (tc *TradingClient) checkAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %.4f", amount)
	}
	if tc.limits.Min > 0 && amount < tc.limits.Min {
		return fmt.Errorf("amount %.2f below minimum order size %.2f", amount, tc.limits.Min)
	}
	if tc.limits.Max > 0 && amount > tc.limits.Max {
		return fmt.Errorf("amount %.2f above maximum order size %.2f", amount, tc.limits.Max)
	}
	return nil
}

// fillPrice returns the ask level at which the book's USDC depth covers amount.
func fillPrice(book domain.OrderBook, amount float64) (float64, error) {
	if len(book.Asks) == 0 {
		return 0, fmt.Errorf("%s: empty book", errNoMatch)
	}
	price, depth, ok := book.FillLevel(amount)
	if !ok {
		return 0, fmt.Errorf("%s: book depth %.2f USDC < %.2f", errNoMatch, depth, amount)
	}
	return price, nil
}
