package polymarket

// clob.go — lecturas de precio y orderbook del CLOB.
//
// OrderBooks reparte los token_ids en batches y lanza un goroutine por batch;
// el rate limiter de doWithRetry marca el ritmo sin semáforo explícito.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

const (
	midpointPath = "/midpoint"
	pricePath    = "/price"
	bookPath     = "/book"
	booksPath    = "/books"
	negRiskPath  = "/neg-risk"
	batchSize    = 20 // máx token_ids por request a /books
)

// Midpoint devuelve el punto medio bid/ask de un token.
func (c *Client) Midpoint(ctx context.Context, tokenID string) (float64, error) {
	u := c.clobBase + midpointPath + "?" + url.Values{"token_id": {tokenID}}.Encode()

	var resp midpointResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return 0, fmt.Errorf("clob.Midpoint %s: %w", tokenID, err)
	}
	mid, err := parseNumber(resp.Mid, "mid")
	if err != nil {
		return 0, fmt.Errorf("clob.Midpoint %s: %w", tokenID, err)
	}
	return mid, nil
}

// Price devuelve el precio crudo del lado dado ("BUY" o "SELL").
func (c *Client) Price(ctx context.Context, tokenID, side string) (float64, error) {
	u := c.clobBase + pricePath + "?" + url.Values{"token_id": {tokenID}, "side": {side}}.Encode()

	var resp priceResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return 0, fmt.Errorf("clob.Price %s: %w", tokenID, err)
	}
	price, err := parseNumber(resp.Price, "price")
	if err != nil {
		return 0, fmt.Errorf("clob.Price %s: %w", tokenID, err)
	}
	return price, nil
}

// OrderBook devuelve el book completo de un token.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	u := c.clobBase + bookPath + "?" + url.Values{"token_id": {tokenID}}.Encode()

	var resp orderBookResponse
	if err := c.get(ctx, c.booksLimiter, u, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.OrderBook %s: %w", tokenID, err)
	}
	book := mapOrderBook(resp)
	if book.TokenID == "" {
		book.TokenID = tokenID
	}
	return book, nil
}

// OrderBooks obtiene los orderbooks de varios tokens con el endpoint batch.
// Lanza un goroutine por batch (máx batchSize tokens cada uno).
func (c *Client) OrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	if len(tokenIDs) == 0 {
		return map[string]domain.OrderBook{}, nil
	}

	batches := splitBatches(tokenIDs, batchSize)

	type batchResult struct {
		books map[string]domain.OrderBook
		err   error
		idx   int
	}

	resultCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			books, err := c.fetchBooksBatch(ctx, batch)
			resultCh <- batchResult{books: books, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := make(map[string]domain.OrderBook, len(tokenIDs))
	var firstErr error

	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("clob.OrderBooks batch %d: %w", r.idx, r.err)
			}
			continue
		}
		for k, v := range r.books {
			result[k] = v
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	slog.Debug("order books fetched", "tokens", len(tokenIDs), "books", len(result))
	return result, nil
}

// IsNegRisk indica si el token opera con el NegRisk adapter.
func (c *Client) IsNegRisk(ctx context.Context, tokenID string) (bool, error) {
	u := c.clobBase + negRiskPath + "?" + url.Values{"token_id": {tokenID}}.Encode()

	var resp negRiskResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return false, fmt.Errorf("clob.IsNegRisk %s: %w", tokenID, err)
	}
	return resp.NegRisk, nil
}

// splitBatches divide tokenIDs en slices de tamaño máximo size.
func splitBatches(tokenIDs []string, size int) [][]string {
	if size <= 0 {
		size = batchSize
	}
	batches := make([][]string, 0, (len(tokenIDs)+size-1)/size)
	for i := 0; i < len(tokenIDs); i += size {
		end := min(i+size, len(tokenIDs))
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}

// fetchBooksBatch hace un POST /books para un batch de token_ids.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	body := make([]orderBookRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = orderBookRequest{TokenID: id}
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, fmt.Errorf("POST /books: %w", err)
	}
	return mapOrderBooks(resp), nil
}
