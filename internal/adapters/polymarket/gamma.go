package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

const gammaEventsPath = "/events"

// FetchEvents implementa ports.CatalogSource: devuelve los eventos de un
// listado de /events convertidos a domain.Market, en el orden de la API.
func (c *Client) FetchEvents(ctx context.Context, q ports.EventQuery) ([]domain.Market, error) {
	u := c.gammaBase + gammaEventsPath + "?" + eventsQuery(q).Encode()

	var resp []gammaEvent
	if err := c.get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("gamma.FetchEvents %s: %w", q.Name, err)
	}

	markets := mapEvents(resp)
	slog.Debug("gamma events fetched",
		"listing", q.Name,
		"events", len(resp),
		"markets", len(markets),
	)
	return markets, nil
}

// eventsQuery construye los parámetros del listado. order y ascending solo se
// envían si el listado pide un orden explícito.
func eventsQuery(q ports.EventQuery) url.Values {
	v := url.Values{}
	if q.Order != "" {
		v.Set("order", q.Order)
		v.Set("ascending", strconv.FormatBool(q.Ascending))
	}
	v.Set("closed", strconv.FormatBool(q.Closed))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}
