package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

func TestRepository_DedupKeepsFirstSeen(t *testing.T) {
	catalog := &mockCatalog{byListing: map[string][]domain.Market{
		"latest": {
			{ID: "1", Ticker: "first-copy", Title: "from latest"},
			{ID: "2", Ticker: "only-latest"},
		},
		"fast": {
			{ID: "1", Ticker: "second-copy", Title: "from fast"},
			{ID: "3", Ticker: "only-fast"},
		},
	}}

	cat := scanner.NewRepository(catalog).FetchOpenMarkets(context.Background())

	require.Len(t, cat.Markets, 3)
	assert.Equal(t, "1", cat.Markets[0].ID)
	assert.Equal(t, "first-copy", cat.Markets[0].Ticker)
	assert.Equal(t, "from latest", cat.Markets[0].Title)
	assert.Equal(t, "2", cat.Markets[1].ID)
	assert.Equal(t, "3", cat.Markets[2].ID)
	assert.Equal(t, []string{"latest", "fast"}, catalog.calls)
	assert.Empty(t, cat.Failed)
	assert.Empty(t, cat.Diagnostics)
}

func TestRepository_PartialFailureKeepsOtherListing(t *testing.T) {
	catalog := &mockCatalog{
		byListing: map[string][]domain.Market{"fast": {{ID: "9"}}},
		errs:      map[string]error{"latest": errors.New("connection refused")},
	}

	cat := scanner.NewRepository(catalog).FetchOpenMarkets(context.Background())

	require.Len(t, cat.Markets, 1)
	assert.Equal(t, "9", cat.Markets[0].ID)
	assert.Equal(t, []string{"latest"}, cat.Failed)
	assert.Empty(t, cat.Diagnostics)
}

func TestRepository_AllListingsFail(t *testing.T) {
	catalog := &mockCatalog{errs: map[string]error{
		"latest": errors.New("boom"),
		"fast":   errors.New("boom"),
	}}

	cat := scanner.NewRepository(catalog).FetchOpenMarkets(context.Background())

	assert.Empty(t, cat.Markets)
	assert.True(t, cat.Unavailable(2))
	require.Len(t, cat.Diagnostics, 1)
	assert.Contains(t, cat.Diagnostics[0], "catalog unavailable")
}

func TestAttachRemainingTime_SortsAndDrops(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	markets := []domain.Market{
		{ID: "late", EndDate: "2026-03-01T12:10:00Z"},
		{ID: "closed", EndDate: "2026-03-01T11:59:00Z"},
		{ID: "exact", EndDate: "2026-03-01T12:00:00Z"},
		{ID: "bad", EndDate: "tomorrow"},
		{ID: "empty"},
		{ID: "soon", EndDate: "2026-03-01T12:03:00.000Z"},
		{ID: "mid", EndDate: "2026-03-01T13:04:05+01:00"},
	}

	timed := scanner.AttachRemainingTime(markets, now)

	require.Len(t, timed, 3)
	assert.Equal(t, "soon", timed[0].Market.ID)
	assert.Equal(t, 3*time.Minute, timed[0].Remaining)
	assert.Equal(t, "mid", timed[1].Market.ID)
	assert.Equal(t, 4*time.Minute+5*time.Second, timed[1].Remaining)
	assert.Equal(t, "late", timed[2].Market.ID)
	assert.Equal(t, 10.0, timed[2].Minutes())
}

func TestAttachRemainingTime_StableOnEqualRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := "2026-03-01T12:05:00Z"
	markets := []domain.Market{{ID: "a", EndDate: end}, {ID: "b", EndDate: end}, {ID: "c", EndDate: end}}

	timed := scanner.AttachRemainingTime(markets, now)

	require.Len(t, timed, 3)
	assert.Equal(t, "a", timed[0].Market.ID)
	assert.Equal(t, "b", timed[1].Market.ID)
	assert.Equal(t, "c", timed[2].Market.ID)
}
