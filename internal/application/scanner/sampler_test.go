package scanner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

func pairMarket(id, noToken, yesToken string) domain.Market {
	return domain.Market{ID: id, Ticker: id, TokenIDs: [2]string{noToken, yesToken}}
}

func standardPrices() *mockPrices {
	return newMockPrices(map[string]quote{
		"a-yes": {mid: 0.95, price: 0.06, book: book("cond-a", 0.94, 0.96)},
		"a-no":  {mid: 0.05, price: 0.96, book: book("cond-a", 0.04, 0.06)},
		"b-yes": {mid: 0.50, price: 0.51, book: book("cond-b", 0.49, 0.51)},
		"b-no":  {mid: 0.50, price: 0.51, book: book("cond-b", 0.49, 0.51)},
	})
}

func TestSampler_Sample_AppliesDisplayTransform(t *testing.T) {
	s := scanner.NewSampler(standardPrices(), scanner.SamplerConfig{})

	res := s.Sample(context.Background(), pairMarket("A", "a-no", "a-yes"))

	require.True(t, res.OK())
	snap := res.Value
	assert.Equal(t, "A", snap.MarketID)
	assert.Equal(t, "a-yes", snap.Yes.TokenID)
	assert.Equal(t, "a-no", snap.No.TokenID)
	assert.Equal(t, 0.95, snap.Yes.Mid)
	assert.Equal(t, 0.06, snap.Yes.Price)
	assert.InDelta(t, 0.94, snap.Yes.DisplayPrice, 1e-9)
	assert.InDelta(t, 0.04, snap.No.DisplayPrice, 1e-9)
	assert.Equal(t, 0.94, snap.Yes.Book.BestBid)
	assert.Equal(t, 0.96, snap.Yes.Book.BestAsk)
	assert.Equal(t, "cond-a", snap.Yes.Book.Market)
	assert.Equal(t, 1, snap.Yes.BookCount)
}

func TestSampler_BatchMatchesSingle(t *testing.T) {
	m := pairMarket("A", "a-no", "a-yes")

	single := scanner.NewSampler(standardPrices(), scanner.SamplerConfig{}).Sample(context.Background(), m)
	batch := scanner.NewSampler(standardPrices(), scanner.SamplerConfig{}).SampleMany(context.Background(), []domain.Market{m})

	require.True(t, single.OK())
	require.Len(t, batch, 1)
	require.True(t, batch[0].OK())
	assert.Equal(t, single.Value, batch[0].Value)
}

func TestSampler_SampleMany_AlignedWithInput(t *testing.T) {
	markets := []domain.Market{
		pairMarket("B", "b-no", "b-yes"),
		pairMarket("NOTOKENS", "", ""),
		pairMarket("A", "a-no", "a-yes"),
	}
	prices := standardPrices()

	res := scanner.NewSampler(prices, scanner.SamplerConfig{MaxConcurrentMarkets: 2}).SampleMany(context.Background(), markets)

	require.Len(t, res, 3)
	require.True(t, res[0].OK())
	assert.Equal(t, "B", res[0].Value.MarketID)
	assert.Equal(t, domain.FetchUnavailable, res[1].Status)
	require.True(t, res[2].OK())
	assert.Equal(t, "A", res[2].Value.MarketID)
	// 2 mercados × 2 outcomes × 4 lecturas; el mercado sin tokens no llama a la red
	assert.Equal(t, 16, prices.calls())
}

func TestSampler_SampleMany_FallsBackToSequential(t *testing.T) {
	prices := standardPrices()
	prices.failFirst["a-yes"] = true

	res := scanner.NewSampler(prices, scanner.SamplerConfig{}).SampleMany(context.Background(),
		[]domain.Market{pairMarket("A", "a-no", "a-yes")})

	require.Len(t, res, 1)
	require.True(t, res[0].OK(), "fallback should recover: %v", res[0].Err)
	assert.Equal(t, 0.95, res[0].Value.Yes.Mid)
	assert.Equal(t, 2, prices.midCalls["a-yes"])
}

func TestSampler_SampleMany_IsolatesFailures(t *testing.T) {
	prices := standardPrices()
	prices.failAlways["b-no"] = true

	res := scanner.NewSampler(prices, scanner.SamplerConfig{}).SampleMany(context.Background(), []domain.Market{
		pairMarket("A", "a-no", "a-yes"),
		pairMarket("B", "b-no", "b-yes"),
	})

	require.Len(t, res, 2)
	assert.True(t, res[0].OK())
	assert.Equal(t, domain.FetchUnavailable, res[1].Status)
	assert.ErrorIs(t, res[1].Err, errUpstream)
}

func TestSampler_SwappedTokensFollowFixedOrder(t *testing.T) {
	// índice 0 es siempre NO aunque su precio parezca el de un YES
	m := pairMarket("A", "a-yes", "a-no")

	res := scanner.NewSampler(standardPrices(), scanner.SamplerConfig{}).Sample(context.Background(), m)

	require.True(t, res.OK())
	assert.Equal(t, "a-no", res.Value.Yes.TokenID)
	assert.Equal(t, 0.05, res.Value.Yes.Mid)
	assert.Equal(t, "a-yes", res.Value.No.TokenID)
	assert.Equal(t, 0.95, res.Value.No.Mid)
}
