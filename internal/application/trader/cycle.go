package trader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/domain/strategy"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// CycleConfig controls what a cycle is allowed to do with its opportunities.
type CycleConfig struct {
	MaxTrades  int  // successful trades per cycle; <= 0 disables execution
	MaxRetries int  // extra submissions after a "no match"
	AutoTrade  bool // false = analysis only
	TestOnly   bool // run every check but fabricate the fill
}

// Cycle runs one scan → classify → execute pass.
type Cycle struct {
	cfg        CycleConfig
	repo       *scanner.Repository
	sampler    *scanner.Sampler
	classifier strategy.Classifier
	executor   *Executor
	balance    ports.BalanceOracle // optional
	wallet     string
	now        func() time.Time
}

// NewCycle wires a Cycle. balance may be nil, in which case no balance gate runs.
func NewCycle(
	cfg CycleConfig,
	repo *scanner.Repository,
	sampler *scanner.Sampler,
	classifier strategy.Classifier,
	executor *Executor,
	balance ports.BalanceOracle,
	wallet string,
) *Cycle {
	return &Cycle{
		cfg:        cfg,
		repo:       repo,
		sampler:    sampler,
		classifier: classifier,
		executor:   executor,
		balance:    balance,
		wallet:     wallet,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock used to compute remaining time.
func (c *Cycle) SetClock(now func() time.Time) {
	c.now = now
}

// Run executes one full pass over the markets selected by window.
// It never returns an error: an unavailable catalog or missing prices show up
// as diagnostics in the report.
func (c *Cycle) Run(ctx context.Context, window scanner.Window) domain.CycleReport {
	report := domain.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: c.now().UTC(),
		Window:    window.String(),
		MaxTrades: c.cfg.MaxTrades,
		TestOnly:  c.cfg.TestOnly,
		AutoTrade: c.cfg.AutoTrade,
	}

	catalog := c.repo.FetchOpenMarkets(ctx)
	report.CatalogSize = len(catalog.Markets)
	report.Diagnostics = append(report.Diagnostics, catalog.Diagnostics...)

	candidates := window.Apply(scanner.AttachRemainingTime(catalog.Markets, c.now()))
	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		slog.Info("no markets in window", "window", report.Window, "catalog", report.CatalogSize)
		report.FinishedAt = c.now().UTC()
		return report
	}

	report.Evaluated = c.evaluate(ctx, candidates, &report)
	c.trade(ctx, &report)

	report.FinishedAt = c.now().UTC()
	return report
}

// evaluate samples prices for every candidate and classifies them, soonest to
// expire first.
func (c *Cycle) evaluate(ctx context.Context, candidates []domain.TimedMarket, report *domain.CycleReport) []domain.Opportunity {
	markets := make([]domain.Market, len(candidates))
	for i, tm := range candidates {
		markets[i] = tm.Market
	}
	snaps := c.sampler.SampleMany(ctx, markets)

	opps := make([]domain.Opportunity, len(candidates))
	for i, tm := range candidates {
		var snap *domain.PriceSnapshot
		if snaps[i].OK() {
			s := snaps[i].Value
			snap = &s
		} else {
			report.Diagnostics = append(report.Diagnostics,
				fmt.Sprintf("market %s (%s): price data unavailable: %s", tm.Market.ID, tm.Market.Ticker, snaps[i].ErrString()))
		}
		opps[i] = c.classifier.Classify(tm.Market, tm.Remaining, snap)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].TimeRemaining < opps[j].TimeRemaining
	})
	return opps
}

// trade walks the ranked opportunities one at a time until the cap is reached.
func (c *Cycle) trade(ctx context.Context, report *domain.CycleReport) {
	if !c.cfg.AutoTrade {
		slog.Info("auto trade disabled, analysis only")
		return
	}

	for _, opp := range report.Evaluated {
		if !opp.Tradable() {
			continue
		}
		if report.Executed >= c.cfg.MaxTrades {
			break
		}
		if err := ctx.Err(); err != nil {
			report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("cycle interrupted before next trade: %v", err))
			break
		}

		attempt, ok := c.attempt(ctx, opp, report)
		if !ok {
			continue
		}
		report.Attempts = append(report.Attempts, attempt)
		if attempt.Succeeded() {
			report.Executed++
		}
	}
}

// attempt runs the balance gate and then either submits the order or, in
// test-only mode, records a simulated fill.
func (c *Cycle) attempt(ctx context.Context, opp domain.Opportunity, report *domain.CycleReport) (domain.TradeAttempt, bool) {
	attempt, err := c.executor.Prepare(opp)
	if err != nil {
		slog.Warn("cannot prepare trade", "market", opp.Market.ID, "err", err)
		report.Diagnostics = append(report.Diagnostics, err.Error())
		return domain.TradeAttempt{}, false
	}

	if c.balance != nil {
		balance, err := c.balance.USDCBalance(ctx, c.wallet)
		switch {
		case err != nil:
			slog.Warn("balance lookup failed", "wallet", c.wallet, "err", err)
			report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("balance lookup failed: %v", err))
		case balance < attempt.Size:
			attempt.Outcome = domain.OutcomeFailed
			attempt.Kind = domain.FailureInsufficientBalance
			attempt.Err = fmt.Errorf("balance %.2f USDC below trade size %.2f", balance, attempt.Size)
			attempt.FinishedAt = time.Now().UTC()
			slog.Warn("skipping trade", "market", opp.Market.Ticker, "err", attempt.Err)
			return attempt, true
		}
	}

	if c.cfg.TestOnly {
		attempt.Outcome = domain.OutcomeSimulated
		attempt.FinishedAt = time.Now().UTC()
		slog.Info("test mode: simulated trade",
			"market", opp.Market.Ticker,
			"side", attempt.Side,
			"token", attempt.TokenID,
			"size", attempt.Size,
		)
		return attempt, true
	}

	return c.executor.Submit(ctx, attempt, c.cfg.MaxRetries), true
}
