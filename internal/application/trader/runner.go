package trader

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/application/scanner"
	"github.com/alejandrodnm/polyexpiry/internal/domain"
	"github.com/alejandrodnm/polyexpiry/internal/ports"
)

// RunnerConfig contiene la configuración del loop.
type RunnerConfig struct {
	Interval time.Duration
	Once     bool // un solo ciclo y salir
}

// Runner ejecuta ciclos de forma periódica y publica cada reporte.
type Runner struct {
	cfg      RunnerConfig
	cycle    *Cycle
	window   scanner.Window
	store    ports.CycleStore // opcional
	notifier ports.Notifier
}

// NewRunner crea un Runner. store puede ser nil.
func NewRunner(cfg RunnerConfig, cycle *Cycle, window scanner.Window, store ports.CycleStore, notifier ports.Notifier) *Runner {
	return &Runner{
		cfg:      cfg,
		cycle:    cycle,
		window:   window,
		store:    store,
		notifier: notifier,
	}
}

// Run ejecuta un ciclo inmediatamente y después uno por intervalo hasta que
// el contexto se cancele. Un ciclo en curso siempre termina antes de salir.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("trader starting",
		"interval", r.cfg.Interval,
		"window", r.window.String(),
		"once", r.cfg.Once,
	)

	r.RunOnce(ctx)
	if r.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("trader stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta un ciclo, lo notifica y lo persiste.
func (r *Runner) RunOnce(ctx context.Context) domain.CycleReport {
	report := r.cycle.Run(ctx, r.window)

	// el reporte se publica aunque el ciclo se haya interrumpido
	publishCtx := context.WithoutCancel(ctx)
	if err := r.notifier.Notify(publishCtx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if r.store != nil {
		if err := r.store.SaveCycle(publishCtx, report); err != nil {
			slog.Warn("storage error", "err", err)
		} else if st, err := r.store.Stats(publishCtx); err == nil {
			slog.Debug("run stats",
				"cycles", st.Cycles,
				"executions", st.Executions,
				"successes", st.Successes,
				"failures", st.Failures,
				"last_success", st.LastSuccess,
				"last_failure", st.LastFailure,
			)
		}
	}

	counts := report.Counts()
	slog.Info("trade cycle complete",
		"cycle", report.ID,
		"catalog", report.CatalogSize,
		"candidates", report.Candidates,
		"buy_yes", counts.BuyYes,
		"buy_no", counts.BuyNo,
		"hold", counts.Hold,
		"executed", report.Executed,
		"max_trades", report.MaxTrades,
		"diagnostics", len(report.Diagnostics),
		"duration", report.Duration().Round(time.Millisecond),
	)
	for _, d := range report.Diagnostics {
		slog.Debug("cycle diagnostic", "cycle", report.ID, "detail", d)
	}
	return report
}
