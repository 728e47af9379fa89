package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

const (
	defaultMaxRows = 10
	titleWidth     = 40
	reasonWidth    = 60
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	table   bool
	maxRows int
}

// NewConsole crea un notificador que escribe a stdout.
// table=false imprime solo la línea de resumen y los trades.
func NewConsole(table bool, maxRows int) *Console {
	return NewConsoleWriter(os.Stdout, table, maxRows)
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, table bool, maxRows int) *Console {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Console{out: w, table: table, maxRows: maxRows}
}

// Notify imprime el reporte del ciclo.
func (c *Console) Notify(_ context.Context, r domain.CycleReport) error {
	now := r.FinishedAt
	if now.IsZero() {
		now = time.Now()
	}
	stamp := now.Local().Format("15:04:05")

	if len(r.Evaluated) == 0 {
		fmt.Fprintf(c.out, "[%s] no markets in window %s (%d open)\n", stamp, r.Window, r.CatalogSize)
		c.printDiagnostics(r)
		return nil
	}

	counts := r.Counts()
	fmt.Fprintf(c.out, "\n[%s] window %s: %d/%d markets → YES:%d NO:%d HOLD:%d\n",
		stamp, r.Window, r.Candidates, r.CatalogSize, counts.BuyYes, counts.BuyNo, counts.Hold)

	if c.table {
		c.printOpportunities(r.Evaluated)
	}
	if len(r.Attempts) > 0 {
		c.printAttempts(r.Attempts)
	}
	c.printSummary(r)
	c.printDiagnostics(r)
	return nil
}

// printOpportunities imprime las primeras maxRows oportunidades evaluadas.
func (c *Console) printOpportunities(opps []domain.Opportunity) {
	shown := opps
	if len(shown) > c.maxRows {
		shown = shown[:c.maxRows]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Left", "YES mid", "NO mid", "Spread", "Action", "Size", "Reason")
	for i, o := range shown {
		size := "-"
		if o.Tradable() {
			size = fmt.Sprintf("$%.2f", o.TradeSize)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateTitle(o.Market.Title, o.Market.Ticker, titleWidth),
			domain.FormatRemaining(o.TimeRemaining),
			priceCell(o.Snapshot, o.YesMid()),
			priceCell(o.Snapshot, o.NoMid()),
			spreadCell(o.Snapshot),
			string(o.Recommendation),
			size,
			truncate(o.Reason, reasonWidth),
		)
	}
	table.Render()

	if len(opps) > len(shown) {
		fmt.Fprintf(c.out, "  ... %d more not shown\n", len(opps)-len(shown))
	}
}

// printAttempts imprime una fila por intento de trade.
func (c *Console) printAttempts(attempts []domain.TradeAttempt) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Side", "Size", "Tries", "Outcome", "Order", "Error")
	for _, a := range attempts {
		order := "-"
		if a.Ack != nil && a.Ack.OrderID != "" {
			order = a.Ack.OrderID
		}
		errText := "-"
		if a.Err != nil {
			errText = truncate(string(a.Kind)+": "+a.ErrString(), reasonWidth)
		}
		table.Append(
			domain.TruncateTitle(a.Market.Title, a.Market.Ticker, titleWidth),
			string(a.Side),
			fmt.Sprintf("$%.2f", a.Size),
			fmt.Sprintf("%d", a.AttemptsUsed),
			string(a.Outcome),
			order,
			errText,
		)
	}
	table.Render()
}

// printSummary imprime "executed X/Y, evaluated N" y el modo del ciclo.
func (c *Console) printSummary(r domain.CycleReport) {
	mode := "live"
	switch {
	case !r.AutoTrade:
		mode = "analysis only"
	case r.TestOnly:
		mode = "test-only"
	}
	fmt.Fprintf(c.out, "  executed %d/%d, evaluated %d (%s, %s)\n",
		r.Executed, r.MaxTrades, len(r.Evaluated), mode, r.Duration().Round(time.Millisecond))
}

func (c *Console) printDiagnostics(r domain.CycleReport) {
	for _, d := range r.Diagnostics {
		fmt.Fprintf(c.out, "  ! %s\n", d)
	}
}

func priceCell(snap *domain.PriceSnapshot, v float64) string {
	if snap == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// spreadCell muestra el spread del lado YES.
func spreadCell(snap *domain.PriceSnapshot) string {
	if snap == nil || snap.Yes.Book.Spread == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", snap.Yes.Book.Spread)
}

func truncate(s string, n int) string {
	return domain.Truncate(strings.ReplaceAll(s, "\n", " "), n)
}
