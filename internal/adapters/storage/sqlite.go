package storage

// sqlite.go — journal de ciclos y de intentos de trade.
//
// Estrategia:
//   - `cycles`: una fila por ciclo con los conteos del reporte.
//   - `trade_attempts`: una fila por intento (FILLED, FAILED o SIMULATED).
//     Los HOLD no se persisten, no aportan señal como histórico.
//   - Prune automático al arrancar: ciclos e intentos de más de 30 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id           TEXT PRIMARY KEY,
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME NOT NULL,
    time_window  TEXT     NOT NULL DEFAULT '',
    catalog_size INTEGER  NOT NULL DEFAULT 0,
    candidates   INTEGER  NOT NULL DEFAULT 0,
    evaluated    INTEGER  NOT NULL DEFAULT 0,
    buy_yes      INTEGER  NOT NULL DEFAULT 0,
    buy_no       INTEGER  NOT NULL DEFAULT 0,
    hold         INTEGER  NOT NULL DEFAULT 0,
    executed     INTEGER  NOT NULL DEFAULT 0,
    max_trades   INTEGER  NOT NULL DEFAULT 0,
    test_only    INTEGER  NOT NULL DEFAULT 0,
    diagnostics  TEXT     NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trade_attempts (
    id            TEXT PRIMARY KEY,
    cycle_id      TEXT     NOT NULL REFERENCES cycles(id),
    market_id     TEXT     NOT NULL,
    ticker        TEXT,
    title         TEXT,
    side          TEXT     NOT NULL,
    token_id      TEXT     NOT NULL,
    size          REAL     NOT NULL DEFAULT 0,
    slippage      REAL     NOT NULL DEFAULT 0,
    attempts_used INTEGER  NOT NULL DEFAULT 0,
    outcome       TEXT     NOT NULL,
    failure_kind  TEXT     NOT NULL DEFAULT '',
    order_id      TEXT     NOT NULL DEFAULT '',
    error         TEXT     NOT NULL DEFAULT '',
    started_at    DATETIME NOT NULL,
    finished_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_at       ON cycles(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_cycle  ON trade_attempts(cycle_id);
CREATE INDEX IF NOT EXISTS idx_attempts_finish ON trade_attempts(finished_at DESC);
`

const retention = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.CycleStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen del ciclo y sus intentos en una transacción.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, report domain.CycleReport) error {
	if report.ID == "" {
		return fmt.Errorf("storage.SaveCycle: report without id")
	}
	counts := report.Counts()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cycles
			(id, started_at, finished_at, time_window, catalog_size, candidates, evaluated,
			 buy_yes, buy_no, hold, executed, max_trades, test_only, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.StartedAt.UTC(),
		report.FinishedAt.UTC(),
		report.Window,
		report.CatalogSize,
		report.Candidates,
		len(report.Evaluated),
		counts.BuyYes,
		counts.BuyNo,
		counts.Hold,
		report.Executed,
		report.MaxTrades,
		boolInt(report.TestOnly),
		strings.Join(report.Diagnostics, "\n"),
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	if len(report.Attempts) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trade_attempts
				(id, cycle_id, market_id, ticker, title, side, token_id, size, slippage,
				 attempts_used, outcome, failure_kind, order_id, error, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveCycle: prepare: %w", err)
		}
		defer stmt.Close()

		for _, a := range report.Attempts {
			var orderID string
			if a.Ack != nil {
				orderID = a.Ack.OrderID
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID,
				report.ID,
				a.Market.ID,
				a.Market.Ticker,
				a.Market.Title,
				string(a.Side),
				a.TokenID,
				a.Size,
				a.Slippage,
				a.AttemptsUsed,
				string(a.Outcome),
				string(a.Kind),
				orderID,
				a.ErrString(),
				a.StartedAt.UTC(),
				a.FinishedAt.UTC(),
			); err != nil {
				return fmt.Errorf("storage.SaveCycle: insert attempt %s: %w", a.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// Stats devuelve las estadísticas acumuladas de todos los ciclos guardados.
// Los intentos simulados cuentan como ejecuciones pero no como éxitos.
func (s *SQLiteStorage) Stats(ctx context.Context) (domain.RunStats, error) {
	var st domain.RunStats

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&st.Cycles); err != nil {
		return st, fmt.Errorf("storage.Stats: count cycles: %w", err)
	}

	var successes, failures sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		FROM trade_attempts`,
		string(domain.OutcomeFilled), string(domain.OutcomeFailed),
	).Scan(&st.Executions, &successes, &failures); err != nil {
		return st, fmt.Errorf("storage.Stats: count attempts: %w", err)
	}
	st.Successes = int(successes.Int64)
	st.Failures = int(failures.Int64)

	var err error
	if st.LastSuccess, err = s.lastFinished(ctx, domain.OutcomeFilled); err != nil {
		return st, err
	}
	if st.LastFailure, err = s.lastFinished(ctx, domain.OutcomeFailed); err != nil {
		return st, err
	}
	return st, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// lastFinished devuelve el finished_at más reciente con el outcome dado,
// o time.Time{} si no hay ninguno.
func (s *SQLiteStorage) lastFinished(ctx context.Context, outcome domain.AttemptOutcome) (time.Time, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT finished_at FROM trade_attempts WHERE outcome = ? ORDER BY finished_at DESC LIMIT 1`,
		string(outcome),
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("storage.Stats: last %s: %w", outcome, err)
	}
	return last.UTC(), nil
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	s.db.ExecContext(ctx, `DELETE FROM trade_attempts WHERE finished_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, cutoff)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
