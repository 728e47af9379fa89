package domain

import "time"

// CycleReport es el resultado estructurado de un ciclo scan → classify → execute.
type CycleReport struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Window      string
	CatalogSize int // mercados abiertos tras deduplicar
	Candidates  int // mercados dentro de la ventana
	Evaluated   []Opportunity
	Attempts    []TradeAttempt
	Executed    int
	MaxTrades   int
	TestOnly    bool
	AutoTrade   bool
	Diagnostics []string
}

// Counts resume las recomendaciones evaluadas.
type Counts struct {
	BuyYes int
	BuyNo  int
	Hold   int
	Failed int // intentos FAILED
}

// Counts cuenta recomendaciones e intentos fallidos del ciclo.
func (r CycleReport) Counts() Counts {
	var c Counts
	for _, o := range r.Evaluated {
		switch o.Recommendation {
		case BuyYes:
			c.BuyYes++
		case BuyNo:
			c.BuyNo++
		default:
			c.Hold++
		}
	}
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeFailed {
			c.Failed++
		}
	}
	return c
}

// Duration devuelve cuánto tardó el ciclo.
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStats son las estadísticas acumuladas de ejecución.
type RunStats struct {
	Cycles      int
	Executions  int // intentos de trade registrados
	Successes   int
	Failures    int
	LastSuccess time.Time
	LastFailure time.Time
}
