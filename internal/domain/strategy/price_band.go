package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// ErrInvalidConfig se devuelve cuando la banda de precios no es coherente.
var ErrInvalidConfig = errors.New("strategy: invalid price band config")

// PriceBandConfig configura la banda de precios.
type PriceBandConfig struct {
	MinPrice                float64 // límite inferior de la banda, inclusivo
	MaxPrice                float64 // límite superior de la banda, inclusivo
	MinTimeRemainingMinutes float64
	TradeSize               float64 // USDC por trade
}

// Validate comprueba que la banda esté dentro de [0,1] y que min <= max.
func (c PriceBandConfig) Validate() error {
	if c.MinPrice < 0 || c.MaxPrice > 1 {
		return fmt.Errorf("%w: band [%.3f, %.3f] outside [0, 1]", ErrInvalidConfig, c.MinPrice, c.MaxPrice)
	}
	if c.MinPrice > c.MaxPrice {
		return fmt.Errorf("%w: min price %.3f above max price %.3f", ErrInvalidConfig, c.MinPrice, c.MaxPrice)
	}
	if c.MinTimeRemainingMinutes < 0 {
		return fmt.Errorf("%w: negative min time remaining %.1f", ErrInvalidConfig, c.MinTimeRemainingMinutes)
	}
	if c.TradeSize <= 0 {
		return fmt.Errorf("%w: trade size must be positive, got %.2f", ErrInvalidConfig, c.TradeSize)
	}
	return nil
}

// PriceBand recomienda comprar el outcome cuyo mid cae dentro de la banda
// configurada, siempre que quede tiempo suficiente hasta el cierre.
type PriceBand struct {
	cfg PriceBandConfig
}

// NewPriceBand crea la estrategia con la configuración dada.
func NewPriceBand(cfg PriceBandConfig) *PriceBand {
	return &PriceBand{cfg: cfg}
}

// Config devuelve la configuración de la banda.
func (p *PriceBand) Config() PriceBandConfig {
	return p.cfg
}

// Classify implementa Classifier.
func (p *PriceBand) Classify(market domain.Market, remaining time.Duration, snap *domain.PriceSnapshot) domain.Opportunity {
	return Classify(market, remaining, snap, p.cfg)
}

// Classify aplica la regla de banda de precios:
//
//  1. sin snapshot → HOLD
//  2. tiempo restante < mínimo → HOLD, aunque el precio sea bueno
//  3. un solo mid en banda → comprar ese lado
//  4. ambos en banda → el mid más alto, empate a favor de YES
//  5. ninguno en banda → HOLD
func Classify(market domain.Market, remaining time.Duration, snap *domain.PriceSnapshot, cfg PriceBandConfig) domain.Opportunity {
	opp := domain.Opportunity{
		Market:         market,
		TimeRemaining:  remaining,
		Snapshot:       snap,
		Recommendation: domain.Hold,
	}

	if snap == nil {
		opp.Reason = "no market data"
		return opp
	}

	minutes := remaining.Minutes()
	if minutes < cfg.MinTimeRemainingMinutes {
		opp.Reason = fmt.Sprintf("insufficient time remaining: %.1f min < %.1f min", minutes, cfg.MinTimeRemainingMinutes)
		return opp
	}

	yesMid, noMid := snap.Yes.Mid, snap.No.Mid
	yesIn := inBand(yesMid, cfg)
	noIn := inBand(noMid, cfg)
	band := fmt.Sprintf("%.3f-%.3f", cfg.MinPrice, cfg.MaxPrice)

	switch {
	case yesIn && !noIn:
		opp.Recommendation = domain.BuyYes
		opp.Reason = fmt.Sprintf("YES mid %.3f in band %s, %.1f min remaining", yesMid, band, minutes)
	case noIn && !yesIn:
		opp.Recommendation = domain.BuyNo
		opp.Reason = fmt.Sprintf("NO mid %.3f in band %s, %.1f min remaining", noMid, band, minutes)
	case yesIn && noIn:
		if yesMid >= noMid {
			opp.Recommendation = domain.BuyYes
			opp.Reason = fmt.Sprintf("YES mid %.3f and NO mid %.3f both in band %s, YES higher or equal, %.1f min remaining",
				yesMid, noMid, band, minutes)
		} else {
			opp.Recommendation = domain.BuyNo
			opp.Reason = fmt.Sprintf("YES mid %.3f and NO mid %.3f both in band %s, NO higher, %.1f min remaining",
				yesMid, noMid, band, minutes)
		}
	default:
		opp.Reason = fmt.Sprintf("YES mid %.3f and NO mid %.3f both outside band %s", yesMid, noMid, band)
		return opp
	}

	opp.TradeSize = cfg.TradeSize
	return opp
}

func inBand(mid float64, cfg PriceBandConfig) bool {
	return cfg.MinPrice <= mid && mid <= cfg.MaxPrice
}
