package scanner

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// WindowMode indica cómo se seleccionan los mercados por tiempo restante.
type WindowMode int

const (
	// ModeHorizon: remaining <= horizon.
	ModeHorizon WindowMode = iota
	// ModeRange: start <= remainingMinutes <= end.
	ModeRange
	// ModeAll: todos los mercados abiertos.
	ModeAll
)

// widenMinutes es la tolerancia aplicada cuando start == end.
const widenMinutes = 1.0

// Window selecciona mercados por tiempo restante. Es un valor inmutable.
type Window struct {
	Mode         WindowMode
	Horizon      time.Duration
	StartMinutes float64
	EndMinutes   float64
}

// HorizonWindow selecciona los mercados que cierran dentro de h.
func HorizonWindow(h time.Duration) Window {
	return Window{Mode: ModeHorizon, Horizon: h}
}

// RangeWindow selecciona los mercados con [start, end] minutos restantes.
func RangeWindow(startMinutes, endMinutes float64) Window {
	return Window{Mode: ModeRange, StartMinutes: startMinutes, EndMinutes: endMinutes}
}

// AllWindow no filtra.
func AllWindow() Window {
	return Window{Mode: ModeAll}
}

// Bounds devuelve el rango efectivo en minutos del modo rango.
// Si start == end se ensancha ±1 minuto, sin bajar de 0.
func (w Window) Bounds() (start, end float64) {
	start, end = w.StartMinutes, w.EndMinutes
	if start == end {
		start = max(0, start-widenMinutes)
		end += widenMinutes
	}
	return start, end
}

// Apply devuelve los mercados dentro de la ventana conservando el orden.
// Una lista vacía es un resultado válido.
func (w Window) Apply(markets []domain.TimedMarket) []domain.TimedMarket {
	out := make([]domain.TimedMarket, 0, len(markets))
	switch w.Mode {
	case ModeAll:
		out = append(out, markets...)
	case ModeHorizon:
		for _, m := range markets {
			if m.Remaining <= w.Horizon {
				out = append(out, m)
			}
		}
	case ModeRange:
		start, end := w.Bounds()
		for _, m := range markets {
			mins := m.Minutes()
			if start <= mins && mins <= end {
				out = append(out, m)
			}
		}
	}
	return out
}

// String implementa fmt.Stringer.
func (w Window) String() string {
	switch w.Mode {
	case ModeAll:
		return "all"
	case ModeHorizon:
		return fmt.Sprintf("within %s", w.Horizon)
	case ModeRange:
		start, end := w.Bounds()
		return fmt.Sprintf("%.1f-%.1f min", start, end)
	default:
		return "unknown"
	}
}
