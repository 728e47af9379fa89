package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Posiciones del par de tokens tal como llegan en clobTokenIds de Gamma.
// El orden es fijo: nunca se deduce a partir del outcome o del precio.
const (
	NoIndex  = 0
	YesIndex = 1
)

// Market es un mercado binario abierto tomado del catálogo de eventos.
// Se crea en cada fetch y no se modifica después.
type Market struct {
	ID       string
	Ticker   string
	Title    string
	EndDate  string    // ISO-8601 tal como lo devuelve la API
	TokenIDs [2]string // [NoIndex] = NO, [YesIndex] = YES
}

// NoTokenID devuelve el token del outcome NO (índice 0).
func (m Market) NoTokenID() string {
	return m.TokenIDs[NoIndex]
}

// YesTokenID devuelve el token del outcome YES (índice 1).
func (m Market) YesTokenID() string {
	return m.TokenIDs[YesIndex]
}

// TokenFor devuelve el token que corresponde al lado dado.
func (m Market) TokenFor(side Side) (string, error) {
	switch side {
	case SideYes:
		return m.YesTokenID(), nil
	case SideNo:
		return m.NoTokenID(), nil
	default:
		return "", fmt.Errorf("domain.TokenFor: unknown side %q", side)
	}
}

// HasTokens devuelve true si ambos tokens del par están presentes.
func (m Market) HasTokens() bool {
	return m.TokenIDs[NoIndex] != "" && m.TokenIDs[YesIndex] != ""
}

// TimedMarket asocia un mercado con su tiempo restante, calculado contra
// un único "now" capturado por ciclo.
type TimedMarket struct {
	Market    Market
	EndsAt    time.Time
	Remaining time.Duration
}

// Minutes devuelve el tiempo restante en minutos (fraccional).
func (tm TimedMarket) Minutes() float64 {
	return tm.Remaining.Minutes()
}

// endDateLayouts son los formatos que usa Gamma para endDate.
var endDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseEndDate interpreta un endDate ISO-8601 y lo devuelve en UTC.
func ParseEndDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("domain.ParseEndDate: empty end date")
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("domain.ParseEndDate: unsupported format %q", s)
}

// FormatRemaining formatea un tiempo restante de forma legible:
// "2h05m" si hay horas, "4m30s" si no.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}

// TruncateTitle devuelve el título truncado a maxLen caracteres.
// Si está vacío usa el ticker como fallback.
func TruncateTitle(title, ticker string, maxLen int) string {
	if title == "" {
		title = ticker
	}
	return Truncate(title, maxLen)
}

// Truncate corta s a maxLen runas como máximo, terminando en "..." si cabe.
// Nunca parte una runa multibyte.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-len(ellipsis)]) + ellipsis
}

const ellipsis = "..."
