package domain

// FetchStatus etiqueta el resultado de una lectura o de un envío.
type FetchStatus int

const (
	// FetchOK: el valor está disponible.
	FetchOK FetchStatus = iota
	// FetchUnavailable: fallo recuperable, la entidad se excluye o se reintenta.
	FetchUnavailable
	// FetchFatal: fallo terminal, no tiene sentido reintentar.
	FetchFatal
)

// String implementa fmt.Stringer.
func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchUnavailable:
		return "unavailable"
	case FetchFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FailureKind clasifica el motivo de un fallo.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureNoMatch             FailureKind = "no_match"
	FailureInsufficientBalance FailureKind = "insufficient_balance"
	FailureInvalidSignature    FailureKind = "invalid_signature"
	FailureRejected            FailureKind = "rejected"
	FailureTimeout             FailureKind = "timeout"
	FailureUnavailable         FailureKind = "unavailable"
)

// Transient devuelve true si la orden admite reintento: falta de liquidez o
// fallo de lectura antes de enviarla.
func (k FailureKind) Transient() bool {
	return k == FailureNoMatch || k == FailureUnavailable
}

// Fetch es un resultado etiquetado: los llamadores ramifican sobre Status
// en lugar de capturar errores de forma genérica.
type Fetch[T any] struct {
	Value  T
	Status FetchStatus
	Kind   FailureKind
	Err    error
}

// Ok envuelve un valor disponible.
func Ok[T any](v T) Fetch[T] {
	return Fetch[T]{Value: v, Status: FetchOK}
}

// Unavailable marca un fallo recuperable.
func Unavailable[T any](err error) Fetch[T] {
	return Fetch[T]{Status: FetchUnavailable, Kind: FailureUnavailable, Err: err}
}

// Fatal marca un fallo terminal del tipo dado.
func Fatal[T any](kind FailureKind, err error) Fetch[T] {
	return Fetch[T]{Status: FetchFatal, Kind: kind, Err: err}
}

// OK devuelve true si el valor está disponible.
func (f Fetch[T]) OK() bool {
	return f.Status == FetchOK
}

// ErrString devuelve el texto del error o "" si no hay.
func (f Fetch[T]) ErrString() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}
