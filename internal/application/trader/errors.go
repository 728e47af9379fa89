package trader

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/alejandrodnm/polyexpiry/internal/domain"
)

// ClassifyOrderError maps a submission error to a FailureKind.
// Transient kinds are "no match" (no liquidity to fill the FOK order right now)
// and any failure reading the venue before the order was posted.
func ClassifyOrderError(err error) domain.FailureKind {
	if err == nil {
		return domain.FailureNone
	}
	if errors.Is(err, domain.ErrOrderNotPosted) {
		return domain.FailureUnavailable
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		// the order may have reached the book; never resend it
		return domain.FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no match"):
		return domain.FailureNoMatch
	case strings.Contains(msg, "insufficient balance"), strings.Contains(msg, "not enough balance"):
		return domain.FailureInsufficientBalance
	case strings.Contains(msg, "invalid signature"):
		return domain.FailureInvalidSignature
	default:
		return domain.FailureRejected
	}
}
