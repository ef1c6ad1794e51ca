package tools

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/breaker"
)

// ClassifyCallError maps the error a Fetcher HTTP call returned to a
// breaker.Classification. Mirrors the teacher's MCP recovery classification
// (connection errors and timeouts are distinguished from protocol-level
// client errors, which never trip the breaker) adapted to plain HTTP status
// codes carried on *ToolError instead of JSON-RPC error codes.
func ClassifyCallError(err error) breaker.Classification {
	if err == nil {
		return breaker.ClassifyPermanent
	}
	if errors.Is(err, context.Canceled) {
		return breaker.ClassifyCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return breaker.ClassifyTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return breaker.ClassifyTransient
	}

	var te *ToolError
	if errors.As(err, &te) {
		switch {
		case te.StatusCode == 429:
			return breaker.ClassifyTransient
		case te.StatusCode >= 500:
			return breaker.ClassifyTransient
		case te.StatusCode >= 400:
			return breaker.ClassifyPermanent
		}
	}

	if isConnectionError(err) {
		return breaker.ClassifyTransient
	}
	return breaker.ClassifyPermanent
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "eof"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
