package gateway

import (
	"errors"
	"strings"
)

var (
	ErrInvalidModel      = errors.New("Invalid model specified")
	ErrMissingCredential = errors.New("API key not configured")
)

type ErrorClass string

const (
	ErrorConfig    ErrorClass = "config"
	ErrorQuota     ErrorClass = "quota"
	ErrorRate      ErrorClass = "rate"
	ErrorTransient ErrorClass = "transient"
	ErrorPermanent ErrorClass = "permanent"
)

// ClassifyError labels an upstream failure for logs. Nothing retries on it.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredential) {
		return ErrorConfig
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "resource_exhausted"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "timeout"), strings.Contains(e, "deadline"), strings.Contains(e, "unavailable"), strings.Contains(e, "503"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
