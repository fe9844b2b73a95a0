package relayer

import (
	"fmt"
	"strings"

	sdkhttp "github.com/betbot/polyrelay/pkg/sdk/http"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/pkg/errors"
)

// Error classes. Use errors.Is to test which class an error belongs to.
var (
	ErrConfig           = errors.New("relayer: configuration error")
	ErrInvalidParameter = errors.New("relayer: invalid parameter")
	ErrSigning          = errors.New("relayer: signing error")
)

// Configuration errors detected before any network call.
var (
	ErrSignerRequired      = &ConfigError{Err: errors.New("signer is required")}
	ErrCredentialsRequired = &ConfigError{Err: errors.New("builder credentials are required")}
	ErrSafeAlreadyDeployed = &ConfigError{Err: errors.New("safe already deployed")}
	ErrSafeNotDeployed     = &ConfigError{Err: errors.New("safe not deployed")}
)

// ConfigError reports a missing or unsupported setting.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string        { return "relayer config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// SigningError wraps key, digest or HMAC failures.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string        { return "relayer signing: " + e.Err.Error() }
func (e *SigningError) Unwrap() error        { return e.Err }
func (e *SigningError) Is(target error) bool { return target == ErrSigning }

// APIError is a non-2xx response from the relayer or data API, or a 2xx
// response whose payload is unusable. Body is the upstream response text,
// unmodified.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relayer api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// QuotaExceeded reports whether the relayer rejected the call for rate limits.
func (e *APIError) QuotaExceeded() bool {
	return e.StatusCode == 429 || strings.Contains(strings.ToLower(e.Body), "quota exceeded")
}

// TransactionFailedError is returned by WaitForTransaction when the relayer
// reports STATE_FAILED or STATE_INVALID.
type TransactionFailedError struct {
	TransactionID   string
	TransactionHash string
	State           types.TransactionState
}

func (e *TransactionFailedError) Error() string {
	if e.TransactionHash != "" {
		return fmt.Sprintf("transaction %s (%s) failed: %s", e.TransactionID, e.TransactionHash, e.State)
	}
	return fmt.Sprintf("transaction %s failed: %s", e.TransactionID, e.State)
}

func invalidParam(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrInvalidParameter, format, args...)
}

// apiError converts transport status errors into *APIError and leaves
// network errors wrapped as-is.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	var se *sdkhttp.StatusError
	if errors.As(err, &se) {
		return &APIError{Method: se.Method, Path: se.Path, StatusCode: se.StatusCode, Body: se.Body}
	}
	return err
}
