package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

// StatusFor maps an engine error to the response status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tokenAuth.ErrSignInRateLimited),
		errors.Is(err, tokenAuth.ErrReissueRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, tokenAuth.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, tokenAuth.ErrInvalidRegistration),
		errors.Is(err, tokenAuth.ErrInvalidSubject):
		return http.StatusBadRequest
	case errors.Is(err, tokenAuth.ErrSocialNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, tokenAuth.ErrStoreUnavailable),
		errors.Is(err, tokenAuth.ErrDirectoryUnavailable),
		errors.Is(err, tokenAuth.ErrIdentityProviderUnavailable),
		errors.Is(err, tokenAuth.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, tokenAuth.ErrUnauthorized),
		errors.Is(err, tokenAuth.ErrInvalidCredentials),
		errors.Is(err, tokenAuth.ErrSocialIdentityRejected),
		errors.Is(err, tokenAuth.ErrRefreshTokenNotFound),
		errors.Is(err, tokenAuth.ErrInvalidRefreshToken),
		errors.Is(err, tokenAuth.ErrTokenInvalid),
		errors.Is(err, tokenAuth.ErrClaimCrypto):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", retryAfterSeconds(err))
	}
	writeStatus(w, status, strings.ToLower(http.StatusText(status)))
}

// retryAfterSeconds rounds up so clients never retry inside the window.
func retryAfterSeconds(err error) string {
	retry, ok := tokenAuth.RetryAfter(err)
	if !ok || retry <= 0 {
		return "60"
	}
	return strconv.FormatInt(int64((retry+time.Second-1)/time.Second), 10)
}
