package tokenAuth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventSignInSuccess      = "sign_in_success"
	auditEventSignInFailure      = "sign_in_failure"
	auditEventSignInRateLimited  = "sign_in_rate_limited"
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventReissueSuccess     = "reissue_success"
	auditEventReissueInvalid     = "reissue_invalid"
	auditEventReissueRateLimited = "reissue_rate_limited"
	auditEventSignOut            = "sign_out"
	auditEventRevokedTokenUsed   = "revoked_token_used"
)

// AuditErrorCode is the stable error label written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrUnauthorized        AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrInvalidRefreshToken AuditErrorCode = "invalid_refresh_token"
	auditErrInvalidSubject      AuditErrorCode = "invalid_subject"
	auditErrDuplicate           AuditErrorCode = "duplicate"
	auditErrUnavailable         AuditErrorCode = "backend_unavailable"
	auditErrSocialRejected      AuditErrorCode = "social_identity_rejected"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		Subject:   subject,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func reasonMetadata(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSignInRateLimited),
		errors.Is(err, ErrReissueRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRefreshTokenNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrInvalidRefreshToken):
		return auditErrInvalidRefreshToken
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrClaimCrypto):
		return auditErrInvalidToken
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidSubject),
		errors.Is(err, ErrInvalidRegistration):
		return auditErrInvalidSubject
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrSocialIdentityRejected):
		return auditErrSocialRejected
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrDirectoryUnavailable),
		errors.Is(err, ErrIdentityProviderUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
