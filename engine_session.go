package sitegate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SignIn resolves the credential and seeds the claims cache under a fresh
// session key, so the first navigation after authentication does not pay a
// second resolution. The returned key identifies the session to
// [Engine.Authorize] and [Engine.SignOut].
func (e *Engine) SignIn(ctx context.Context, cred string) (string, Claims, error) {
	if e == nil || e.resolver == nil {
		return "", Claims{}, ErrEngineNotReady
	}

	claims, err := e.resolver.Resolve(ctx, cred)
	if err != nil {
		e.metricInc(MetricResolveFailure)
		e.auditEmit(ctx, AuditEvent{
			EventID:   uuid.NewString(),
			Timestamp: time.Now(),
			EventType: AuditEventResolveFailure,
			IP:        clientIPFromContext(ctx),
			Allowed:   false,
			Error:     err.Error(),
		})
		return "", Claims{}, err
	}

	sessionKey := uuid.NewString()
	e.claims.Set(sessionKey, claims)

	e.metricInc(MetricSignIn)
	e.auditEmit(ctx, AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		EventType: AuditEventSignIn,
		SubjectID: claims.SubjectID,
		Role:      string(claims.Role),
		IP:        clientIPFromContext(ctx),
		Allowed:   true,
	})

	return sessionKey, claims, nil
}

// SignOut invalidates the session's cached claims. Idempotent; the next use
// of the key starts from an empty cache state.
func (e *Engine) SignOut(ctx context.Context, sessionKey string) error {
	if e == nil || e.claims == nil {
		return ErrEngineNotReady
	}
	if sessionKey == "" {
		return ErrSessionKeyEmpty
	}

	e.claims.Invalidate(sessionKey)

	e.metricInc(MetricSignOut)
	e.auditEmit(ctx, AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		EventType: AuditEventSignOut,
		IP:        clientIPFromContext(ctx),
		Allowed:   true,
	})
	return nil
}

// SessionClaims returns the cached claims for the session, resolving the
// credential on a miss. Cache hits cost no resolver call; entries nearing
// expiry are refreshed in the background while the current value is served.
func (e *Engine) SessionClaims(ctx context.Context, sessionKey, cred string) (Claims, error) {
	if e == nil || e.claims == nil {
		return Claims{}, ErrEngineNotReady
	}
	if sessionKey == "" {
		return Claims{}, ErrSessionKeyEmpty
	}

	claims, err := e.claims.GetOrResolve(ctx, sessionKey, cred)
	if err != nil {
		e.metricInc(MetricResolveFailure)
		return Claims{}, err
	}
	return claims, nil
}

// Authorize is the per-request path: cached claims resolution followed by
// policy evaluation.
func (e *Engine) Authorize(ctx context.Context, sessionKey, cred string, action Action, resource Resource) (Decision, error) {
	claims, err := e.SessionClaims(ctx, sessionKey, cred)
	if err != nil {
		return Decision{}, err
	}
	return e.Evaluate(ctx, claims, action, resource)
}
