package sitegate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strukta/sitegate/cache"
	"github.com/strukta/sitegate/credential"
	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/role"
	"github.com/strukta/sitegate/scope"
	"github.com/strukta/sitegate/visibility"
)

// Engine is the policy evaluation entry point for every protected
// operation. Safe for concurrent use after [Builder.Build].
type Engine struct {
	config      Config
	hierarchy   *role.Hierarchy
	credentials *credential.Manager
	resolver    *identity.Resolver
	scopes      *scope.Resolver
	directory   scope.Directory
	claims      *cache.Store
	audit       *auditDispatcher
	metrics     *Metrics
	logger      *zap.Logger
}

// Close flushes the audit dispatcher. The engine must not be used after.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// CacheStats copies the claims-cache counters.
func (e *Engine) CacheStats() cache.Stats {
	if e == nil || e.claims == nil {
		return cache.Stats{}
	}
	return e.claims.Stats()
}

// Evaluate decides whether claims may perform action on resource, and which
// fields the caller may see. Called once per protected operation.
//
// The inactive check runs first and is the single global override: an
// inactive subject is denied regardless of role. Role and resource-type
// configuration bugs surface as *PolicyEvaluationError; a missing project
// surfaces as [ErrProjectNotFound]. Denials are a Decision, not an error.
func (e *Engine) Evaluate(ctx context.Context, claims Claims, action Action, resource Resource) (Decision, error) {
	if e == nil || e.directory == nil {
		return Decision{}, ErrEngineNotReady
	}

	if !claims.IsActive {
		decision := Decision{Allow: false, Reason: ReasonSubjectInactive}
		e.recordDecision(ctx, claims, action, resource, decision)
		return decision, nil
	}

	tier, err := e.hierarchy.TierOf(claims.Role)
	if err != nil {
		e.metricInc(MetricEvaluationError)
		return Decision{}, &PolicyEvaluationError{Op: "tier_of", Err: err}
	}

	facts, err := e.directory.Project(ctx, resource.ProjectID)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			e.metricInc(MetricProjectNotFound)
			return Decision{}, fmt.Errorf("project %s: %w", resource.ProjectID, ErrProjectNotFound)
		}
		return Decision{}, fmt.Errorf("project facts for %s: %w", resource.ProjectID, err)
	}

	allowed, err := e.scopes.HasAccess(claims, facts)
	if err != nil {
		e.metricInc(MetricEvaluationError)
		return Decision{}, &PolicyEvaluationError{Op: "has_access", Err: err}
	}
	if !allowed {
		decision := Decision{Allow: false, Reason: ReasonOutOfScope, Tier: tier}
		e.recordDecision(ctx, claims, action, resource, decision)
		return decision, nil
	}

	mask, ok := visibility.MaskFor(tier, resource.Type)
	if !ok {
		e.metricInc(MetricEvaluationError)
		return Decision{}, &PolicyEvaluationError{
			Op:  "mask_for",
			Err: fmt.Errorf("no field table for resource type %q", resource.Type),
		}
	}

	if action == ActionWrite {
		if denied := writeTouchesMaskedField(tier, resource, mask); denied {
			decision := Decision{Allow: false, Reason: ReasonMaskedFieldWrite, Tier: tier}
			e.recordDecision(ctx, claims, action, resource, decision)
			return decision, nil
		}
	}

	decision := Decision{Allow: true, VisibleFields: mask, Reason: ReasonNone, Tier: tier}
	e.recordDecision(ctx, claims, action, resource, decision)
	return decision, nil
}

// writeTouchesMaskedField implements the write rule: a write to a field the
// caller cannot see is denied outright, never silently dropped. A write
// with no field list touches the whole record, so it needs the full set.
func writeTouchesMaskedField(tier role.Tier, resource Resource, mask visibility.FieldMask) bool {
	if len(resource.Fields) == 0 {
		return tier == role.TierExternal && visibility.CostBearing(resource.Type)
	}
	for _, f := range resource.Fields {
		if !mask.Has(f) {
			return true
		}
	}
	return false
}

func (e *Engine) recordDecision(ctx context.Context, claims Claims, action Action, resource Resource, decision Decision) {
	if decision.Allow {
		e.metricInc(MetricDecisionAllowed)
	} else {
		e.metricInc(MetricDecisionDenied)
	}

	e.auditEmit(ctx, AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		EventType: AuditEventDecision,
		SubjectID: claims.SubjectID,
		Role:      string(claims.Role),
		ProjectID: resource.ProjectID,
		Resource:  string(resource.Type),
		Action:    action.String(),
		IP:        clientIPFromContext(ctx),
		Allowed:   decision.Allow,
		Reason:    decision.Reason.String(),
	})
}

func (e *Engine) auditEmit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
