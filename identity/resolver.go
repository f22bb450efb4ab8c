package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strukta/sitegate/credential"
	"github.com/strukta/sitegate/role"
)

// ErrInvalidCredential is returned when a credential is missing, malformed,
// or fails verification. Terminal for the current request.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrUnknownSubject is returned when the identity store holds no record for
// the credential's subject. Terminal for the current request.
var ErrUnknownSubject = errors.New("unknown subject")

// Claims is the resolved identity used as input to every access decision.
// Immutable once constructed; a refresh produces a new value, it never
// mutates an existing one.
type Claims struct {
	SubjectID string
	Role      role.ID
	CompanyID string
	IsActive  bool
	IssuedAt  time.Time
}

// Record is the identity-store projection of a subject.
type Record struct {
	Role      role.ID
	IsActive  bool
	CompanyID string
}

// Store is the secondary identity lookup consulted when a credential
// carries only a subject reference. Implementations return
// [ErrUnknownSubject] for absent subjects.
type Store interface {
	Lookup(ctx context.Context, subjectID string) (Record, error)
}

// Resolver turns an opaque credential into [Claims].
//
// The primary path uses the claim set embedded in the credential itself and
// costs no store round-trip. Embedded claims are a hint, not ground truth:
// their freshness window is bounded by the claims-cache TTL, which is why
// this layer performs no revalidation of its own. The secondary path looks
// the subject up in the identity store and stamps issued-at with the current
// time.
type Resolver struct {
	manager   *credential.Manager
	store     Store
	hierarchy *role.Hierarchy

	now func() time.Time
}

// NewResolver wires a credential manager, an identity store, and the frozen
// role hierarchy. store may be nil when every credential is known to embed
// its claims; reference credentials then fail with [ErrUnknownSubject].
func NewResolver(manager *credential.Manager, store Store, hierarchy *role.Hierarchy) (*Resolver, error) {
	if manager == nil {
		return nil, errors.New("credential manager required")
	}
	if hierarchy == nil {
		return nil, errors.New("role hierarchy required")
	}
	return &Resolver{
		manager:   manager,
		store:     store,
		hierarchy: hierarchy,
		now:       time.Now,
	}, nil
}

// Resolve validates the credential and produces Claims. Read-only: no
// retries, no store writes. Retry policy belongs to the transport layer.
func (r *Resolver) Resolve(ctx context.Context, cred string) (Claims, error) {
	parsed, err := r.manager.Parse(cred)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if parsed.Embedded() {
		if _, err := r.hierarchy.TierOf(parsed.Role); err != nil {
			return Claims{}, err
		}
		issuedAt := r.now()
		if parsed.IssuedAt != nil {
			issuedAt = parsed.IssuedAt.Time
		}
		return Claims{
			SubjectID: parsed.SubjectID,
			Role:      parsed.Role,
			CompanyID: parsed.CompanyID,
			IsActive:  *parsed.IsActive,
			IssuedAt:  issuedAt,
		}, nil
	}

	if r.store == nil {
		return Claims{}, fmt.Errorf("%w: no identity store configured", ErrUnknownSubject)
	}

	record, err := r.store.Lookup(ctx, parsed.SubjectID)
	if err != nil {
		return Claims{}, err
	}
	if _, err := r.hierarchy.TierOf(record.Role); err != nil {
		return Claims{}, err
	}

	return Claims{
		SubjectID: parsed.SubjectID,
		Role:      record.Role,
		CompanyID: record.CompanyID,
		IsActive:  record.IsActive,
		IssuedAt:  r.now(),
	}, nil
}
