package scope

import (
	"context"
	"errors"
	"sync"

	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/role"
)

// ErrNotFound is returned by a [Directory] when no project exists for the
// given id. The engine surfaces it as not-found, never as forbidden.
var ErrNotFound = errors.New("project not found")

// ProjectFacts is the read-only ownership projection a scope decision needs.
// Facts are fetched per evaluation and never cached: assignment and
// ownership staleness is a correctness risk the claims cache must not
// absorb.
//
// AssignedSubjectIDs must already exclude inactive assignments; the
// predicate does not re-check assignment status.
type ProjectFacts struct {
	ProjectID          string
	ManagerID          string
	ClientCompanyID    string
	AssignedSubjectIDs map[string]struct{}
}

// Assigned reports whether subjectID has an active assignment.
func (f ProjectFacts) Assigned(subjectID string) bool {
	_, ok := f.AssignedSubjectIDs[subjectID]
	return ok
}

// Directory supplies ProjectFacts by primitive foreign-key lookup.
//
// Implementations must never evaluate policy themselves: only scalar IDs
// cross this boundary, so a facts lookup can never recurse back into the
// capability check that needs it.
type Directory interface {
	Project(ctx context.Context, projectID string) (ProjectFacts, error)
}

// Resolver decides whether a subject may act on a project.
type Resolver struct {
	hierarchy *role.Hierarchy
}

// NewResolver returns a Resolver backed by the frozen hierarchy.
func NewResolver(hierarchy *role.Hierarchy) *Resolver {
	return &Resolver{hierarchy: hierarchy}
}

// HasAccess evaluates the access predicates in order, short-circuiting on
// the first match: management bypass, manager-of-record, active assignment,
// then (external tier only) the client-company match. The ordering puts the
// cheapest check first; the semantics are a plain OR.
//
// An unregistered role propagates as a *role.ConfigError; it is never
// folded into a deny.
func (r *Resolver) HasAccess(claims identity.Claims, facts ProjectFacts) (bool, error) {
	tier, err := r.hierarchy.TierOf(claims.Role)
	if err != nil {
		return false, err
	}

	if tier == role.TierManagement {
		return true, nil
	}
	if claims.SubjectID != "" && claims.SubjectID == facts.ManagerID {
		return true, nil
	}
	if facts.Assigned(claims.SubjectID) {
		return true, nil
	}
	if tier == role.TierExternal {
		return claims.CompanyID != "" && claims.CompanyID == facts.ClientCompanyID, nil
	}

	return false, nil
}

// MemoryDirectory is an in-process [Directory] for examples and tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	projects map[string]ProjectFacts
}

// NewMemoryDirectory returns an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{projects: make(map[string]ProjectFacts)}
}

// Put installs or replaces the facts for a project.
func (d *MemoryDirectory) Put(facts ProjectFacts) {
	d.mu.Lock()
	d.projects[facts.ProjectID] = facts
	d.mu.Unlock()
}

// Project implements [Directory].
func (d *MemoryDirectory) Project(_ context.Context, projectID string) (ProjectFacts, error) {
	d.mu.RLock()
	facts, ok := d.projects[projectID]
	d.mu.RUnlock()

	if !ok {
		return ProjectFacts{}, ErrNotFound
	}
	return facts, nil
}
