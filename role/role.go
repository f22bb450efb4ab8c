package role

import (
	"fmt"
	"sync"
)

// ID identifies a role in the consolidated role model. The set is closed:
// every ID the engine will ever see must be registered in a [Hierarchy]
// before it is frozen.
type ID string

const (
	// CompanyOwner has full access to every project and every field.
	CompanyOwner ID = "company_owner"
	// OperationsDirector is the second management role; same bypass as owner.
	OperationsDirector ID = "operations_director"
	// ProjectManager is project-scoped and cost-visible.
	ProjectManager ID = "project_manager"
	// TechnicalLead is project-scoped and cost-visible.
	TechnicalLead ID = "technical_lead"
	// PurchaseManager is project-scoped and cost-visible.
	PurchaseManager ID = "purchase_manager"
	// Client is external: scoped to its own company's projects, cost-hidden.
	Client ID = "client"
)

// Tier is one of the three privilege bands the policy layer reasons about.
// All tier decisions funnel through [Hierarchy]; call sites never compare
// role strings directly.
type Tier uint8

const (
	// TierManagement bypasses project scoping entirely. The zero Tier is
	// deliberately not a valid tier.
	TierManagement Tier = iota + 1
	// TierOperational is project-scoped with full cost visibility.
	TierOperational
	// TierExternal is company-scoped with monetary fields stripped.
	TierExternal
)

func (t Tier) String() string {
	switch t {
	case TierManagement:
		return "management"
	case TierOperational:
		return "operational"
	case TierExternal:
		return "external"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t == TierManagement || t == TierOperational || t == TierExternal
}

// rank orders tiers by privilege. Higher is more privileged.
func (t Tier) rank() int {
	switch t {
	case TierManagement:
		return 3
	case TierOperational:
		return 2
	case TierExternal:
		return 1
	default:
		return 0
	}
}

// ConfigError reports a role identifier that reached the policy layer
// without a tier registration. It is a programming or configuration error:
// the caller must not translate it into an access denial.
type ConfigError struct {
	Role ID
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("role %q is not registered in the hierarchy", string(e.Role))
}

// Hierarchy maps role IDs to tiers. It is populated during initialization,
// frozen, and read-only afterwards, so tier membership is never derived from
// mutable state on the request path.
type Hierarchy struct {
	mu     sync.RWMutex
	tiers  map[ID]Tier
	frozen bool
}

// NewHierarchy returns a Hierarchy seeded with the consolidated role set.
// Deployments that need extra role IDs within an existing tier may call
// [Hierarchy.Register] before [Hierarchy.Freeze].
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		tiers: map[ID]Tier{
			CompanyOwner:       TierManagement,
			OperationsDirector: TierManagement,
			ProjectManager:     TierOperational,
			TechnicalLead:      TierOperational,
			PurchaseManager:    TierOperational,
			Client:             TierExternal,
		},
	}
}

// Register adds a role ID to the given tier. Fails once the hierarchy is
// frozen or when the ID is already registered; a role belongs to exactly
// one tier.
func (h *Hierarchy) Register(id ID, tier Tier) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen {
		return fmt.Errorf("role hierarchy frozen")
	}
	if id == "" {
		return fmt.Errorf("role id empty")
	}
	if !tier.Valid() {
		return fmt.Errorf("invalid tier %d", uint8(tier))
	}
	if _, exists := h.tiers[id]; exists {
		return fmt.Errorf("role %q already registered", string(id))
	}

	h.tiers[id] = tier
	return nil
}

// Freeze makes the hierarchy immutable. Idempotent.
func (h *Hierarchy) Freeze() {
	h.mu.Lock()
	h.frozen = true
	h.mu.Unlock()
}

// TierOf returns the tier of id, or a *ConfigError for an unregistered id.
func (h *Hierarchy) TierOf(id ID) (Tier, error) {
	h.mu.RLock()
	tier, ok := h.tiers[id]
	h.mu.RUnlock()

	if !ok {
		return 0, &ConfigError{Role: id}
	}
	return tier, nil
}

// IsManagement reports whether id belongs to the management tier.
func (h *Hierarchy) IsManagement(id ID) (bool, error) {
	tier, err := h.TierOf(id)
	if err != nil {
		return false, err
	}
	return tier == TierManagement, nil
}

// RanksAtLeast reports whether id is at least as privileged as threshold.
func (h *Hierarchy) RanksAtLeast(id ID, threshold Tier) (bool, error) {
	tier, err := h.TierOf(id)
	if err != nil {
		return false, err
	}
	return tier.rank() >= threshold.rank(), nil
}

// Known reports whether id is registered. Used by resolvers to fail fast on
// identity records carrying retired role strings.
func (h *Hierarchy) Known(id ID) bool {
	h.mu.RLock()
	_, ok := h.tiers[id]
	h.mu.RUnlock()
	return ok
}
