package sitegate

import (
	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/role"
	"github.com/strukta/sitegate/visibility"
)

// Claims is re-exported so integrators only import the root package for the
// common path.
type Claims = identity.Claims

// Action distinguishes reads from writes for the purpose of field masking:
// reads are masked, writes to masked fields are denied outright.
type Action uint8

const (
	// ActionRead requests a masked view of the resource.
	ActionRead Action = iota
	// ActionWrite requests a mutation of the named fields.
	ActionWrite
)

func (a Action) String() string {
	if a == ActionWrite {
		return "write"
	}
	return "read"
}

// Resource describes the target of one protected operation.
//
// Fields lists the fields a write touches; empty means the whole record.
// It is ignored for reads.
type Resource struct {
	Type      visibility.ResourceType
	ProjectID string
	Fields    []string
}

// DenyReason explains a negative Decision.
type DenyReason uint8

const (
	// ReasonNone accompanies an allow.
	ReasonNone DenyReason = iota
	// ReasonSubjectInactive is the global override: inactive subjects are
	// denied regardless of role.
	ReasonSubjectInactive
	// ReasonOutOfScope means no scope predicate matched the project.
	ReasonOutOfScope
	// ReasonMaskedFieldWrite means the write touched a field the caller's
	// tier cannot see.
	ReasonMaskedFieldWrite
)

func (r DenyReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSubjectInactive:
		return "subject_inactive"
	case ReasonOutOfScope:
		return "out_of_scope"
	case ReasonMaskedFieldWrite:
		return "masked_field_write"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one policy evaluation. Computed per call and
// never persisted.
type Decision struct {
	Allow         bool
	VisibleFields visibility.FieldMask
	Reason        DenyReason

	// Tier is the caller's resolved tier, carried for audit enrichment.
	Tier role.Tier
}
