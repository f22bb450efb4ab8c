package visibility

import (
	"sort"

	"github.com/strukta/sitegate/role"
)

// ResourceType names a protected resource kind.
type ResourceType string

const (
	// ScopeLineItem is a line of a project's scope of work.
	ScopeLineItem ResourceType = "scope_line_item"
	// Estimate is a priced offer for a project or a part of one.
	Estimate ResourceType = "estimate"
	// PurchaseOrder is an order placed with a supplier.
	PurchaseOrder ResourceType = "purchase_order"
	// Invoice is a billing document issued for a project.
	Invoice ResourceType = "invoice"
	// ChangeOrder is an approved deviation from the contracted scope.
	ChangeOrder ResourceType = "change_order"
	// ProjectSummary is the dashboard projection of a project.
	ProjectSummary ResourceType = "project_summary"
	// Document is an uploaded file attached to a project.
	Document ResourceType = "document"
)

// CostFields are the monetary fields stripped from external-tier views.
// The order matters for no caller; keep it alphabetical.
var CostFields = []string{
	"actual_cost",
	"cost_variance",
	"margin",
	"total_price",
	"unit_price",
}

// FieldMask is the set of field names visible to a caller for one resource
// type. Derived per evaluation, never stored.
type FieldMask map[string]struct{}

// Has reports whether the field is visible.
func (m FieldMask) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Fields returns the visible field names in sorted order.
func (m FieldMask) Fields() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (m FieldMask) clone() FieldMask {
	out := make(FieldMask, len(m))
	for f := range m {
		out[f] = struct{}{}
	}
	return out
}

// Apply returns a copy of record with every non-visible field removed.
func (m FieldMask) Apply(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if m.Has(k) {
			out[k] = v
		}
	}
	return out
}

// fullFields is the complete field set per resource type. Built once at
// package init; the tables are the single source of truth for what a
// management- or operational-tier caller sees.
var fullFields = map[ResourceType][]string{
	ScopeLineItem: {
		"id", "project_id", "description", "quantity", "unit", "status",
		"unit_price", "total_price", "actual_cost", "cost_variance", "margin",
	},
	Estimate: {
		"id", "project_id", "title", "status", "valid_until",
		"total_price", "margin",
	},
	PurchaseOrder: {
		"id", "project_id", "supplier_id", "status", "ordered_on",
		"unit_price", "total_price", "actual_cost",
	},
	Invoice: {
		"id", "project_id", "number", "status", "due_on",
		"total_price",
	},
	ChangeOrder: {
		"id", "project_id", "reason", "status", "approved_by",
		"total_price", "cost_variance",
	},
	ProjectSummary: {
		"id", "name", "status", "manager_id", "client_company_id",
		"start_on", "end_on", "actual_cost", "margin",
	},
	Document: {
		"id", "project_id", "title", "category", "uploaded_by", "uploaded_at",
	},
}

var (
	fullMasks     map[ResourceType]FieldMask
	strippedMasks map[ResourceType]FieldMask
	costSet       map[string]struct{}
)

func init() {
	costSet = make(map[string]struct{}, len(CostFields))
	for _, f := range CostFields {
		costSet[f] = struct{}{}
	}

	fullMasks = make(map[ResourceType]FieldMask, len(fullFields))
	strippedMasks = make(map[ResourceType]FieldMask, len(fullFields))
	for rt, fields := range fullFields {
		full := make(FieldMask, len(fields))
		stripped := make(FieldMask, len(fields))
		for _, f := range fields {
			full[f] = struct{}{}
			if _, cost := costSet[f]; !cost {
				stripped[f] = struct{}{}
			}
		}
		fullMasks[rt] = full
		strippedMasks[rt] = stripped
	}
}

// Known reports whether rt has a field table.
func Known(rt ResourceType) bool {
	_, ok := fullMasks[rt]
	return ok
}

// CostBearing reports whether rt carries any monetary field.
func CostBearing(rt ResourceType) bool {
	full, ok := fullMasks[rt]
	if !ok {
		return false
	}
	for f := range costSet {
		if full.Has(f) {
			return true
		}
	}
	return false
}

// IsCostField reports whether field is one of the monetary fields.
func IsCostField(field string) bool {
	_, ok := costSet[field]
	return ok
}

// MaskFor returns the field mask for a tier and resource type. Management
// and operational tiers see the full set; the external tier sees the set
// with monetary fields removed. The bool is false for an unknown resource
// type; the caller decides how hard to fail.
func MaskFor(tier role.Tier, rt ResourceType) (FieldMask, bool) {
	if !tier.Valid() {
		return nil, false
	}

	var table map[ResourceType]FieldMask
	if tier == role.TierExternal {
		table = strippedMasks
	} else {
		table = fullMasks
	}

	mask, ok := table[rt]
	if !ok {
		return nil, false
	}
	return mask.clone(), true
}
