package visibility

import (
	"testing"

	"github.com/strukta/sitegate/role"
)

var costBearingTypes = []ResourceType{
	ScopeLineItem, Estimate, PurchaseOrder, Invoice, ChangeOrder, ProjectSummary,
}

func TestExternalTierNeverSeesCostFields(t *testing.T) {
	for _, rt := range costBearingTypes {
		mask, ok := MaskFor(role.TierExternal, rt)
		if !ok {
			t.Fatalf("MaskFor(external, %s) unknown type", rt)
		}
		for _, f := range CostFields {
			if mask.Has(f) {
				t.Fatalf("external mask for %s includes %s", rt, f)
			}
		}
		if len(mask) == 0 {
			t.Fatalf("external mask for %s is empty", rt)
		}
	}
}

func TestInternalTiersSeeCostFields(t *testing.T) {
	for _, tier := range []role.Tier{role.TierManagement, role.TierOperational} {
		for _, rt := range costBearingTypes {
			mask, ok := MaskFor(tier, rt)
			if !ok {
				t.Fatalf("MaskFor(%s, %s) unknown type", tier, rt)
			}
			seesCost := false
			for _, f := range CostFields {
				if mask.Has(f) {
					seesCost = true
					break
				}
			}
			if !seesCost {
				t.Fatalf("%s mask for %s carries no cost field", tier, rt)
			}
		}
	}
}

func TestMaskForUnknownType(t *testing.T) {
	if _, ok := MaskFor(role.TierManagement, "timesheet"); ok {
		t.Fatal("unknown resource type must not produce a mask")
	}
	if Known("timesheet") {
		t.Fatal("Known must reject unlisted types")
	}
}

func TestDocumentHasNoCostFields(t *testing.T) {
	if CostBearing(Document) {
		t.Fatal("documents carry no monetary fields")
	}

	internal, _ := MaskFor(role.TierOperational, Document)
	external, _ := MaskFor(role.TierExternal, Document)
	if len(internal) != len(external) {
		t.Fatalf("document masks differ: %v vs %v", internal.Fields(), external.Fields())
	}
}

func TestApplyStripsFields(t *testing.T) {
	mask, _ := MaskFor(role.TierExternal, ScopeLineItem)

	record := map[string]any{
		"id":          "sli-1",
		"project_id":  "p-1",
		"description": "foundation works",
		"unit_price":  120.0,
		"total_price": 2400.0,
		"margin":      0.18,
	}

	out := mask.Apply(record)
	if _, ok := out["unit_price"]; ok {
		t.Fatal("unit_price survived external masking")
	}
	if _, ok := out["margin"]; ok {
		t.Fatal("margin survived external masking")
	}
	if out["description"] != "foundation works" {
		t.Fatal("visible field dropped")
	}
	if record["unit_price"] != 120.0 {
		t.Fatal("Apply must not mutate its input")
	}
}

func TestMaskIsACopy(t *testing.T) {
	a, _ := MaskFor(role.TierManagement, Invoice)
	delete(a, "total_price")

	b, _ := MaskFor(role.TierManagement, Invoice)
	if !b.Has("total_price") {
		t.Fatal("masks must be independent copies")
	}
}
