// Package visibility maps (tier, resource type) to the set of fields a
// caller may see. The masking is deliberately binary: full figures for
// management and operational tiers, monetary fields stripped for external
// callers. No finer granularity exists, which keeps the tables from
// drifting per call site.
package visibility
