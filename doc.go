// Package sitegate is the authorization engine of a construction
// project-management platform: role-based access decisions, monetary field
// masking, client project scoping, and a claims cache with single-flight
// resolution and background refresh.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], and the decision value types; the independent components live
// in the role, credential, identity, visibility, scope, and cache
// subpackages and are composed by [Builder.Build].
//
// # Architecture boundaries
//
//   - Claims are threaded explicitly through every call. Nothing reads
//     identity from ambient state, so the tier of an evaluation is always
//     unambiguous and independently testable.
//   - The project directory receives scalar IDs only, never Claims or
//     Decisions. Facts lookups therefore cannot recurse into the policy
//     check that needs them.
//   - Credential issuance and rotation are the transport collaborator's
//     concern; the engine consumes credentials, it never mints them on the
//     request path.
//
// # Failure posture
//
// Fail closed, loudly. Unauthenticated and not-found conditions surface as
// errors, denials as a Decision with a reason, and configuration bugs as
// *PolicyEvaluationError that no layer converts into a quiet deny.
package sitegate
