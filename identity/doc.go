// Package identity resolves opaque credentials into the Claims value every
// policy decision consumes. Credentials with embedded claims resolve without
// a store round-trip; reference credentials fall back to the identity store.
package identity
