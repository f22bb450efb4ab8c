// Package cache holds resolved Claims per session key so navigation does
// not re-validate the credential on every request.
//
// The lifecycle per key is: empty -> resolving -> fresh -> (refresh window)
// -> fresh -> ... -> invalidated. Resolution failures are never cached, a
// refresh failure keeps the previous entry, and concurrent resolutions for
// one key collapse into a single flight.
package cache
