// Package role defines the closed role set and the three-tier classifier
// every policy decision funnels through.
//
// The tier of a role is fixed at initialization: a [Hierarchy] is seeded
// with the consolidated role model, optionally extended, then frozen. An
// unregistered role reaching the classifier is a configuration bug and is
// reported as a *ConfigError rather than being mapped to deny or allow.
package role
