// Package credential signs and verifies the opaque credentials presented by
// callers. A credential is a compact JWS whose payload either embeds the
// full claim set (subject, role, active flag, company) or only a subject
// reference; the identity resolver decides which resolution path applies.
//
// The signing algorithm is pinned at construction: a credential signed with
// any other algorithm is rejected regardless of header contents.
package credential
