// Package protocol owns the wire contract shared by every schema revision.
//
// Ownership boundary:
// - frame/header primitives (frame)
// - tlv payload primitives (tlv)
// - requirement tables and field validation (schema)
// - request/response pairing over a connection (session)
// - the closed message vocabularies (v1, v2)
//
// This package itself only carries the cross-cutting vocabulary: privilege
// tiers and the malformed-message error every decoder reports.
package protocol
