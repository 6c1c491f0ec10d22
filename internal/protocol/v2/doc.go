// Package v2 is the second revision of the workforce protocol.
//
// User ids are unsigned 64-bit and requests form one flat union. Compared
// with v1, Login no longer returns the caller's id, revenue is positional (one
// record per day of the month, in order), salaries are split into two
// half-month periods, UserExist is gone and Unknown carries no detail.
//
// Nothing here is shared with v1. Only the empty variants declared under the
// same tag in both revisions decode identically across them.
package v2
