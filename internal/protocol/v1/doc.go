// Package v1 is the first revision of the workforce protocol.
//
// User ids are signed 32-bit. Requests form a two-level union: a UserScope or
// AdminScope wrapper holding the operation. Login answers with the token and
// the caller's id, revenue records name their day, salaries carry a total and
// the amount already paid, and errors include UserExist and a detailed Unknown.
//
// The package shares no types with v2. A frame produced here only decodes
// under v2 when both revisions declare the same empty shape under the same tag
// (PasswordChanged, PasswordReset, Acknowledged, LoginFailed, Forbidden,
// UnknownToken).
package v1
