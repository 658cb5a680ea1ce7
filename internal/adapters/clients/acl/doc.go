// Package acl translates between the contact pipeline and its HTTP
// collaborators: reCAPTCHA verification and Jira issue creation.
//
// Wire formats stay in the adapter that speaks them. Only domain types and
// the errors below leave the package.
//
// The shared client hands back the last response whatever its status, so
// error bodies can be read here. [MapHTTPError] decides once for everyone:
// 429, 5xx, an open circuit and any transport failure become
// [domain.ErrUnavailable]; other non-2xx answers become a [*RemoteError]
// wrapping [ErrRejected]. Sinks then wrap that in a [domain.PersistenceError].
//
// Nothing here returns [domain.ErrValidation]; that is kept for mistakes in
// the submitted form.
package acl
