// Package gitlabapi wraps the GitLab REST client behind domain types used
// by the namespace, reconcile, and mirror services.
//
// The Client converts API payloads into small value types so callers never
// depend on the upstream library directly, and it paginates every listing
// so callers always observe complete result sets.
package gitlabapi
