// Package reconcile compares live project configuration against the
// governance policy and optionally converges drift.
//
// Each policy family splits into a check operation that only reports and a
// converge operation that applies corrections. Converge honors dry-run by
// logging every intended change while suppressing the remote mutation.
package reconcile
