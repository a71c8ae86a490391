// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with lifecycle observation via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the abstractions
// glman uses to run git, sshfs, and fusermount in a testable manner.
package execshell
