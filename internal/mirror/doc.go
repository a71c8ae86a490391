// Package mirror migrates legacy filesystem-hosted repositories to GitLab.
//
// It installs either a post-update hook that mirrors future pushes or a
// pre-receive hook that rejects them, mounting the legacy path over sshfs
// when it lives on a remote host. Existing hooks are never overwritten.
package mirror
