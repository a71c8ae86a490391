package mirror

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/innerhippy/glman/internal/execshell"
)

const (
	remotePathSeparatorConstant    = ":"
	fusermountUnmountFlagConstant  = "-u"
	missingExecutorMessageConstant = "shell executor is required"
	mountDirectoryPatternConstant  = "glman-mirror-*"
)

// CommandExecutor runs the external commands required by the migration.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteSSHFS(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteFusermount(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// IsRemotePath reports whether the legacy path names a repository on a remote
// SSH host. A host separator anywhere in the path marks it remote.
func IsRemotePath(legacyPath string) bool {
	return strings.Contains(legacyPath, remotePathSeparatorConstant)
}

// Mounter provides scoped access to legacy repository paths.
type Mounter struct {
	executor CommandExecutor
}

// NewMounter builds a Mounter over the provided executor.
func NewMounter(executor CommandExecutor) (*Mounter, error) {
	if executor == nil {
		return nil, errors.New(missingExecutorMessageConstant)
	}
	return &Mounter{executor: executor}, nil
}

// WithMountedPath runs the action against a local path for the legacy
// repository. A remote path is mounted into a temporary directory first and
// the mount is released on every exit path, action error included. A local
// path is passed through without mounting.
func (mounter *Mounter) WithMountedPath(executionContext context.Context, legacyPath string, action func(localPath string) error) error {
	if !IsRemotePath(legacyPath) {
		return action(legacyPath)
	}

	mountDirectory, temporaryDirectoryError := os.MkdirTemp("", mountDirectoryPatternConstant)
	if temporaryDirectoryError != nil {
		return temporaryDirectoryError
	}

	_, mountError := mounter.executor.ExecuteSSHFS(executionContext, execshell.CommandDetails{
		Arguments: []string{legacyPath, mountDirectory},
	})
	if mountError != nil {
		os.Remove(mountDirectory)
		return mountError
	}

	actionError := action(mountDirectory)

	_, unmountError := mounter.executor.ExecuteFusermount(executionContext, execshell.CommandDetails{
		Arguments: []string{fusermountUnmountFlagConstant, mountDirectory},
	})
	removeError := os.Remove(mountDirectory)

	if actionError != nil {
		return actionError
	}
	if unmountError != nil {
		return unmountError
	}
	return removeError
}
