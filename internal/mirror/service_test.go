package mirror_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innerhippy/glman/internal/execshell"
	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/mirror"
)

type recordedCommand struct {
	commandName execshell.CommandName
	details     execshell.CommandDetails
}

type stubCommandExecutor struct {
	recordedCommands []recordedCommand
	gitError         error
	sshfsError       error
}

func (executor *stubCommandExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, recordedCommand{commandName: execshell.CommandGit, details: details})
	if executor.gitError != nil {
		return execshell.ExecutionResult{ExitCode: 1}, executor.gitError
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *stubCommandExecutor) ExecuteSSHFS(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, recordedCommand{commandName: execshell.CommandSSHFS, details: details})
	if executor.sshfsError != nil {
		return execshell.ExecutionResult{ExitCode: 1}, executor.sshfsError
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *stubCommandExecutor) ExecuteFusermount(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, recordedCommand{commandName: execshell.CommandFusermount, details: details})
	return execshell.ExecutionResult{}, nil
}

func (executor *stubCommandExecutor) commandNames() []execshell.CommandName {
	collectedNames := []execshell.CommandName{}
	for _, recorded := range executor.recordedCommands {
		collectedNames = append(collectedNames, recorded.commandName)
	}
	return collectedNames
}

func destinationProject() gitlabapi.Project {
	return gitlabapi.Project{
		ProjectSummary: gitlabapi.ProjectSummary{ID: 7, PathWithNamespace: "Framestore/team-a/widget"},
		SSHURLToRepo:   destinationURLConstant,
		WebURL:         "https://gitlab.com/Framestore/team-a/widget",
	}
}

func newMigrationService(testInstance *testing.T, executor mirror.CommandExecutor, dryRun bool) *mirror.Service {
	testInstance.Helper()

	mounter, mounterError := mirror.NewMounter(executor)
	require.NoError(testInstance, mounterError)

	service, serviceError := mirror.NewService(mirror.ServiceDependencies{
		Executor:   executor,
		Mounter:    mounter,
		HookWriter: mirror.NewHookWriter(nil, dryRun),
		DryRun:     dryRun,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestInstallMirrorHookLocalPathPushesImmediately(testInstance *testing.T) {
	testInstance.Parallel()

	repositoryPath := newLegacyRepository(testInstance)
	executor := &stubCommandExecutor{}
	service := newMigrationService(testInstance, executor, false)

	require.NoError(testInstance, service.InstallMirrorHook(context.Background(), destinationProject(), repositoryPath))

	require.Equal(testInstance, []execshell.CommandName{execshell.CommandGit}, executor.commandNames())
	pushCommand := executor.recordedCommands[0]
	require.Equal(testInstance, []string{"push", "-f", "--mirror", destinationURLConstant}, pushCommand.details.Arguments)
	require.Equal(testInstance, repositoryPath, pushCommand.details.WorkingDirectory)
	require.FileExists(testInstance, filepath.Join(repositoryPath, "hooks", "post-update"))
}

func TestInstallMirrorHookRemotePathMountsAndReleases(testInstance *testing.T) {
	testInstance.Parallel()

	executor := &stubCommandExecutor{gitError: errors.New("push rejected")}
	service := newMigrationService(testInstance, executor, true)

	migrationError := service.InstallMirrorHook(context.Background(), destinationProject(), "githost:/repos/widget.git")
	require.NoError(testInstance, migrationError)

	commandNames := executor.commandNames()
	require.Equal(testInstance, []execshell.CommandName{execshell.CommandSSHFS, execshell.CommandFusermount}, commandNames)

	mountArguments := executor.recordedCommands[0].details.Arguments
	require.Equal(testInstance, "githost:/repos/widget.git", mountArguments[0])
	unmountArguments := executor.recordedCommands[1].details.Arguments
	require.Equal(testInstance, []string{"-u", mountArguments[1]}, unmountArguments)
	require.NoDirExists(testInstance, mountArguments[1])
}

func TestInstallMirrorHookReleasesMountOnFailure(testInstance *testing.T) {
	testInstance.Parallel()

	// The stub never mounts anything, so the hook write fails inside the
	// mounted scope; the mount must still be released.
	executor := &stubCommandExecutor{}
	service := newMigrationService(testInstance, executor, false)

	migrationError := service.InstallMirrorHook(context.Background(), destinationProject(), "githost:/repos/widget.git")
	require.Error(testInstance, migrationError)

	commandNames := executor.commandNames()
	require.Equal(testInstance, execshell.CommandSSHFS, commandNames[0])
	require.Equal(testInstance, execshell.CommandFusermount, commandNames[len(commandNames)-1])
}

func TestInstallMirrorHookMountFailureAborts(testInstance *testing.T) {
	testInstance.Parallel()

	executor := &stubCommandExecutor{sshfsError: errors.New("sshfs failed")}
	service := newMigrationService(testInstance, executor, false)

	migrationError := service.InstallMirrorHook(context.Background(), destinationProject(), "githost:/repos/widget.git")
	require.Error(testInstance, migrationError)
	require.Equal(testInstance, []execshell.CommandName{execshell.CommandSSHFS}, executor.commandNames())
}

func TestInstallRejectHookDoesNotPush(testInstance *testing.T) {
	testInstance.Parallel()

	repositoryPath := newLegacyRepository(testInstance)
	executor := &stubCommandExecutor{}
	service := newMigrationService(testInstance, executor, false)

	require.NoError(testInstance, service.InstallRejectHook(context.Background(), destinationProject(), repositoryPath))
	require.Empty(testInstance, executor.commandNames())
	require.FileExists(testInstance, filepath.Join(repositoryPath, "hooks", "pre-receive"))
}

func TestInstallMirrorHookDryRunSkipsPush(testInstance *testing.T) {
	testInstance.Parallel()

	repositoryPath := newLegacyRepository(testInstance)
	executor := &stubCommandExecutor{}
	service := newMigrationService(testInstance, executor, true)

	require.NoError(testInstance, service.InstallMirrorHook(context.Background(), destinationProject(), repositoryPath))
	require.Empty(testInstance, executor.commandNames())
	require.NoFileExists(testInstance, filepath.Join(repositoryPath, "hooks", "post-update"))
}

func TestIsRemotePath(testInstance *testing.T) {
	testInstance.Parallel()

	require.True(testInstance, mirror.IsRemotePath("githost:/repos/widget.git"))
	require.False(testInstance, mirror.IsRemotePath("/repos/widget.git"))
}
