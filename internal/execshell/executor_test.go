package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/execshell"
)

type stubCommandRunner struct {
	recordedCommands []execshell.ShellCommand
	result           execshell.ExecutionResult
	failure          error
}

func (runner *stubCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	if runner.failure != nil {
		return execshell.ExecutionResult{}, runner.failure
	}
	return runner.result, nil
}

type recordingEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedResults  []execshell.ExecutionResult
	executionFailures []error
}

func (observer *recordingEventObserver) CommandStarted(command execshell.ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingEventObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	observer.completedResults = append(observer.completedResults, result)
}

func (observer *recordingEventObserver) CommandExecutionFailed(_ execshell.ShellCommand, failure error) {
	observer.executionFailures = append(observer.executionFailures, failure)
}

func TestNewShellExecutorRequiresRunner(testInstance *testing.T) {
	testInstance.Parallel()

	_, constructionError := execshell.NewShellExecutor(zap.NewNop(), nil, nil)
	require.Error(testInstance, constructionError)
}

func TestShellExecutorReturnsRunnerResult(testInstance *testing.T) {
	testInstance.Parallel()

	commandRunner := &stubCommandRunner{result: execshell.ExecutionResult{StandardOutput: "ok"}}
	eventObserver := &recordingEventObserver{}

	shellExecutor, constructionError := execshell.NewShellExecutor(zap.NewNop(), commandRunner, eventObserver)
	require.NoError(testInstance, constructionError)

	executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), execshell.CommandDetails{
		Arguments:        []string{"push", "-f", "--mirror", "git@gitlab.com:framestore/widget.git"},
		WorkingDirectory: "/tmp/legacy",
	})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "ok", executionResult.StandardOutput)
	require.Len(testInstance, commandRunner.recordedCommands, 1)
	require.Equal(testInstance, execshell.CommandGit, commandRunner.recordedCommands[0].Name)
	require.Len(testInstance, eventObserver.startedCommands, 1)
	require.Len(testInstance, eventObserver.completedResults, 1)
}

func TestShellExecutorWrapsNonZeroExit(testInstance *testing.T) {
	testInstance.Parallel()

	commandRunner := &stubCommandRunner{result: execshell.ExecutionResult{ExitCode: 1, StandardError: "mount failed"}}

	shellExecutor, constructionError := execshell.NewShellExecutor(zap.NewNop(), commandRunner, nil)
	require.NoError(testInstance, constructionError)

	executionResult, executionError := shellExecutor.ExecuteSSHFS(context.Background(), execshell.CommandDetails{
		Arguments: []string{"host:/repos/widget.git", "/tmp/mount"},
	})
	require.Error(testInstance, executionError)

	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, executionError, &commandFailure)
	require.Equal(testInstance, 1, executionResult.ExitCode)
	require.Contains(testInstance, commandFailure.Error(), "mount failed")
}

func TestShellExecutorPropagatesExecutionFailures(testInstance *testing.T) {
	testInstance.Parallel()

	launchFailure := errors.New("executable not found")
	commandRunner := &stubCommandRunner{failure: launchFailure}
	eventObserver := &recordingEventObserver{}

	shellExecutor, constructionError := execshell.NewShellExecutor(zap.NewNop(), commandRunner, eventObserver)
	require.NoError(testInstance, constructionError)

	_, executionError := shellExecutor.ExecuteFusermount(context.Background(), execshell.CommandDetails{
		Arguments: []string{"-u", "/tmp/mount"},
	})
	require.ErrorIs(testInstance, executionError, launchFailure)
	require.Len(testInstance, eventObserver.executionFailures, 1)
	require.Empty(testInstance, eventObserver.completedResults)
}
