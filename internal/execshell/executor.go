package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandRunnerMissingMessageConstant   = "command runner not configured"
	commandNameMissingMessageConstant     = "command name not provided"
	commandFailureTemplateConstant        = "%s exited with code %d%s"
	commandFailureStderrSuffixTemplate    = ": %s"
	loggerCommandFieldNameConstant        = "command"
	loggerArgumentsFieldNameConstant      = "arguments"
	loggerWorkingDirectoryFieldName       = "working_directory"
	loggerExitCodeFieldNameConstant       = "exit_code"
	commandExecutionFailureTemplateSuffix = "command execution failed"
)

// CommandName identifies an external tool the executor is allowed to launch.
type CommandName string

// External tools invoked by glman.
const (
	CommandGit        CommandName = "git"
	CommandSSHFS      CommandName = "sshfs"
	CommandFusermount CommandName = "fusermount"
)

// CommandDetails describes the invocation parameters for a shell command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs a tool name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes a shell command and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the failed command with its exit code and captured stderr.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(commandFailureStderrSuffixTemplate, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailureTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardErrorSuffix)
}

var (
	errCommandRunnerMissing = errors.New(commandRunnerMissingMessageConstant)
	errCommandNameMissing   = errors.New(commandNameMissingMessageConstant)
)

// ShellExecutor runs external tools while notifying an observer about command lifecycles.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor backed by the provided runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observer CommandEventObserver) (*ShellExecutor, error) {
	if runner == nil {
		return nil, errCommandRunnerMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	return &ShellExecutor{logger: logger, runner: runner, observer: observer}, nil
}

// ExecuteGit runs the git binary with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteSSHFS runs the sshfs binary with the supplied details.
func (executor *ShellExecutor) ExecuteSSHFS(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandSSHFS, Details: details})
}

// ExecuteFusermount runs the fusermount binary with the supplied details.
func (executor *ShellExecutor) ExecuteFusermount(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandFusermount, Details: details})
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(string(command.Name))) == 0 {
		return ExecutionResult{}, errCommandNameMissing
	}

	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.observer.CommandExecutionFailed(command, runError)
		executor.logger.Debug(
			commandExecutionFailureTemplateSuffix,
			zap.String(loggerCommandFieldNameConstant, string(command.Name)),
			zap.Strings(loggerArgumentsFieldNameConstant, command.Details.Arguments),
			zap.String(loggerWorkingDirectoryFieldName, command.Details.WorkingDirectory),
			zap.Error(runError),
		)
		return ExecutionResult{}, runError
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			commandExecutionFailureTemplateSuffix,
			zap.String(loggerCommandFieldNameConstant, string(command.Name)),
			zap.Strings(loggerArgumentsFieldNameConstant, command.Details.Arguments),
			zap.Int(loggerExitCodeFieldNameConstant, executionResult.ExitCode),
		)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}
