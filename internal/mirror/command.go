package mirror

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/execshell"
	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/namespace"
	"github.com/innerhippy/glman/internal/ui"
)

const (
	mirrorCommandUseConstant      = "mirror <project-path> <legacy-path>"
	mirrorCommandShortConstant    = "Mirror a legacy repository to its GitLab project"
	mirrorCommandLongConstant     = "Mirror installs a post-update hook in the legacy repository and pushes a full mirror to the GitLab project. A legacy path containing a host separator is mounted over sshfs for the duration of the migration."
	rejectCommandUseConstant      = "reject <project-path> <legacy-path>"
	rejectCommandShortConstant    = "Block further pushes to a migrated legacy repository"
	rejectCommandLongConstant     = "Reject installs a pre-receive hook in the legacy repository that refuses every push and points committers at the GitLab project URL."
	missingLoggerProviderConstant = "logger provider is required"
	missingClientProviderConstant = "client provider is required"
	pathIsGroupTemplateConstant   = "%q names a group, expected a project"
)

// ClientProvider supplies the GitLab client used to resolve the destination project.
type ClientProvider func() (namespace.Client, error)

// CommandBuilder assembles the mirror and reject cobra commands.
type CommandBuilder struct {
	LoggerProvider    func() *zap.Logger
	ClientProvider    ClientProvider
	RootGroupProvider func() string
	DryRunProvider    func() bool

	// Executor overrides the operating system command executor in tests.
	Executor CommandExecutor
}

// BuildMirrorCommand constructs the mirror cobra command.
func (builder *CommandBuilder) BuildMirrorCommand() (*cobra.Command, error) {
	return builder.buildHookCommand(mirrorCommandUseConstant, mirrorCommandShortConstant, mirrorCommandLongConstant, func(command *cobra.Command, service *Service, destinationProject gitlabapi.Project, legacyPath string) error {
		return service.InstallMirrorHook(command.Context(), destinationProject, legacyPath)
	})
}

// BuildRejectCommand constructs the reject cobra command.
func (builder *CommandBuilder) BuildRejectCommand() (*cobra.Command, error) {
	return builder.buildHookCommand(rejectCommandUseConstant, rejectCommandShortConstant, rejectCommandLongConstant, func(command *cobra.Command, service *Service, destinationProject gitlabapi.Project, legacyPath string) error {
		return service.InstallRejectHook(command.Context(), destinationProject, legacyPath)
	})
}

func (builder *CommandBuilder) buildHookCommand(useLine string, shortDescription string, longDescription string, runMigration func(*cobra.Command, *Service, gitlabapi.Project, string) error) (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, errors.New(missingLoggerProviderConstant)
	}
	if builder.ClientProvider == nil {
		return nil, errors.New(missingClientProviderConstant)
	}

	command := &cobra.Command{
		Use:   useLine,
		Short: shortDescription,
		Long:  longDescription,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			logger := builder.LoggerProvider()
			if logger == nil {
				logger = zap.NewNop()
			}

			destinationProject, resolveError := builder.resolveDestinationProject(command, arguments[0])
			if resolveError != nil {
				return resolveError
			}

			service, serviceError := builder.resolveService(logger)
			if serviceError != nil {
				return serviceError
			}
			return runMigration(command, service, destinationProject, arguments[1])
		},
	}
	return command, nil
}

func (builder *CommandBuilder) resolveDestinationProject(command *cobra.Command, projectPath string) (gitlabapi.Project, error) {
	client, clientError := builder.ClientProvider()
	if clientError != nil {
		return gitlabapi.Project{}, clientError
	}

	rootGroupName := ""
	if builder.RootGroupProvider != nil {
		rootGroupName = builder.RootGroupProvider()
	}

	resolver, resolverError := namespace.NewResolver(client, namespace.NewPathResolver(rootGroupName))
	if resolverError != nil {
		return gitlabapi.Project{}, resolverError
	}

	_, resolvedProject, parseError := resolver.ParsePath(command.Context(), projectPath)
	if parseError != nil {
		return gitlabapi.Project{}, parseError
	}
	if resolvedProject == nil {
		return gitlabapi.Project{}, fmt.Errorf(pathIsGroupTemplateConstant, projectPath)
	}
	return *resolvedProject, nil
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (*Service, error) {
	dryRun := false
	if builder.DryRunProvider != nil {
		dryRun = builder.DryRunProvider()
	}

	executor := builder.Executor
	if executor == nil {
		shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), ui.NewConsoleCommandEventLogger(logger))
		if executorError != nil {
			return nil, executorError
		}
		executor = shellExecutor
	}

	mounter, mounterError := NewMounter(executor)
	if mounterError != nil {
		return nil, mounterError
	}

	return NewService(ServiceDependencies{
		Logger:     logger,
		Executor:   executor,
		Mounter:    mounter,
		HookWriter: NewHookWriter(logger, dryRun),
		DryRun:     dryRun,
	})
}
