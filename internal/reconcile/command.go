package reconcile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/namespace"
)

const (
	checkCommandUseConstant          = "check [path]"
	checkCommandShortConstant        = "Report policy drift for every project under a path"
	checkCommandLongConstant         = "Check walks the group hierarchy and reports branch protection, merge approval, and Slack notification drift without changing anything."
	fixCommandUseConstant            = "fix [path]"
	fixCommandShortConstant          = "Converge every project under a path onto the governance policy"
	fixCommandLongConstant           = "Fix walks the group hierarchy and corrects branch protection, merge approval settings, and Slack notifications. Dry-run logs intended changes without applying them."
	reportCommandUseConstant         = "report [path]"
	reportCommandShortConstant       = "Print a CSV activity report for every project under a path"
	createCommandUseConstant         = "create <group/project>"
	createCommandShortConstant       = "Create a project under an existing group"
	missingLoggerProviderConstant    = "logger provider is required"
	missingClientProviderConstant    = "client provider is required"
	missingConfigProviderConstant    = "configuration provider is required"
	missingCreatePathMessageConstant = "a group/project path is required"
	projectFailedTemplateConstant    = "%d project(s) failed during the pass"
	checkLineTemplateConstant        = "- [%s] %s: %s\n"
	createdProjectTemplateConstant   = "created project %s\n"
)

var reportHeaderColumns = []string{"Project path", "Description", "Created By", "Last Activity", "Branches", "Commits", "Open MRs"}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// GovernanceClient joins the namespace traversal and policy reconciliation
// surfaces of the GitLab client.
type GovernanceClient interface {
	namespace.Client
	Client
}

// ClientProvider supplies the GitLab client for command execution.
type ClientProvider func() (GovernanceClient, error)

// ConfigurationProvider supplies the reconciliation policy configuration.
type ConfigurationProvider func() (Configuration, error)

// RootGroupProvider supplies the root group name paths anchor under.
type RootGroupProvider func() string

// DryRunProvider reports whether mutations should be suppressed.
type DryRunProvider func() bool

// CommandBuilder assembles the governance cobra commands with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ClientProvider        ClientProvider
	ConfigurationProvider ConfigurationProvider
	RootGroupProvider     RootGroupProvider
	DryRunProvider        DryRunProvider
}

type commandRuntime struct {
	logger       *zap.Logger
	client       GovernanceClient
	service      *Service
	pathResolver *namespace.PathResolver
	resolver     *namespace.Resolver
	walker       *namespace.Walker
}

func (builder *CommandBuilder) validate() error {
	if builder.LoggerProvider == nil {
		return errors.New(missingLoggerProviderConstant)
	}
	if builder.ClientProvider == nil {
		return errors.New(missingClientProviderConstant)
	}
	if builder.ConfigurationProvider == nil {
		return errors.New(missingConfigProviderConstant)
	}
	return nil
}

func (builder *CommandBuilder) resolveRuntime() (*commandRuntime, error) {
	logger := builder.LoggerProvider()
	if logger == nil {
		logger = zap.NewNop()
	}

	client, clientError := builder.ClientProvider()
	if clientError != nil {
		return nil, clientError
	}

	configuration, configurationError := builder.ConfigurationProvider()
	if configurationError != nil {
		return nil, configurationError
	}

	rootGroupName := ""
	if builder.RootGroupProvider != nil {
		rootGroupName = builder.RootGroupProvider()
	}
	dryRun := false
	if builder.DryRunProvider != nil {
		dryRun = builder.DryRunProvider()
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:        logger,
		Client:        client,
		Configuration: configuration,
		DryRun:        dryRun,
	})
	if serviceError != nil {
		return nil, serviceError
	}

	pathResolver := namespace.NewPathResolver(rootGroupName)
	resolver, resolverError := namespace.NewResolver(client, pathResolver)
	if resolverError != nil {
		return nil, resolverError
	}
	walker, walkerError := namespace.NewWalker(client, resolver)
	if walkerError != nil {
		return nil, walkerError
	}

	return &commandRuntime{
		logger:       logger,
		client:       client,
		service:      service,
		pathResolver: pathResolver,
		resolver:     resolver,
		walker:       walker,
	}, nil
}

// BuildCheckCommand constructs the check cobra command.
func (builder *CommandBuilder) BuildCheckCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	command := &cobra.Command{
		Use:   checkCommandUseConstant,
		Short: checkCommandShortConstant,
		Long:  checkCommandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := builder.resolveRuntime()
			if runtimeError != nil {
				return runtimeError
			}
			return runtime.runPolicyPass(command.Context(), walkRootArgument(arguments), command.OutOrStdout(), runtime.checkProject)
		},
	}
	return command, nil
}

// BuildFixCommand constructs the fix cobra command.
func (builder *CommandBuilder) BuildFixCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	command := &cobra.Command{
		Use:   fixCommandUseConstant,
		Short: fixCommandShortConstant,
		Long:  fixCommandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := builder.resolveRuntime()
			if runtimeError != nil {
				return runtimeError
			}
			return runtime.runPolicyPass(command.Context(), walkRootArgument(arguments), command.OutOrStdout(), runtime.convergeProject)
		},
	}
	return command, nil
}

// BuildReportCommand constructs the report cobra command.
func (builder *CommandBuilder) BuildReportCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	command := &cobra.Command{
		Use:   reportCommandUseConstant,
		Short: reportCommandShortConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := builder.resolveRuntime()
			if runtimeError != nil {
				return runtimeError
			}
			return runtime.runReport(command.Context(), walkRootArgument(arguments), command.OutOrStdout())
		},
	}
	return command, nil
}

// BuildCreateCommand constructs the create cobra command.
func (builder *CommandBuilder) BuildCreateCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	command := &cobra.Command{
		Use:   createCommandUseConstant,
		Short: createCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := builder.resolveRuntime()
			if runtimeError != nil {
				return runtimeError
			}
			return runtime.runCreate(command.Context(), arguments[0], command.OutOrStdout())
		},
	}
	return command, nil
}

func walkRootArgument(arguments []string) string {
	if len(arguments) == 0 {
		return ""
	}
	return arguments[0]
}

// runPolicyPass walks every project under the root and applies the per-project
// handler, continuing past individual failures so one broken project does not
// abort the pass.
func (runtime *commandRuntime) runPolicyPass(executionContext context.Context, walkRoot string, outputWriter io.Writer, handleProject func(context.Context, gitlabapi.Project, io.Writer) error) error {
	failedProjectCount := 0

	walkError := runtime.walker.WalkProjects(executionContext, walkRoot, false, func(visitedNode namespace.WalkNode) error {
		if visitedNode.Project == nil {
			return nil
		}
		if handleError := handleProject(executionContext, *visitedNode.Project, outputWriter); handleError != nil {
			failedProjectCount++
			runtime.logger.Error(
				handleError.Error(),
				zap.String("project", visitedNode.Project.PathWithNamespace),
			)
		}
		return nil
	})
	if walkError != nil {
		return walkError
	}
	if failedProjectCount > 0 {
		return fmt.Errorf(projectFailedTemplateConstant, failedProjectCount)
	}
	return nil
}

func (runtime *commandRuntime) checkProject(executionContext context.Context, project gitlabapi.Project, outputWriter io.Writer) error {
	checkOperations := []func(context.Context, gitlabapi.Project) ([]CheckResult, error){
		runtime.service.CheckBranchProtection,
		runtime.service.CheckMergeRequestApprovals,
		runtime.service.CheckSlackNotifications,
	}
	return runtime.runResultOperations(executionContext, project, outputWriter, checkOperations)
}

func (runtime *commandRuntime) convergeProject(executionContext context.Context, project gitlabapi.Project, outputWriter io.Writer) error {
	convergeOperations := []func(context.Context, gitlabapi.Project) ([]CheckResult, error){
		runtime.service.EnsureBranchProtection,
		runtime.service.SetMergeRequestApprovals,
		runtime.service.SetSlackNotifications,
	}
	return runtime.runResultOperations(executionContext, project, outputWriter, convergeOperations)
}

func (runtime *commandRuntime) runResultOperations(executionContext context.Context, project gitlabapi.Project, outputWriter io.Writer, operations []func(context.Context, gitlabapi.Project) ([]CheckResult, error)) error {
	for _, operation := range operations {
		operationResults, operationError := operation(executionContext, project)
		if operationError != nil {
			return operationError
		}
		for _, operationResult := range operationResults {
			fmt.Fprintf(outputWriter, checkLineTemplateConstant, operationResult.Severity, operationResult.Subject, operationResult.Message)
		}
	}
	return nil
}

func (runtime *commandRuntime) runReport(executionContext context.Context, walkRoot string, outputWriter io.Writer) error {
	csvWriter := csv.NewWriter(outputWriter)
	if headerError := csvWriter.Write(reportHeaderColumns); headerError != nil {
		return headerError
	}

	walkError := runtime.walker.WalkProjects(executionContext, walkRoot, false, func(visitedNode namespace.WalkNode) error {
		if visitedNode.Project == nil {
			return nil
		}
		projectDetails, detailsError := runtime.service.ProjectDetails(executionContext, *visitedNode.Project)
		if detailsError != nil {
			return detailsError
		}
		return csvWriter.Write([]string{
			projectDetails.ProjectPath,
			projectDetails.Description,
			projectDetails.CreatedBy,
			projectDetails.LastActivity,
			strconv.Itoa(projectDetails.Branches),
			strconv.Itoa(projectDetails.Commits),
			strconv.Itoa(projectDetails.OpenMergeRequests),
		})
	})
	if walkError != nil {
		return walkError
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (runtime *commandRuntime) runCreate(executionContext context.Context, rawPath string, outputWriter io.Writer) error {
	if len(rawPath) == 0 {
		return errors.New(missingCreatePathMessageConstant)
	}

	groupPath, projectName, splitError := runtime.pathResolver.SplitPath(rawPath)
	if splitError != nil {
		return splitError
	}
	if validationError := namespace.ValidateProjectName(projectName); validationError != nil {
		return validationError
	}

	owningGroup, groupError := runtime.resolver.ResolveGroup(executionContext, namespace.GroupIdentityFromPath(groupPath))
	if groupError != nil {
		return groupError
	}

	createdProject, creationError := runtime.service.CreateProject(executionContext, owningGroup, projectName)
	if creationError != nil {
		return creationError
	}
	if createdProject.ID != 0 {
		fmt.Fprintf(outputWriter, createdProjectTemplateConstant, createdProject.PathWithNamespace)
	}
	return nil
}
