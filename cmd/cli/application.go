package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/mirror"
	"github.com/innerhippy/glman/internal/namespace"
	"github.com/innerhippy/glman/internal/reconcile"
	"github.com/innerhippy/glman/internal/utils"
)

const (
	applicationNameConstant                 = "glman"
	applicationShortDescriptionConstant     = "Command-line interface for GitLab namespace governance"
	applicationLongDescriptionConstant      = "glman audits and converges project policy across a GitLab group hierarchy, reports project activity, and migrates legacy repositories onto GitLab."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagShorthandConstant             = "n"
	dryRunFlagUsageConstant                 = "Log intended changes without applying them."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "GLMAN"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	rootCommandInfoMessageConstant          = "glman CLI executed"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	GitLab ApplicationGitLabConfiguration `mapstructure:"gitlab"`
	Policy reconcile.Configuration        `mapstructure:"policy"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationGitLabConfiguration stores the connection and namespace settings.
// Token is typically supplied through the GLMAN_GITLAB_TOKEN environment
// variable rather than the configuration file.
type ApplicationGitLabConfiguration struct {
	BaseURL    string `mapstructure:"base_url"`
	Token      string `mapstructure:"token"`
	RootGroup  string `mapstructure:"root_group"`
	UsersGroup string `mapstructure:"users_group"`
}

// Application wires the Cobra root command, configuration loader, structured
// logger, and the lazily constructed GitLab client.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	dryRunFlagValue       bool
	gitlabClient          *gitlabapi.Client
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	_ = godotenv.Load()

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVarP(&application.dryRunFlagValue, dryRunFlagNameConstant, dryRunFlagShorthandConstant, false, dryRunFlagUsageConstant)

	governanceBuilder := reconcile.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: func() (reconcile.GovernanceClient, error) {
			return application.resolveGitLabClient()
		},
		ConfigurationProvider: func() (reconcile.Configuration, error) {
			return application.configuration.Policy, nil
		},
		RootGroupProvider: application.rootGroupName,
		DryRunProvider:    application.dryRunEnabled,
	}
	checkCommand, checkBuildError := governanceBuilder.BuildCheckCommand()
	if checkBuildError == nil {
		cobraCommand.AddCommand(checkCommand)
	}
	fixCommand, fixBuildError := governanceBuilder.BuildFixCommand()
	if fixBuildError == nil {
		cobraCommand.AddCommand(fixCommand)
	}
	reportCommand, reportBuildError := governanceBuilder.BuildReportCommand()
	if reportBuildError == nil {
		cobraCommand.AddCommand(reportCommand)
	}
	createCommand, createBuildError := governanceBuilder.BuildCreateCommand()
	if createBuildError == nil {
		cobraCommand.AddCommand(createCommand)
	}

	membershipBuilder := namespace.MembershipCommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: func() (namespace.MembershipClient, error) {
			return application.resolveGitLabClient()
		},
		RootGroupProvider: application.rootGroupName,
		UsersGroupPathProvider: func() string {
			return application.configuration.GitLab.UsersGroup
		},
	}
	membershipCommand, membershipBuildError := membershipBuilder.Build()
	if membershipBuildError == nil {
		cobraCommand.AddCommand(membershipCommand)
	}

	migrationBuilder := mirror.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: func() (namespace.Client, error) {
			return application.resolveGitLabClient()
		},
		RootGroupProvider: application.rootGroupName,
		DryRunProvider:    application.dryRunEnabled,
	}
	mirrorCommand, mirrorBuildError := migrationBuilder.BuildMirrorCommand()
	if mirrorBuildError == nil {
		cobraCommand.AddCommand(mirrorCommand)
	}
	rejectCommand, rejectBuildError := migrationBuilder.BuildRejectCommand()
	if rejectBuildError == nil {
		cobraCommand.AddCommand(rejectCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// RootCommand exposes the assembled Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

// resolveGitLabClient builds the authenticated API client on first use so
// commands that never reach GitLab do not require a token.
func (application *Application) resolveGitLabClient() (*gitlabapi.Client, error) {
	if application.gitlabClient != nil {
		return application.gitlabClient, nil
	}

	clientOptions := []gitlabapi.Option{}
	if len(application.configuration.GitLab.BaseURL) > 0 {
		clientOptions = append(clientOptions, gitlabapi.WithBaseURL(application.configuration.GitLab.BaseURL))
	}

	apiClient, clientError := gitlabapi.NewClient(application.configuration.GitLab.Token, clientOptions...)
	if clientError != nil {
		return nil, clientError
	}

	application.gitlabClient = apiClient
	return apiClient, nil
}

func (application *Application) rootGroupName() string {
	return application.configuration.GitLab.RootGroup
}

func (application *Application) dryRunEnabled() bool {
	return application.dryRunFlagValue
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Debug(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
