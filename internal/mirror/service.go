package mirror

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/execshell"
	"github.com/innerhippy/glman/internal/gitlabapi"
)

const (
	gitPushSubcommandConstant        = "push"
	gitForceFlagConstant             = "-f"
	gitMirrorFlagConstant            = "--mirror"
	mirroringTemplateConstant        = "mirroring %s to %s"
	missingMounterMessageConstant    = "mounter is required"
	missingHookWriterMessageConstant = "hook writer is required"
)

// ServiceDependencies bundles the collaborators required by NewService.
type ServiceDependencies struct {
	Logger     *zap.Logger
	Executor   CommandExecutor
	Mounter    *Mounter
	HookWriter *HookWriter
	DryRun     bool
}

// Service migrates legacy repositories to their GitLab counterparts.
type Service struct {
	logger     *zap.Logger
	executor   CommandExecutor
	mounter    *Mounter
	hookWriter *HookWriter
	dryRun     bool
}

// NewService validates the dependencies and constructs a migration service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, errors.New(missingExecutorMessageConstant)
	}
	if dependencies.Mounter == nil {
		return nil, errors.New(missingMounterMessageConstant)
	}
	if dependencies.HookWriter == nil {
		return nil, errors.New(missingHookWriterMessageConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:     logger,
		executor:   dependencies.Executor,
		mounter:    dependencies.Mounter,
		hookWriter: dependencies.HookWriter,
		dryRun:     dependencies.DryRun,
	}, nil
}

// InstallMirrorHook writes the post-update mirror hook into the legacy
// repository and immediately pushes a full mirror to the destination project.
// The hook then handles every subsequent push. A failed mirror push leaves the
// installed hook in place so a later manual push still triggers mirroring.
func (service *Service) InstallMirrorHook(executionContext context.Context, destinationProject gitlabapi.Project, legacyPath string) error {
	return service.mounter.WithMountedPath(executionContext, legacyPath, func(localPath string) error {
		if _, installError := service.hookWriter.Install(localPath, HookKindMirror, destinationProject.SSHURLToRepo); installError != nil {
			return installError
		}

		service.logger.Info(
			fmt.Sprintf(mirroringTemplateConstant, legacyPath, destinationProject.WebURL),
			zap.Bool("dry_run", service.dryRun),
		)
		if service.dryRun {
			return nil
		}

		_, pushError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitPushSubcommandConstant, gitForceFlagConstant, gitMirrorFlagConstant, destinationProject.SSHURLToRepo},
			WorkingDirectory: localPath,
		})
		return pushError
	})
}

// InstallRejectHook writes the pre-receive hook that blocks any further push
// to the legacy repository, pointing committers at the new project URL.
func (service *Service) InstallRejectHook(executionContext context.Context, destinationProject gitlabapi.Project, legacyPath string) error {
	return service.mounter.WithMountedPath(executionContext, legacyPath, func(localPath string) error {
		_, installError := service.hookWriter.Install(localPath, HookKindReject, destinationProject.SSHURLToRepo)
		return installError
	})
}
