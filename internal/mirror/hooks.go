package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	hooksDirectoryNameConstant     = "hooks"
	postUpdateHookNameConstant     = "post-update"
	preReceiveHookNameConstant     = "pre-receive"
	hookFileModeConstant           = os.FileMode(0o755)
	hookExistsWarningTemplate      = "%s hook already exists for %s, will not overwrite"
	addingHookTemplateConstant     = "adding %s hook for %s"
	unknownHookKindMessageConstant = "unknown hook kind"

	postUpdateHookTemplateConstant = `#!/bin/sh

echo "Pushing to Gitlab mirror"

git push -f --mirror %s

`

	preReceiveHookTemplateConstant = `
#!/bin/sh

cat<< EOM
*************************************************************************
*
*  This project has moved to Gitlab
*
*  Please update your project URL using:
*  git remote set-url origin %s
*
*************************************************************************
EOM

exit 1
`
)

// HookKind selects which hook script a migration installs.
type HookKind string

// Supported hook kinds.
const (
	HookKindMirror HookKind = HookKind(postUpdateHookNameConstant)
	HookKindReject HookKind = HookKind(preReceiveHookNameConstant)
)

func (kind HookKind) scriptTemplate() (string, error) {
	switch kind {
	case HookKindMirror:
		return postUpdateHookTemplateConstant, nil
	case HookKindReject:
		return preReceiveHookTemplateConstant, nil
	default:
		return "", errors.New(unknownHookKindMessageConstant)
	}
}

// HookInstallation reports the outcome of installing one hook script.
type HookInstallation struct {
	HookPath  string
	Conflict  bool
	Installed bool
}

// HookWriter installs hook scripts into legacy repositories.
type HookWriter struct {
	logger *zap.Logger
	dryRun bool
}

// NewHookWriter builds a HookWriter. A nil logger falls back to a no-op logger.
func NewHookWriter(logger *zap.Logger, dryRun bool) *HookWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HookWriter{logger: logger, dryRun: dryRun}
}

// Install renders the destination push URL into the hook script and writes it
// executable under the repository's hooks directory. An existing hook of the
// same name is left byte-for-byte untouched and reported as a conflict.
func (writer *HookWriter) Install(repositoryPath string, kind HookKind, destinationURL string) (HookInstallation, error) {
	scriptTemplate, templateError := kind.scriptTemplate()
	if templateError != nil {
		return HookInstallation{}, templateError
	}

	hookPath := filepath.Join(repositoryPath, hooksDirectoryNameConstant, string(kind))
	if _, statError := os.Stat(hookPath); statError == nil {
		writer.logger.Warn(fmt.Sprintf(hookExistsWarningTemplate, kind, destinationURL))
		return HookInstallation{HookPath: hookPath, Conflict: true}, nil
	}

	writer.logger.Info(
		fmt.Sprintf(addingHookTemplateConstant, kind, destinationURL),
		zap.Bool("dry_run", writer.dryRun),
	)
	if writer.dryRun {
		return HookInstallation{HookPath: hookPath}, nil
	}

	hookScript := fmt.Sprintf(scriptTemplate, destinationURL)
	if writeError := os.WriteFile(hookPath, []byte(hookScript), hookFileModeConstant); writeError != nil {
		return HookInstallation{}, writeError
	}
	if chmodError := os.Chmod(hookPath, hookFileModeConstant); chmodError != nil {
		return HookInstallation{}, chmodError
	}
	return HookInstallation{HookPath: hookPath, Installed: true}, nil
}
