package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innerhippy/glman/internal/gitlabapi"
)

const (
	defaultApprovalRuleNameConstant       = "Default"
	defaultApprovalsRequiredConstant      = 1
	mergeMethodExpectedConstant           = "merge"
	lastActivityLayoutConstant            = "2006-01-02"
	missingClientMessageConstant          = "gitlab client is required"
	branchProtectionOKTemplateConstant    = "branch %q protection ok"
	mergeAccessMismatchTemplateConstant   = "%s merge access set to %q, expecting 'Developers + Maintainers'"
	pushAccessMismatchTemplateConstant    = "%s push access set to %q, expecting 'No one'"
	creatingProtectionTemplateConstant    = "creating %s branch protection to push: 'No one', merge: 'Developers + Maintainers'"
	attributeMismatchTemplateConstant     = "expecting %q as %v, got %v"
	noApprovalRulesMessageConstant        = "no approval rules"
	zeroApprovalsTemplateConstant         = "approval rule %q requires zero approvals"
	approvalRuleOKTemplateConstant        = "approval rule %q ok"
	updatingMergeAttributesTemplate       = "updating merge attributes %v"
	raisingApprovalsTemplateConstant      = "raising approval rule %q required approvals to %d"
	addingApprovalRuleTemplateConstant    = "adding %q approval rule"
	noWebhookConfiguredMessageConstant    = "no slack webhook configured"
	slackMissingMessageConstant           = "slack integration not found"
	slackMatchMessageConstant             = "slack notification matches config"
	slackMismatchTemplateConstant         = "slack notification mismatch, expected %q, got %q"
	creatingSlackMessageConstant          = "creating slack integration for merge requests"
	creatingProjectTemplateConstant       = "creating project %q under %q"
	userSearchEmptyTemplateConstant       = "no user found matching %q"

	attributeMergeMethodConstant          = "merge_method"
	attributeDiscussionsResolvedConstant  = "only_allow_merge_if_all_discussions_are_resolved"
	attributePipelineSucceedsConstant     = "only_allow_merge_if_pipeline_succeeds"
	attributeRemoveSourceBranchConstant   = "remove_source_branch_after_merge"
	attributeAuthorApprovalConstant       = "merge_requests_author_approval"
	attributeCommittersApprovalConstant   = "merge_requests_disable_committers_approval"
	attributePasswordToApproveConstant    = "require_password_to_approve"
	attributeResetApprovalsConstant       = "reset_approvals_on_push"
)

// slackEventProfile is the fixed subscription applied when creating the
// integration: only merge request and job events are enabled.
var slackEventProfile = gitlabapi.SlackEventFlags{
	MergeRequestsEvents: true,
	JobEvents:           true,
}

// Client captures the remote operations the reconciler depends on.
type Client interface {
	ListProtectedBranches(executionContext context.Context, projectIdentifier int) ([]gitlabapi.ProtectedBranch, error)
	ProtectBranch(executionContext context.Context, projectIdentifier int, branchName string, pushAccess gitlabapi.AccessLevel, mergeAccess gitlabapi.AccessLevel) error
	UnprotectBranch(executionContext context.Context, projectIdentifier int, branchName string) error
	UpdateMergeSettings(executionContext context.Context, projectIdentifier int, settingsPatch gitlabapi.MergeSettingsPatch) error
	GetApprovalSettings(executionContext context.Context, projectIdentifier int) (gitlabapi.ApprovalSettings, error)
	ListApprovalRules(executionContext context.Context, projectIdentifier int) ([]gitlabapi.ApprovalRule, error)
	CreateApprovalRule(executionContext context.Context, projectIdentifier int, ruleName string, approvalsRequired int, approverUserIdentifiers []int) (gitlabapi.ApprovalRule, error)
	UpdateApprovalRuleApprovals(executionContext context.Context, projectIdentifier int, ruleIdentifier int, approvalsRequired int) error
	GetSlackIntegration(executionContext context.Context, projectIdentifier int) (gitlabapi.SlackIntegration, error)
	SetSlackIntegration(executionContext context.Context, projectIdentifier int, webhookURL string, eventFlags gitlabapi.SlackEventFlags) error
	SearchUsers(executionContext context.Context, searchTerm string) ([]gitlabapi.User, error)
	CreateProject(executionContext context.Context, namespaceIdentifier int, projectName string) (gitlabapi.Project, error)
	GetProjectActivity(executionContext context.Context, projectIdentifier int) (gitlabapi.ProjectActivity, error)
	GetUserByID(executionContext context.Context, userIdentifier int) (gitlabapi.User, error)
}

// ServiceDependencies bundles the collaborators required by NewService.
type ServiceDependencies struct {
	Logger        *zap.Logger
	Client        Client
	Configuration Configuration
	DryRun        bool
}

// Service reconciles project policies against the configured expectations.
type Service struct {
	logger        *zap.Logger
	client        Client
	configuration Configuration
	dryRun        bool
}

// NewService validates the dependencies and constructs a reconciliation service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Client == nil {
		return nil, errors.New(missingClientMessageConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:        logger,
		client:        dependencies.Client,
		configuration: dependencies.Configuration,
		dryRun:        dependencies.DryRun,
	}, nil
}

type observedAttribute struct {
	name     string
	expected any
	actual   any
}

func (attribute observedAttribute) matches() bool {
	return attribute.expected == attribute.actual
}

// CheckBranchProtection verifies the primary branch forbids direct pushes and
// grants merge access to developers. A project with no protection rule for the
// primary branch passes; only a present rule is evaluated.
func (service *Service) CheckBranchProtection(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	primaryBranch := service.configuration.EffectivePrimaryBranch()

	protectionRule, ruleError := service.findProtectionRule(executionContext, project, primaryBranch)
	if ruleError != nil {
		return nil, ruleError
	}

	checkResults := service.evaluateProtectionRule(project, primaryBranch, protectionRule)
	if len(checkResults) == 0 {
		checkResults = append(checkResults, CheckResult{
			Severity: SeverityOK,
			Subject:  project.PathWithNamespace,
			Message:  fmt.Sprintf(branchProtectionOKTemplateConstant, primaryBranch),
		})
	}
	return checkResults, nil
}

// EnsureBranchProtection converges the primary branch protection. A missing
// rule is created unconditionally and a mismatched rule is replaced.
func (service *Service) EnsureBranchProtection(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	primaryBranch := service.configuration.EffectivePrimaryBranch()

	protectionRule, ruleError := service.findProtectionRule(executionContext, project, primaryBranch)
	if ruleError != nil {
		return nil, ruleError
	}

	if protectionRule != nil && len(service.evaluateProtectionRule(project, primaryBranch, protectionRule)) == 0 {
		return []CheckResult{{
			Severity: SeverityOK,
			Subject:  project.PathWithNamespace,
			Message:  fmt.Sprintf(branchProtectionOKTemplateConstant, primaryBranch),
		}}, nil
	}

	intentMessage := fmt.Sprintf(creatingProtectionTemplateConstant, primaryBranch)
	service.logger.Info(intentMessage, zap.String("project", project.PathWithNamespace), zap.Bool("dry_run", service.dryRun))

	if !service.dryRun {
		if protectionRule != nil {
			if unprotectError := service.client.UnprotectBranch(executionContext, project.ID, primaryBranch); unprotectError != nil {
				return nil, unprotectError
			}
		}
		if protectError := service.client.ProtectBranch(executionContext, project.ID, primaryBranch, gitlabapi.AccessLevelNone, gitlabapi.AccessLevelDeveloper); protectError != nil {
			return nil, protectError
		}
	}

	return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: intentMessage}}, nil
}

func (service *Service) findProtectionRule(executionContext context.Context, project gitlabapi.Project, primaryBranch string) (*gitlabapi.ProtectedBranch, error) {
	protectedBranches, listError := service.client.ListProtectedBranches(executionContext, project.ID)
	if listError != nil {
		return nil, listError
	}
	for branchIndex := range protectedBranches {
		if protectedBranches[branchIndex].Name == primaryBranch {
			return &protectedBranches[branchIndex], nil
		}
	}
	return nil, nil
}

func (service *Service) evaluateProtectionRule(project gitlabapi.Project, primaryBranch string, protectionRule *gitlabapi.ProtectedBranch) []CheckResult {
	if protectionRule == nil {
		return nil
	}

	mismatchResults := []CheckResult{}
	for _, mergeAccess := range protectionRule.MergeAccessLevels {
		if mergeAccess.AccessLevel != gitlabapi.AccessLevelDeveloper {
			mismatchResults = append(mismatchResults, CheckResult{
				Severity: SeverityError,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(mergeAccessMismatchTemplateConstant, primaryBranch, mergeAccess.Description),
			})
		}
	}
	for _, pushAccess := range protectionRule.PushAccessLevels {
		if pushAccess.AccessLevel != gitlabapi.AccessLevelNone {
			mismatchResults = append(mismatchResults, CheckResult{
				Severity: SeverityError,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(pushAccessMismatchTemplateConstant, primaryBranch, pushAccess.Description),
			})
		}
	}
	return mismatchResults
}

func mergeSettingsAttributes(mergeSettings gitlabapi.MergeSettings) []observedAttribute {
	return []observedAttribute{
		{name: attributeMergeMethodConstant, expected: mergeMethodExpectedConstant, actual: mergeSettings.MergeMethod},
		{name: attributeDiscussionsResolvedConstant, expected: true, actual: mergeSettings.OnlyAllowMergeIfAllDiscussionsAreResolved},
		{name: attributePipelineSucceedsConstant, expected: true, actual: mergeSettings.OnlyAllowMergeIfPipelineSucceeds},
		{name: attributeRemoveSourceBranchConstant, expected: true, actual: mergeSettings.RemoveSourceBranchAfterMerge},
	}
}

func approvalSettingsAttributes(approvalSettings gitlabapi.ApprovalSettings) []observedAttribute {
	return []observedAttribute{
		{name: attributeAuthorApprovalConstant, expected: false, actual: approvalSettings.MergeRequestsAuthorApproval},
		{name: attributeCommittersApprovalConstant, expected: true, actual: approvalSettings.MergeRequestsDisableCommittersApproval},
		{name: attributePasswordToApproveConstant, expected: false, actual: approvalSettings.RequirePasswordToApprove},
		{name: attributeResetApprovalsConstant, expected: true, actual: approvalSettings.ResetApprovalsOnPush},
	}
}

// CheckMergeRequestApprovals compares the project merge settings, the approval
// settings sub-resource, and the approval rules against the policy tables.
func (service *Service) CheckMergeRequestApprovals(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	checkResults := []CheckResult{}

	for _, attribute := range mergeSettingsAttributes(project.MergeSettings) {
		if !attribute.matches() {
			checkResults = append(checkResults, CheckResult{
				Severity: SeverityError,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(attributeMismatchTemplateConstant, attribute.name, attribute.expected, attribute.actual),
			})
		}
	}

	approvalSettings, settingsError := service.client.GetApprovalSettings(executionContext, project.ID)
	if settingsError != nil {
		return nil, settingsError
	}
	for _, attribute := range approvalSettingsAttributes(approvalSettings) {
		if !attribute.matches() {
			checkResults = append(checkResults, CheckResult{
				Severity: SeverityError,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(attributeMismatchTemplateConstant, attribute.name, attribute.expected, attribute.actual),
			})
		}
	}

	approvalRules, rulesError := service.client.ListApprovalRules(executionContext, project.ID)
	if rulesError != nil {
		return nil, rulesError
	}
	if len(approvalRules) == 0 {
		checkResults = append(checkResults, CheckResult{
			Severity: SeverityError,
			Subject:  project.PathWithNamespace,
			Message:  noApprovalRulesMessageConstant,
		})
	}
	for _, approvalRule := range approvalRules {
		if approvalRule.ApprovalsRequired == 0 {
			checkResults = append(checkResults, CheckResult{
				Severity: SeverityError,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(zeroApprovalsTemplateConstant, approvalRule.Name),
			})
		} else {
			checkResults = append(checkResults, CheckResult{
				Severity: SeverityOK,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(approvalRuleOKTemplateConstant, approvalRule.Name),
			})
		}
	}
	return checkResults, nil
}

// SetMergeRequestApprovals converges the writable merge attributes with a
// single minimal patch and ensures a Default approval rule exists.
// An existing Default rule with a nonzero approval count is left untouched
// even when its approver list differs from configuration.
func (service *Service) SetMergeRequestApprovals(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	convergeResults := []CheckResult{}

	settingsPatch, patchDescriptions := service.buildMergeSettingsPatch(project)
	for _, patchDescription := range patchDescriptions {
		convergeResults = append(convergeResults, CheckResult{
			Severity: SeverityOK,
			Subject:  project.PathWithNamespace,
			Message:  patchDescription,
		})
	}
	if !settingsPatch.IsEmpty() {
		service.logger.Info(
			fmt.Sprintf(updatingMergeAttributesTemplate, patchDescriptions),
			zap.String("project", project.PathWithNamespace),
			zap.Bool("dry_run", service.dryRun),
		)
		if !service.dryRun {
			if updateError := service.client.UpdateMergeSettings(executionContext, project.ID, settingsPatch); updateError != nil {
				return nil, updateError
			}
		}
	}

	ruleResults, ruleError := service.ensureDefaultApprovalRule(executionContext, project)
	if ruleError != nil {
		return nil, ruleError
	}
	return append(convergeResults, ruleResults...), nil
}

// buildMergeSettingsPatch covers only the writable merge attributes; the
// pipeline-succeeds expectation is check-only.
func (service *Service) buildMergeSettingsPatch(project gitlabapi.Project) (gitlabapi.MergeSettingsPatch, []string) {
	settingsPatch := gitlabapi.MergeSettingsPatch{}
	patchDescriptions := []string{}

	describe := func(attribute observedAttribute) {
		patchDescriptions = append(patchDescriptions, fmt.Sprintf(attributeMismatchTemplateConstant, attribute.name, attribute.expected, attribute.actual))
	}

	mergeSettings := project.MergeSettings
	if mergeSettings.MergeMethod != mergeMethodExpectedConstant {
		expectedMethod := mergeMethodExpectedConstant
		settingsPatch.MergeMethod = &expectedMethod
		describe(observedAttribute{name: attributeMergeMethodConstant, expected: mergeMethodExpectedConstant, actual: mergeSettings.MergeMethod})
	}
	if !mergeSettings.OnlyAllowMergeIfAllDiscussionsAreResolved {
		expectedValue := true
		settingsPatch.OnlyAllowMergeIfAllDiscussionsAreResolved = &expectedValue
		describe(observedAttribute{name: attributeDiscussionsResolvedConstant, expected: true, actual: false})
	}
	if !mergeSettings.RemoveSourceBranchAfterMerge {
		expectedValue := true
		settingsPatch.RemoveSourceBranchAfterMerge = &expectedValue
		describe(observedAttribute{name: attributeRemoveSourceBranchConstant, expected: true, actual: false})
	}
	return settingsPatch, patchDescriptions
}

func (service *Service) ensureDefaultApprovalRule(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	approvalRules, rulesError := service.client.ListApprovalRules(executionContext, project.ID)
	if rulesError != nil {
		return nil, rulesError
	}

	for _, approvalRule := range approvalRules {
		if approvalRule.Name != defaultApprovalRuleNameConstant {
			continue
		}
		if approvalRule.ApprovalsRequired > 0 {
			return []CheckResult{{
				Severity: SeverityOK,
				Subject:  project.PathWithNamespace,
				Message:  fmt.Sprintf(approvalRuleOKTemplateConstant, approvalRule.Name),
			}}, nil
		}

		intentMessage := fmt.Sprintf(raisingApprovalsTemplateConstant, approvalRule.Name, defaultApprovalsRequiredConstant)
		service.logger.Info(intentMessage, zap.String("project", project.PathWithNamespace), zap.Bool("dry_run", service.dryRun))
		if !service.dryRun {
			if updateError := service.client.UpdateApprovalRuleApprovals(executionContext, project.ID, approvalRule.ID, defaultApprovalsRequiredConstant); updateError != nil {
				return nil, updateError
			}
		}
		return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: intentMessage}}, nil
	}

	intentMessage := fmt.Sprintf(addingApprovalRuleTemplateConstant, defaultApprovalRuleNameConstant)
	service.logger.Info(intentMessage, zap.String("project", project.PathWithNamespace), zap.Bool("dry_run", service.dryRun))
	if !service.dryRun {
		approverIdentifiers, resolveError := service.resolveApproverIdentifiers(executionContext)
		if resolveError != nil {
			return nil, resolveError
		}
		if _, creationError := service.client.CreateApprovalRule(executionContext, project.ID, defaultApprovalRuleNameConstant, defaultApprovalsRequiredConstant, approverIdentifiers); creationError != nil {
			return nil, creationError
		}
	}
	return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: intentMessage}}, nil
}

func (service *Service) resolveApproverIdentifiers(executionContext context.Context) ([]int, error) {
	approverIdentifiers := []int{}
	for _, approverUsername := range service.configuration.ApproverUsernames {
		matchingUsers, searchError := service.client.SearchUsers(executionContext, approverUsername)
		if searchError != nil {
			return nil, searchError
		}
		if len(matchingUsers) == 0 {
			return nil, fmt.Errorf(userSearchEmptyTemplateConstant, approverUsername)
		}
		approverIdentifiers = append(approverIdentifiers, matchingUsers[0].ID)
	}
	return approverIdentifiers, nil
}

// CheckSlackNotifications compares the configured webhook against the live
// Slack integration. No configured webhook passes trivially.
func (service *Service) CheckSlackNotifications(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	expectedWebhook := service.configuration.SlackWebhookURL
	if len(expectedWebhook) == 0 {
		return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: noWebhookConfiguredMessageConstant}}, nil
	}

	slackIntegration, integrationError := service.client.GetSlackIntegration(executionContext, project.ID)
	if integrationError != nil {
		return nil, integrationError
	}
	if !slackIntegration.Active {
		return []CheckResult{{Severity: SeverityError, Subject: project.PathWithNamespace, Message: slackMissingMessageConstant}}, nil
	}
	if slackIntegration.WebhookURL == expectedWebhook {
		return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: slackMatchMessageConstant}}, nil
	}
	return []CheckResult{{
		Severity: SeverityWarning,
		Subject:  project.PathWithNamespace,
		Message:  fmt.Sprintf(slackMismatchTemplateConstant, expectedWebhook, slackIntegration.WebhookURL),
	}}, nil
}

// SetSlackNotifications converges the Slack integration to the configured
// webhook with the fixed merge-request and job event profile.
func (service *Service) SetSlackNotifications(executionContext context.Context, project gitlabapi.Project) ([]CheckResult, error) {
	expectedWebhook := service.configuration.SlackWebhookURL
	if len(expectedWebhook) == 0 {
		return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: noWebhookConfiguredMessageConstant}}, nil
	}

	slackIntegration, integrationError := service.client.GetSlackIntegration(executionContext, project.ID)
	if integrationError != nil {
		return nil, integrationError
	}
	if slackIntegration.Active && slackIntegration.WebhookURL == expectedWebhook {
		return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: slackMatchMessageConstant}}, nil
	}

	service.logger.Info(creatingSlackMessageConstant, zap.String("project", project.PathWithNamespace), zap.Bool("dry_run", service.dryRun))
	if !service.dryRun {
		if setError := service.client.SetSlackIntegration(executionContext, project.ID, expectedWebhook, slackEventProfile); setError != nil {
			return nil, setError
		}
	}
	return []CheckResult{{Severity: SeverityOK, Subject: project.PathWithNamespace, Message: creatingSlackMessageConstant}}, nil
}

// CreateProject creates a project under the provided group, honoring dry-run.
func (service *Service) CreateProject(executionContext context.Context, owningGroup gitlabapi.Group, projectName string) (gitlabapi.Project, error) {
	service.logger.Info(
		fmt.Sprintf(creatingProjectTemplateConstant, projectName, owningGroup.FullPath),
		zap.Bool("dry_run", service.dryRun),
	)
	if service.dryRun {
		return gitlabapi.Project{}, nil
	}
	return service.client.CreateProject(executionContext, owningGroup.ID, projectName)
}

// ProjectDetails condenses a project into the fields shown by activity reports.
func (service *Service) ProjectDetails(executionContext context.Context, project gitlabapi.Project) (ProjectDetails, error) {
	projectDetails := ProjectDetails{
		ProjectPath: project.PathWithNamespace,
		Description: project.Description,
	}

	if project.CreatorID != 0 {
		creatorUser, userError := service.client.GetUserByID(executionContext, project.CreatorID)
		if userError != nil {
			return ProjectDetails{}, userError
		}
		projectDetails.CreatedBy = creatorUser.Name
	}
	if project.LastActivityAt != nil {
		projectDetails.LastActivity = project.LastActivityAt.Format(lastActivityLayoutConstant)
	}

	projectActivity, activityError := service.client.GetProjectActivity(executionContext, project.ID)
	if activityError != nil {
		return ProjectDetails{}, activityError
	}
	projectDetails.Branches = projectActivity.BranchCount
	projectDetails.Commits = projectActivity.CommitCount
	projectDetails.OpenMergeRequests = projectActivity.OpenMergeRequestCount
	return projectDetails, nil
}
