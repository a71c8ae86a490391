package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/reconcile"
)

type stubReconcileClient struct {
	protectedBranches []gitlabapi.ProtectedBranch
	approvalSettings  gitlabapi.ApprovalSettings
	approvalRules     []gitlabapi.ApprovalRule
	slackIntegration  gitlabapi.SlackIntegration
	usersBySearch     map[string][]gitlabapi.User
	projectActivity   gitlabapi.ProjectActivity
	userByID          map[int]gitlabapi.User

	protectedCalls       []string
	unprotectedCalls     []string
	mergePatches         []gitlabapi.MergeSettingsPatch
	approvalRuleUpdates  []int
	createdApprovalRules []createdApprovalRule
	slackUpdates         []string
	createdProjects      []string
}

type createdApprovalRule struct {
	name              string
	approvalsRequired int
	userIdentifiers   []int
}

func (client *stubReconcileClient) ListProtectedBranches(context.Context, int) ([]gitlabapi.ProtectedBranch, error) {
	return client.protectedBranches, nil
}

func (client *stubReconcileClient) ProtectBranch(_ context.Context, _ int, branchName string, _ gitlabapi.AccessLevel, _ gitlabapi.AccessLevel) error {
	client.protectedCalls = append(client.protectedCalls, branchName)
	return nil
}

func (client *stubReconcileClient) UnprotectBranch(_ context.Context, _ int, branchName string) error {
	client.unprotectedCalls = append(client.unprotectedCalls, branchName)
	return nil
}

func (client *stubReconcileClient) UpdateMergeSettings(_ context.Context, _ int, settingsPatch gitlabapi.MergeSettingsPatch) error {
	client.mergePatches = append(client.mergePatches, settingsPatch)
	return nil
}

func (client *stubReconcileClient) GetApprovalSettings(context.Context, int) (gitlabapi.ApprovalSettings, error) {
	return client.approvalSettings, nil
}

func (client *stubReconcileClient) ListApprovalRules(context.Context, int) ([]gitlabapi.ApprovalRule, error) {
	return client.approvalRules, nil
}

func (client *stubReconcileClient) CreateApprovalRule(_ context.Context, _ int, ruleName string, approvalsRequired int, approverUserIdentifiers []int) (gitlabapi.ApprovalRule, error) {
	client.createdApprovalRules = append(client.createdApprovalRules, createdApprovalRule{
		name:              ruleName,
		approvalsRequired: approvalsRequired,
		userIdentifiers:   approverUserIdentifiers,
	})
	return gitlabapi.ApprovalRule{Name: ruleName, ApprovalsRequired: approvalsRequired}, nil
}

func (client *stubReconcileClient) UpdateApprovalRuleApprovals(_ context.Context, _ int, ruleIdentifier int, _ int) error {
	client.approvalRuleUpdates = append(client.approvalRuleUpdates, ruleIdentifier)
	return nil
}

func (client *stubReconcileClient) GetSlackIntegration(context.Context, int) (gitlabapi.SlackIntegration, error) {
	return client.slackIntegration, nil
}

func (client *stubReconcileClient) SetSlackIntegration(_ context.Context, _ int, webhookURL string, _ gitlabapi.SlackEventFlags) error {
	client.slackUpdates = append(client.slackUpdates, webhookURL)
	return nil
}

func (client *stubReconcileClient) SearchUsers(_ context.Context, searchTerm string) ([]gitlabapi.User, error) {
	return client.usersBySearch[searchTerm], nil
}

func (client *stubReconcileClient) CreateProject(_ context.Context, _ int, projectName string) (gitlabapi.Project, error) {
	client.createdProjects = append(client.createdProjects, projectName)
	return gitlabapi.Project{ProjectSummary: gitlabapi.ProjectSummary{Name: projectName}}, nil
}

func (client *stubReconcileClient) GetProjectActivity(context.Context, int) (gitlabapi.ProjectActivity, error) {
	return client.projectActivity, nil
}

func (client *stubReconcileClient) GetUserByID(_ context.Context, userIdentifier int) (gitlabapi.User, error) {
	return client.userByID[userIdentifier], nil
}

func compliantProject() gitlabapi.Project {
	return gitlabapi.Project{
		ProjectSummary: gitlabapi.ProjectSummary{ID: 7, PathWithNamespace: "Framestore/team-a/widget"},
		DefaultBranch:  "master",
		MergeSettings: gitlabapi.MergeSettings{
			MergeMethod: "merge",
			OnlyAllowMergeIfAllDiscussionsAreResolved: true,
			OnlyAllowMergeIfPipelineSucceeds:          true,
			RemoveSourceBranchAfterMerge:              true,
		},
	}
}

func compliantClient() *stubReconcileClient {
	return &stubReconcileClient{
		protectedBranches: []gitlabapi.ProtectedBranch{{
			Name:              "master",
			PushAccessLevels:  []gitlabapi.BranchAccessDescription{{AccessLevel: gitlabapi.AccessLevelNone, Description: "No one"}},
			MergeAccessLevels: []gitlabapi.BranchAccessDescription{{AccessLevel: gitlabapi.AccessLevelDeveloper, Description: "Developers + Maintainers"}},
		}},
		approvalSettings: gitlabapi.ApprovalSettings{
			ResetApprovalsOnPush:                   true,
			MergeRequestsDisableCommittersApproval: true,
		},
		approvalRules:    []gitlabapi.ApprovalRule{{ID: 1, Name: "Default", ApprovalsRequired: 1}},
		slackIntegration: gitlabapi.SlackIntegration{Active: true, WebhookURL: "https://hooks.slack.com/services/abc"},
	}
}

func newTestService(testInstance *testing.T, client reconcile.Client, configuration reconcile.Configuration, dryRun bool) *reconcile.Service {
	testInstance.Helper()

	service, serviceError := reconcile.NewService(reconcile.ServiceDependencies{
		Client:        client,
		Configuration: configuration,
		DryRun:        dryRun,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func errorMessages(checkResults []reconcile.CheckResult) []string {
	collectedMessages := []string{}
	for _, checkResult := range checkResults {
		if checkResult.Severity == reconcile.SeverityError {
			collectedMessages = append(collectedMessages, checkResult.Message)
		}
	}
	return collectedMessages
}

func TestCheckMergeRequestApprovalsCompliantProjectHasNoMismatches(testInstance *testing.T) {
	testInstance.Parallel()

	service := newTestService(testInstance, compliantClient(), reconcile.Configuration{}, false)

	checkResults, checkError := service.CheckMergeRequestApprovals(context.Background(), compliantProject())
	require.NoError(testInstance, checkError)
	require.Empty(testInstance, errorMessages(checkResults))
	require.False(testInstance, reconcile.HasFailures(checkResults))
}

func TestCheckMergeRequestApprovalsFlipsSingleAttribute(testInstance *testing.T) {
	testInstance.Parallel()

	service := newTestService(testInstance, compliantClient(), reconcile.Configuration{}, false)

	driftedProject := compliantProject()
	driftedProject.MergeSettings.RemoveSourceBranchAfterMerge = false

	checkResults, checkError := service.CheckMergeRequestApprovals(context.Background(), driftedProject)
	require.NoError(testInstance, checkError)

	mismatches := errorMessages(checkResults)
	require.Len(testInstance, mismatches, 1)
	require.Contains(testInstance, mismatches[0], "remove_source_branch_after_merge")
}

func TestCheckMergeRequestApprovalsReportsZeroApprovalRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.approvalRules = []gitlabapi.ApprovalRule{{ID: 1, Name: "Default", ApprovalsRequired: 0}}
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	checkResults, checkError := service.CheckMergeRequestApprovals(context.Background(), compliantProject())
	require.NoError(testInstance, checkError)
	require.True(testInstance, reconcile.HasFailures(checkResults))
}

func TestSetMergeRequestApprovalsIssuesMinimalPatch(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	driftedProject := compliantProject()
	driftedProject.MergeSettings.MergeMethod = "ff"

	_, convergeError := service.SetMergeRequestApprovals(context.Background(), driftedProject)
	require.NoError(testInstance, convergeError)

	require.Len(testInstance, client.mergePatches, 1)
	appliedPatch := client.mergePatches[0]
	require.NotNil(testInstance, appliedPatch.MergeMethod)
	require.Equal(testInstance, "merge", *appliedPatch.MergeMethod)
	require.Nil(testInstance, appliedPatch.OnlyAllowMergeIfAllDiscussionsAreResolved)
	require.Nil(testInstance, appliedPatch.RemoveSourceBranchAfterMerge)
}

func TestSetMergeRequestApprovalsSkipsUpdateWhenCompliant(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	_, convergeError := service.SetMergeRequestApprovals(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Empty(testInstance, client.mergePatches)
	require.Empty(testInstance, client.createdApprovalRules)
	require.Empty(testInstance, client.approvalRuleUpdates)
}

func TestSetMergeRequestApprovalsRaisesZeroDefaultRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.approvalRules = []gitlabapi.ApprovalRule{{ID: 5, Name: "Default", ApprovalsRequired: 0}}
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	_, convergeError := service.SetMergeRequestApprovals(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Equal(testInstance, []int{5}, client.approvalRuleUpdates)
	require.Empty(testInstance, client.createdApprovalRules)
}

func TestSetMergeRequestApprovalsCreatesMissingDefaultRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.approvalRules = nil
	client.usersBySearch = map[string][]gitlabapi.User{
		"wilson": {{ID: 100, Username: "wilson"}},
		"carter": {{ID: 101, Username: "carter"}},
	}
	configuration := reconcile.Configuration{ApproverUsernames: []string{"wilson", "carter"}}
	service := newTestService(testInstance, client, configuration, false)

	_, convergeError := service.SetMergeRequestApprovals(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Len(testInstance, client.createdApprovalRules, 1)
	require.Equal(testInstance, "Default", client.createdApprovalRules[0].name)
	require.Equal(testInstance, 1, client.createdApprovalRules[0].approvalsRequired)
	require.Equal(testInstance, []int{100, 101}, client.createdApprovalRules[0].userIdentifiers)
}

func TestSetMergeRequestApprovalsFailsOnUnresolvableApprover(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.approvalRules = nil
	configuration := reconcile.Configuration{ApproverUsernames: []string{"ghost"}}
	service := newTestService(testInstance, client, configuration, false)

	_, convergeError := service.SetMergeRequestApprovals(context.Background(), compliantProject())
	require.Error(testInstance, convergeError)
	require.Contains(testInstance, convergeError.Error(), "ghost")
}

func TestSetMergeRequestApprovalsDryRunSuppressesMutations(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.approvalRules = nil
	service := newTestService(testInstance, client, reconcile.Configuration{}, true)

	driftedProject := compliantProject()
	driftedProject.MergeSettings.MergeMethod = "ff"

	convergeResults, convergeError := service.SetMergeRequestApprovals(context.Background(), driftedProject)
	require.NoError(testInstance, convergeError)
	require.NotEmpty(testInstance, convergeResults)
	require.Empty(testInstance, client.mergePatches)
	require.Empty(testInstance, client.createdApprovalRules)
}

func TestCheckBranchProtectionPassesWithoutRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.protectedBranches = nil
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	checkResults, checkError := service.CheckBranchProtection(context.Background(), compliantProject())
	require.NoError(testInstance, checkError)
	require.False(testInstance, reconcile.HasFailures(checkResults))
}

func TestCheckBranchProtectionFlagsDirectPushAccess(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.protectedBranches[0].PushAccessLevels = []gitlabapi.BranchAccessDescription{
		{AccessLevel: gitlabapi.AccessLevelMaintainer, Description: "Maintainers"},
	}
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	checkResults, checkError := service.CheckBranchProtection(context.Background(), compliantProject())
	require.NoError(testInstance, checkError)

	mismatches := errorMessages(checkResults)
	require.Len(testInstance, mismatches, 1)
	require.Contains(testInstance, mismatches[0], "Maintainers")
}

func TestEnsureBranchProtectionCreatesMissingRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.protectedBranches = nil
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	_, convergeError := service.EnsureBranchProtection(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Equal(testInstance, []string{"master"}, client.protectedCalls)
	require.Empty(testInstance, client.unprotectedCalls)
}

func TestEnsureBranchProtectionReplacesMismatchedRule(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.protectedBranches[0].MergeAccessLevels = []gitlabapi.BranchAccessDescription{
		{AccessLevel: gitlabapi.AccessLevelMaintainer, Description: "Maintainers"},
	}
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	_, convergeError := service.EnsureBranchProtection(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Equal(testInstance, []string{"master"}, client.unprotectedCalls)
	require.Equal(testInstance, []string{"master"}, client.protectedCalls)
}

func TestCheckSlackNotifications(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name              string
		configuredWebhook string
		integration       gitlabapi.SlackIntegration
		expectedSeverity  reconcile.Severity
	}{
		{
			name:             "no_configured_webhook_passes",
			integration:      gitlabapi.SlackIntegration{},
			expectedSeverity: reconcile.SeverityOK,
		},
		{
			name:              "matching_webhook_passes",
			configuredWebhook: "https://hooks.slack.com/services/abc",
			integration:       gitlabapi.SlackIntegration{Active: true, WebhookURL: "https://hooks.slack.com/services/abc"},
			expectedSeverity:  reconcile.SeverityOK,
		},
		{
			name:              "mismatched_webhook_warns",
			configuredWebhook: "https://hooks.slack.com/services/abc",
			integration:       gitlabapi.SlackIntegration{Active: true, WebhookURL: "https://hooks.slack.com/services/other"},
			expectedSeverity:  reconcile.SeverityWarning,
		},
		{
			name:              "inactive_integration_errors",
			configuredWebhook: "https://hooks.slack.com/services/abc",
			integration:       gitlabapi.SlackIntegration{},
			expectedSeverity:  reconcile.SeverityError,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			subtestInstance.Parallel()

			client := compliantClient()
			client.slackIntegration = testCase.integration
			configuration := reconcile.Configuration{SlackWebhookURL: testCase.configuredWebhook}
			service := newTestService(subtestInstance, client, configuration, false)

			checkResults, checkError := service.CheckSlackNotifications(context.Background(), compliantProject())
			require.NoError(subtestInstance, checkError)
			require.Len(subtestInstance, checkResults, 1)
			require.Equal(subtestInstance, testCase.expectedSeverity, checkResults[0].Severity)
		})
	}
}

func TestSetSlackNotificationsCreatesIntegration(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.slackIntegration = gitlabapi.SlackIntegration{}
	configuration := reconcile.Configuration{SlackWebhookURL: "https://hooks.slack.com/services/abc"}
	service := newTestService(testInstance, client, configuration, false)

	_, convergeError := service.SetSlackNotifications(context.Background(), compliantProject())
	require.NoError(testInstance, convergeError)
	require.Equal(testInstance, []string{"https://hooks.slack.com/services/abc"}, client.slackUpdates)
}

func TestCreateProjectHonorsDryRun(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	service := newTestService(testInstance, client, reconcile.Configuration{}, true)

	owningGroup := gitlabapi.Group{ID: 2, FullPath: "Framestore/team-a"}
	_, creationError := service.CreateProject(context.Background(), owningGroup, "widget")
	require.NoError(testInstance, creationError)
	require.Empty(testInstance, client.createdProjects)
}

func TestProjectDetailsCollectsActivityAndCreator(testInstance *testing.T) {
	testInstance.Parallel()

	client := compliantClient()
	client.projectActivity = gitlabapi.ProjectActivity{BranchCount: 4, CommitCount: 128, OpenMergeRequestCount: 3}
	client.userByID = map[int]gitlabapi.User{55: {ID: 55, Name: "Will Wilson"}}
	service := newTestService(testInstance, client, reconcile.Configuration{}, false)

	project := compliantProject()
	project.CreatorID = 55

	projectDetails, detailsError := service.ProjectDetails(context.Background(), project)
	require.NoError(testInstance, detailsError)
	require.Equal(testInstance, "Will Wilson", projectDetails.CreatedBy)
	require.Equal(testInstance, 4, projectDetails.Branches)
	require.Equal(testInstance, 128, projectDetails.Commits)
	require.Equal(testInstance, 3, projectDetails.OpenMergeRequests)
}
