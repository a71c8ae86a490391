package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	gitlab "github.com/xanzy/go-gitlab"
)

const (
	defaultPageSizeConstant                 = 100
	missingTokenMessageConstant             = "gitlab token is required"
	clientCreationErrorTemplateConstant     = "unable to create gitlab client: %w"
	operationGetGroupConstant               = "get group"
	operationListSubGroupsConstant          = "list subgroups"
	operationListGroupProjectsConstant      = "list group projects"
	operationListGroupMembersConstant       = "list group members"
	operationGetProjectConstant             = "get project"
	operationCreateProjectConstant          = "create project"
	operationUpdateMergeSettingsConstant    = "update merge settings"
	operationListProtectedBranchesConstant  = "list protected branches"
	operationProtectBranchConstant          = "protect branch"
	operationUnprotectBranchConstant        = "unprotect branch"
	operationGetApprovalSettingsConstant    = "get approval settings"
	operationUpdateApprovalSettingsConstant = "update approval settings"
	operationListApprovalRulesConstant      = "list approval rules"
	operationCreateApprovalRuleConstant     = "create approval rule"
	operationUpdateApprovalRuleConstant     = "update approval rule"
	operationGetSlackIntegrationConstant    = "get slack integration"
	operationSetSlackIntegrationConstant    = "set slack integration"
	operationSearchUsersConstant            = "search users"
	operationCountBranchesConstant          = "count branches"
	operationCountCommitsConstant           = "count commits"
	operationCountMergeRequestsConstant     = "count merge requests"
	operationGetUserConstant                = "get user"
	mergeRequestStateOpenedConstant         = "opened"
	regularRuleTypeConstant                 = "regular"
)

// Option adjusts client construction.
type Option func(*clientSettings)

type clientSettings struct {
	baseURL string
}

// WithBaseURL points the client at a non-default GitLab instance.
func WithBaseURL(baseURL string) Option {
	return func(settings *clientSettings) {
		settings.baseURL = baseURL
	}
}

// Client exposes the GitLab operations required by the governance services.
type Client struct {
	apiClient *gitlab.Client
}

// NewClient builds a Client authenticated with the provided private token.
func NewClient(privateToken string, options ...Option) (*Client, error) {
	if len(privateToken) == 0 {
		return nil, errors.New(missingTokenMessageConstant)
	}

	settings := clientSettings{}
	for _, applyOption := range options {
		applyOption(&settings)
	}

	clientOptions := []gitlab.ClientOptionFunc{}
	if len(settings.baseURL) > 0 {
		clientOptions = append(clientOptions, gitlab.WithBaseURL(settings.baseURL))
	}

	apiClient, clientError := gitlab.NewClient(privateToken, clientOptions...)
	if clientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}

	return &Client{apiClient: apiClient}, nil
}

// GetGroupByPath resolves a group by its full path.
func (client *Client) GetGroupByPath(executionContext context.Context, groupFullPath string) (Group, error) {
	return client.getGroup(executionContext, groupFullPath, groupFullPath)
}

// GetGroupByID resolves a group by its numeric identifier.
func (client *Client) GetGroupByID(executionContext context.Context, groupIdentifier int) (Group, error) {
	return client.getGroup(executionContext, groupIdentifier, strconv.Itoa(groupIdentifier))
}

func (client *Client) getGroup(executionContext context.Context, groupReference any, subjectIdentifier string) (Group, error) {
	groupPayload, _, groupError := client.apiClient.Groups.GetGroup(groupReference, &gitlab.GetGroupOptions{}, gitlab.WithContext(executionContext))
	if groupError != nil {
		return Group{}, newOperationError(operationGetGroupConstant, subjectIdentifier, groupError)
	}
	return convertGroup(groupPayload), nil
}

// ListSubGroups returns every direct subgroup of the identified group.
func (client *Client) ListSubGroups(executionContext context.Context, groupIdentifier int) ([]Group, error) {
	listOptions := &gitlab.ListSubGroupsOptions{ListOptions: gitlab.ListOptions{PerPage: defaultPageSizeConstant}}

	collectedGroups := []Group{}
	for {
		groupPage, pageResponse, listError := client.apiClient.Groups.ListSubGroups(groupIdentifier, listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationListSubGroupsConstant, strconv.Itoa(groupIdentifier), listError)
		}
		for _, groupPayload := range groupPage {
			collectedGroups = append(collectedGroups, convertGroup(groupPayload))
		}
		if pageResponse.NextPage == 0 {
			return collectedGroups, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// ListGroupProjects returns the active projects owned directly by the identified group.
func (client *Client) ListGroupProjects(executionContext context.Context, groupIdentifier int) ([]ProjectSummary, error) {
	listOptions := &gitlab.ListGroupProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: defaultPageSizeConstant},
		WithShared:  gitlab.Ptr(false),
		Archived:    gitlab.Ptr(false),
	}

	collectedProjects := []ProjectSummary{}
	for {
		projectPage, pageResponse, listError := client.apiClient.Groups.ListGroupProjects(groupIdentifier, listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationListGroupProjectsConstant, strconv.Itoa(groupIdentifier), listError)
		}
		for _, projectPayload := range projectPage {
			collectedProjects = append(collectedProjects, convertProjectSummary(projectPayload))
		}
		if pageResponse.NextPage == 0 {
			return collectedProjects, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// ListGroupMembers returns the direct members of the identified group.
func (client *Client) ListGroupMembers(executionContext context.Context, groupIdentifier int) ([]Member, error) {
	listOptions := &gitlab.ListGroupMembersOptions{ListOptions: gitlab.ListOptions{PerPage: defaultPageSizeConstant}}

	collectedMembers := []Member{}
	for {
		memberPage, pageResponse, listError := client.apiClient.Groups.ListGroupMembers(groupIdentifier, listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationListGroupMembersConstant, strconv.Itoa(groupIdentifier), listError)
		}
		for _, memberPayload := range memberPage {
			collectedMembers = append(collectedMembers, Member{
				ID:          memberPayload.ID,
				Username:    memberPayload.Username,
				Name:        memberPayload.Name,
				AccessLevel: AccessLevel(memberPayload.AccessLevel),
			})
		}
		if pageResponse.NextPage == 0 {
			return collectedMembers, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// GetProjectByPath resolves a project by its path including namespace.
func (client *Client) GetProjectByPath(executionContext context.Context, projectPathWithNamespace string) (Project, error) {
	return client.getProject(executionContext, projectPathWithNamespace, projectPathWithNamespace)
}

// GetProjectByID resolves a project by its numeric identifier.
func (client *Client) GetProjectByID(executionContext context.Context, projectIdentifier int) (Project, error) {
	return client.getProject(executionContext, projectIdentifier, strconv.Itoa(projectIdentifier))
}

func (client *Client) getProject(executionContext context.Context, projectReference any, subjectIdentifier string) (Project, error) {
	projectPayload, _, projectError := client.apiClient.Projects.GetProject(projectReference, &gitlab.GetProjectOptions{}, gitlab.WithContext(executionContext))
	if projectError != nil {
		return Project{}, newOperationError(operationGetProjectConstant, subjectIdentifier, projectError)
	}
	return convertProject(projectPayload), nil
}

// CreateProject creates a project under the identified namespace.
func (client *Client) CreateProject(executionContext context.Context, namespaceIdentifier int, projectName string) (Project, error) {
	creationOptions := &gitlab.CreateProjectOptions{
		Name:        gitlab.Ptr(projectName),
		NamespaceID: gitlab.Ptr(namespaceIdentifier),
	}

	projectPayload, _, creationError := client.apiClient.Projects.CreateProject(creationOptions, gitlab.WithContext(executionContext))
	if creationError != nil {
		return Project{}, newOperationError(operationCreateProjectConstant, projectName, creationError)
	}
	return convertProject(projectPayload), nil
}

// UpdateMergeSettings applies the non-nil patch fields to the identified project.
func (client *Client) UpdateMergeSettings(executionContext context.Context, projectIdentifier int, settingsPatch MergeSettingsPatch) error {
	if settingsPatch.IsEmpty() {
		return nil
	}

	editOptions := &gitlab.EditProjectOptions{
		OnlyAllowMergeIfAllDiscussionsAreResolved: settingsPatch.OnlyAllowMergeIfAllDiscussionsAreResolved,
		RemoveSourceBranchAfterMerge:              settingsPatch.RemoveSourceBranchAfterMerge,
	}
	if settingsPatch.MergeMethod != nil {
		editOptions.MergeMethod = gitlab.Ptr(gitlab.MergeMethodValue(*settingsPatch.MergeMethod))
	}

	_, _, editError := client.apiClient.Projects.EditProject(projectIdentifier, editOptions, gitlab.WithContext(executionContext))
	if editError != nil {
		return newOperationError(operationUpdateMergeSettingsConstant, strconv.Itoa(projectIdentifier), editError)
	}
	return nil
}

// ListProtectedBranches returns every protected branch of the identified project.
func (client *Client) ListProtectedBranches(executionContext context.Context, projectIdentifier int) ([]ProtectedBranch, error) {
	listOptions := &gitlab.ListProtectedBranchesOptions{ListOptions: gitlab.ListOptions{PerPage: defaultPageSizeConstant}}

	collectedBranches := []ProtectedBranch{}
	for {
		branchPage, pageResponse, listError := client.apiClient.ProtectedBranches.ListProtectedBranches(projectIdentifier, listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationListProtectedBranchesConstant, strconv.Itoa(projectIdentifier), listError)
		}
		for _, branchPayload := range branchPage {
			collectedBranches = append(collectedBranches, convertProtectedBranch(branchPayload))
		}
		if pageResponse.NextPage == 0 {
			return collectedBranches, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// ProtectBranch applies the requested push and merge access levels to a branch name.
func (client *Client) ProtectBranch(executionContext context.Context, projectIdentifier int, branchName string, pushAccess AccessLevel, mergeAccess AccessLevel) error {
	protectionOptions := &gitlab.ProtectRepositoryBranchesOptions{
		Name:             gitlab.Ptr(branchName),
		PushAccessLevel:  gitlab.Ptr(gitlab.AccessLevelValue(pushAccess)),
		MergeAccessLevel: gitlab.Ptr(gitlab.AccessLevelValue(mergeAccess)),
	}

	_, _, protectionError := client.apiClient.ProtectedBranches.ProtectRepositoryBranches(projectIdentifier, protectionOptions, gitlab.WithContext(executionContext))
	if protectionError != nil {
		return newOperationError(operationProtectBranchConstant, branchName, protectionError)
	}
	return nil
}

// UnprotectBranch removes the protection applied to a branch name.
func (client *Client) UnprotectBranch(executionContext context.Context, projectIdentifier int, branchName string) error {
	_, unprotectionError := client.apiClient.ProtectedBranches.UnprotectRepositoryBranches(projectIdentifier, branchName, gitlab.WithContext(executionContext))
	if unprotectionError != nil {
		return newOperationError(operationUnprotectBranchConstant, branchName, unprotectionError)
	}
	return nil
}

// GetApprovalSettings returns the project-level merge request approval configuration.
func (client *Client) GetApprovalSettings(executionContext context.Context, projectIdentifier int) (ApprovalSettings, error) {
	approvalPayload, _, approvalError := client.apiClient.Projects.GetApprovalConfiguration(projectIdentifier, gitlab.WithContext(executionContext))
	if approvalError != nil {
		return ApprovalSettings{}, newOperationError(operationGetApprovalSettingsConstant, strconv.Itoa(projectIdentifier), approvalError)
	}

	return ApprovalSettings{
		ResetApprovalsOnPush:                      approvalPayload.ResetApprovalsOnPush,
		DisableOverridingApproversPerMergeRequest: approvalPayload.DisableOverridingApproversPerMergeRequest,
		MergeRequestsAuthorApproval:               approvalPayload.MergeRequestsAuthorApproval,
		MergeRequestsDisableCommittersApproval:    approvalPayload.MergeRequestsDisableCommittersApproval,
		RequirePasswordToApprove:                  approvalPayload.RequirePasswordToApprove,
	}, nil
}

// UpdateApprovalSettings applies the non-nil patch fields to the approval configuration.
func (client *Client) UpdateApprovalSettings(executionContext context.Context, projectIdentifier int, settingsPatch ApprovalSettingsPatch) error {
	if settingsPatch.IsEmpty() {
		return nil
	}

	changeOptions := &gitlab.ChangeApprovalConfigurationOptions{
		ResetApprovalsOnPush:                      settingsPatch.ResetApprovalsOnPush,
		DisableOverridingApproversPerMergeRequest: settingsPatch.DisableOverridingApproversPerMergeRequest,
		MergeRequestsAuthorApproval:               settingsPatch.MergeRequestsAuthorApproval,
		MergeRequestsDisableCommittersApproval:    settingsPatch.MergeRequestsDisableCommittersApproval,
		RequirePasswordToApprove:                  settingsPatch.RequirePasswordToApprove,
	}

	_, _, changeError := client.apiClient.Projects.ChangeApprovalConfiguration(projectIdentifier, changeOptions, gitlab.WithContext(executionContext))
	if changeError != nil {
		return newOperationError(operationUpdateApprovalSettingsConstant, strconv.Itoa(projectIdentifier), changeError)
	}
	return nil
}

// ListApprovalRules returns every project-level approval rule.
func (client *Client) ListApprovalRules(executionContext context.Context, projectIdentifier int) ([]ApprovalRule, error) {
	listOptions := &gitlab.GetProjectApprovalRulesListsOptions{PerPage: defaultPageSizeConstant}

	collectedRules := []ApprovalRule{}
	for {
		rulePage, pageResponse, listError := client.apiClient.Projects.GetProjectApprovalRules(projectIdentifier, listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationListApprovalRulesConstant, strconv.Itoa(projectIdentifier), listError)
		}
		for _, rulePayload := range rulePage {
			collectedRules = append(collectedRules, convertApprovalRule(rulePayload))
		}
		if pageResponse.NextPage == 0 {
			return collectedRules, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// CreateApprovalRule creates a regular project-level approval rule over the given approver identifiers.
func (client *Client) CreateApprovalRule(executionContext context.Context, projectIdentifier int, ruleName string, approvalsRequired int, approverUserIdentifiers []int) (ApprovalRule, error) {
	creationOptions := &gitlab.CreateProjectLevelRuleOptions{
		Name:              gitlab.Ptr(ruleName),
		ApprovalsRequired: gitlab.Ptr(approvalsRequired),
		RuleType:          gitlab.Ptr(regularRuleTypeConstant),
		UserIDs:           &approverUserIdentifiers,
	}

	rulePayload, _, creationError := client.apiClient.Projects.CreateProjectApprovalRule(projectIdentifier, creationOptions, gitlab.WithContext(executionContext))
	if creationError != nil {
		return ApprovalRule{}, newOperationError(operationCreateApprovalRuleConstant, ruleName, creationError)
	}
	return convertApprovalRule(rulePayload), nil
}

// UpdateApprovalRuleApprovals changes the approvals required by an existing rule.
func (client *Client) UpdateApprovalRuleApprovals(executionContext context.Context, projectIdentifier int, ruleIdentifier int, approvalsRequired int) error {
	updateOptions := &gitlab.UpdateProjectLevelRuleOptions{ApprovalsRequired: gitlab.Ptr(approvalsRequired)}

	_, _, updateError := client.apiClient.Projects.UpdateProjectApprovalRule(projectIdentifier, ruleIdentifier, updateOptions, gitlab.WithContext(executionContext))
	if updateError != nil {
		return newOperationError(operationUpdateApprovalRuleConstant, strconv.Itoa(ruleIdentifier), updateError)
	}
	return nil
}

// GetSlackIntegration returns the Slack notification integration of the identified project.
// A project without the integration configured yields an inactive zero value.
func (client *Client) GetSlackIntegration(executionContext context.Context, projectIdentifier int) (SlackIntegration, error) {
	slackPayload, _, slackError := client.apiClient.Services.GetSlackService(projectIdentifier, gitlab.WithContext(executionContext))
	if slackError != nil {
		if IsNotFound(slackError) {
			return SlackIntegration{}, nil
		}
		return SlackIntegration{}, newOperationError(operationGetSlackIntegrationConstant, strconv.Itoa(projectIdentifier), slackError)
	}

	slackIntegration := SlackIntegration{
		Active: slackPayload.Active,
		Events: SlackEventFlags{
			PushEvents:               slackPayload.PushEvents,
			IssuesEvents:             slackPayload.IssuesEvents,
			ConfidentialIssuesEvents: slackPayload.ConfidentialIssuesEvents,
			MergeRequestsEvents:      slackPayload.MergeRequestsEvents,
			TagPushEvents:            slackPayload.TagPushEvents,
			NoteEvents:               slackPayload.NoteEvents,
			ConfidentialNoteEvents:   slackPayload.ConfidentialNoteEvents,
			PipelineEvents:           slackPayload.PipelineEvents,
			WikiPageEvents:           slackPayload.WikiPageEvents,
			JobEvents:                slackPayload.JobEvents,
		},
	}
	if slackPayload.Properties != nil {
		slackIntegration.WebhookURL = slackPayload.Properties.WebHook
		slackIntegration.Username = slackPayload.Properties.Username
		slackIntegration.Channel = slackPayload.Properties.Channel
	}
	return slackIntegration, nil
}

// SetSlackIntegration configures the Slack webhook and event subscriptions of the identified project.
func (client *Client) SetSlackIntegration(executionContext context.Context, projectIdentifier int, webhookURL string, eventFlags SlackEventFlags) error {
	setOptions := &gitlab.SetSlackServiceOptions{
		WebHook:                  gitlab.Ptr(webhookURL),
		PushEvents:               gitlab.Ptr(eventFlags.PushEvents),
		IssuesEvents:             gitlab.Ptr(eventFlags.IssuesEvents),
		ConfidentialIssuesEvents: gitlab.Ptr(eventFlags.ConfidentialIssuesEvents),
		MergeRequestsEvents:      gitlab.Ptr(eventFlags.MergeRequestsEvents),
		TagPushEvents:            gitlab.Ptr(eventFlags.TagPushEvents),
		NoteEvents:               gitlab.Ptr(eventFlags.NoteEvents),
		ConfidentialNoteEvents:   gitlab.Ptr(eventFlags.ConfidentialNoteEvents),
		PipelineEvents:           gitlab.Ptr(eventFlags.PipelineEvents),
		WikiPageEvents:           gitlab.Ptr(eventFlags.WikiPageEvents),
		JobEvents:                gitlab.Ptr(eventFlags.JobEvents),
	}

	_, _, setError := client.apiClient.Services.SetSlackService(projectIdentifier, setOptions, gitlab.WithContext(executionContext))
	if setError != nil {
		return newOperationError(operationSetSlackIntegrationConstant, strconv.Itoa(projectIdentifier), setError)
	}
	return nil
}

// SearchUsers returns the users matching the provided search term.
func (client *Client) SearchUsers(executionContext context.Context, searchTerm string) ([]User, error) {
	listOptions := &gitlab.ListUsersOptions{
		ListOptions: gitlab.ListOptions{PerPage: defaultPageSizeConstant},
		Search:      gitlab.Ptr(searchTerm),
	}

	collectedUsers := []User{}
	for {
		userPage, pageResponse, listError := client.apiClient.Users.ListUsers(listOptions, gitlab.WithContext(executionContext))
		if listError != nil {
			return nil, newOperationError(operationSearchUsersConstant, searchTerm, listError)
		}
		for _, userPayload := range userPage {
			collectedUsers = append(collectedUsers, User{
				ID:       userPayload.ID,
				Username: userPayload.Username,
				Name:     userPayload.Name,
				State:    userPayload.State,
			})
		}
		if pageResponse.NextPage == 0 {
			return collectedUsers, nil
		}
		listOptions.Page = pageResponse.NextPage
	}
}

// GetUserByID resolves a user account by its numeric identifier.
func (client *Client) GetUserByID(executionContext context.Context, userIdentifier int) (User, error) {
	userPayload, _, userError := client.apiClient.Users.GetUser(userIdentifier, gitlab.GetUsersOptions{}, gitlab.WithContext(executionContext))
	if userError != nil {
		return User{}, newOperationError(operationGetUserConstant, strconv.Itoa(userIdentifier), userError)
	}
	return User{
		ID:       userPayload.ID,
		Username: userPayload.Username,
		Name:     userPayload.Name,
		State:    userPayload.State,
	}, nil
}

// GetProjectActivity collects branch, commit, and open merge request counts for a project.
func (client *Client) GetProjectActivity(executionContext context.Context, projectIdentifier int) (ProjectActivity, error) {
	singleItemOptions := gitlab.ListOptions{PerPage: 1}

	_, branchResponse, branchError := client.apiClient.Branches.ListBranches(projectIdentifier, &gitlab.ListBranchesOptions{ListOptions: singleItemOptions}, gitlab.WithContext(executionContext))
	if branchError != nil {
		return ProjectActivity{}, newOperationError(operationCountBranchesConstant, strconv.Itoa(projectIdentifier), branchError)
	}

	_, commitResponse, commitError := client.apiClient.Commits.ListCommits(projectIdentifier, &gitlab.ListCommitsOptions{ListOptions: singleItemOptions}, gitlab.WithContext(executionContext))
	if commitError != nil {
		return ProjectActivity{}, newOperationError(operationCountCommitsConstant, strconv.Itoa(projectIdentifier), commitError)
	}

	mergeRequestOptions := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: singleItemOptions,
		State:       gitlab.Ptr(mergeRequestStateOpenedConstant),
	}
	_, mergeRequestResponse, mergeRequestError := client.apiClient.MergeRequests.ListProjectMergeRequests(projectIdentifier, mergeRequestOptions, gitlab.WithContext(executionContext))
	if mergeRequestError != nil {
		return ProjectActivity{}, newOperationError(operationCountMergeRequestsConstant, strconv.Itoa(projectIdentifier), mergeRequestError)
	}

	return ProjectActivity{
		BranchCount:           branchResponse.TotalItems,
		CommitCount:           commitResponse.TotalItems,
		OpenMergeRequestCount: mergeRequestResponse.TotalItems,
	}, nil
}

func convertGroup(groupPayload *gitlab.Group) Group {
	return Group{
		ID:       groupPayload.ID,
		Name:     groupPayload.Name,
		Path:     groupPayload.Path,
		FullPath: groupPayload.FullPath,
	}
}

func convertProjectSummary(projectPayload *gitlab.Project) ProjectSummary {
	return ProjectSummary{
		ID:                projectPayload.ID,
		Name:              projectPayload.Name,
		Path:              projectPayload.Path,
		PathWithNamespace: projectPayload.PathWithNamespace,
		Archived:          projectPayload.Archived,
	}
}

func convertProject(projectPayload *gitlab.Project) Project {
	return Project{
		ProjectSummary: convertProjectSummary(projectPayload),
		Description:    projectPayload.Description,
		CreatorID:      projectPayload.CreatorID,
		LastActivityAt: projectPayload.LastActivityAt,
		DefaultBranch:  projectPayload.DefaultBranch,
		SSHURLToRepo:   projectPayload.SSHURLToRepo,
		WebURL:         projectPayload.WebURL,
		MergeSettings: MergeSettings{
			MergeMethod: string(projectPayload.MergeMethod),
			OnlyAllowMergeIfAllDiscussionsAreResolved: projectPayload.OnlyAllowMergeIfAllDiscussionsAreResolved,
			OnlyAllowMergeIfPipelineSucceeds:          projectPayload.OnlyAllowMergeIfPipelineSucceeds,
			RemoveSourceBranchAfterMerge:              projectPayload.RemoveSourceBranchAfterMerge,
		},
	}
}

func convertProtectedBranch(branchPayload *gitlab.ProtectedBranch) ProtectedBranch {
	convertedBranch := ProtectedBranch{
		Name:           branchPayload.Name,
		AllowForcePush: branchPayload.AllowForcePush,
	}
	for _, pushAccess := range branchPayload.PushAccessLevels {
		convertedBranch.PushAccessLevels = append(convertedBranch.PushAccessLevels, BranchAccessDescription{
			AccessLevel: AccessLevel(pushAccess.AccessLevel),
			Description: pushAccess.AccessLevelDescription,
		})
	}
	for _, mergeAccess := range branchPayload.MergeAccessLevels {
		convertedBranch.MergeAccessLevels = append(convertedBranch.MergeAccessLevels, BranchAccessDescription{
			AccessLevel: AccessLevel(mergeAccess.AccessLevel),
			Description: mergeAccess.AccessLevelDescription,
		})
	}
	return convertedBranch
}

func convertApprovalRule(rulePayload *gitlab.ProjectApprovalRule) ApprovalRule {
	convertedRule := ApprovalRule{
		ID:                rulePayload.ID,
		Name:              rulePayload.Name,
		RuleType:          rulePayload.RuleType,
		ApprovalsRequired: rulePayload.ApprovalsRequired,
	}
	for _, approver := range rulePayload.Users {
		convertedRule.UserIDs = append(convertedRule.UserIDs, approver.ID)
	}
	return convertedRule
}
