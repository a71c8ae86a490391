package gitlabapi

import "time"

// AccessLevel mirrors GitLab numeric access levels.
type AccessLevel int

// Access levels recognized by GitLab.
const (
	AccessLevelNone       AccessLevel = 0
	AccessLevelMinimal    AccessLevel = 5
	AccessLevelGuest      AccessLevel = 10
	AccessLevelReporter   AccessLevel = 20
	AccessLevelDeveloper  AccessLevel = 30
	AccessLevelMaintainer AccessLevel = 40
	AccessLevelOwner      AccessLevel = 50
)

// Group describes a GitLab group or subgroup.
type Group struct {
	ID       int
	Name     string
	Path     string
	FullPath string
}

// ProjectSummary carries the project fields returned by group project listings.
type ProjectSummary struct {
	ID                int
	Name              string
	Path              string
	PathWithNamespace string
	Archived          bool
}

// MergeSettings holds the merge request workflow attributes inspected during policy checks.
type MergeSettings struct {
	MergeMethod                               string
	OnlyAllowMergeIfAllDiscussionsAreResolved bool
	OnlyAllowMergeIfPipelineSucceeds          bool
	RemoveSourceBranchAfterMerge              bool
}

// MergeSettingsPatch describes the merge attributes to change; nil fields are left untouched.
type MergeSettingsPatch struct {
	MergeMethod                               *string
	OnlyAllowMergeIfAllDiscussionsAreResolved *bool
	RemoveSourceBranchAfterMerge              *bool
}

// IsEmpty reports whether the patch would change nothing.
func (patch MergeSettingsPatch) IsEmpty() bool {
	return patch.MergeMethod == nil &&
		patch.OnlyAllowMergeIfAllDiscussionsAreResolved == nil &&
		patch.RemoveSourceBranchAfterMerge == nil
}

// Project describes a single GitLab project in full detail.
type Project struct {
	ProjectSummary
	Description    string
	CreatorID      int
	LastActivityAt *time.Time
	DefaultBranch  string
	SSHURLToRepo   string
	WebURL         string
	MergeSettings  MergeSettings
}

// BranchAccessDescription names one access grant on a protected branch.
type BranchAccessDescription struct {
	AccessLevel AccessLevel
	Description string
}

// ProtectedBranch describes the protection applied to one branch name.
type ProtectedBranch struct {
	Name              string
	PushAccessLevels  []BranchAccessDescription
	MergeAccessLevels []BranchAccessDescription
	AllowForcePush    bool
}

// ApprovalSettings holds the project-level merge request approval attributes.
type ApprovalSettings struct {
	ResetApprovalsOnPush                      bool
	DisableOverridingApproversPerMergeRequest bool
	MergeRequestsAuthorApproval               bool
	MergeRequestsDisableCommittersApproval    bool
	RequirePasswordToApprove                  bool
}

// ApprovalSettingsPatch describes the approval attributes to change; nil fields are left untouched.
type ApprovalSettingsPatch struct {
	ResetApprovalsOnPush                      *bool
	DisableOverridingApproversPerMergeRequest *bool
	MergeRequestsAuthorApproval               *bool
	MergeRequestsDisableCommittersApproval    *bool
	RequirePasswordToApprove                  *bool
}

// IsEmpty reports whether the patch would change nothing.
func (patch ApprovalSettingsPatch) IsEmpty() bool {
	return patch.ResetApprovalsOnPush == nil &&
		patch.DisableOverridingApproversPerMergeRequest == nil &&
		patch.MergeRequestsAuthorApproval == nil &&
		patch.MergeRequestsDisableCommittersApproval == nil &&
		patch.RequirePasswordToApprove == nil
}

// ApprovalRule describes a project-level merge request approval rule.
type ApprovalRule struct {
	ID                int
	Name              string
	RuleType          string
	ApprovalsRequired int
	UserIDs           []int
}

// SlackEventFlags enumerates the notification events a Slack integration may subscribe to.
type SlackEventFlags struct {
	PushEvents               bool
	IssuesEvents             bool
	ConfidentialIssuesEvents bool
	MergeRequestsEvents      bool
	TagPushEvents            bool
	NoteEvents               bool
	ConfidentialNoteEvents   bool
	PipelineEvents           bool
	WikiPageEvents           bool
	JobEvents                bool
}

// SlackIntegration describes the Slack notification integration of a project.
type SlackIntegration struct {
	Active     bool
	WebhookURL string
	Username   string
	Channel    string
	Events     SlackEventFlags
}

// Member describes a direct member of a group.
type Member struct {
	ID          int
	Username    string
	Name        string
	AccessLevel AccessLevel
}

// User describes a GitLab user account.
type User struct {
	ID       int
	Username string
	Name     string
	State    string
}

// ProjectActivity aggregates the counters surfaced by activity reports.
type ProjectActivity struct {
	BranchCount           int
	CommitCount           int
	OpenMergeRequestCount int
}
