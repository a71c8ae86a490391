package reconcile

// Configuration carries the policy inputs sourced from the configuration file.
type Configuration struct {
	// SlackWebhookURL is the webhook every project's Slack integration must use.
	// Empty disables Slack checks and convergence.
	SlackWebhookURL string `mapstructure:"slack_webhook"`

	// ApproverUsernames lists the accounts named by a newly created Default
	// approval rule. Each entry is resolved to a user ID by exact search.
	ApproverUsernames []string `mapstructure:"approvers"`

	// PrimaryBranch is the branch protected against direct pushes.
	PrimaryBranch string `mapstructure:"primary_branch"`
}

const defaultPrimaryBranchConstant = "master"

// EffectivePrimaryBranch returns the configured primary branch or the default.
func (configuration Configuration) EffectivePrimaryBranch() string {
	if len(configuration.PrimaryBranch) == 0 {
		return defaultPrimaryBranchConstant
	}
	return configuration.PrimaryBranch
}
