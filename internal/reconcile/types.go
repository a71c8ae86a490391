package reconcile

// Severity classifies a single check outcome.
type Severity string

// Check outcome severities.
const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// CheckResult reports one policy observation for a project.
type CheckResult struct {
	Severity Severity
	Subject  string
	Message  string
}

// HasFailures reports whether any result carries error severity.
func HasFailures(checkResults []CheckResult) bool {
	for _, checkResult := range checkResults {
		if checkResult.Severity == SeverityError {
			return true
		}
	}
	return false
}

// attributeExpectation pairs a remote attribute name with its required value.
type attributeExpectation struct {
	attributeName string
	expectedValue any
}

// ProjectDetails condenses a project into the fields surfaced by activity reports.
type ProjectDetails struct {
	ProjectPath       string
	Description       string
	CreatedBy         string
	LastActivity      string
	Branches          int
	Commits           int
	OpenMergeRequests int
}
