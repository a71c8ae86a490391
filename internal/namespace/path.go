package namespace

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultRootGroupName anchors every namespace path.
	DefaultRootGroupName = "Framestore"

	pathSeparatorConstant                  = "/"
	invalidPathMessageTemplateConstant     = "invalid repository path %q: segments must use letters, digits, and underscores with a dash-only leaf"
	invalidProjectNameTemplateConstant     = "project name %q must contain only lowercase letters and dashes"
	repositoryPathPatternConstant          = `^(?:([\w/]+)/)?([\w-]+)(?:\.git)?$`
	projectNamePatternConstant             = `^[a-z-]+$`
)

var (
	repositoryPathExpression = regexp.MustCompile(repositoryPathPatternConstant)
	projectNameExpression    = regexp.MustCompile(projectNamePatternConstant)
)

// InvalidPathError reports a repository path or project name failing local validation.
type InvalidPathError struct {
	Path    string
	Message string
}

// Error returns the validation failure description.
func (invalidPathError *InvalidPathError) Error() string {
	return invalidPathError.Message
}

// PathResolver turns human-supplied repository paths into root-anchored namespace paths.
type PathResolver struct {
	rootGroupName string
}

// NewPathResolver builds a resolver anchored at the provided root group name.
// An empty root group name selects DefaultRootGroupName.
func NewPathResolver(rootGroupName string) *PathResolver {
	if len(rootGroupName) == 0 {
		rootGroupName = DefaultRootGroupName
	}
	return &PathResolver{rootGroupName: rootGroupName}
}

// RootGroupName returns the root group every path is anchored under.
func (resolver *PathResolver) RootGroupName() string {
	return resolver.rootGroupName
}

// RootedPath prepends the root group unless the first segment already names it.
// The comparison is case-insensitive and an empty input yields the root group alone.
func (resolver *PathResolver) RootedPath(groupPath string) string {
	if len(groupPath) == 0 {
		return resolver.rootGroupName
	}

	pathSegments := strings.Split(groupPath, pathSeparatorConstant)
	if !strings.EqualFold(pathSegments[0], resolver.rootGroupName) {
		pathSegments = append([]string{resolver.rootGroupName}, pathSegments...)
	}
	return strings.Join(pathSegments, pathSeparatorConstant)
}

// SplitPath separates a repository path into its group prefix and leaf name,
// dropping any trailing .git suffix from the leaf.
func (resolver *PathResolver) SplitPath(rawPath string) (string, string, error) {
	matchedGroups := repositoryPathExpression.FindStringSubmatch(rawPath)
	if matchedGroups == nil {
		return "", "", &InvalidPathError{Path: rawPath, Message: fmt.Sprintf(invalidPathMessageTemplateConstant, rawPath)}
	}
	return matchedGroups[1], matchedGroups[2], nil
}

// ValidateProjectName enforces the lowercase-and-dashes naming standard for new projects.
func ValidateProjectName(projectName string) error {
	if !projectNameExpression.MatchString(projectName) {
		return &InvalidPathError{Path: projectName, Message: fmt.Sprintf(invalidProjectNameTemplateConstant, projectName)}
	}
	return nil
}
