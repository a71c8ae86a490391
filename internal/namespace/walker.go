package namespace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/innerhippy/glman/internal/gitlabapi"
)

const (
	groupNotFoundTemplateConstant        = "cannot find group %q"
	projectNotFoundTemplateConstant      = "cannot find project %q"
	missingClientMessageConstant         = "namespace client is required"
	missingPathResolverMessageConstant   = "path resolver is required"
	missingVisitCallbackMessageConstant  = "visit callback is required"

	// UnboundedDepth walks the hierarchy without a depth limit.
	UnboundedDepth = -1
)

// GroupNotFoundError reports a group path that the remote service cannot resolve.
type GroupNotFoundError struct {
	Path string
	Err  error
}

// Error returns the unresolved group path.
func (groupNotFoundError *GroupNotFoundError) Error() string {
	return fmt.Sprintf(groupNotFoundTemplateConstant, groupNotFoundError.Path)
}

// Unwrap exposes the underlying remote error.
func (groupNotFoundError *GroupNotFoundError) Unwrap() error {
	return groupNotFoundError.Err
}

// ProjectNotFoundError reports a leaf project missing from its candidate group.
type ProjectNotFoundError struct {
	Name string
}

// Error returns the unresolved project name.
func (projectNotFoundError *ProjectNotFoundError) Error() string {
	return fmt.Sprintf(projectNotFoundTemplateConstant, projectNotFoundError.Name)
}

// Client captures the remote operations the resolver and walker depend on.
type Client interface {
	GetGroupByPath(executionContext context.Context, groupFullPath string) (gitlabapi.Group, error)
	GetGroupByID(executionContext context.Context, groupIdentifier int) (gitlabapi.Group, error)
	ListSubGroups(executionContext context.Context, groupIdentifier int) ([]gitlabapi.Group, error)
	ListGroupProjects(executionContext context.Context, groupIdentifier int) ([]gitlabapi.ProjectSummary, error)
	GetProjectByID(executionContext context.Context, projectIdentifier int) (gitlabapi.Project, error)
}

// GroupIdentity names a group by path, numeric identifier, or an already resolved node.
type GroupIdentity struct {
	groupPath     string
	groupID       int
	resolvedGroup *gitlabapi.Group
}

// GroupIdentityFromPath identifies a group by its namespace path.
func GroupIdentityFromPath(groupPath string) GroupIdentity {
	return GroupIdentity{groupPath: groupPath}
}

// GroupIdentityFromID identifies a group by its numeric identifier.
func GroupIdentityFromID(groupIdentifier int) GroupIdentity {
	return GroupIdentity{groupID: groupIdentifier}
}

// GroupIdentityFromGroup wraps an already resolved group node.
func GroupIdentityFromGroup(resolvedGroup gitlabapi.Group) GroupIdentity {
	return GroupIdentity{resolvedGroup: &resolvedGroup}
}

// Resolver turns path strings and group identities into remote nodes.
type Resolver struct {
	client       Client
	pathResolver *PathResolver
}

// NewResolver builds a Resolver over the provided client and path resolver.
func NewResolver(client Client, pathResolver *PathResolver) (*Resolver, error) {
	if client == nil {
		return nil, errors.New(missingClientMessageConstant)
	}
	if pathResolver == nil {
		return nil, errors.New(missingPathResolverMessageConstant)
	}
	return &Resolver{client: client, pathResolver: pathResolver}, nil
}

// ResolveGroup resolves a group identity into a group node.
// A path identity is anchored under the root group before lookup, and a
// remote not-found is surfaced as GroupNotFoundError so callers may fall
// back to interpreting the trailing segment as a project.
func (resolver *Resolver) ResolveGroup(executionContext context.Context, identity GroupIdentity) (gitlabapi.Group, error) {
	if identity.resolvedGroup != nil {
		return *identity.resolvedGroup, nil
	}
	if identity.groupID != 0 {
		return resolver.client.GetGroupByID(executionContext, identity.groupID)
	}

	rootedGroupPath := resolver.pathResolver.RootedPath(identity.groupPath)
	resolvedGroup, groupError := resolver.client.GetGroupByPath(executionContext, rootedGroupPath)
	if groupError != nil {
		if gitlabapi.IsNotFound(groupError) {
			return gitlabapi.Group{}, &GroupNotFoundError{Path: rootedGroupPath, Err: groupError}
		}
		return gitlabapi.Group{}, groupError
	}
	return resolvedGroup, nil
}

// ResolveProject scans the group's direct projects for a case-insensitive path match.
func (resolver *Resolver) ResolveProject(executionContext context.Context, projectName string, owningGroup gitlabapi.Group) (gitlabapi.Project, error) {
	groupProjects, listError := resolver.client.ListGroupProjects(executionContext, owningGroup.ID)
	if listError != nil {
		return gitlabapi.Project{}, listError
	}

	for _, candidateProject := range groupProjects {
		if strings.EqualFold(candidateProject.Path, projectName) {
			return resolver.client.GetProjectByID(executionContext, candidateProject.ID)
		}
	}
	return gitlabapi.Project{}, &ProjectNotFoundError{Name: projectName}
}

// ParsePath resolves a raw path into a group node plus an optional leaf project.
// The whole path is first tried as a group; when that misses, the final segment
// is resolved as a project under the remaining group prefix.
func (resolver *Resolver) ParsePath(executionContext context.Context, rawPath string) (gitlabapi.Group, *gitlabapi.Project, error) {
	resolvedGroup, groupError := resolver.ResolveGroup(executionContext, GroupIdentityFromPath(rawPath))
	if groupError == nil {
		return resolvedGroup, nil, nil
	}

	var groupNotFoundError *GroupNotFoundError
	if !errors.As(groupError, &groupNotFoundError) {
		return gitlabapi.Group{}, nil, groupError
	}

	pathSegments := strings.Split(rawPath, pathSeparatorConstant)
	groupPrefix := strings.Join(pathSegments[:len(pathSegments)-1], pathSeparatorConstant)
	leafName := pathSegments[len(pathSegments)-1]

	owningGroup, prefixError := resolver.ResolveGroup(executionContext, GroupIdentityFromPath(groupPrefix))
	if prefixError != nil {
		return gitlabapi.Group{}, nil, prefixError
	}

	resolvedProject, projectError := resolver.ResolveProject(executionContext, leafName, owningGroup)
	if projectError != nil {
		return gitlabapi.Group{}, nil, projectError
	}
	return owningGroup, &resolvedProject, nil
}

// WalkNode is one element of a project walk: exactly one of Group or Project is set.
type WalkNode struct {
	Group   *gitlabapi.Group
	Project *gitlabapi.Project
}

// Walker traverses the group hierarchy depth first.
// It assumes the remote hierarchy contains no cycles.
type Walker struct {
	client   Client
	resolver *Resolver
}

// NewWalker builds a Walker over the provided client and resolver.
func NewWalker(client Client, resolver *Resolver) (*Walker, error) {
	if client == nil {
		return nil, errors.New(missingClientMessageConstant)
	}
	if resolver == nil {
		return nil, errors.New(missingPathResolverMessageConstant)
	}
	return &Walker{client: client, resolver: resolver}, nil
}

// WalkGroups visits the identified group and every descendant subgroup depth first.
// A maxDepth of zero halts without visiting anything, a positive value bounds
// recursion to that many levels, and a negative value walks unbounded.
// Subgroups are visited in the order the remote service returns them.
func (walker *Walker) WalkGroups(executionContext context.Context, identity GroupIdentity, maxDepth int, visit func(gitlabapi.Group) error) error {
	if visit == nil {
		return errors.New(missingVisitCallbackMessageConstant)
	}
	if maxDepth == 0 {
		return nil
	}

	currentGroup, resolveError := walker.resolver.ResolveGroup(executionContext, identity)
	if resolveError != nil {
		return resolveError
	}
	if visitError := visit(currentGroup); visitError != nil {
		return visitError
	}

	subGroups, listError := walker.client.ListSubGroups(executionContext, currentGroup.ID)
	if listError != nil {
		return listError
	}
	for _, subGroup := range subGroups {
		if walkError := walker.WalkGroups(executionContext, GroupIdentityFromGroup(subGroup), maxDepth-1, visit); walkError != nil {
			return walkError
		}
	}
	return nil
}

// WalkProjects resolves the raw path and visits the matching nodes.
// A path naming a single project visits that project alone; otherwise the
// walk optionally visits each group, then its direct projects, then recurses
// into every subgroup.
func (walker *Walker) WalkProjects(executionContext context.Context, rawPath string, includeGroups bool, visit func(WalkNode) error) error {
	if visit == nil {
		return errors.New(missingVisitCallbackMessageConstant)
	}

	resolvedGroup, resolvedProject, parseError := walker.resolver.ParsePath(executionContext, rawPath)
	if parseError != nil {
		return parseError
	}
	if resolvedProject != nil {
		return visit(WalkNode{Project: resolvedProject})
	}
	return walker.walkGroupProjects(executionContext, resolvedGroup, includeGroups, visit)
}

func (walker *Walker) walkGroupProjects(executionContext context.Context, currentGroup gitlabapi.Group, includeGroups bool, visit func(WalkNode) error) error {
	if includeGroups {
		groupCopy := currentGroup
		if visitError := visit(WalkNode{Group: &groupCopy}); visitError != nil {
			return visitError
		}
	}

	groupProjects, projectListError := walker.client.ListGroupProjects(executionContext, currentGroup.ID)
	if projectListError != nil {
		return projectListError
	}
	for _, projectSummary := range groupProjects {
		fullProject, projectError := walker.client.GetProjectByID(executionContext, projectSummary.ID)
		if projectError != nil {
			return projectError
		}
		if visitError := visit(WalkNode{Project: &fullProject}); visitError != nil {
			return visitError
		}
	}

	subGroups, subGroupListError := walker.client.ListSubGroups(executionContext, currentGroup.ID)
	if subGroupListError != nil {
		return subGroupListError
	}
	for _, subGroup := range subGroups {
		if walkError := walker.walkGroupProjects(executionContext, subGroup, includeGroups, visit); walkError != nil {
			return walkError
		}
	}
	return nil
}
