package namespace

import (
	"context"
	"errors"
	"fmt"

	"github.com/innerhippy/glman/internal/gitlabapi"
)

const (
	// DefaultUsersGroupPath names the subgroup tree that organizes users by team.
	DefaultUsersGroupPath = "users"

	membershipEntryTemplateConstant          = "%s (%s)"
	unknownAccessLevelTemplateConstant       = "unknown access level %d for user %q in group %q"
	missingWalkerMessageConstant             = "group walker is required"
	missingMemberListerMessageConstant       = "member lister is required"
	accessLevelLabelNoneConstant             = "none"
	accessLevelLabelMinimalConstant          = "minimal"
	accessLevelLabelGuestConstant            = "guest"
	accessLevelLabelReporterConstant         = "reporter"
	accessLevelLabelDeveloperConstant        = "developer"
	accessLevelLabelMaintainerConstant       = "maintainer"
	accessLevelLabelOwnerConstant            = "owner"
)

var accessLevelLabels = map[gitlabapi.AccessLevel]string{
	gitlabapi.AccessLevelNone:       accessLevelLabelNoneConstant,
	gitlabapi.AccessLevelMinimal:    accessLevelLabelMinimalConstant,
	gitlabapi.AccessLevelGuest:      accessLevelLabelGuestConstant,
	gitlabapi.AccessLevelReporter:   accessLevelLabelReporterConstant,
	gitlabapi.AccessLevelDeveloper:  accessLevelLabelDeveloperConstant,
	gitlabapi.AccessLevelMaintainer: accessLevelLabelMaintainerConstant,
	gitlabapi.AccessLevelOwner:      accessLevelLabelOwnerConstant,
}

// UnknownAccessLevelError reports an access level missing from the label table.
type UnknownAccessLevelError struct {
	AccessLevel gitlabapi.AccessLevel
	Username    string
	GroupName   string
}

// Error names the unmapped access level and where it was observed.
func (unknownAccessLevelError *UnknownAccessLevelError) Error() string {
	return fmt.Sprintf(
		unknownAccessLevelTemplateConstant,
		unknownAccessLevelError.AccessLevel,
		unknownAccessLevelError.Username,
		unknownAccessLevelError.GroupName,
	)
}

// MemberLister lists the direct members of a group.
type MemberLister interface {
	ListGroupMembers(executionContext context.Context, groupIdentifier int) ([]gitlabapi.Member, error)
}

type groupMembership struct {
	group   gitlabapi.Group
	members []gitlabapi.Member
}

// MembershipIndex caches the members of every group under the users subgroup tree.
// The index is built once on first use and reused for the rest of the run.
type MembershipIndex struct {
	walker         *Walker
	memberLister   MemberLister
	usersGroupPath string
	memberships    []groupMembership
	built          bool
}

// MembershipIndexDependencies bundles the collaborators of NewMembershipIndex.
type MembershipIndexDependencies struct {
	Walker         *Walker
	MemberLister   MemberLister
	UsersGroupPath string
}

// NewMembershipIndex builds an index over the provided walker and member lister.
// An empty users group path selects DefaultUsersGroupPath.
func NewMembershipIndex(dependencies MembershipIndexDependencies) (*MembershipIndex, error) {
	if dependencies.Walker == nil {
		return nil, errors.New(missingWalkerMessageConstant)
	}
	if dependencies.MemberLister == nil {
		return nil, errors.New(missingMemberListerMessageConstant)
	}

	usersGroupPath := dependencies.UsersGroupPath
	if len(usersGroupPath) == 0 {
		usersGroupPath = DefaultUsersGroupPath
	}

	return &MembershipIndex{
		walker:         dependencies.Walker,
		memberLister:   dependencies.MemberLister,
		usersGroupPath: usersGroupPath,
	}, nil
}

// MembershipOf returns one "group-name (access-level)" entry per group the
// username belongs to, in the order the groups were discovered.
func (index *MembershipIndex) MembershipOf(executionContext context.Context, username string) ([]string, error) {
	if buildError := index.buildOnce(executionContext); buildError != nil {
		return nil, buildError
	}

	membershipEntries := []string{}
	for _, membership := range index.memberships {
		for _, groupMember := range membership.members {
			if groupMember.Username != username {
				continue
			}
			accessLabel, labelExists := accessLevelLabels[groupMember.AccessLevel]
			if !labelExists {
				return nil, &UnknownAccessLevelError{
					AccessLevel: groupMember.AccessLevel,
					Username:    groupMember.Username,
					GroupName:   membership.group.Name,
				}
			}
			membershipEntries = append(membershipEntries, fmt.Sprintf(membershipEntryTemplateConstant, membership.group.Name, accessLabel))
		}
	}
	return membershipEntries, nil
}

func (index *MembershipIndex) buildOnce(executionContext context.Context) error {
	if index.built {
		return nil
	}

	walkError := index.walker.WalkGroups(executionContext, GroupIdentityFromPath(index.usersGroupPath), UnboundedDepth, func(visitedGroup gitlabapi.Group) error {
		groupMembers, listError := index.memberLister.ListGroupMembers(executionContext, visitedGroup.ID)
		if listError != nil {
			return listError
		}
		index.memberships = append(index.memberships, groupMembership{group: visitedGroup, members: groupMembers})
		return nil
	})
	if walkError != nil {
		return walkError
	}

	index.built = true
	return nil
}
