package namespace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innerhippy/glman/internal/gitlabapi"
	"github.com/innerhippy/glman/internal/namespace"
)

func newUsersTreeClient() *stubNamespaceClient {
	usersGroup := gitlabapi.Group{ID: 10, Name: "users", Path: "users", FullPath: "Framestore/users"}
	systemsGroup := gitlabapi.Group{ID: 11, Name: "systems", Path: "systems", FullPath: "Framestore/users/systems"}
	renderGroup := gitlabapi.Group{ID: 12, Name: "render", Path: "render", FullPath: "Framestore/users/render"}

	return &stubNamespaceClient{
		groupsByPath:  map[string]gitlabapi.Group{"Framestore/users": usersGroup},
		groupsByID:    map[int]gitlabapi.Group{10: usersGroup, 11: systemsGroup, 12: renderGroup},
		subGroupsByID: map[int][]gitlabapi.Group{10: {systemsGroup, renderGroup}},
		membersByGroupID: map[int][]gitlabapi.Member{
			11: {
				{ID: 100, Username: "wilson", Name: "Will Wilson", AccessLevel: gitlabapi.AccessLevelMaintainer},
				{ID: 101, Username: "carter", Name: "Sam Carter", AccessLevel: gitlabapi.AccessLevelDeveloper},
			},
			12: {
				{ID: 100, Username: "wilson", Name: "Will Wilson", AccessLevel: gitlabapi.AccessLevelReporter},
			},
		},
	}
}

func newMembershipIndex(testInstance *testing.T, client *stubNamespaceClient) *namespace.MembershipIndex {
	testInstance.Helper()

	_, walker := newTestWalker(testInstance, client)
	membershipIndex, indexError := namespace.NewMembershipIndex(namespace.MembershipIndexDependencies{
		Walker:       walker,
		MemberLister: client,
	})
	require.NoError(testInstance, indexError)
	return membershipIndex
}

func TestMembershipOfListsEveryGroupForUser(testInstance *testing.T) {
	testInstance.Parallel()

	membershipIndex := newMembershipIndex(testInstance, newUsersTreeClient())

	membershipEntries, membershipError := membershipIndex.MembershipOf(context.Background(), "wilson")
	require.NoError(testInstance, membershipError)
	require.Equal(testInstance, []string{"systems (maintainer)", "render (reporter)"}, membershipEntries)
}

func TestMembershipOfReusesCacheAcrossCalls(testInstance *testing.T) {
	testInstance.Parallel()

	client := newUsersTreeClient()
	membershipIndex := newMembershipIndex(testInstance, client)

	_, firstCallError := membershipIndex.MembershipOf(context.Background(), "wilson")
	require.NoError(testInstance, firstCallError)

	// Later lookups must not depend on the remote tree anymore.
	client.subGroupsByID = nil
	client.membersByGroupID = nil

	membershipEntries, secondCallError := membershipIndex.MembershipOf(context.Background(), "carter")
	require.NoError(testInstance, secondCallError)
	require.Equal(testInstance, []string{"systems (developer)"}, membershipEntries)
}

func TestMembershipOfUnknownUserYieldsNoEntries(testInstance *testing.T) {
	testInstance.Parallel()

	membershipIndex := newMembershipIndex(testInstance, newUsersTreeClient())

	membershipEntries, membershipError := membershipIndex.MembershipOf(context.Background(), "nobody")
	require.NoError(testInstance, membershipError)
	require.Empty(testInstance, membershipEntries)
}

func TestMembershipOfFailsOnUnknownAccessLevel(testInstance *testing.T) {
	testInstance.Parallel()

	client := newUsersTreeClient()
	client.membersByGroupID[11] = []gitlabapi.Member{
		{ID: 102, Username: "intruder", Name: "Unknown Tier", AccessLevel: gitlabapi.AccessLevel(35)},
	}
	membershipIndex := newMembershipIndex(testInstance, client)

	_, membershipError := membershipIndex.MembershipOf(context.Background(), "intruder")
	var unknownAccessLevelError *namespace.UnknownAccessLevelError
	require.ErrorAs(testInstance, membershipError, &unknownAccessLevelError)
	require.Equal(testInstance, gitlabapi.AccessLevel(35), unknownAccessLevelError.AccessLevel)
}
