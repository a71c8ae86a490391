package gitlabapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innerhippy/glman/internal/gitlabapi"
)

func newTestClient(testInstance *testing.T, handler http.Handler) (*gitlabapi.Client, *httptest.Server) {
	testInstance.Helper()

	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	client, clientError := gitlabapi.NewClient("test-token", gitlabapi.WithBaseURL(server.URL+"/api/v4"))
	require.NoError(testInstance, clientError)
	return client, server
}

func TestNewClientRequiresToken(testInstance *testing.T) {
	testInstance.Parallel()

	_, clientError := gitlabapi.NewClient("")
	require.Error(testInstance, clientError)
}

func TestListSubGroupsFollowsPagination(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, "/api/v4/groups/42/subgroups", request.URL.Path)

		requestedPage := request.URL.Query().Get("page")
		if requestedPage == "" || requestedPage == "1" {
			responseWriter.Header().Set("X-Next-Page", "2")
			fmt.Fprint(responseWriter, `[{"id":1,"name":"team-a","path":"team-a","full_path":"Framestore/team-a"}]`)
			return
		}
		fmt.Fprint(responseWriter, `[{"id":2,"name":"team-b","path":"team-b","full_path":"Framestore/team-b"}]`)
	}))

	subGroups, listError := client.ListSubGroups(context.Background(), 42)
	require.NoError(testInstance, listError)
	require.Len(testInstance, subGroups, 2)
	require.Equal(testInstance, "Framestore/team-a", subGroups[0].FullPath)
	require.Equal(testInstance, "Framestore/team-b", subGroups[1].FullPath)
}

func TestListGroupProjectsExcludesSharedAndArchived(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, "false", request.URL.Query().Get("with_shared"))
		require.Equal(testInstance, "false", request.URL.Query().Get("archived"))
		fmt.Fprint(responseWriter, `[{"id":7,"name":"widget","path":"widget","path_with_namespace":"Framestore/team-a/widget"}]`)
	}))

	projects, listError := client.ListGroupProjects(context.Background(), 42)
	require.NoError(testInstance, listError)
	require.Len(testInstance, projects, 1)
	require.Equal(testInstance, "Framestore/team-a/widget", projects[0].PathWithNamespace)
}

func TestUpdateMergeSettingsSendsOnlyPatchedFields(testInstance *testing.T) {
	var observedBody map[string]any

	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, http.MethodPut, request.Method)
		bodyBytes, readError := io.ReadAll(request.Body)
		require.NoError(testInstance, readError)
		require.NoError(testInstance, json.Unmarshal(bodyBytes, &observedBody))
		fmt.Fprint(responseWriter, `{"id":7}`)
	}))

	mergeMethod := "ff"
	patch := gitlabapi.MergeSettingsPatch{MergeMethod: &mergeMethod}
	require.NoError(testInstance, client.UpdateMergeSettings(context.Background(), 7, patch))

	require.Equal(testInstance, "ff", observedBody["merge_method"])
	require.NotContains(testInstance, observedBody, "only_allow_merge_if_all_discussions_are_resolved")
	require.NotContains(testInstance, observedBody, "remove_source_branch_after_merge")
}

func TestUpdateMergeSettingsSkipsEmptyPatch(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		testInstance.Errorf("unexpected request to %s", request.URL.Path)
	}))

	require.NoError(testInstance, client.UpdateMergeSettings(context.Background(), 7, gitlabapi.MergeSettingsPatch{}))
}

func TestGetSlackIntegrationTreatsNotFoundAsUnconfigured(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		fmt.Fprint(responseWriter, `{"message":"404 Not Found"}`)
	}))

	slackIntegration, integrationError := client.GetSlackIntegration(context.Background(), 7)
	require.NoError(testInstance, integrationError)
	require.False(testInstance, slackIntegration.Active)
	require.Empty(testInstance, slackIntegration.WebhookURL)
}

func TestGetProjectByPathWrapsNotFound(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		fmt.Fprint(responseWriter, `{"message":"404 Project Not Found"}`)
	}))

	_, projectError := client.GetProjectByPath(context.Background(), "Framestore/team-a/missing")
	require.Error(testInstance, projectError)
	require.True(testInstance, gitlabapi.IsNotFound(projectError))

	var operationError *gitlabapi.OperationError
	require.ErrorAs(testInstance, projectError, &operationError)
	require.Equal(testInstance, "Framestore/team-a/missing", operationError.Subject)
}

func TestGetProjectActivityCollectsTotals(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		totalsByPath := map[string]int{
			"/api/v4/projects/7/repository/branches": 4,
			"/api/v4/projects/7/repository/commits":  128,
			"/api/v4/projects/7/merge_requests":      3,
		}
		total, pathKnown := totalsByPath[request.URL.Path]
		require.True(testInstance, pathKnown, "unexpected path %s", request.URL.Path)
		responseWriter.Header().Set("X-Total", strconv.Itoa(total))
		fmt.Fprint(responseWriter, `[]`)
	}))

	projectActivity, activityError := client.GetProjectActivity(context.Background(), 7)
	require.NoError(testInstance, activityError)
	require.Equal(testInstance, 4, projectActivity.BranchCount)
	require.Equal(testInstance, 128, projectActivity.CommitCount)
	require.Equal(testInstance, 3, projectActivity.OpenMergeRequestCount)
}
