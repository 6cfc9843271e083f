package sharepoint

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupEx(t *testing.T) {
	server, recorded := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Write([]byte(`{"SiteStatus": 1, "GroupId": "group-guid", "SiteUrl": ""}`))
	})
	defer server.Close()

	cc := newTestContext(t, server.URL)
	manager := cc.GroupSiteManager()

	result := manager.CreateGroupEx("Project Falcon", "projectfalcon", false, "Workspace for Falcon")
	require.NoError(t, cc.ExecuteQuery(context.Background()))

	requests := recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "POST", requests[0].Method)
	assert.Equal(t, "/_api/GroupSiteManager/CreateGroupEx", requests[0].Path)

	var payload struct {
		DisplayName    string         `json:"displayName"`
		Alias          string         `json:"alias"`
		IsPublic       bool           `json:"isPublic"`
		OptionalParams map[string]any `json:"optionalParams"`
	}
	require.NoError(t, json.Unmarshal(requests[0].Body, &payload))
	assert.Equal(t, "Project Falcon", payload.DisplayName)
	assert.Equal(t, "projectfalcon", payload.Alias)
	assert.False(t, payload.IsPublic)
	assert.Equal(t, "Workspace for Falcon", payload.OptionalParams["Description"])

	assert.Equal(t, SiteStatusProvisioning, result.Value.SiteStatus)
	assert.Equal(t, "group-guid", result.Value.GroupID)
}

func TestGetStatus(t *testing.T) {
	server, recorded := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Write([]byte(`{"SiteStatus": 2, "SiteUrl": "https://contoso.sharepoint.com/sites/projectfalcon"}`))
	})
	defer server.Close()

	cc := newTestContext(t, server.URL)
	manager := cc.GroupSiteManager()

	result := manager.GetStatus("group-guid")
	require.NoError(t, cc.ExecuteQuery(context.Background()))

	requests := recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "GET", requests[0].Method)
	assert.Equal(t, "/_api/GroupSiteManager/GetSiteStatus", requests[0].Path)
	assert.Equal(t, "groupId='group-guid'", requests[0].Query)
	assert.Empty(t, requests[0].Body)

	assert.True(t, result.Value.Ready())
	assert.Equal(t, "https://contoso.sharepoint.com/sites/projectfalcon", result.Value.SiteURL)
}

func TestGroupSiteDelete(t *testing.T) {
	server, recorded := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})
	defer server.Close()

	cc := newTestContext(t, server.URL)
	cc.GroupSiteManager().Delete("https://contoso.sharepoint.com/sites/projectfalcon")
	require.NoError(t, cc.ExecuteQuery(context.Background()))

	requests := recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "/_api/GroupSiteManager/Delete", requests[0].Path)

	var payload struct {
		SiteURL string `json:"siteUrl"`
	}
	require.NoError(t, json.Unmarshal(requests[0].Body, &payload))
	assert.Equal(t, "https://contoso.sharepoint.com/sites/projectfalcon", payload.SiteURL)
}

func TestWaitForSite(t *testing.T) {
	var polls int
	server, _ := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		polls++
		if polls < 3 {
			w.Write([]byte(`{"SiteStatus": 1}`))
			return
		}
		w.Write([]byte(`{"SiteStatus": 2, "SiteUrl": "https://contoso.sharepoint.com/sites/new"}`))
	})
	defer server.Close()

	cc := newTestContext(t, server.URL)
	info, err := cc.GroupSiteManager().WaitForSite(context.Background(), "group-guid", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
	assert.True(t, info.Ready())
}

func TestWaitForSiteProvisioningError(t *testing.T) {
	server, _ := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Write([]byte(`{"SiteStatus": 3, "ErrorMessage": "alias already in use"}`))
	})
	defer server.Close()

	cc := newTestContext(t, server.URL)
	_, err := cc.GroupSiteManager().WaitForSite(context.Background(), "group-guid", time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias already in use")
}

func TestWaitForSiteTimeout(t *testing.T) {
	server, _ := newSiteServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Write([]byte(`{"SiteStatus": 1}`))
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	cc := newTestContext(t, server.URL)
	_, err := cc.GroupSiteManager().WaitForSite(ctx, "group-guid", 10*time.Millisecond)
	require.Error(t, err)
}
