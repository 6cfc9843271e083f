// Package sharepoint (groupsite.go) implements the GroupSiteManager service:
// provisioning of Microsoft 365 group-connected team sites, status polling
// and deletion.
package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/office365go/office365-client/pkg/office365"
)

// GroupSiteManager is the tenant's site provisioning service.
type GroupSiteManager struct {
	queue *office365.Queue
	url   string
}

// URL returns the service's resource URL.
func (g *GroupSiteManager) URL() string { return g.url }

// CreateGroupEx queues provisioning of a Microsoft 365 group and its
// connected team site. Provisioning continues server-side after the request
// is accepted; poll GetStatus with the returned GroupID until the site is
// ready.
func (g *GroupSiteManager) CreateGroupEx(displayName, alias string, isPublic bool, description string) *office365.Result[GroupSiteInfo] {
	result := &office365.Result[GroupSiteInfo]{}

	payload := map[string]any{
		"displayName": displayName,
		"alias":       alias,
		"isPublic":    isPublic,
	}
	if description != "" {
		payload["optionalParams"] = map[string]any{"Description": description}
	}

	g.queue.Add(&office365.Query{
		Method:  "POST",
		URL:     g.url + "/CreateGroupEx",
		Payload: payload,
		Result:  result,
	})
	return result
}

// GetStatus queues a provisioning status check for the site connected to the
// given group. The service expects a GET with the group id as a quoted query
// argument.
func (g *GroupSiteManager) GetStatus(groupID string) *office365.Result[GroupSiteInfo] {
	result := &office365.Result[GroupSiteInfo]{}

	g.queue.Add(&office365.Query{
		Method: "GET",
		URL:    g.url + "/GetSiteStatus?groupId='" + url.QueryEscape(groupID) + "'",
		Result: result,
	})
	return result
}

// Delete queues deletion of the group-connected site at siteURL. The
// associated group is removed with it.
func (g *GroupSiteManager) Delete(siteURL string) {
	g.queue.Add(&office365.Query{
		Method:  "POST",
		URL:     g.url + "/Delete",
		Payload: map[string]any{"siteUrl": siteURL},
	})
}

// WaitForSite polls GetStatus until the site is ready, provisioning fails or
// the context is done. The poll interval is fixed; pass a context with a
// deadline to bound the wait.
func (g *GroupSiteManager) WaitForSite(ctx context.Context, groupID string, interval time.Duration) (GroupSiteInfo, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		result := g.GetStatus(groupID)
		if err := g.queue.ExecuteQuery(ctx); err != nil {
			return GroupSiteInfo{}, err
		}

		info := result.Value
		switch info.SiteStatus {
		case SiteStatusReady:
			return info, nil
		case SiteStatusError:
			return info, fmt.Errorf("site provisioning failed: %s", info.ErrorMessage)
		}

		select {
		case <-ctx.Done():
			return info, errors.New("timed out waiting for site provisioning")
		case <-time.After(interval):
		}
	}
}
