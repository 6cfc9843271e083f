// Package sharepoint is a client for the SharePoint REST API, built on the
// same deferred query queue as the Graph resources. A ClientContext is bound
// to one site; resource methods queue work and ExecuteQuery flushes it.
//
// SharePoint has no JSON batching endpoint comparable to Graph $batch, so
// queues created here flush sequentially only.
package sharepoint

import (
	"context"
	"strings"

	"github.com/office365go/office365-client/pkg/office365"
)

// ClientContext is the entry point to a SharePoint site.
type ClientContext struct {
	client  *office365.Client
	queue   *office365.Queue
	siteURL string
}

// NewClientContext creates a context for the site at siteURL, for example
// "https://contoso.sharepoint.com/sites/team". The trailing slash is
// optional.
func NewClientContext(client *office365.Client, siteURL string) *ClientContext {
	siteURL = strings.TrimSuffix(siteURL, "/")

	queue := office365.NewQueue(client, "")
	queue.SetDefaultHeader("Accept", "application/json;odata=nometadata")

	return &ClientContext{
		client:  client,
		queue:   queue,
		siteURL: siteURL,
	}
}

// SiteURL returns the site the context is bound to.
func (c *ClientContext) SiteURL() string { return c.siteURL }

// Queue exposes the context's deferred query queue.
func (c *ClientContext) Queue() *office365.Queue { return c.queue }

// ExecuteQuery flushes all pending queries sequentially.
func (c *ClientContext) ExecuteQuery(ctx context.Context) error {
	return c.queue.ExecuteQuery(ctx)
}

// Web returns the site's root web resource. No request is made; combine with
// office365.Load and ExecuteQuery to populate its properties.
func (c *ClientContext) Web() *Web {
	w := &Web{}
	w.Bind(c.queue, c.siteURL+"/_api/web")
	return w
}

// GroupSiteManager returns the site provisioning service for this tenant.
func (c *ClientContext) GroupSiteManager() *GroupSiteManager {
	return &GroupSiteManager{queue: c.queue, url: c.siteURL + "/_api/GroupSiteManager"}
}
