// Package office365 (graph.go) provides the GraphClient, the object-oriented
// entry point to Microsoft Graph resources. Resource navigation (Me, Users,
// Messages) is free of network calls; data moves only on ExecuteQuery or
// ExecuteBatch.
package office365

import (
	"context"
	"net/url"
)

// SetCustomEndpoints allows overriding the default OAuth endpoints.
// Primarily used by tests targeting mock identity servers.
func SetCustomEndpoints(authURL, tokenURL, deviceURL string) {
	customAuthURL = authURL
	customTokenURL = tokenURL
	customDeviceURL = deviceURL
}

// SetCustomGraphEndpoint allows overriding the default Graph root URL.
// Primarily used by tests targeting a mock Graph server.
func SetCustomGraphEndpoint(graphURL string) {
	customRootURL = graphURL
}

// GraphRootURL returns the Graph root currently in effect.
func GraphRootURL() string { return customRootURL }

// GraphClient binds a Client to the Graph service root and owns the deferred
// query queue for Graph resources.
type GraphClient struct {
	*Client
	queue   *Queue
	rootURL string
}

// NewGraphClient creates a Graph resource client on top of an authenticated
// Client.
func NewGraphClient(client *Client) *GraphClient {
	rootURL := customRootURL
	return &GraphClient{
		Client:  client,
		queue:   NewQueue(client, rootURL),
		rootURL: rootURL,
	}
}

// Queue exposes the client's deferred query queue.
func (g *GraphClient) Queue() *Queue { return g.queue }

// ExecuteQuery flushes all pending queries sequentially.
func (g *GraphClient) ExecuteQuery(ctx context.Context) error {
	return g.queue.ExecuteQuery(ctx)
}

// ExecuteBatch flushes all pending queries through the $batch endpoint.
func (g *GraphClient) ExecuteBatch(ctx context.Context) error {
	return g.queue.ExecuteBatch(ctx)
}

// Me returns the signed-in user's resource object. No request is made; bind
// only. Use Load plus ExecuteQuery, or GetMe, to fetch the profile.
func (g *GraphClient) Me() *User {
	u := &User{}
	u.Bind(g.queue, g.rootURL+"me")
	return u
}

// Users returns the resource object for a user by ID or principal name.
func (g *GraphClient) Users(id string) *User {
	u := &User{}
	u.Bind(g.queue, g.rootURL+"users/"+url.PathEscape(id))
	return u
}

// GetMe retrieves the profile of the signed-in user immediately.
func (g *GraphClient) GetMe(ctx context.Context) (User, error) {
	g.logger.Debug("GetMe called")
	var user User
	if err := g.getJSON(ctx, g.rootURL+"me", &user, "get me"); err != nil {
		return user, err
	}
	user.Bind(g.queue, g.rootURL+"me")
	return user, nil
}

// Messages navigates to the user's message collection (all folders).
func (u *User) Messages() *MessageCollection {
	return &MessageCollection{queue: u.Queue(), url: u.URL() + "/messages"}
}

// MailFolder navigates to a mail folder by ID or well-known name
// ("inbox", "drafts", "sentitems", "deleteditems", ...).
func (u *User) MailFolder(id string) *MailFolder {
	f := &MailFolder{}
	f.Bind(u.Queue(), u.URL()+"/mailFolders/"+url.PathEscape(id))
	return f
}

// Messages navigates to the folder's message collection.
func (f *MailFolder) Messages() *MessageCollection {
	return &MessageCollection{queue: f.Queue(), url: f.URL() + "/messages"}
}

// SendMail queues a one-shot send of a fully formed message, bypassing the
// draft folder. The message lands in Sent Items when saveToSentItems is true.
func (u *User) SendMail(message *Message, saveToSentItems bool) {
	u.Queue().Add(&Query{
		Method: "POST",
		URL:    u.URL() + "/sendMail",
		Payload: map[string]any{
			"message":         message,
			"saveToSentItems": saveToSentItems,
		},
	})
}
