// Package sharepoint (web.go) implements site webs: loading properties,
// creating subsites, deferred property updates and deletion.
package sharepoint

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/office365go/office365-client/pkg/office365"
)

// Web is a SharePoint site or subsite.
type Web struct {
	office365.Entity
	ID                string `json:"Id,omitempty"`
	Title             string `json:"Title,omitempty"`
	Description       string `json:"Description,omitempty"`
	WebURL            string `json:"Url,omitempty"`
	ServerRelativeURL string `json:"ServerRelativeUrl,omitempty"`
	WebTemplate       string `json:"WebTemplate,omitempty"`
	Language          int    `json:"Language,omitempty"`
	Created           string `json:"Created,omitempty"`
}

// Webs navigates to the web's subsite collection.
func (w *Web) Webs() *WebCollection {
	return &WebCollection{queue: w.Queue(), url: w.URL() + "/webs"}
}

// SetTitle records a title change for the next Update.
func (w *Web) SetTitle(title string) {
	w.Title = title
	w.Set("Title", title)
}

// SetDescription records a description change for the next Update.
func (w *Web) SetDescription(description string) {
	w.Description = description
	w.Set("Description", description)
}

// Update queues a PATCH carrying the recorded property changes. SharePoint
// requires an If-Match header on merges; "*" overwrites unconditionally.
func (w *Web) Update() {
	if !w.HasChanges() {
		return
	}
	w.Queue().Add(&office365.Query{
		Method:  "PATCH",
		URL:     w.URL(),
		Payload: w.TakeChanges(),
		Before: func(req *http.Request) {
			req.Header.Set("If-Match", "*")
		},
	})
}

// Delete queues deletion of the web.
func (w *Web) Delete() {
	w.Queue().Add(&office365.Query{
		Method: "DELETE",
		URL:    w.URL(),
		Before: func(req *http.Request) {
			req.Header.Set("If-Match", "*")
		},
	})
}

// WebCollection addresses the subsites of a web.
type WebCollection struct {
	queue *office365.Queue
	url   string
}

// URL returns the collection's resource URL.
func (wc *WebCollection) URL() string { return wc.url }

// Add queues creation of a subsite and returns the bound Web. The web's
// server-assigned properties and resource URL become available once the queue
// is flushed.
func (wc *WebCollection) Add(info WebCreationInformation) *Web {
	created := &Web{}
	created.Bind(wc.queue, "")

	wc.queue.Add(&office365.Query{
		Method:  "POST",
		URL:     wc.url + "/add",
		Payload: map[string]any{"parameters": info},
		Result:  created,
		After: func(*http.Response) error {
			if created.WebURL == "" {
				return fmt.Errorf("%w: created web carries no URL", office365.ErrDecodingFailed)
			}
			created.SetURL(strings.TrimSuffix(created.WebURL, "/") + "/_api/web")
			return nil
		},
	})
	return created
}
