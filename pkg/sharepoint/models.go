package sharepoint

// WebCreationInformation carries the parameters for creating a subsite.
type WebCreationInformation struct {
	Title                          string `json:"Title"`
	URL                            string `json:"Url"`
	Description                    string `json:"Description,omitempty"`
	WebTemplate                    string `json:"WebTemplate"`
	Language                       int    `json:"Language"`
	UseSamePermissionsAsParentSite bool   `json:"UseSamePermissionsAsParentSite"`
}

// Site provisioning states reported by the GroupSiteManager service.
const (
	SiteStatusNotFound     = 0
	SiteStatusProvisioning = 1
	SiteStatusReady        = 2
	SiteStatusError        = 3
)

// GroupSiteInfo is the provisioning state of a group-connected site.
type GroupSiteInfo struct {
	SiteStatus   int    `json:"SiteStatus"`
	SiteURL      string `json:"SiteUrl"`
	GroupID      string `json:"GroupId,omitempty"`
	DocumentsURL string `json:"DocumentsUrl,omitempty"`
	ErrorMessage string `json:"ErrorMessage,omitempty"`
}

// Ready reports whether provisioning has completed.
func (i GroupSiteInfo) Ready() bool { return i.SiteStatus == SiteStatusReady }
