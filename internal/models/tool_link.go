package models

import "time"

// ToolLink is a bookmarked tool in the toolbox
type ToolLink struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IconText    string    `json:"iconText"`
	OwnerUserID int       `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerID implements Owned
func (t *ToolLink) OwnerID() int { return t.OwnerUserID }

// ToolLinkDraft is the payload of the create tool link request
type ToolLinkDraft struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IconText    string `json:"iconText"`
}

// ToolLinkPatch is the payload of the update tool link request
type ToolLinkPatch struct {
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IconText    *string `json:"iconText"`
}
