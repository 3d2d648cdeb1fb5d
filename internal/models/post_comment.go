package models

import "time"

// PostComment is a comment left on a post by an authenticated user
type PostComment struct {
	ID          string    `json:"id"`
	PostSlug    string    `json:"postSlug"`
	Content     string    `json:"content"`
	OwnerUserID int       `json:"ownerUserId"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OwnerID returns the id of the comment author
func (c *PostComment) OwnerID() int { return c.OwnerUserID }

// PostCommentDraft is the payload of the create comment request
type PostCommentDraft struct {
	Content string `json:"content"`
}
