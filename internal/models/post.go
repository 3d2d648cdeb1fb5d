package models

import (
	"encoding/json"
	"time"
)

// Post is a journal entry. Slug is the immutable resource key.
//
// AuthorID is a free display label and plays no part in authorization;
// OwnerUserID is the identity that may mutate the row.
type Post struct {
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Excerpt       string            `json:"excerpt"`
	Channel       string            `json:"channel"`
	Category      string            `json:"category"`
	Tags          []string          `json:"tags"`
	AuthorID      string            `json:"authorId"`
	PublishedAt   string            `json:"publishedAt"`
	ReadTime      string            `json:"readTime"`
	Featured      bool              `json:"featured"`
	Views         int               `json:"views"`
	Content       []string          `json:"content"`
	Media         []json.RawMessage `json:"media"`
	CreatedByUser bool              `json:"createdByUser"`
	OwnerUserID   int               `json:"ownerUserId"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// OwnerID implements Owned
func (p *Post) OwnerID() int { return p.OwnerUserID }

// PostDraft is the payload of the create post request
type PostDraft struct {
	Title       string            `json:"title"`
	Excerpt     string            `json:"excerpt"`
	Channel     string            `json:"channel"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags"`
	AuthorID    string            `json:"authorId"`
	PublishedAt string            `json:"publishedAt"`
	ReadTime    string            `json:"readTime"`
	Featured    bool              `json:"featured"`
	Views       int               `json:"views"`
	Content     []string          `json:"content"`
	Media       []json.RawMessage `json:"media"`
}

// PostPatch is the payload of the update post request.
// Nil fields are left unchanged.
type PostPatch struct {
	Title       *string            `json:"title"`
	Excerpt     *string            `json:"excerpt"`
	Channel     *string            `json:"channel"`
	Category    *string            `json:"category"`
	Tags        *[]string          `json:"tags"`
	AuthorID    *string            `json:"authorId"`
	PublishedAt *string            `json:"publishedAt"`
	ReadTime    *string            `json:"readTime"`
	Featured    *bool              `json:"featured"`
	Views       *int               `json:"views"`
	Content     *[]string          `json:"content"`
	Media       *[]json.RawMessage `json:"media"`
}
