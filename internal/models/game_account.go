package models

import "time"

// GameAccount is a game-vault entry holding credentials for a game account
type GameAccount struct {
	ID          string    `json:"id"`
	Game        string    `json:"game"`
	Server      string    `json:"server"`
	Account     string    `json:"account"`
	Password    string    `json:"password"`
	Role        string    `json:"role"`
	LastLogin   string    `json:"lastLogin"`
	Notes       string    `json:"notes"`
	OwnerUserID int       `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerID implements Owned
func (g *GameAccount) OwnerID() int { return g.OwnerUserID }

// GameAccountDraft is the payload of the create game account request
type GameAccountDraft struct {
	Game      string `json:"game"`
	Server    string `json:"server"`
	Account   string `json:"account"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	LastLogin string `json:"lastLogin"`
	Notes     string `json:"notes"`
}

// GameAccountPatch is the payload of the update game account request
type GameAccountPatch struct {
	Game      *string `json:"game"`
	Server    *string `json:"server"`
	Account   *string `json:"account"`
	Password  *string `json:"password"`
	Role      *string `json:"role"`
	LastLogin *string `json:"lastLogin"`
	Notes     *string `json:"notes"`
}
