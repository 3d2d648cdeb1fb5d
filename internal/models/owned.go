// Package models contains the data structures shared by all layers
package models

// Owned is implemented by every row that carries an owning identity
type Owned interface {
	OwnerID() int
}
