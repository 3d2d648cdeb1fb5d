// Package access holds the single authorization rule shared by every
// ownership-scoped resource: admins may touch everything, users only
// the rows they own.
package access

import "github.com/northline/journal/internal/models"

// CanAccess reports whether the session may read or mutate a row owned by ownerUserID
func CanAccess(session *models.Session, ownerUserID int) bool {
	if session == nil {
		return false
	}
	if session.IsAdmin() {
		return true
	}
	return session.UserID == ownerUserID
}

// ListScope returns the filter a list query must apply for the session.
// When all is true the caller sees every row; otherwise only rows owned by ownerID.
// ok is false for a nil session, in which case nothing is visible.
func ListScope(session *models.Session) (ownerID int, all bool, ok bool) {
	if session == nil {
		return 0, false, false
	}
	if session.IsAdmin() {
		return 0, true, true
	}
	return session.UserID, false, true
}
