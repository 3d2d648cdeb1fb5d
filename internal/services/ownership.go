package services

import (
	"errors"
	"strings"
	"time"

	"github.com/northline/journal/internal/access"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
)

// authorize turns a repository lookup into the guarded result.
// Missing rows and rows the session may not touch are indistinguishable.
func authorize[T models.Owned](session *models.Session, row T, err error) (T, error) {
	var zero T
	if errors.Is(err, common.ErrNotFound) {
		return zero, common.ErrNotFoundOrForbidden
	}
	if err != nil {
		return zero, err
	}
	if !access.CanAccess(session, row.OwnerID()) {
		return zero, common.ErrNotFoundOrForbidden
	}
	return row, nil
}

// today formats t as the YYYY-MM-DD date used by date-like fields
func today(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// orDefault returns the trimmed value, or def when it is blank
func orDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

// override replaces *dst with the patch value when one was sent
func override[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}

// overrideRequired replaces *dst with the trimmed patch value.
// A blank value counts as not sent, so required fields never become empty.
func overrideRequired(dst *string, value *string) {
	if v := trimmed(value); v != "" {
		*dst = v
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func trimmed(value *string) string {
	return strings.TrimSpace(deref(value))
}
