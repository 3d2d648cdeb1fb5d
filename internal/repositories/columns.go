package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// ownerArg stores unowned rows as NULL
func ownerArg(ownerUserID int) sql.NullInt64 {
	if ownerUserID <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(ownerUserID), Valid: true}
}

// encodeList serializes a list column. Nil lists are stored as "[]".
func encodeList[T any](values []T) (string, error) {
	if values == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list column: %w", err)
	}
	return string(raw), nil
}

// decodeList parses a list column. Corrupt or non-array values degrade to an empty list.
func decodeList[T any](raw string, column string, logger *zap.Logger) []T {
	values := []T{}
	if raw == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
		logger.Warn("corrupt list column, using empty list", zap.String("column", column), zap.Error(err))
		return []T{}
	}
	return values
}
