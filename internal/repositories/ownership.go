package repositories

import (
	"context"
	"fmt"

	"github.com/northline/journal/internal/dbx"
	"go.uber.org/zap"
)

// ownedTable carries the statements shared by every ownership-scoped table
type ownedTable struct {
	name   string
	db     dbx.DBTX
	logger *zap.Logger
}

// count returns the number of rows in the table
func (t ownedTable) count(ctx context.Context) (int, error) {
	var count int
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name).Scan(&count); err != nil {
		t.logger.Error("failed to count rows", zap.String("table", t.name), zap.Error(err))
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return count, nil
}

// assignOrphans sets the owner of every row that has none
func (t ownedTable) assignOrphans(ctx context.Context, ownerUserID int) (int64, error) {
	query := `UPDATE ` + t.name + ` SET owner_user_id = ? WHERE owner_user_id IS NULL OR owner_user_id = 0`

	result, err := t.db.ExecContext(ctx, query, ownerUserID)
	if err != nil {
		t.logger.Error("failed to assign orphan rows", zap.String("table", t.name), zap.Error(err))
		return 0, fmt.Errorf("failed to assign orphan %s: %w", t.name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// deleteByKey removes one row by its key column
func (t ownedTable) deleteByKey(ctx context.Context, keyColumn, key string) (bool, error) {
	query := `DELETE FROM ` + t.name + ` WHERE ` + keyColumn + ` = ?`

	result, err := t.db.ExecContext(ctx, query, key)
	if err != nil {
		t.logger.Error("failed to delete row", zap.String("table", t.name), zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// scopeClause returns the WHERE clause and arguments restricting a list to one owner
func scopeClause(ownerUserID int, all bool) (string, []any) {
	if all {
		return "", nil
	}
	return ` WHERE owner_user_id = ?`, []any{ownerUserID}
}
