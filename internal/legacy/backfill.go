// Package legacy performs the one-shot startup data fixes: assigning rows
// without an owner to the bootstrap admin and importing a JSON snapshot
// exported by earlier versions of the journal.
package legacy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/northline/journal/internal/dbx"
	"github.com/northline/journal/internal/repositories"
	"go.uber.org/zap"
)

// orphanAssigner is satisfied by every ownership-scoped repository
type orphanAssigner interface {
	AssignOrphans(ctx context.Context, ownerUserID int) (int64, error)
}

// ownedRepositories builds the ownership-scoped repositories on top of one handle
func ownedRepositories(db dbx.DBTX, logger *zap.Logger) map[string]orphanAssigner {
	return map[string]orphanAssigner{
		"posts":         repositories.NewPostRepository(db, logger),
		"memo_tasks":    repositories.NewMemoRepository(db, logger),
		"game_accounts": repositories.NewGameAccountRepository(db, logger),
		"tool_links":    repositories.NewToolLinkRepository(db, logger),
	}
}

// BackfillOwners assigns every row without an owner to ownerUserID.
// All four tables are updated in one transaction.
func BackfillOwners(ctx context.Context, db dbx.TxBeginner, ownerUserID int, logger *zap.Logger) error {
	if ownerUserID <= 0 {
		return fmt.Errorf("invalid owner id %d", ownerUserID)
	}

	return dbx.WithTx(ctx, db, &sql.TxOptions{}, func(ctx context.Context, tx dbx.DBTX) error {
		for table, repo := range ownedRepositories(tx, logger) {
			assigned, err := repo.AssignOrphans(ctx, ownerUserID)
			if err != nil {
				return err
			}
			if assigned > 0 {
				logger.Info("assigned orphan rows",
					zap.String("table", table),
					zap.Int64("rows", assigned),
					zap.Int("ownerUserID", ownerUserID),
				)
			}
		}
		return nil
	})
}
