package legacy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northline/journal/internal/dbx"
	"github.com/northline/journal/internal/models"
	"github.com/northline/journal/internal/repositories"
	"github.com/northline/journal/internal/services"
	"go.uber.org/zap"
)

// Snapshot is the layout of the legacy JSON export
type Snapshot struct {
	Posts        []models.Post        `json:"posts"`
	GameAccounts []models.GameAccount `json:"gameAccounts"`
	MemoTasks    []models.MemoTask    `json:"memoTasks"`
	ToolLinks    []models.ToolLink    `json:"toolLinks"`
}

// Summary counts the rows written by an import
type Summary struct {
	Posts        int
	GameAccounts int
	MemoTasks    int
	ToolLinks    int
	Skipped      int
}

// Sealer encrypts game account passwords before they are stored
type Sealer interface {
	Seal(plaintext, binding string) (string, error)
}

// counter is satisfied by every ownership-scoped repository
type counter interface {
	Count(ctx context.Context) (int, error)
}

// Importer loads a legacy snapshot into an empty store
type Importer struct {
	db     *sql.DB
	sealer Sealer
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter creates a new importer. sealer may be nil.
func NewImporter(db *sql.DB, sealer Sealer, logger *zap.Logger) *Importer {
	return &Importer{
		db:     db,
		sealer: sealer,
		logger: logger,
		now:    time.Now,
	}
}

// Run imports the snapshot at path when every resource table is empty.
// Failures are logged and never stop startup; a failed import writes nothing.
func (i *Importer) Run(ctx context.Context, path string, ownerUserID int) Summary {
	summary, err := i.Import(ctx, path, ownerUserID)
	if err != nil {
		i.logger.Warn("legacy import skipped", zap.String("path", path), zap.Error(err))
		return Summary{}
	}
	return summary
}

// Import imports the snapshot at path and reports what was written
func (i *Importer) Import(ctx context.Context, path string, ownerUserID int) (Summary, error) {
	if path == "" {
		return Summary{}, nil
	}

	empty, err := i.storeEmpty(ctx)
	if err != nil {
		return Summary{}, err
	}
	if !empty {
		i.logger.Debug("legacy import not needed, store already holds data")
		return Summary{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Summary{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	var summary Summary
	err = dbx.WithTx(ctx, i.db, &sql.TxOptions{}, func(ctx context.Context, tx dbx.DBTX) error {
		summary, err = i.write(ctx, tx, &snapshot, ownerUserID)
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	i.logger.Info("legacy snapshot imported",
		zap.String("path", path),
		zap.Int("posts", summary.Posts),
		zap.Int("gameAccounts", summary.GameAccounts),
		zap.Int("memoTasks", summary.MemoTasks),
		zap.Int("toolLinks", summary.ToolLinks),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (i *Importer) storeEmpty(ctx context.Context) (bool, error) {
	counters := []counter{
		repositories.NewPostRepository(i.db, i.logger),
		repositories.NewMemoRepository(i.db, i.logger),
		repositories.NewGameAccountRepository(i.db, i.logger),
		repositories.NewToolLinkRepository(i.db, i.logger),
	}
	for _, c := range counters {
		count, err := c.Count(ctx)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return false, nil
		}
	}
	return true, nil
}

// write inserts every usable snapshot row through tx
func (i *Importer) write(ctx context.Context, tx dbx.DBTX, snapshot *Snapshot, ownerUserID int) (Summary, error) {
	var summary Summary
	now := i.now()
	today := now.UTC().Format("2006-01-02")

	posts := repositories.NewPostRepository(tx, i.logger)
	for _, p := range snapshot.Posts {
		post := p
		if strings.TrimSpace(post.Title) == "" {
			summary.Skipped++
			continue
		}
		if strings.TrimSpace(post.Slug) == "" {
			post.Slug = services.Slugify(post.Title, now)
		}
		post.Channel = orDefault(post.Channel, services.DefaultPostChannel)
		post.Category = orDefault(post.Category, services.DefaultPostCategory)
		post.AuthorID = orDefault(post.AuthorID, services.DefaultPostAuthorID)
		post.PublishedAt = orDefault(post.PublishedAt, today)
		post.ReadTime = orDefault(post.ReadTime, services.DefaultPostReadTime)
		post.Views = max(post.Views, 0)
		post.OwnerUserID = ownerUserID
		post.CreatedAt = now
		if err := posts.Create(ctx, &post); err != nil {
			return summary, err
		}
		summary.Posts++
	}

	accounts := repositories.NewGameAccountRepository(tx, i.logger)
	for _, a := range snapshot.GameAccounts {
		account := a
		if strings.TrimSpace(account.Game) == "" || strings.TrimSpace(account.Account) == "" {
			summary.Skipped++
			continue
		}
		account.ID = orDefault(account.ID, uuid.NewString())
		account.Server = orDefault(account.Server, services.DefaultGameServer)
		account.Role = orDefault(account.Role, services.DefaultGameRole)
		account.LastLogin = orDefault(account.LastLogin, today)
		account.Notes = orDefault(account.Notes, services.DefaultGameNotes)
		account.OwnerUserID = ownerUserID
		account.CreatedAt = now
		if i.sealer != nil {
			sealed, err := i.sealer.Seal(account.Password, account.ID)
			if err != nil {
				return summary, fmt.Errorf("failed to seal password: %w", err)
			}
			account.Password = sealed
		}
		if err := accounts.Create(ctx, &account); err != nil {
			return summary, err
		}
		summary.GameAccounts++
	}

	memos := repositories.NewMemoRepository(tx, i.logger)
	for _, m := range snapshot.MemoTasks {
		task := m
		if strings.TrimSpace(task.Title) == "" || strings.TrimSpace(task.Date) == "" {
			summary.Skipped++
			continue
		}
		task.ID = orDefault(task.ID, uuid.NewString())
		task.Title = strings.TrimSpace(task.Title)
		task.Details = orDefault(task.Details, services.DefaultMemoDetails)
		if !services.ValidMemoPriority(task.Priority) {
			task.Priority = models.MemoPriorityMedium
		}
		if !services.ValidMemoStatus(task.Status) {
			task.Status = models.MemoStatusTodo
		}
		if !services.ValidMemoCategory(task.Category) {
			task.Category = models.MemoCategoryDaily
		}
		task.OwnerUserID = ownerUserID
		task.CreatedAt = now
		if err := memos.Create(ctx, &task); err != nil {
			return summary, err
		}
		summary.MemoTasks++
	}

	links := repositories.NewToolLinkRepository(tx, i.logger)
	for _, l := range snapshot.ToolLinks {
		link := l
		link.Name = strings.TrimSpace(link.Name)
		link.URL = services.NormalizeToolURL(link.URL)
		if link.Name == "" || link.URL == "" {
			summary.Skipped++
			continue
		}
		link.ID = orDefault(link.ID, uuid.NewString())
		link.Description = orDefault(link.Description, services.DefaultToolDescription)
		link.Category = orDefault(link.Category, services.DefaultToolCategory)
		link.IconText = services.NormalizeToolIcon(link.IconText, link.Name)
		link.OwnerUserID = ownerUserID
		link.CreatedAt = now
		if err := links.Create(ctx, &link); err != nil {
			return summary, err
		}
		summary.ToolLinks++
	}

	return summary, nil
}

func orDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
