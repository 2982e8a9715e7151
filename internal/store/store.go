// Package store persists GTD items for one owner at a time, behind
// either a local JSON file or a remote document table. The backend is
// chosen once from configuration; both expose the same contract.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/jpacas/gtd-neto/internal/config"
	"github.com/jpacas/gtd-neto/internal/model"
)

// duplicateWindow is how close in time two identical captures must be
// for the second one to count as a double submission.
const duplicateWindow = 3 * time.Second

// recentLookback bounds how many rows FindRecentDuplicate inspects on
// backends that cannot match the text in the query itself.
const recentLookback = 20

// Store is the owner-scoped persistence contract.
//
// SaveAll is a full-snapshot replace and therefore last-writer-wins
// across concurrent requests touching the same owner. That race is a
// documented property of the system, not something the backends try to
// hide; what they do guarantee is that a reader never observes a
// half-written snapshot.
type Store interface {
	LoadAll(ctx context.Context, owner string) ([]model.Item, error)
	LoadByList(ctx context.Context, owner string, list model.List, excludeDone bool) ([]model.Item, error)
	LoadByStatus(ctx context.Context, owner string, status model.Status) ([]model.Item, error)
	LoadByID(ctx context.Context, owner, id string) (model.Item, error)
	SaveAll(ctx context.Context, owner string, items []model.Item) error
	SaveOne(ctx context.Context, owner string, item model.Item) error
	DeleteOne(ctx context.Context, owner, id string) error
	FindRecentDuplicate(ctx context.Context, owner, input string, now time.Time) (*model.Item, error)
}

// New builds the backend selected by cfg. The returned store is safe
// for concurrent use and lives for the whole process.
func New(cfg config.Config) (Store, error) {
	switch cfg.StorageMode {
	case config.ModeTable:
		db, err := OpenDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewTableStore(db), nil
	default:
		return NewFileStore(cfg.DataFile), nil
	}
}

func checkOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrBadOwner
	}
	return nil
}

func checkID(id string) error {
	if !model.ValidID(id) {
		return ErrBadID
	}
	return nil
}

// sameInput compares captures the way the duplicate check does:
// trimmed and case-insensitive.
func sameInput(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func withinWindow(createdAt, now time.Time) bool {
	d := now.Sub(createdAt)
	if d < 0 {
		d = -d
	}
	return d <= duplicateWindow
}

// isDuplicateCandidate is the shared in-memory part of the
// FindRecentDuplicate contract.
func isDuplicateCandidate(it model.Item, input string, now time.Time) bool {
	return it.List == model.ListCollect &&
		it.Status != model.StatusDone &&
		sameInput(it.Input, input) &&
		withinWindow(it.CreatedAt, now)
}
