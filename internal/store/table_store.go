package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpacas/gtd-neto/internal/model"
)

// itemRow is the document table schema: one row per item, the full
// item serialized into payload. Some deployments key the table on
// (id, owner), others on id alone; the upsert path copes with both.
type itemRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Owner     string         `gorm:"primaryKey;size:128;index"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"index"`
}

func (itemRow) TableName() string { return "items" }

var (
	conflictIDOwner = []clause.Column{{Name: "id"}, {Name: "owner"}}
	conflictIDOnly  = []clause.Column{{Name: "id"}}
)

// TableStore persists items as rows of a shared document table,
// scoped by owner.
type TableStore struct {
	db *gorm.DB

	// upsert is swappable so tests can observe conflict-target retries
	// without a real backend.
	upsert func(ctx context.Context, rows []itemRow, target []clause.Column) error
}

func NewTableStore(db *gorm.DB) *TableStore {
	s := &TableStore{db: db}
	s.upsert = s.gormUpsert
	return s
}

func (s *TableStore) gormUpsert(ctx context.Context, rows []itemRow, target []clause.Column) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   target,
		UpdateAll: true,
	}).Create(&rows).Error
}

// upsertRows tries the composite (id, owner) conflict target first and
// retries exactly once with the single-column target, only when the
// backend reports that no matching unique constraint exists. Any other
// failure propagates after the first attempt.
func (s *TableStore) upsertRows(ctx context.Context, rows []itemRow) error {
	err := s.upsert(ctx, rows, conflictIDOwner)
	if err == nil || !isMissingConflictTarget(err) {
		return err
	}
	return s.upsert(ctx, rows, conflictIDOnly)
}

// isMissingConflictTarget recognizes "there is no unique or exclusion
// constraint matching the ON CONFLICT specification" across drivers.
func isMissingConflictTarget(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P10"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "on conflict clause does not match") ||
		strings.Contains(msg, "no unique or exclusion constraint")
}

// wrap classifies a backend failure for the caller. The raw error is
// kept for logs; callers only branch on the category.
func (s *TableStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	cat := CategoryUnknown
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501", "28000", "28P01", "3D000":
			cat = CategoryPermission
		case "42P01", "42P10", "42703":
			cat = CategorySchema
		}
	}
	return &Error{Category: cat, Op: "table store " + op, Err: err}
}

func encodeRow(owner string, it model.Item) (itemRow, error) {
	payload, err := json.Marshal(it)
	if err != nil {
		return itemRow{}, fmt.Errorf("encode item %s: %w", it.ID, err)
	}
	updated := it.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return itemRow{
		ID:        it.ID,
		Owner:     owner,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: updated,
	}, nil
}

func decodeRows(rows []itemRow) ([]model.Item, error) {
	out := make([]model.Item, 0, len(rows))
	for _, row := range rows {
		var it model.Item
		if err := json.Unmarshal(row.Payload, &it); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", row.ID, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *TableStore) LoadAll(ctx context.Context, owner string) ([]model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	var rows []itemRow
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, s.wrap("load all", err)
	}
	return decodeRows(rows)
}

// LoadByList filters in the query, not in memory: an owner's full
// dataset can be arbitrarily large and must not be materialized to
// answer a single-list read.
func (s *TableStore) LoadByList(ctx context.Context, owner string, list model.List, excludeDone bool) ([]model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Where(datatypes.JSONQuery("payload").Equals(string(list), "list"))
	if excludeDone {
		q = q.Not(datatypes.JSONQuery("payload").Equals(string(model.StatusDone), "status"))
	}
	var rows []itemRow
	if err := q.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, s.wrap("load by list", err)
	}
	return decodeRows(rows)
}

func (s *TableStore) LoadByStatus(ctx context.Context, owner string, status model.Status) ([]model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	var rows []itemRow
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Where(datatypes.JSONQuery("payload").Equals(string(status), "status")).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, s.wrap("load by status", err)
	}
	return decodeRows(rows)
}

func (s *TableStore) LoadByID(ctx context.Context, owner, id string) (model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return model.Item{}, err
	}
	if err := checkID(id); err != nil {
		return model.Item{}, err
	}
	var row itemRow
	err := s.db.WithContext(ctx).
		Where("owner = ? AND id = ?", owner, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Item{}, ErrNotFound
	}
	if err != nil {
		return model.Item{}, s.wrap("load by id", err)
	}
	items, err := decodeRows([]itemRow{row})
	if err != nil {
		return model.Item{}, err
	}
	return items[0], nil
}

// SaveAll replaces the owner's item set by reconciliation: one batch
// upsert of everything in items, then one batch delete of the ids that
// are stored but no longer present. Upsert runs first so a crash
// between the two steps can only leave a stale row behind, never drop
// a live one.
func (s *TableStore) SaveAll(ctx context.Context, owner string, items []model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}

	if len(items) == 0 {
		err := s.db.WithContext(ctx).
			Where("owner = ?", owner).
			Delete(&itemRow{}).Error
		return s.wrap("clear", err)
	}

	rows := make([]itemRow, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if err := checkID(it.ID); err != nil {
			return err
		}
		row, err := encodeRow(owner, it)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		ids = append(ids, it.ID)
	}

	if err := s.upsertRows(ctx, rows); err != nil {
		return s.wrap("save all", err)
	}

	err := s.db.WithContext(ctx).
		Where("owner = ? AND id NOT IN ?", owner, ids).
		Delete(&itemRow{}).Error
	return s.wrap("prune", err)
}

func (s *TableStore) SaveOne(ctx context.Context, owner string, item model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(item.ID); err != nil {
		return err
	}
	row, err := encodeRow(owner, item)
	if err != nil {
		return err
	}
	if err := s.upsertRows(ctx, []itemRow{row}); err != nil {
		return s.wrap("save one", err)
	}
	return nil
}

func (s *TableStore) DeleteOne(ctx context.Context, owner, id string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Where("owner = ? AND id = ?", owner, id).
		Delete(&itemRow{}).Error
	return s.wrap("delete one", err)
}

// FindRecentDuplicate inspects only the owner's most recently updated
// rows and matches the capture text in memory. It never scans the
// whole table by payload content.
func (s *TableStore) FindRecentDuplicate(ctx context.Context, owner, input string, now time.Time) (*model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	var rows []itemRow
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated_at DESC").
		Limit(recentLookback).
		Find(&rows).Error
	if err != nil {
		return nil, s.wrap("find duplicate", err)
	}
	items, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if isDuplicateCandidate(items[i], input, now) {
			return &items[i], nil
		}
	}
	return nil, nil
}
