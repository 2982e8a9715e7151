package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/jpacas/gtd-neto/internal/model"
)

// fakeUpsert records every attempt and answers from a script keyed by
// attempt number.
type fakeUpsert struct {
	targets [][]clause.Column
	errs    []error
}

func (f *fakeUpsert) fn(ctx context.Context, rows []itemRow, target []clause.Column) error {
	f.targets = append(f.targets, target)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func targetNames(cols []clause.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestUpsert_FallsBackOnMissingConstraint(t *testing.T) {
	missing := &pgconn.PgError{
		Code:    "42P10",
		Message: "there is no unique or exclusion constraint matching the ON CONFLICT specification",
	}
	fake := &fakeUpsert{errs: []error{missing, nil}}
	s := &TableStore{upsert: fake.fn}

	it := model.NewItem("Llamar al banco")
	err := s.SaveOne(context.Background(), "u1", it)

	require.NoError(t, err)
	require.Len(t, fake.targets, 2)
	assert.Equal(t, []string{"id", "owner"}, targetNames(fake.targets[0]))
	assert.Equal(t, []string{"id"}, targetNames(fake.targets[1]))
}

func TestUpsert_NoFallbackOnOtherErrors(t *testing.T) {
	denied := &pgconn.PgError{Code: "42501", Message: "permission denied for table items"}
	fake := &fakeUpsert{errs: []error{denied}}
	s := &TableStore{upsert: fake.fn}

	err := s.SaveOne(context.Background(), "u1", model.NewItem("Llamar al banco"))

	require.Error(t, err)
	assert.Len(t, fake.targets, 1)
	assert.Equal(t, CategoryPermission, CategoryOf(err))
}

func TestUpsert_SurfacesFinalAttemptError(t *testing.T) {
	missing := &pgconn.PgError{Code: "42P10", Message: "no unique or exclusion constraint"}
	second := &pgconn.PgError{Code: "42P01", Message: `relation "items" does not exist`}
	fake := &fakeUpsert{errs: []error{missing, second}}
	s := &TableStore{upsert: fake.fn}

	err := s.SaveOne(context.Background(), "u1", model.NewItem("Llamar al banco"))

	require.Error(t, err)
	assert.Len(t, fake.targets, 2)
	assert.Equal(t, CategorySchema, CategoryOf(err))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "42P01", pgErr.Code)
}

func TestIsMissingConflictTarget(t *testing.T) {
	assert.True(t, isMissingConflictTarget(&pgconn.PgError{Code: "42P10"}))
	assert.True(t, isMissingConflictTarget(errors.New("SQL logic error: ON CONFLICT clause does not match any PRIMARY KEY or UNIQUE constraint")))
	assert.False(t, isMissingConflictTarget(&pgconn.PgError{Code: "42501"}))
	assert.False(t, isMissingConflictTarget(errors.New("connection refused")))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryUnknown, CategoryOf(errors.New("boom")))
	assert.Equal(t, CategoryPermission, CategoryOf(&Error{Category: CategoryPermission, Op: "x", Err: errors.New("denied")}))
}
