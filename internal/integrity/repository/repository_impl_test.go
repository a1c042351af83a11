package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&integritydomain.Flag{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return db, node
}

func newFlag(node *snowflake.Node, lotCode, productionDate, flagType string, severity integritydomain.Severity) *integritydomain.Flag {
	return &integritydomain.Flag{
		ID:             node.Generate(),
		LotCode:        lotCode,
		ProductionDate: productionDate,
		FlagType:       flagType,
		Severity:       severity,
		DetectedAt:     time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestInsertCycleSkipsUnresolvedDuplicates(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	first := newFlag(node, "7", "2024-02-01", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning)
	inserted, err := repo.InsertCycle(ctx, db, []*integritydomain.Flag{first})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same batch and type again, plus a genuinely new finding.
	dup := newFlag(node, "7", "2024-02-01", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning)
	fresh := newFlag(node, "7", "2024-02-01", integritydomain.FlagDateConflict, integritydomain.SeverityCritical)
	inserted, err = repo.InsertCycle(ctx, db, []*integritydomain.Flag{dup, fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	flags, err := repo.List(ctx, db, integritydomain.ListFilter{LotCode: "7"})
	require.NoError(t, err)
	assert.Len(t, flags, 2)
}

func TestInsertCycleKeepsLotsSharingACodeApart(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	// Lot code "7" was produced on two different dates; both batches
	// are awaiting inspection and each deserves its own flag.
	feb1 := newFlag(node, "7", "2024-02-01", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning)
	feb5 := newFlag(node, "7", "2024-02-05", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning)
	inserted, err := repo.InsertCycle(ctx, db, []*integritydomain.Flag{feb1, feb5})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// A later cycle repeating one of the batches is still a duplicate.
	again := newFlag(node, "7", "2024-02-05", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning)
	inserted, err = repo.InsertCycle(ctx, db, []*integritydomain.Flag{again})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	flags, err := repo.List(ctx, db, integritydomain.ListFilter{LotCode: "7"})
	require.NoError(t, err)
	require.Len(t, flags, 2)
	dates := map[string]bool{}
	for _, flag := range flags {
		dates[flag.ProductionDate] = true
	}
	assert.True(t, dates["2024-02-01"] && dates["2024-02-05"])
}

func TestInsertCycleReinsertsAfterResolution(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	flag := newFlag(node, "7", "2024-02-01", integritydomain.FlagMissingQuality, integritydomain.SeverityError)
	_, err := repo.InsertCycle(ctx, db, []*integritydomain.Flag{flag})
	require.NoError(t, err)

	resolved, err := repo.Resolve(ctx, db, flag.ID, time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, resolved)

	// The condition persisting into the next cycle is a new finding.
	again := newFlag(node, "7", "2024-02-01", integritydomain.FlagMissingQuality, integritydomain.SeverityError)
	inserted, err := repo.InsertCycle(ctx, db, []*integritydomain.Flag{again})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestResolveIsIdempotent(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	flag := newFlag(node, "42", "2024-02-01", integritydomain.FlagDuplicateRecord, integritydomain.SeverityError)
	_, err := repo.InsertCycle(ctx, db, []*integritydomain.Flag{flag})
	require.NoError(t, err)

	resolvedAt := time.Date(2024, 2, 11, 9, 0, 0, 0, time.UTC)
	resolved, err := repo.Resolve(ctx, db, flag.ID, resolvedAt)
	require.NoError(t, err)
	assert.True(t, resolved)

	resolved, err = repo.Resolve(ctx, db, flag.ID, resolvedAt)
	require.NoError(t, err)
	assert.False(t, resolved, "second resolve must not report an update")

	stored, err := repo.FindByID(ctx, db, flag.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsResolved)
	require.NotNil(t, stored.ResolvedAt)
}

func TestListFiltersAndCounts(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	flags := []*integritydomain.Flag{
		newFlag(node, "1", "2024-02-01", integritydomain.FlagPendingInspection, integritydomain.SeverityWarning),
		newFlag(node, "2", "2024-02-01", integritydomain.FlagOrphanedRecord, integritydomain.SeverityError),
		newFlag(node, "3", "2024-02-01", integritydomain.FlagDateConflict, integritydomain.SeverityCritical),
	}
	_, err := repo.InsertCycle(ctx, db, flags)
	require.NoError(t, err)

	errorsOnly, err := repo.List(ctx, db, integritydomain.ListFilter{Severity: integritydomain.SeverityError})
	require.NoError(t, err)
	require.Len(t, errorsOnly, 1)
	assert.Equal(t, integritydomain.FlagOrphanedRecord, errorsOnly[0].FlagType)

	limited, err := repo.List(ctx, db, integritydomain.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	counts, err := repo.CountUnresolvedBySeverity(ctx, db)
	require.NoError(t, err)
	assert.Len(t, counts, 3)
	total := int64(0)
	for _, row := range counts {
		total += row.Count
	}
	assert.EqualValues(t, 3, total)
}
