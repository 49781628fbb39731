package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"study-planner/internal/model"
	"study-planner/internal/repository"
	"study-planner/internal/testutil"
)

func newPlan(id, owner string, createdAt time.Time, entries ...model.PlanEntry) *model.Plan {
	return &model.Plan{
		ID:            id,
		Owner:         owner,
		Topic:         "Go",
		HoursPerDay:   1,
		DeadlineWeeks: 1,
		DaysPerWeek:   7,
		Mode:          "flat",
		StartDate:     "2026-10-19",
		CreatedAt:     createdAt,
		Entries:       entries,
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	t.Run("Should store entries in emission order", func(t *testing.T) {
		repo := repository.NewPlanRepository(testutil.NewDB(t))
		plan := newPlan("p1", "tg:1", base,
			model.PlanEntry{Task: "A (60 mins)", Duration: 60, Date: "2026-10-19"},
			model.PlanEntry{Task: "Warmup", Duration: 15, Date: "2026-10-20", Recurring: true},
			model.PlanEntry{Task: "A (30 mins)", Duration: 30, Date: "2026-10-20"},
		)
		require.NoError(t, repo.Create(ctx, plan))
		require.Len(t, plan.Entries, 3)
		assert.Equal(t, "p1", plan.Entries[2].PlanID)

		got, err := repo.FindByID(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got.Entries, 3)
		for i, e := range got.Entries {
			assert.Equal(t, i, e.Position)
		}
		assert.Equal(t, "A (30 mins)", got.Entries[2].Task)
		assert.True(t, got.Entries[1].Recurring)

		day, err := repo.EntriesOn(ctx, "p1", "2026-10-20")
		require.NoError(t, err)
		require.Len(t, day, 2)
		assert.Equal(t, "Warmup", day[0].Task)
	})

	t.Run("Should accept a plan without entries", func(t *testing.T) {
		repo := repository.NewPlanRepository(testutil.NewDB(t))
		require.NoError(t, repo.Create(ctx, newPlan("empty", "tg:1", base)))
		got, err := repo.FindByID(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, got.Entries)
	})

	t.Run("Should report missing plans", func(t *testing.T) {
		repo := repository.NewPlanRepository(testutil.NewDB(t))
		_, err := repo.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Should return the latest plan of an owner", func(t *testing.T) {
		repo := repository.NewPlanRepository(testutil.NewDB(t))
		require.NoError(t, repo.Create(ctx, newPlan("old", "tg:1", base)))
		require.NoError(t, repo.Create(ctx, newPlan("new", "tg:1", base.Add(time.Hour))))
		require.NoError(t, repo.Create(ctx, newPlan("other", "tg:2", base.Add(2*time.Hour))))

		got, err := repo.Latest(ctx, "tg:1")
		require.NoError(t, err)
		assert.Equal(t, "new", got.ID)
	})

	t.Run("Should purge stale plans and their entries", func(t *testing.T) {
		db := testutil.NewDB(t)
		repo := repository.NewPlanRepository(db)
		require.NoError(t, repo.Create(ctx, newPlan("stale", "tg:1", base, model.PlanEntry{Task: "A", Duration: 10, Date: "2026-10-19"})))
		require.NoError(t, repo.Create(ctx, newPlan("fresh", "tg:1", base.Add(48*time.Hour), model.PlanEntry{Task: "B", Duration: 10, Date: "2026-10-21"})))

		removed, err := repo.DeleteOlderThan(ctx, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		_, err = repo.FindByID(ctx, "stale")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		var orphans int64
		require.NoError(t, db.Model(&model.PlanEntry{}).Where("plan_id = ?", "stale").Count(&orphans).Error)
		assert.Zero(t, orphans)

		fresh, err := repo.FindByID(ctx, "fresh")
		require.NoError(t, err)
		assert.Len(t, fresh.Entries, 1)
	})
}
