package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"study-planner/internal/model"
)

// PlanRepository stores generated plans and their dated entries.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create stores the plan and its entries in one transaction.
func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries := plan.Entries
		plan.Entries = nil
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].PlanID = plan.ID
			entries[i].Position = i
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 200).Error; err != nil {
				return err
			}
		}
		plan.Entries = entries
		return nil
	})
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.WithContext(ctx).Preload("Entries", orderedEntries).
		Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Latest returns the most recent plan of owner, entries included.
func (r *PlanRepository) Latest(ctx context.Context, owner string) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.WithContext(ctx).Preload("Entries", orderedEntries).
		Where("owner = ?", owner).Order("created_at DESC").First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) EntriesOn(ctx context.Context, planID, date string) ([]model.PlanEntry, error) {
	var entries []model.PlanEntry
	if err := r.db.WithContext(ctx).Where("plan_id = ? AND date = ?", planID, date).
		Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOlderThan removes plans created before cutoff along with their entries.
func (r *PlanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&model.Plan{}).Select("id").Where("created_at < ?", cutoff)
		if err := tx.Where("plan_id IN (?)", stale).Delete(&model.PlanEntry{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", cutoff).Delete(&model.Plan{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge plans: %w", err)
	}
	return removed, nil
}

func orderedEntries(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
