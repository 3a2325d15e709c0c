package diet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type PlanRepo interface {
	// SupersedeActive deactivates every active plan of the user and returns how many changed.
	SupersedeActive(dbc dbctx.Context, userID int64) (int64, error)
	Create(dbc dbctx.Context, plans []*types.Plan) ([]*types.Plan, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error)
	// GetWithMeals preloads meals in order with their foods and alternatives.
	GetWithMeals(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error)
	ListByCalculation(dbc dbctx.Context, calculationID uuid.UUID) ([]*types.Plan, error)
	ListActiveByUser(dbc dbctx.Context, userID int64) ([]*types.Plan, error)
	UpdateTargets(dbc dbctx.Context, id uuid.UUID, macros types.Macros, totalCalories float64) error
	// LockForUpdate takes a row lock on the plan for the rest of dbc's transaction.
	LockForUpdate(dbc dbctx.Context, id uuid.UUID) error
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) SupersedeActive(dbc dbctx.Context, userID int64) (int64, error) {
	res := dbc.DB(r.db).Model(&types.Plan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, apierr.E(apierr.PersistenceFailure, "plans.SupersedeActive", res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.Info("Superseded active plans", "user_id", userID, "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (r *planRepo) Create(dbc dbctx.Context, plans []*types.Plan) ([]*types.Plan, error) {
	if len(plans) == 0 {
		return []*types.Plan{}, nil
	}
	if err := dbc.DB(r.db).Omit("Meals").Create(&plans).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "plans.Create", err)
	}
	return plans, nil
}

func (r *planRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error) {
	return r.first("plans.Get", dbc.DB(r.db).Where("id = ?", id))
}

func (r *planRepo) GetWithMeals(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error) {
	q := dbc.DB(r.db).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Meals.Foods", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Meals.Alternatives", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Meals.Alternatives.Foods", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id)
	return r.first("plans.GetWithMeals", q)
}

func (r *planRepo) ListByCalculation(dbc dbctx.Context, calculationID uuid.UUID) ([]*types.Plan, error) {
	var out []*types.Plan
	if err := dbc.DB(r.db).
		Where("calculation_id = ?", calculationID).
		Order("created_at ASC").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "plans.ListByCalculation", err)
	}
	return out, nil
}

func (r *planRepo) ListActiveByUser(dbc dbctx.Context, userID int64) ([]*types.Plan, error) {
	var out []*types.Plan
	if err := dbc.DB(r.db).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "plans.ListActiveByUser", err)
	}
	return out, nil
}

func (r *planRepo) UpdateTargets(dbc dbctx.Context, id uuid.UUID, macros types.Macros, totalCalories float64) error {
	res := dbc.DB(r.db).Model(&types.Plan{}).Where("id = ?", id).Updates(map[string]interface{}{
		"protein_g":      macros.ProteinG,
		"carbs_g":        macros.CarbsG,
		"fat_g":          macros.FatG,
		"total_calories": totalCalories,
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return apierr.E(apierr.PersistenceFailure, "plans.UpdateTargets", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Errorf(apierr.NotFound, "plans.UpdateTargets", "plan %s not found", id)
	}
	return nil
}

func (r *planRepo) LockForUpdate(dbc dbctx.Context, id uuid.UUID) error {
	_, err := r.first("plans.LockForUpdate",
		dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", id))
	return err
}

func (r *planRepo) first(op string, q *gorm.DB) (*types.Plan, error) {
	var p types.Plan
	err := q.First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, op, "plan not found")
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, op, err)
	}
	return &p, nil
}
