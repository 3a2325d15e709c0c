package diet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type MealRepo interface {
	Create(dbc dbctx.Context, meals []*types.Meal) ([]*types.Meal, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Meal, error)
	ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*types.Meal, error)
	// DeleteByPlan removes the plan's meals; foods and alternatives go with them.
	DeleteByPlan(dbc dbctx.Context, planID uuid.UUID) (int64, error)
	UpdateDetails(dbc dbctx.Context, id uuid.UUID, macros types.Macros, howTo, servingSuggestion string) error
	// DetailProgress counts the plan's meals and how many of them have foods.
	DetailProgress(dbc dbctx.Context, planID uuid.UUID) (detailed int, total int, err error)
}

type mealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealRepo(db *gorm.DB, baseLog *logger.Logger) MealRepo {
	return &mealRepo{db: db, log: baseLog.With("repo", "MealRepo")}
}

func (r *mealRepo) Create(dbc dbctx.Context, meals []*types.Meal) ([]*types.Meal, error) {
	if len(meals) == 0 {
		return []*types.Meal{}, nil
	}
	if err := dbc.DB(r.db).Omit("Foods", "Alternatives").Create(&meals).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "meals.Create", err)
	}
	return meals, nil
}

func (r *mealRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Meal, error) {
	var m types.Meal
	err := dbc.DB(r.db).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, "meals.Get", "meal %s not found", id)
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "meals.Get", err)
	}
	return &m, nil
}

func (r *mealRepo) ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*types.Meal, error) {
	var out []*types.Meal
	if err := dbc.DB(r.db).Where("plan_id = ?", planID).Order("sort_order ASC").Find(&out).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "meals.ListByPlan", err)
	}
	return out, nil
}

func (r *mealRepo) DeleteByPlan(dbc dbctx.Context, planID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("plan_id = ?", planID).Delete(&types.Meal{})
	if res.Error != nil {
		return 0, apierr.E(apierr.PersistenceFailure, "meals.DeleteByPlan", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *mealRepo) UpdateDetails(dbc dbctx.Context, id uuid.UUID, macros types.Macros, howTo, servingSuggestion string) error {
	res := dbc.DB(r.db).Model(&types.Meal{}).Where("id = ?", id).Updates(map[string]interface{}{
		"protein_g":          macros.ProteinG,
		"carbs_g":            macros.CarbsG,
		"fat_g":              macros.FatG,
		"calories":           macros.Calories(),
		"how_to":             howTo,
		"serving_suggestion": servingSuggestion,
		"updated_at":         time.Now(),
	})
	if res.Error != nil {
		return apierr.E(apierr.PersistenceFailure, "meals.UpdateDetails", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Errorf(apierr.NotFound, "meals.UpdateDetails", "meal %s not found", id)
	}
	return nil
}

func (r *mealRepo) DetailProgress(dbc dbctx.Context, planID uuid.UUID) (int, int, error) {
	var total, detailed int64
	db := dbc.DB(r.db)
	if err := db.Model(&types.Meal{}).Where("plan_id = ?", planID).Count(&total).Error; err != nil {
		return 0, 0, apierr.E(apierr.PersistenceFailure, "meals.DetailProgress", err)
	}
	sub := db.Session(&gorm.Session{NewDB: true}).Model(&types.Food{}).Select("meal_id")
	if err := db.Session(&gorm.Session{NewDB: true}).Model(&types.Meal{}).
		Where("plan_id = ? AND id IN (?)", planID, sub).
		Count(&detailed).Error; err != nil {
		return 0, 0, apierr.E(apierr.PersistenceFailure, "meals.DetailProgress", err)
	}
	return int(detailed), int(total), nil
}
