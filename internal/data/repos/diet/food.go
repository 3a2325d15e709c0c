package diet

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type FoodRepo interface {
	Create(dbc dbctx.Context, foods []*types.Food) error
	// CreateAlternatives inserts alternatives together with their foods.
	CreateAlternatives(dbc dbctx.Context, alts []*types.MealAlternative) error
	CountByMeal(dbc dbctx.Context, mealID uuid.UUID) (int64, error)
}

type foodRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFoodRepo(db *gorm.DB, baseLog *logger.Logger) FoodRepo {
	return &foodRepo{db: db, log: baseLog.With("repo", "FoodRepo")}
}

func (r *foodRepo) Create(dbc dbctx.Context, foods []*types.Food) error {
	if len(foods) == 0 {
		return nil
	}
	if err := dbc.DB(r.db).Create(&foods).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "foods.Create", err)
	}
	return nil
}

func (r *foodRepo) CreateAlternatives(dbc dbctx.Context, alts []*types.MealAlternative) error {
	if len(alts) == 0 {
		return nil
	}
	if err := dbc.DB(r.db).Create(&alts).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "foods.CreateAlternatives", err)
	}
	return nil
}

func (r *foodRepo) CountByMeal(dbc dbctx.Context, mealID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Food{}).Where("meal_id = ?", mealID).Count(&n).Error; err != nil {
		return 0, apierr.E(apierr.PersistenceFailure, "foods.CountByMeal", err)
	}
	return n, nil
}
