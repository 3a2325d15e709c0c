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

type CalculationRepo interface {
	Create(dbc dbctx.Context, calc *types.Calculation) (*types.Calculation, error)
	CreateFormulas(dbc dbctx.Context, rows []*types.CalculationFormula) error
	CreateMets(dbc dbctx.Context, rows []*types.CalculationMet) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Calculation, error)
	// GetFull preloads formulas, METs and plans.
	GetFull(dbc dbctx.Context, id uuid.UUID) (*types.Calculation, error)
	GetLatestByJob(dbc dbctx.Context, jobID uuid.UUID) (*types.Calculation, error)
	SetPhase(dbc dbctx.Context, id uuid.UUID, phase int) error
}

type calculationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCalculationRepo(db *gorm.DB, baseLog *logger.Logger) CalculationRepo {
	return &calculationRepo{db: db, log: baseLog.With("repo", "CalculationRepo")}
}

func (r *calculationRepo) Create(dbc dbctx.Context, calc *types.Calculation) (*types.Calculation, error) {
	if err := dbc.DB(r.db).Omit("Formulas", "Mets", "Plans").Create(calc).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "calculations.Create", err)
	}
	return calc, nil
}

func (r *calculationRepo) CreateFormulas(dbc dbctx.Context, rows []*types.CalculationFormula) error {
	if len(rows) == 0 {
		return nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "calculations.CreateFormulas", err)
	}
	return nil
}

func (r *calculationRepo) CreateMets(dbc dbctx.Context, rows []*types.CalculationMet) error {
	if len(rows) == 0 {
		return nil
	}
	if err := dbc.DB(r.db).Omit("MetActivity").Create(&rows).Error; err != nil {
		return apierr.E(apierr.PersistenceFailure, "calculations.CreateMets", err)
	}
	return nil
}

func (r *calculationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Calculation, error) {
	return r.first("calculations.Get", dbc.DB(r.db).Where("id = ?", id))
}

func (r *calculationRepo) GetFull(dbc dbctx.Context, id uuid.UUID) (*types.Calculation, error) {
	q := dbc.DB(r.db).
		Preload("Formulas").
		Preload("Mets").
		Preload("Mets.MetActivity").
		Preload("Plans", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("name ASC") }).
		Where("id = ?", id)
	return r.first("calculations.GetFull", q)
}

func (r *calculationRepo) GetLatestByJob(dbc dbctx.Context, jobID uuid.UUID) (*types.Calculation, error) {
	return r.first("calculations.GetLatestByJob", dbc.DB(r.db).Where("job_id = ?", jobID).Order("created_at DESC"))
}

func (r *calculationRepo) SetPhase(dbc dbctx.Context, id uuid.UUID, phase int) error {
	res := dbc.DB(r.db).Model(&types.Calculation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"phase": phase, "updated_at": time.Now()})
	if res.Error != nil {
		return apierr.E(apierr.PersistenceFailure, "calculations.SetPhase", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Errorf(apierr.NotFound, "calculations.SetPhase", "calculation %s not found", id)
	}
	return nil
}

func (r *calculationRepo) first(op string, q *gorm.DB) (*types.Calculation, error) {
	var calc types.Calculation
	err := q.First(&calc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Errorf(apierr.NotFound, op, "calculation not found")
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, op, err)
	}
	return &calc, nil
}
