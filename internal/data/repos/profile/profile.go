package profile

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// ProfileRepo stores the user nutrition profile the pipeline reads.
type ProfileRepo interface {
	// Get returns the current profile. NotFound when the user has neither
	// biometrics nor a goal.
	Get(dbc dbctx.Context, userID int64) (*types.Profile, error)
	UpsertBiometrics(dbc dbctx.Context, b *types.Biometrics) error
	UpsertGoal(dbc dbctx.Context, g *types.Goal) error
	ReplaceActivities(dbc dbctx.Context, userID int64, acts []types.Activity) error
	ReplacePreferences(dbc dbctx.Context, userID int64, prefs []types.FoodPreference) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Get(dbc dbctx.Context, userID int64) (*types.Profile, error) {
	db := dbc.DB(r.db)
	p := &types.Profile{UserID: userID}

	var bio types.Biometrics
	switch err := db.Where("user_id = ?", userID).First(&bio).Error; {
	case err == nil:
		p.Biometrics = &bio
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apierr.E(apierr.PersistenceFailure, "profile.Get", err)
	}

	var goal types.Goal
	switch err := db.Where("user_id = ?", userID).First(&goal).Error; {
	case err == nil:
		p.Goal = &goal
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apierr.E(apierr.PersistenceFailure, "profile.Get", err)
	}

	if p.Biometrics == nil && p.Goal == nil {
		return nil, apierr.Errorf(apierr.NotFound, "profile.Get", "no nutrition profile for user %d", userID)
	}

	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&p.Activities).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "profile.Get", err)
	}
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&p.Preferences).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "profile.Get", err)
	}
	return p, nil
}

func (r *profileRepo) UpsertBiometrics(dbc dbctx.Context, b *types.Biometrics) error {
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(b).Error
	if err != nil {
		return apierr.E(apierr.PersistenceFailure, "profile.UpsertBiometrics", err)
	}
	return nil
}

func (r *profileRepo) UpsertGoal(dbc dbctx.Context, g *types.Goal) error {
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(g).Error
	if err != nil {
		return apierr.E(apierr.PersistenceFailure, "profile.UpsertGoal", err)
	}
	return nil
}

func (r *profileRepo) ReplaceActivities(dbc dbctx.Context, userID int64, acts []types.Activity) error {
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&types.Activity{}).Error; err != nil {
			return apierr.E(apierr.PersistenceFailure, "profile.ReplaceActivities", err)
		}
		if len(acts) == 0 {
			return nil
		}
		for i := range acts {
			acts[i].UserID = userID
		}
		if err := tx.Create(&acts).Error; err != nil {
			return apierr.E(apierr.PersistenceFailure, "profile.ReplaceActivities", err)
		}
		return nil
	})
}

func (r *profileRepo) ReplacePreferences(dbc dbctx.Context, userID int64, prefs []types.FoodPreference) error {
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&types.FoodPreference{}).Error; err != nil {
			return apierr.E(apierr.PersistenceFailure, "profile.ReplacePreferences", err)
		}
		if len(prefs) == 0 {
			return nil
		}
		for i := range prefs {
			prefs[i].UserID = userID
		}
		if err := tx.Create(&prefs).Error; err != nil {
			return apierr.E(apierr.PersistenceFailure, "profile.ReplacePreferences", err)
		}
		return nil
	})
}
