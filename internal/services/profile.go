package services

import (
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	profilerepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type ProfileService interface {
	Get(dbc dbctx.Context, userID int64) (*types.Profile, error)
	// Save replaces the user's whole nutrition profile.
	Save(dbc dbctx.Context, userID int64, p *types.Profile) (*types.Profile, error)
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	validate *validator.Validate
	repo     profilerepo.ProfileRepo
}

func NewProfileService(db *gorm.DB, baseLog *logger.Logger, repo profilerepo.ProfileRepo) ProfileService {
	return &profileService{
		db:       db,
		log:      baseLog.With("service", "ProfileService"),
		validate: validator.New(),
		repo:     repo,
	}
}

func (s *profileService) Get(dbc dbctx.Context, userID int64) (*types.Profile, error) {
	return s.repo.Get(dbc, userID)
}

func (s *profileService) Save(dbc dbctx.Context, userID int64, p *types.Profile) (*types.Profile, error) {
	if userID <= 0 || p == nil {
		return nil, apierr.Errorf(apierr.InvalidInput, "profile.Save", "user id and profile are required")
	}
	if err := s.validate.Struct(p); err != nil {
		return nil, apierr.E(apierr.InvalidInput, "profile.Save", validationError(err))
	}
	p.UserID = userID
	p.Biometrics.UserID = userID
	p.Goal.UserID = userID

	err := s.db.WithContext(ctxOf(dbc)).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.repo.UpsertBiometrics(inner, p.Biometrics); err != nil {
			return err
		}
		if err := s.repo.UpsertGoal(inner, p.Goal); err != nil {
			return err
		}
		if err := s.repo.ReplaceActivities(inner, userID, p.Activities); err != nil {
			return err
		}
		return s.repo.ReplacePreferences(inner, userID, p.Preferences)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Profile saved", "user_id", userID, "activities", len(p.Activities), "preferences", len(p.Preferences))
	return s.repo.Get(dbc, userID)
}
