package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	profilerepo "github.com/luisquicidev/easydiet-backend/internal/data/repos/profile"
	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/profile"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

func TestProfileSaveReplacesEverything(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewProfileService(db, log, profilerepo.NewProfileRepo(db, log))
	dbc := dbctx.Context{Ctx: context.Background()}

	in := &types.Profile{
		Biometrics: &types.Biometrics{WeightKg: 65, HeightCm: 168, Age: 28, Gender: "female"},
		Goal:       &types.Goal{Type: profile.GoalMaintenance, MealsPerDay: 5, DietType: profile.DietVegetarian},
		Activities: []types.Activity{{Description: "cycling", WeeklyFrequency: 2, DurationMinutes: 60}},
		Preferences: []types.FoodPreference{
			{Name: "tofu", Kind: profile.PreferenceLiked},
		},
	}
	got, err := svc.Save(dbc, 9, in)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MealsPerDay())
	require.Len(t, got.Activities, 1)

	in.Activities = nil
	in.Preferences = []types.FoodPreference{{Name: "gluten", Kind: profile.PreferenceRestriction}}
	got, err = svc.Save(dbc, 9, in)
	require.NoError(t, err)
	assert.Empty(t, got.Activities)
	require.Len(t, got.Restricted(), 1)
	assert.Equal(t, "gluten", got.Restricted()[0].Name)
}

func TestProfileSaveValidates(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewProfileService(db, log, profilerepo.NewProfileRepo(db, log))
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := svc.Save(dbc, 9, &types.Profile{
		Biometrics: &types.Biometrics{WeightKg: 65, HeightCm: 168, Age: 28, Gender: "female"},
		Goal:       &types.Goal{Type: "bulk", MealsPerDay: 3},
	})
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "Type")

	_, err = svc.Save(dbc, 9, &types.Profile{
		Biometrics: &types.Biometrics{WeightKg: 65, HeightCm: 168, Age: 28, Gender: "female"},
		Goal:       &types.Goal{Type: profile.GoalGain, MealsPerDay: 12},
	})
	assert.Equal(t, apierr.InvalidInput, apierr.KindOf(err))
}
