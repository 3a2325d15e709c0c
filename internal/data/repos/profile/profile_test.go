package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	domainprofile "github.com/luisquicidev/easydiet-backend/internal/domain/profile"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

func TestProfileRepoGet(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewProfileRepo(db, testutil.Logger(t))

	_, err := repo.Get(dbc, 99)
	assert.True(t, apierr.Is(err, apierr.NotFound))

	testutil.SeedProfile(t, ctx, db, 5, 4)
	p, err := repo.Get(dbc, 5)
	require.NoError(t, err)
	require.NotNil(t, p.Biometrics)
	require.NotNil(t, p.Goal)
	assert.Equal(t, 80.0, p.Biometrics.WeightKg)
	assert.Equal(t, 4, p.MealsPerDay())
	assert.Len(t, p.Activities, 1)
	assert.Len(t, p.Liked(), 1)
	assert.Len(t, p.Restricted(), 1)
}

func TestProfileRepoUpserts(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewProfileRepo(db, testutil.Logger(t))

	require.NoError(t, repo.UpsertGoal(dbc, &types.Goal{UserID: 3, Type: domainprofile.GoalGain, CaloriePct: 10, MealsPerDay: 5}))
	require.NoError(t, repo.UpsertGoal(dbc, &types.Goal{UserID: 3, Type: domainprofile.GoalLoss, CaloriePct: -15, MealsPerDay: 3}))
	require.NoError(t, repo.ReplaceActivities(dbc, 3, []types.Activity{{Description: "swimming", WeeklyFrequency: 2, DurationMinutes: 45}}))
	require.NoError(t, repo.ReplaceActivities(dbc, 3, []types.Activity{{Description: "cycling", WeeklyFrequency: 1, DurationMinutes: 60}}))

	p, err := repo.Get(dbc, 3)
	require.NoError(t, err)
	assert.Nil(t, p.Biometrics)
	assert.Equal(t, domainprofile.GoalLoss, p.Goal.Type)
	require.Len(t, p.Activities, 1)
	assert.Equal(t, "cycling", p.Activities[0].Description)
}
