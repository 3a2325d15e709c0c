package diet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

func TestPlanRepoSupersedeActive(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewPlanRepo(db, testutil.Logger(t))

	job := testutil.SeedJob(t, ctx, db, 11, jobs.StageCalculated)
	calc := testutil.SeedCalculation(t, ctx, db, job, 2500)
	testutil.SeedPlan(t, ctx, db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 200, FatG: 60}, true)
	testutil.SeedPlan(t, ctx, db, calc, "training day", types.Macros{ProteinG: 160, CarbsG: 260, FatG: 60}, true)

	otherJob := testutil.SeedJob(t, ctx, db, 12, jobs.StageCalculated)
	otherCalc := testutil.SeedCalculation(t, ctx, db, otherJob, 2000)
	testutil.SeedPlan(t, ctx, db, otherCalc, "standard day", types.Macros{ProteinG: 120, CarbsG: 180, FatG: 50}, true)

	n, err := repo.SupersedeActive(dbc, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := repo.ListActiveByUser(dbc, 11)
	require.NoError(t, err)
	assert.Empty(t, active)

	otherActive, err := repo.ListActiveByUser(dbc, 12)
	require.NoError(t, err)
	assert.Len(t, otherActive, 1)

	n, err = repo.SupersedeActive(dbc, 11)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.ListByCalculation(dbc, calc.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2, "superseded plans are kept")
}

func TestMetActivityResolve(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewMetActivityRepo(db, testutil.Logger(t))

	exact, err := repo.Resolve(dbc, "12150")
	require.NoError(t, err)
	require.NotNil(t, exact)
	assert.Equal(t, "running, general", exact.Description)

	byDesc, err := repo.Resolve(dbc, "Swimming, General")
	require.NoError(t, err)
	require.NotNil(t, byDesc)
	assert.Equal(t, "18350", byDesc.Code)

	sub, err := repo.Resolve(dbc, "pilates")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "02150", sub.Code)

	reverse, err := repo.Resolve(dbc, "weekly yoga, hatha class")
	require.NoError(t, err)
	require.NotNil(t, reverse)
	assert.Equal(t, "02160", reverse.Code)

	fallback, err := repo.Resolve(dbc, "underwater basket weaving")
	require.NoError(t, err)
	require.NotNil(t, fallback)
	assert.Equal(t, "01015", fallback.Code, "first row by code")

	require.NoError(t, db.Exec("DELETE FROM met_activity").Error)
	none, err := repo.Resolve(dbc, "running")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMealRepoDetailProgressAndPlanLoad(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	meals := NewMealRepo(db, testutil.Logger(t))
	plans := NewPlanRepo(db, testutil.Logger(t))
	foods := NewFoodRepo(db, testutil.Logger(t))

	job := testutil.SeedJob(t, ctx, db, 1, jobs.StageMealsPlanned)
	calc := testutil.SeedCalculation(t, ctx, db, job, 2400)
	plan := testutil.SeedPlan(t, ctx, db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 220, FatG: 70}, true)
	m1 := testutil.SeedMeal(t, ctx, db, plan.ID, "breakfast", 0, types.Macros{ProteinG: 50, CarbsG: 70, FatG: 20})
	m2 := testutil.SeedMeal(t, ctx, db, plan.ID, "lunch", 1, types.Macros{ProteinG: 100, CarbsG: 150, FatG: 50})

	detailed, total, err := meals.DetailProgress(dbc, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detailed)
	assert.Equal(t, 2, total)

	require.NoError(t, foods.Create(dbc, []*types.Food{
		{MealID: m1.ID, Name: "oats", Grams: 80, SortOrder: 0},
		{MealID: m1.ID, Name: "eggs", Grams: 100, SortOrder: 1},
	}))
	require.NoError(t, foods.CreateAlternatives(dbc, []*types.MealAlternative{{
		MealID: m1.ID, Name: "yogurt bowl",
		Foods: []types.AlternativeFood{{Name: "greek yogurt", Grams: 200}},
	}}))

	detailed, total, err = meals.DetailProgress(dbc, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detailed)
	assert.Equal(t, 2, total)

	loaded, err := plans.GetWithMeals(dbc, plan.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Meals, 2)
	assert.Equal(t, m1.ID, loaded.Meals[0].ID)
	assert.Equal(t, m2.ID, loaded.Meals[1].ID)
	require.Len(t, loaded.Meals[0].Foods, 2)
	assert.Equal(t, "oats", loaded.Meals[0].Foods[0].Name)
	require.Len(t, loaded.Meals[0].Alternatives, 1)
	assert.Len(t, loaded.Meals[0].Alternatives[0].Foods, 1)
}

func TestCascadeAndRestrictDeletes(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	calcs := NewCalculationRepo(db, testutil.Logger(t))

	job := testutil.SeedJob(t, ctx, db, 1, jobs.StageCompleted)
	calc := testutil.SeedCalculation(t, ctx, db, job, 2400)
	require.NoError(t, calcs.CreateMets(dbc, []*types.CalculationMet{{CalculationID: calc.ID, MetCode: "12150", Factor: 8, WeeklyFrequency: 3, DurationMinutes: 30}}))
	plan := testutil.SeedPlan(t, ctx, db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 220, FatG: 70}, true)
	meal := testutil.SeedMeal(t, ctx, db, plan.ID, "lunch", 0, types.Macros{ProteinG: 50, CarbsG: 70, FatG: 20})
	testutil.SeedFood(t, ctx, db, meal.ID, "rice", 150)

	err := db.Exec("DELETE FROM met_activity WHERE code = ?", "12150").Error
	assert.Error(t, err, "referenced MET codes cannot be deleted")

	require.NoError(t, db.Delete(&types.Job{}, "id = ?", job.ID).Error)

	_, err = calcs.GetByID(dbc, calc.ID)
	assert.True(t, apierr.Is(err, apierr.NotFound))
	var foods int64
	require.NoError(t, db.Model(&types.Food{}).Count(&foods).Error)
	assert.Zero(t, foods)
}

func TestCalculationRepoGetFull(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	calcs := NewCalculationRepo(db, testutil.Logger(t))

	job := testutil.SeedJob(t, ctx, db, 1, jobs.StageCalculated)
	calc := testutil.SeedCalculation(t, ctx, db, job, 2400)
	require.NoError(t, calcs.CreateFormulas(dbc, []*types.CalculationFormula{
		{CalculationID: calc.ID, Name: "mifflin_st_jeor", Value: 1780},
		{CalculationID: calc.ID, Name: "harris_benedict", Value: 1850},
	}))
	testutil.SeedPlan(t, ctx, db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 220, FatG: 70}, true)
	require.NoError(t, calcs.SetPhase(dbc, calc.ID, 2))

	full, err := calcs.GetFull(dbc, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, full.Phase)
	assert.Len(t, full.Formulas, 2)
	assert.Len(t, full.Plans, 1)

	latest, err := calcs.GetLatestByJob(dbc, job.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.ID, latest.ID)
}

func TestMealRepoDeleteByPlanCascades(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	meals := NewMealRepo(db, testutil.Logger(t))
	plans := NewPlanRepo(db, testutil.Logger(t))
	foods := NewFoodRepo(db, testutil.Logger(t))

	job := testutil.SeedJob(t, ctx, db, 1, jobs.StageMealsPlanned)
	calc := testutil.SeedCalculation(t, ctx, db, job, 2400)
	plan := testutil.SeedPlan(t, ctx, db, calc, "standard day", types.Macros{ProteinG: 150, CarbsG: 220, FatG: 70}, true)
	other := testutil.SeedPlan(t, ctx, db, calc, "training day", types.Macros{ProteinG: 170, CarbsG: 260, FatG: 80}, true)
	m1 := testutil.SeedMeal(t, ctx, db, plan.ID, "breakfast", 0, types.Macros{ProteinG: 50, CarbsG: 70, FatG: 20})
	testutil.SeedMeal(t, ctx, db, plan.ID, "lunch", 1, types.Macros{ProteinG: 100, CarbsG: 150, FatG: 50})
	kept := testutil.SeedMeal(t, ctx, db, other.ID, "lunch", 0, types.Macros{ProteinG: 100, CarbsG: 150, FatG: 50})
	testutil.SeedFood(t, ctx, db, m1.ID, "oats", 80)
	require.NoError(t, foods.CreateAlternatives(dbc, []*types.MealAlternative{{
		MealID: m1.ID, Name: "yogurt bowl",
		Foods: []types.AlternativeFood{{Name: "greek yogurt", Grams: 200}},
	}}))

	require.NoError(t, plans.LockForUpdate(dbc, plan.ID))
	n, err := meals.DeleteByPlan(dbc, plan.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := meals.ListByPlan(dbc, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	var foodCount, altCount int64
	require.NoError(t, db.Model(&types.Food{}).Count(&foodCount).Error)
	require.NoError(t, db.Model(&types.MealAlternative{}).Count(&altCount).Error)
	assert.Zero(t, foodCount)
	assert.Zero(t, altCount)

	_, err = meals.GetByID(dbc, kept.ID)
	assert.NoError(t, err, "other plans keep their meals")
}

func TestPlanRepoLockForUpdateMissing(t *testing.T) {
	db := testutil.DB(t)
	plans := NewPlanRepo(db, testutil.Logger(t))
	err := plans.LockForUpdate(dbctx.Context{Ctx: context.Background()}, uuid.New())
	assert.True(t, apierr.Is(err, apierr.NotFound))
}
