package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/luisquicidev/easydiet-backend/internal/data/repos/testutil"
	"github.com/luisquicidev/easydiet-backend/internal/domain/jobs"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
)

func TestJobRepoApply(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewJobRepo(db, testutil.Logger(t))
	job := testutil.SeedJob(t, ctx, db, 7, jobs.StageCalculationPending)

	if job.Status != jobs.StatusPending {
		t.Fatalf("new job status = %s", job.Status)
	}
	if err := repo.Apply(dbc, job, jobs.EventStartCalculation, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Apply(dbc, job, jobs.EventFail, map[string]interface{}{"error": "provider down"}); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := repo.GetByID(dbc, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != jobs.StatusFailed || got.Stage != jobs.StageFailed {
		t.Fatalf("unexpected job state %s/%s", got.Status, got.Stage)
	}
	if got.FailedStage != jobs.StageCalculating || got.Error != "provider down" {
		t.Fatalf("failure details not recorded: %+v", got)
	}
	if got.Progress != 10 {
		t.Fatalf("fail must keep progress, got %d", got.Progress)
	}

	if err := repo.Apply(dbc, got, jobs.EventStartCalculation, nil); err != nil {
		t.Fatalf("restart: %v", err)
	}
	got, _ = repo.GetByID(dbc, job.ID)
	if got.Status != jobs.StatusProcessing || got.Error != "" {
		t.Fatalf("restart should clear error: %+v", got)
	}

	err = repo.Apply(dbc, got, jobs.EventAllMealsDetailed, nil)
	if !apierr.Is(err, apierr.Conflict) {
		t.Fatalf("invalid transition should be a conflict, got %v", err)
	}
}

func TestJobRepoGetMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewJobRepo(db, testutil.Logger(t))
	_, err := repo.GetByID(dbctx.Context{Ctx: context.Background()}, uuid.New())
	if !apierr.Is(err, apierr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJobRepoUpdateFieldsGuardsStage(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewJobRepo(db, testutil.Logger(t))
	job := testutil.SeedJob(t, ctx, db, 7, jobs.StageCalculationPending)
	if err := repo.UpdateFields(dbctx.Context{Ctx: ctx}, job.ID, map[string]interface{}{"stage": "completed"}); err == nil {
		t.Fatalf("stage must only move through Apply")
	}
}
