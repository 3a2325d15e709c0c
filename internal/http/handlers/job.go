package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luisquicidev/easydiet-backend/internal/http/response"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/services"
)

type JobHandler struct {
	jobs services.DietJobService
}

func NewJobHandler(jobs services.DietJobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// POST /api/users/:userId/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, err := userParam(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	job, err := h.jobs.CreateJob(dbcOf(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// GET /api/users/:userId/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, err := userParam(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobs, err := h.jobs.ListJobs(dbcOf(c), userID, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	job, err := h.jobs.GetJob(dbcOf(c), jobID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// POST /api/jobs/:id/meal-planning
func (h *JobHandler) TriggerMealPlanning(c *gin.Context) {
	jobID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.MealPlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.E(apierr.InvalidInput, "http.TriggerMealPlanning", err))
		return
	}
	req.JobID = jobID
	job, err := h.jobs.TriggerMealPlanning(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// POST /api/jobs/:id/food-detailing
func (h *JobHandler) TriggerFoodDetailing(c *gin.Context) {
	jobID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.FoodDetailingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.E(apierr.InvalidInput, "http.TriggerFoodDetailing", err))
		return
	}
	req.JobID = jobID
	job, err := h.jobs.TriggerFoodDetailing(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// POST /api/jobs/:id/retry
func (h *JobHandler) Retry(c *gin.Context) {
	jobID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	job, err := h.jobs.Retry(dbcOf(c), jobID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// GET /api/calculations/:id
func (h *JobHandler) GetCalculation(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	calc, err := h.jobs.GetCalculation(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"calculation": calc})
}

// GET /api/plans/:id
func (h *JobHandler) GetPlan(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	plan, err := h.jobs.GetPlanWithMeals(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": plan})
}

// GET /api/users/:userId/plans/active
func (h *JobHandler) ListActivePlans(c *gin.Context) {
	userID, err := userParam(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	plans, err := h.jobs.ListActivePlans(dbcOf(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plans": plans})
}
