package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luisquicidev/easydiet-backend/internal/http/response"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
	"github.com/luisquicidev/easydiet-backend/internal/realtime"
	"github.com/luisquicidev/easydiet-backend/internal/services"
)

type RealtimeHandler struct {
	log  *logger.Logger
	hub  *realtime.SSEHub
	jobs services.DietJobService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, jobs services.DietJobService) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, jobs: jobs}
}

// GET /api/jobs/:id/events streams the job's progress events. The first
// event is the job's current state so late subscribers are not blind. The
// stream ends after JobDone.
func (h *RealtimeHandler) JobEvents(c *gin.Context) {
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

	client := h.hub.NewSSEClient(job.UserID)
	h.hub.AddChannel(client, realtime.JobChannel(job))
	defer h.hub.CloseClient(client)
	client.StopAfter(realtime.SSEEventJobDone)
	client.Outbound <- realtime.JobMessage(job, realtime.SnapshotEvent(job))

	h.log.Debug("SSE stream open", "job_id", job.ID, "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
