package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/http/response"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/services"
)

type ProfileHandler struct {
	profiles services.ProfileService
}

func NewProfileHandler(profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/users/:userId/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := userParam(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	p, err := h.profiles.Get(dbcOf(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PUT /api/users/:userId/profile
func (h *ProfileHandler) Put(c *gin.Context) {
	userID, err := userParam(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var body types.Profile
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apierr.E(apierr.InvalidInput, "http.PutProfile", err))
		return
	}
	p, err := h.profiles.Save(dbcOf(c), userID, &body)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}
