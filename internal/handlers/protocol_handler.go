package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/service"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/utils"
)

// ProtocolHandler handles protocol state HTTP requests
type ProtocolHandler struct {
	protocolService *service.ProtocolService
	statsService    *service.StatsService
}

// NewProtocolHandler creates a new protocol handler instance
func NewProtocolHandler(protocolService *service.ProtocolService, statsService *service.StatsService) *ProtocolHandler {
	return &ProtocolHandler{
		protocolService: protocolService,
		statsService:    statsService,
	}
}

// SetProtocol handles POST /users/{userId}/protocol
func (h *ProtocolHandler) SetProtocol(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		utils.SendBadRequestError(c, "User ID is required", "")
		return
	}

	action := c.Query("action")
	reason := c.Query("reason")

	var status models.ProtocolStatus
	switch action {
	case "activate":
		status = models.ProtocolActive
	case "deactivate":
		status = models.ProtocolInactive
	default:
		utils.SendValidationError(c, "action must be activate or deactivate")
		return
	}

	actor := utils.GetActorFromContext(c)

	row, err := h.protocolService.SetStatus(c.Request.Context(), userID, status, actor, reason)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, row.ToResponse())
}

// GetProtocol handles GET /users/{userId}/protocol
func (h *ProtocolHandler) GetProtocol(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		utils.SendBadRequestError(c, "User ID is required", "")
		return
	}

	row, err := h.protocolService.GetStatusRow(c.Request.Context(), userID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, row.ToResponse())
}

// GetProtocolStats handles GET /users/{userId}/protocol-stats
func (h *ProtocolHandler) GetProtocolStats(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		utils.SendBadRequestError(c, "User ID is required", "")
		return
	}

	stats, err := h.statsService.UserStats(c.Request.Context(), userID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, stats)
}

// ListActiveProtocols handles GET /users/protocol/active
func (h *ProtocolHandler) ListActiveProtocols(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	statuses, err := h.protocolService.ListActive(c.Request.Context(), limit)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, gin.H{"users": statuses, "count": len(statuses)})
}
