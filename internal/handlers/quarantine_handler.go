package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/service"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/utils"
)

// QuarantineHandler handles quarantine queue HTTP requests
type QuarantineHandler struct {
	quarantineService *service.QuarantineService
	statsService      *service.StatsService
}

// NewQuarantineHandler creates a new quarantine handler instance
func NewQuarantineHandler(quarantineService *service.QuarantineService, statsService *service.StatsService) *QuarantineHandler {
	return &QuarantineHandler{
		quarantineService: quarantineService,
		statsService:      statsService,
	}
}

// ListMessages handles GET /quarantine/messages
func (h *QuarantineHandler) ListMessages(c *gin.Context) {
	userID := c.Query("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.quarantineService.List(c.Request.Context(), userID, limit)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, gin.H{"messages": messages, "count": len(messages)})
}

// GetMessage handles GET /quarantine/messages/{id}
func (h *QuarantineHandler) GetMessage(c *gin.Context) {
	quarantineID := c.Param("id")
	if quarantineID == "" {
		utils.SendBadRequestError(c, "Quarantine ID is required", "")
		return
	}

	msg, err := h.quarantineService.Get(c.Request.Context(), quarantineID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, msg)
}

// ProcessMessage handles POST /quarantine/{id}/process
func (h *QuarantineHandler) ProcessMessage(c *gin.Context) {
	quarantineID := c.Param("id")
	if quarantineID == "" {
		utils.SendBadRequestError(c, "Quarantine ID is required", "")
		return
	}

	action := c.DefaultQuery("action", models.BatchActionProcess)
	alsoDeactivate := false
	if action == models.BatchActionProcessAndDeactivate {
		action = models.BatchActionProcess
		alsoDeactivate = true
	}
	if action != models.BatchActionProcess && action != models.BatchActionDelete {
		utils.SendValidationError(c, "action must be process, delete or process_and_deactivate")
		return
	}

	actor := utils.GetActorFromContext(c)

	msg, err := h.quarantineService.ProcessOne(c.Request.Context(), quarantineID, actor, action, alsoDeactivate)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, msg)
}

// BatchProcess handles POST /quarantine/batch-process
func (h *QuarantineHandler) BatchProcess(c *gin.Context) {
	var request models.BatchProcessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	actor := utils.GetActorFromContext(c)

	result, err := h.quarantineService.ProcessBatch(c.Request.Context(), request.IDs, actor, request.Action)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, result)
}

// GetStats handles GET /quarantine/stats
func (h *QuarantineHandler) GetStats(c *gin.Context) {
	snapshot, err := h.statsService.Snapshot(c.Request.Context())
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, snapshot)
}

// GetAuditLog handles GET /quarantine/audit-log
func (h *QuarantineHandler) GetAuditLog(c *gin.Context) {
	filter := models.AuditQueryFilter{
		UserID: c.Query("user_id"),
		Action: models.AuditAction(c.Query("action")),
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		utils.SendValidationError(c, "unknown audit action")
		return
	}

	if since := c.Query("since"); since != "" {
		sinceMillis, err := strconv.ParseInt(since, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "since must be epoch milliseconds")
			return
		}
		filter.Since = sinceMillis
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := h.statsService.AuditLog(c.Request.Context(), filter, limit)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, gin.H{"entries": entries, "count": len(entries)})
}
