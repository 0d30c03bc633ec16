package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/service"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/utils"
)

// AdmitHandler handles the message admission endpoint consumed by the
// ingestion path
type AdmitHandler struct {
	interceptor *service.InterceptorService
}

// NewAdmitHandler creates a new admit handler instance
func NewAdmitHandler(interceptor *service.InterceptorService) *AdmitHandler {
	return &AdmitHandler{interceptor: interceptor}
}

// Admit handles POST /messages/admit. The caller must not forward a message
// reported as quarantined.
func (h *AdmitHandler) Admit(c *gin.Context) {
	var request models.AdmitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	response, err := h.interceptor.Admit(c.Request.Context(), &request)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, response)
}
