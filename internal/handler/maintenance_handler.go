package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wmesaf/basicschool-api/internal/service"
	"github.com/wmesaf/basicschool-api/pkg/response"
)

// MaintenanceHandler exposes administrative maintenance operations.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler constructs MaintenanceHandler.
func NewMaintenanceHandler(maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// ReorganizeIdentities renumbers person identities into 1..N. This
// invalidates any identity values callers may have cached, so it is
// exposed as an explicit operation rather than running after deletes.
func (h *MaintenanceHandler) ReorganizeIdentities(c *gin.Context) {
	total, err := h.maintenance.ReorganizeIdentities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"total_persons": total}, nil)
}
