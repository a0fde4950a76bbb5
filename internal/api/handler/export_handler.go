package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"remindly/internal/service"
	"remindly/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves calendar downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler builds the ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAgenda downloads the expanded range as an xlsx workbook.
// GET /api/v1/export/agenda?from=yyyy-mm-dd&to=yyyy-mm-dd
func (h *ExportHandler) ExportAgenda(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	from, to := c.Query("from"), c.Query("to")
	data, err := h.exportSvc.ExportAgenda(c.Request.Context(), userID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrRangeInverted):
			response.BadRequest(c, 14001, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	filename := url.QueryEscape(fmt.Sprintf("agenda_%s_%s.xlsx", from, to))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+filename)
	c.Data(http.StatusOK, xlsxContentType, data)
}
