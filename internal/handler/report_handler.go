package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Report godoc
// @Summary Aggregate report
// @Description utilization, tuition, grades, gpa or standing
// @Tags Reports
// @Produce json
// @Param type path string true "Report type"
// @Param semesterId query string false "Semester scope"
// @Param offeringId query string false "Offering scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{type} [get]
func (h *ReportHandler) Report(c *gin.Context) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, bindError(err, "report filter"))
		return
	}
	ctx := c.Request.Context()

	var (
		report interface{}
		err    error
	)
	switch models.ReportType(c.Param("type")) {
	case models.ReportUtilization:
		report, err = h.reports.Utilization(ctx, filter)
	case models.ReportTuition:
		report, err = h.reports.Tuition(ctx, filter)
	case models.ReportGrades:
		report, err = h.reports.GradeDistribution(ctx, filter)
	case models.ReportGPA:
		report, err = h.reports.GPADistribution(ctx)
	case models.ReportStanding:
		report, err = h.reports.StandingSummary(ctx)
	default:
		err = appErrors.Validation("unknown report type %q", c.Param("type"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Dashboard godoc
// @Summary Directory counts
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dash, nil)
}

// Export godoc
// @Summary Download a report
// @Tags Reports
// @Produce octet-stream
// @Param type path string true "Report type"
// @Param format query string false "csv, pdf or xlsx"
// @Param semesterId query string false "Semester scope"
// @Param offeringId query string false "Offering scope"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/{type}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, bindError(err, "report filter"))
		return
	}
	doc, err := h.reports.Export(c.Request.Context(), models.ReportType(c.Param("type")), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Body)
}
