package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/internal/report"
	"timesheet-service/internal/schedule"
	"timesheet-service/pkg/config"
	"timesheet-service/pkg/database"
	"timesheet-service/pkg/logger"
	"timesheet-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	exportCfg config.ExportConfig
	dailyJob  *schedule.DailyExport
)

// InitExport wires the export settings and the daily job into the report
// handlers
func InitExport(cfg config.ExportConfig, job *schedule.DailyExport) {
	exportCfg = cfg
	dailyJob = job
}

// ExportRequest is the document export payload. The student-ID range is only
// honored for admins.
type ExportRequest struct {
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	StartStudentID string `json:"startStudentId"`
	EndStudentID   string `json:"endStudentId"`
	Format         string `json:"format"`
}

// PreviewTimesheets returns the report rows for a date range as JSON.
// Query params: startDate, endDate, and for admins startStudentId/endStudentId.
func PreviewTimesheets(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.ReportRequestCounter.Inc()

	q, err := buildQuery(c,
		c.QueryParam("startDate"), c.QueryParam("endDate"),
		c.QueryParam("startStudentId"), c.QueryParam("endStudentId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	rows, err := report.Fetch(database.GetDB(), q)
	if err != nil {
		log.Error("Report aggregation failed", zap.Error(err))
		prometheus.RecordExportError("aggregate")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch report"})
	}

	return c.JSON(http.StatusOK, rows)
}

// ExportTimesheets renders the same record set as the preview into a PDF or
// spreadsheet and streams it as an attachment. The document is rendered into
// memory first so a mid-render failure never leaves a partial file on the
// response.
func ExportTimesheets(c echo.Context) error {
	log := logger.FromContext(c)

	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid export request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Format != "pdf" && req.Format != "excel" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "format must be \"pdf\" or \"excel\""})
	}
	prometheus.RecordExport(req.Format)

	q, err := buildQuery(c, req.StartDate, req.EndDate, req.StartStudentID, req.EndStudentID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	rows, err := report.Fetch(database.GetDB(), q)
	if err != nil {
		log.Error("Report aggregation failed", zap.Error(err))
		prometheus.RecordExportError("aggregate")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch report"})
	}

	title := "Timesheet Report " + q.StartDate + " - " + q.EndDate
	var buf bytes.Buffer
	var contentType, filename string

	switch req.Format {
	case "pdf":
		contentType = "application/pdf"
		filename = report.Filename(q.StartDate, q.EndDate, "pdf")
		err = report.RenderPDF(rows, title, exportCfg.FontPath, &buf)
	case "excel":
		contentType = excelContentType
		filename = report.Filename(q.StartDate, q.EndDate, "xlsx")
		err = report.RenderExcel(rows, &buf)
	}
	if err != nil {
		log.Error("Document rendering failed",
			zap.Error(err),
			zap.String("format", req.Format))
		prometheus.RecordExportError("render")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render document"})
	}

	log.Info("Report exported",
		zap.String("format", req.Format),
		zap.Int("rows", len(rows)))

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// DailyExportHandler runs today's aggregation with system privilege and
// writes both documents to disk without sending mail. It backs the external
// cron trigger and therefore requires no authentication.
func DailyExportHandler(c echo.Context) error {
	log := logger.FromContext(c)

	date := time.Now().UTC().Format(model.DateLayout)
	log.Info("Cron-triggered daily export", zap.String("date", date), zap.String("principal", "system"))

	pdfPath, excelPath, err := dailyJob.ExportFiles(date)
	if err != nil {
		log.Error("Daily export failed", zap.Error(err))
		prometheus.RecordExportError("render")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "daily export failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"pdfPath":   pdfPath,
		"excelPath": excelPath,
	})
}

// buildQuery validates the date range and assembles the aggregator query
// from the authenticated principal. Range parameters are stripped for
// non-admins before they ever reach the aggregator.
func buildQuery(c echo.Context, startDate, endDate, startStudentID, endStudentID string) (report.Query, error) {
	if startDate == "" || endDate == "" {
		return report.Query{}, errors.New("startDate and endDate are required")
	}
	start, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return report.Query{}, errors.New("startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse(model.DateLayout, endDate)
	if err != nil {
		return report.Query{}, errors.New("endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return report.Query{}, errors.New("endDate must not be before startDate")
	}

	userID, _ := c.Get("user_id").(uint)
	role, _ := c.Get("role").(string)

	q := report.Query{
		StartDate: startDate,
		EndDate:   endDate,
		Role:      role,
		UserID:    userID,
	}
	if role == model.RoleAdmin {
		q.StartStudentID = startStudentID
		q.EndStudentID = endStudentID
	}
	return q, nil
}
