package schedule

import (
	"os"
	"path/filepath"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/internal/report"
	"timesheet-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mailer delivers a message with file attachments. The production
// implementation lives in internal/mailer; tests substitute a recorder.
type Mailer interface {
	Send(to, subject, body string, attachments []string) error
}

// DailyExport is the unattended daily report run: aggregate today's rows for
// every user, render both documents to disk and email them to the configured
// recipient. It is registered against a cron schedule in main but is a plain
// struct so tests can call Run directly.
type DailyExport struct {
	DB        *gorm.DB
	OutputDir string
	FontPath  string
	Recipient string
	Mailer    Mailer
	Log       *zap.Logger
	// Now returns the current time; overridable in tests
	Now func() time.Time
}

// Run executes one export cycle. Every failure is logged and swallowed so
// the cron entry survives to fire again the next day.
func (j *DailyExport) Run() {
	date := j.today()
	log := j.Log.With(
		zap.String("date", date),
		zap.String("principal", "system"))

	// The job runs outside any request; it aggregates with admin-wide scope
	rows, err := report.Fetch(j.DB, report.Query{
		StartDate: date,
		EndDate:   date,
		Role:      model.RoleAdmin,
	})
	if err != nil {
		log.Error("Daily export aggregation failed", zap.Error(err))
		prometheus.RecordExportError("aggregate")
		prometheus.RecordDailyExport("failed")
		return
	}

	if len(rows) == 0 {
		log.Info("No timesheet entries today, skipping export")
		prometheus.RecordDailyExport("empty")
		return
	}

	pdfPath, excelPath, err := j.writeFiles(date, rows)
	if err != nil {
		log.Error("Daily export rendering failed", zap.Error(err))
		prometheus.RecordExportError("render")
		prometheus.RecordDailyExport("failed")
		return
	}

	subject := "Daily timesheet report " + date
	body := "Attached are the timesheet reports for " + date + "."
	if err := j.Mailer.Send(j.Recipient, subject, body, []string{pdfPath, excelPath}); err != nil {
		log.Error("Daily export mail delivery failed", zap.Error(err))
		prometheus.RecordExportError("mail")
		prometheus.RecordDailyExport("failed")
		return
	}

	log.Info("Daily export sent",
		zap.Int("rows", len(rows)),
		zap.String("pdf", pdfPath),
		zap.String("excel", excelPath))
	prometheus.RecordDailyExport("sent")
}

// ExportFiles aggregates the given date with admin-wide scope and writes both
// documents to the output directory, returning their paths. Used by the
// cron-triggered HTTP endpoint, which does not send mail.
func (j *DailyExport) ExportFiles(date string) (pdfPath, excelPath string, err error) {
	rows, err := report.Fetch(j.DB, report.Query{
		StartDate: date,
		EndDate:   date,
		Role:      model.RoleAdmin,
	})
	if err != nil {
		return "", "", err
	}
	return j.writeFiles(date, rows)
}

func (j *DailyExport) writeFiles(date string, rows []report.Row) (string, string, error) {
	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		return "", "", err
	}

	title := "Timesheet Report " + date
	pdfPath := filepath.Join(j.OutputDir, report.Filename(date, date, "pdf"))
	excelPath := filepath.Join(j.OutputDir, report.Filename(date, date, "xlsx"))

	pdfFile, err := os.Create(pdfPath)
	if err != nil {
		return "", "", err
	}
	if err := report.RenderPDF(rows, title, j.FontPath, pdfFile); err != nil {
		pdfFile.Close()
		return "", "", err
	}
	if err := pdfFile.Close(); err != nil {
		return "", "", err
	}

	excelFile, err := os.Create(excelPath)
	if err != nil {
		return "", "", err
	}
	if err := report.RenderExcel(rows, excelFile); err != nil {
		excelFile.Close()
		return "", "", err
	}
	if err := excelFile.Close(); err != nil {
		return "", "", err
	}

	return pdfPath, excelPath, nil
}

func (j *DailyExport) today() string {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	return now().UTC().Format(model.DateLayout)
}
