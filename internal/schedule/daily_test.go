package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/internal/report"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to          string
	subject     string
	attachments []string
}

func (m *recordingMailer) Send(to, subject, body string, attachments []string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, attachments: attachments})
	return nil
}

func newTestJob(t *testing.T, mailer Mailer) (*DailyExport, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.TimeSheet{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fixed := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	job := &DailyExport{
		DB:        db,
		OutputDir: t.TempDir(),
		Recipient: "admin@example.com",
		Mailer:    mailer,
		Log:       zap.NewNop(),
		Now:       func() time.Time { return fixed },
	}
	return job, db
}

func seedToday(t *testing.T, db *gorm.DB) {
	t.Helper()
	u := model.User{StudentID: "S001", Name: "Ada", Role: model.RoleStudent}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	checkIn := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)
	ts := model.TimeSheet{
		UserID:   u.ID,
		Date:     "2024-03-15",
		CheckIn:  checkIn,
		CheckOut: &checkOut,
		Activity: "daily work",
	}
	if err := db.Create(&ts).Error; err != nil {
		t.Fatalf("seed timesheet: %v", err)
	}
}

func TestRunEmptyDayIsANoOp(t *testing.T) {
	mailer := &recordingMailer{}
	job, _ := newTestJob(t, mailer)

	job.Run()

	if len(mailer.sent) != 0 {
		t.Errorf("mail sent on an empty day: %+v", mailer.sent)
	}
	entries, err := os.ReadDir(job.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("files rendered on an empty day: %v", entries)
	}
}

func TestRunRendersAndMails(t *testing.T) {
	mailer := &recordingMailer{}
	job, db := newTestJob(t, mailer)
	seedToday(t, db)

	job.Run()

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "admin@example.com" {
		t.Errorf("recipient = %q", mail.to)
	}
	if len(mail.attachments) != 2 {
		t.Fatalf("attachments = %v, want pdf and xlsx", mail.attachments)
	}

	wantPDF := filepath.Join(job.OutputDir, report.Filename("2024-03-15", "2024-03-15", "pdf"))
	wantExcel := filepath.Join(job.OutputDir, report.Filename("2024-03-15", "2024-03-15", "xlsx"))
	for _, path := range []string{wantPDF, wantExcel} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing export file: %v", err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("export file %s is empty", path)
		}
	}
}

func TestRunSurvivesMailFailure(t *testing.T) {
	mailer := &recordingMailer{err: os.ErrDeadlineExceeded}
	job, db := newTestJob(t, mailer)
	seedToday(t, db)

	// Must not panic; the cron entry has to live on
	job.Run()

	if len(mailer.sent) != 0 {
		t.Errorf("unexpected sent mail: %+v", mailer.sent)
	}
}

func TestExportFilesWritesBothDocuments(t *testing.T) {
	job, db := newTestJob(t, &recordingMailer{})
	seedToday(t, db)

	pdfPath, excelPath, err := job.ExportFiles("2024-03-15")
	if err != nil {
		t.Fatalf("ExportFiles: %v", err)
	}
	for _, path := range []string{pdfPath, excelPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing file: %v", err)
		}
	}
}
