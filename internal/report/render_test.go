package report

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

var sampleRows = []Row{
	{Date: "2024-01-01", StudentID: "S001", Hours: "8.50", Activity: "onboarding"},
	{Date: "2024-01-02", StudentID: "S001", Hours: "3.00", Activity: "meeting"},
	{Date: "2024-01-02", StudentID: "S002", Hours: "0.00", Activity: ""},
}

func TestRenderPDFEmptyIsValidDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPDF(nil, "Timesheet Report 2024-01-01 - 2024-01-01", "", &buf); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF") {
		t.Error("output does not start with a PDF header")
	}
	if !strings.Contains(out, "%%EOF") {
		t.Error("output has no PDF trailer")
	}
}

func TestRenderPDFWithRows(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPDF(sampleRows, "Timesheet Report", "", &buf); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

func TestRenderExcelEmptyIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderExcel(nil, &buf); err != nil {
		t.Fatalf("RenderExcel: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
	want := []string{"Date", "Student ID", "Hours", "Activity"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("header = %v, want %v", rows[0], want)
	}
}

func TestRenderExcelRowsInInputOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderExcel(sampleRows, &buf); err != nil {
		t.Fatalf("RenderExcel: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != len(sampleRows)+1 {
		t.Fatalf("got %d rows, want %d", len(rows), len(sampleRows)+1)
	}
	for i, r := range sampleRows {
		got := rows[i+1]
		// Trailing empty cells may be trimmed by the reader
		cell := func(col int) string {
			if col < len(got) {
				return got[col]
			}
			return ""
		}
		if cell(0) != r.Date || cell(1) != r.StudentID || cell(2) != r.Hours || cell(3) != r.Activity {
			t.Errorf("row %d = %v, want %+v", i+1, got, r)
		}
	}
}

func TestRenderExcelDeterministicContent(t *testing.T) {
	render := func() [][]string {
		var buf bytes.Buffer
		if err := RenderExcel(sampleRows, &buf); err != nil {
			t.Fatalf("RenderExcel: %v", err)
		}
		f, err := excelize.OpenReader(&buf)
		if err != nil {
			t.Fatalf("reopen workbook: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows(SheetName)
		if err != nil {
			t.Fatalf("GetRows: %v", err)
		}
		return rows
	}

	first := render()
	second := render()
	if !reflect.DeepEqual(first, second) {
		t.Error("two renders of the same input differ")
	}
}
