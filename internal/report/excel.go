package report

import (
	"io"
	"time"

	"timesheet-service/prometheus"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet every exported spreadsheet contains
const SheetName = "Timesheet Report"

var excelHeader = []interface{}{"Date", "Student ID", "Hours", "Activity"}

// RenderExcel writes the report as a spreadsheet with four fixed columns and
// one row per record in input order. An empty input still produces a valid
// header-only workbook.
func RenderExcel(rows []Row, w io.Writer) error {
	defer prometheus.TrackRender("excel")(time.Now())

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "C", 10); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "D", 40); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &excelHeader); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Date, r.StudentID, r.Hours, r.Activity}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}
