package leave

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ScopeAll      = "all"
	ScopeFiltered = "filtered"
	ScopeSelected = "selected"

	exportSheet = "Leave Requests"
)

var exportHeader = []string{
	"ID",
	"Employee Name",
	"Leave Type",
	"Start Date",
	"End Date",
	"Days",
	"Status",
	"Reason",
	"Created At",
}

// exportScope names the export after what narrowed it: an explicit
// selection wins over filter criteria.
func exportScope(f ListFilter) string {
	switch {
	case len(f.IDs) > 0:
		return ScopeSelected
	case f.HasCriteria():
		return ScopeFiltered
	default:
		return ScopeAll
	}
}

// ExportFilename follows {scope}_leave_requests_{YYYY-MM-DD_HH-mm-ss}.{ext}.
func ExportFilename(scope, format string, at time.Time) string {
	return fmt.Sprintf("%s_leave_requests_%s.%s", scope, at.Format("2006-01-02_15-04-05"), format)
}

// Render writes rows in the given format. Both formats carry the same
// columns in the same order.
func Render(rows []Leave, format, scope string, at time.Time) (ExportFile, error) {
	records := make([][]string, 0, len(rows))
	for i := range rows {
		records = append(records, exportRecord(&rows[i]))
	}

	var (
		content     []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		content = renderCSV(records)
		contentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		content, err = renderXLSX(records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return ExportFile{}, err
	}

	return ExportFile{
		Filename:    ExportFilename(scope, format, at),
		ContentType: contentType,
		Content:     content,
		Rows:        len(records),
	}, nil
}

func exportRecord(l *Leave) []string {
	name := ""
	if l.Employee != nil {
		name = l.Employee.FullName
	}
	return []string{
		l.ID.String(),
		name,
		l.LeaveType,
		l.StartDate.Format(dateLayout),
		l.EndDate.Format(dateLayout),
		strconv.Itoa(l.DaysRequested),
		l.Status,
		l.Reason,
		l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// renderCSV quotes every field, header included. encoding/csv only quotes
// fields that need it, which is why the rows are written by hand.
func renderCSV(records [][]string) []byte {
	var buf bytes.Buffer
	writeCSVLine(&buf, exportHeader)
	for _, rec := range records {
		writeCSVLine(&buf, rec)
	}
	return buf.Bytes()
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func renderXLSX(records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
