package payroll

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sheetHeader() [][]any {
	return [][]any{
		{"No", "Employee ID", "Name", "Hire Date", "Base Pay", "Overtime", "Extra Overtime", "Holiday Pay",
			"Annual Leave", "National Pension", "Health Insurance", "Employment Insurance", "Income Tax", "Local Income Tax"},
		{"", "", "National ID", "", "Night Shift", "Variable Incentive", "Bonus Reward", "Retroactive",
			"", "Long-term Care"},
	}
}

// workbook writes rows to the first sheet of a fresh xlsx file.
func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, axis, &rows[i]); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func parseSheet(t *testing.T, rows [][]any) []ParsedRecord {
	t.Helper()
	records, err := ParseWorkbook(bytes.NewReader(workbook(t, append(sheetHeader(), rows...))))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return records
}

func hasIssue(rec ParsedRecord, code string) bool {
	for _, issue := range rec.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestParseWorkbookPairsAndOrphans(t *testing.T) {
	records := parseSheet(t, [][]any{
		{1, "E100", "Ana Kim", "2020-01-10", 3000000, 100000, 50000, 0, 20000, 135000, 106350, 27000, 80000, 8000},
		{"", "", "900101-1234567", "", 40000, 300000, 0, 10000, "", 13770},
		{2, "E200", "Ben Lee", "2023.02.01", 2500000, 0, 0, 0, 0, 112500, 88625, 22500, 50000, 5000},
		{3, "E300", "Cho Min", "2021-07-01", 2800000, "1,000", "-", 0, 0, 126000, 99260, 25200, 60000, 6000},
		{"", "", "850505-2000000", "", 0, 0, 0, 0, "", 12000},
		{"", "", "", "", "", ""},
		{"합계", "", "", "", 8300000},
		{9, "E900", "After Total", "2020-01-01", 1},
	})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	ana := records[0]
	if ana.RowNumber != 3 || ana.IncentiveRowNumber != 4 {
		t.Fatalf("expected rows 3/4, got %d/%d", ana.RowNumber, ana.IncentiveRowNumber)
	}
	if ana.EmployeeCode != "E100" || ana.Name != "Ana Kim" || ana.HireDate == nil {
		t.Fatalf("unexpected identity: %+v", ana)
	}
	if !ana.Allowances[AllowanceOvertime].Equal(dec("150000")) {
		t.Fatalf("expected overtime 150000, got %s", ana.Allowances[AllowanceOvertime])
	}
	if !ana.Allowances[AllowanceVariableIncentive].Equal(dec("300000")) || !ana.Deductions[DeductionLongTermCare].Equal(dec("13770")) {
		t.Fatalf("incentive row not applied: %+v", ana)
	}
	if !ana.TotalAllowances.Equal(dec("520000")) || !ana.TotalDeductions.Equal(dec("370120")) {
		t.Fatalf("unexpected totals %s / %s", ana.TotalAllowances, ana.TotalDeductions)
	}
	if !ana.NetSalary.Equal(dec("3149880")) {
		t.Fatalf("expected net 3149880, got %s", ana.NetSalary)
	}
	if ana.NationalIDMasked != "900101-1******" {
		t.Fatalf("expected masked national ID, got %q", ana.NationalIDMasked)
	}
	if len(ana.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", ana.Issues)
	}

	ben := records[1]
	if ben.RowNumber != 5 || ben.IncentiveRowNumber != 0 {
		t.Fatalf("expected orphan main row 5, got %d/%d", ben.RowNumber, ben.IncentiveRowNumber)
	}
	if !ben.Allowances[AllowanceNightShift].IsZero() || !ben.Deductions[DeductionLongTermCare].IsZero() {
		t.Fatalf("expected zero incentive fields for orphan row: %+v", ben)
	}
	if ben.HireDate == nil || ben.HireDate.Month() != 2 {
		t.Fatalf("expected dotted hire date to parse, got %v", ben.HireDate)
	}

	cho := records[2]
	if cho.RowNumber != 6 || cho.IncentiveRowNumber != 7 {
		t.Fatalf("expected rows 6/7, got %d/%d", cho.RowNumber, cho.IncentiveRowNumber)
	}
	if !cho.Allowances[AllowanceOvertime].Equal(dec("1000")) {
		t.Fatalf("expected thousands separator and dash to parse, got %s", cho.Allowances[AllowanceOvertime])
	}
}

func TestParseWorkbookFlagsBadCellsWithoutFailing(t *testing.T) {
	var rows [][]any
	for i := 0; i < 10; i++ {
		main := []any{i + 1, "E" + string(rune('A'+i)), "Person", "2020-01-01", 1000000, 0, 0, 0, 0, 45000, 35000, 9000, 10000, 1000}
		incentive := []any{"", "", "", "", 0, 0, 0, 0, "", 4000}
		if i == 2 {
			main[4] = "abc"
		}
		if i == 6 {
			incentive[5] = "x1"
		}
		rows = append(rows, main, incentive)
	}
	records := parseSheet(t, rows)
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}

	var flagged []string
	for _, rec := range records {
		if rec.hasErrors() {
			if !hasIssue(rec, IssueBadCell) {
				t.Fatalf("row %d: expected bad_cell, got %+v", rec.RowNumber, rec.Issues)
			}
			flagged = append(flagged, rec.Issues[0].Message)
		}
	}
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged records, got %d", len(flagged))
	}
	if !strings.HasPrefix(flagged[0], "E7:") || !strings.HasPrefix(flagged[1], "F16:") {
		t.Fatalf("expected cell references E7 and F16, got %q", flagged)
	}
}

func TestParseWorkbookMissingIdentity(t *testing.T) {
	records := parseSheet(t, [][]any{
		{1, "", "", "2020-01-01", 1000},
		{2, "E2", "Ben Lee", "not a date", 1000},
	})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !hasIssue(records[0], IssueMissingIdentity) || !records[0].hasErrors() {
		t.Fatalf("expected missing identity error, got %+v", records[0].Issues)
	}
	if !hasIssue(records[1], IssueBadHireDate) || records[1].hasErrors() {
		t.Fatalf("expected bad hire date warning only, got %+v", records[1].Issues)
	}
}

func TestParseWorkbookNumberedRowIsNeverAnIncentiveRow(t *testing.T) {
	records := parseSheet(t, [][]any{
		{1, "E100", "Ana Kim", "2020-01-10", 3000000},
		{2, "", "Park Min", "", 2000000},
		{"", "", "900101-1234567", "", 40000},
	})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].IncentiveRowNumber != 0 {
		t.Fatalf("expected Ana to be an orphan row, got incentive row %d", records[0].IncentiveRowNumber)
	}
	park := records[1]
	if park.RowNumber != 4 || park.IncentiveRowNumber != 5 || park.Name != "Park Min" {
		t.Fatalf("expected Park Min on rows 4/5, got %+v", park)
	}
	if !park.Allowances[AllowanceNightShift].Equal(dec("40000")) {
		t.Fatalf("expected night shift from row 5, got %s", park.Allowances[AllowanceNightShift])
	}
}

func TestParseWorkbookRejectsWrongLayout(t *testing.T) {
	header := sheetHeader()
	header[0][1] = "Department"
	_, err := ParseWorkbook(bytes.NewReader(workbook(t, header)))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for wrong header, got %v", err)
	}

	_, err = ParseWorkbook(strings.NewReader("not a spreadsheet"))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for non-xlsx input, got %v", err)
	}

	_, err = ParseRows([][]string{{"No"}})
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for missing header rows, got %v", err)
	}
}

func TestParseRowsAcceptsKoreanHeader(t *testing.T) {
	rows := [][]string{
		{"순번", "사번", "성명", "입사일", "기본급"},
		{},
		{"1", "E1", "김하나", "44000", "2000000"},
	}
	records, err := ParseRows(rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 || records[0].HireDate == nil {
		t.Fatalf("expected one record with serial hire date, got %+v", records)
	}
	if records[0].HireDate.Year() != 2020 {
		t.Fatalf("expected serial 44000 to land in 2020, got %v", records[0].HireDate)
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"", "0", true},
		{"-", "0", true},
		{"1,234,567", "1234567", true},
		{"(500)", "-500", true},
		{"12.5", "12.5", true},
		{"abc", "0", false},
	}
	for _, tc := range cases {
		got, ok := parseMoney(tc.raw)
		if ok != tc.ok || !got.Equal(dec(tc.want)) {
			t.Fatalf("parseMoney(%q) = %s, %v; want %s, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMaskNationalID(t *testing.T) {
	if got := maskNationalID("900101-1234567"); got != "900101-1******" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := maskNationalID("AB12"); got != "AB**" {
		t.Fatalf("unexpected short mask %q", got)
	}
	if got := maskNationalID(""); got != "" {
		t.Fatalf("expected empty mask, got %q", got)
	}
}
