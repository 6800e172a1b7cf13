package payroll

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column positions (0-based) of the two-row payroll layout, named after the
// main row. On the incentive row the same columns carry: name -> national ID,
// base pay -> night-shift pay, overtime -> variable incentive, extra overtime
// -> bonus reward, holiday pay -> retroactive pay, national pension ->
// long-term care insurance.
const (
	colSequence = iota
	colEmployeeID
	colName
	colHireDate
	colBasePay
	colOvertime
	colExtraOvertime
	colHolidayPay
	colAnnualLeave
	colNationalPension
	colHealthInsurance
	colEmploymentInsurance
	colIncomeTax
	colLocalIncomeTax
)

// headerRows precede the employee pairs.
const headerRows = 2

var headerSignature = map[int][]string{
	colEmployeeID: {"employeeid", "empid", "id", "사번", "사원번호"},
	colName:       {"name", "employeename", "성명", "이름"},
	colHireDate:   {"hiredate", "입사일", "입사일자"},
	colBasePay:    {"basepay", "basesalary", "기본급"},
}

var totalMarkers = []string{"total", "합계", "총계"}

var hireDateLayouts = []string{"2006-01-02", "2006.01.02", "2006/01/02", "2006-1-2", "2006.1.2", "2006/1/2"}

// ParseWorkbook reads the first sheet of an xlsx payroll export into one
// ParsedRecord per employee. Structural problems fail with ErrFormat; bad
// cells only flag the affected record.
func ParseWorkbook(r io.Reader) ([]ParsedRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: no worksheet found", ErrFormat)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return ParseRows(rows)
}

// ParseRows applies the layout to already-extracted cell text.
func ParseRows(rows [][]string) ([]ParsedRecord, error) {
	if len(rows) < headerRows {
		return nil, fmt.Errorf("%w: missing header rows", ErrFormat)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	it := newPairIterator(rows[headerRows:], headerRows+1)
	var records []ParsedRecord
	for {
		pair, ok := it.Next()
		if !ok {
			break
		}
		records = append(records, parsePair(pair))
	}
	return records, nil
}

func checkHeader(header []string) error {
	for col, accepted := range headerSignature {
		got := normalizeLabel(cell(header, col))
		found := false
		for _, label := range accepted {
			if got == label {
				found = true
				break
			}
		}
		if !found {
			name, _ := excelize.ColumnNumberToName(col + 1)
			return fmt.Errorf("%w: header %s1 is %q, expected %q", ErrFormat, name, cell(header, col), accepted[0])
		}
	}
	return nil
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
}

// rowPair is a main row and, when present, the incentive row under it.
type rowPair struct {
	mainRow      int
	main         []string
	incentiveRow int
	incentive    []string
}

// pairIterator walks data rows two at a time. A row directly below a main
// row is its incentive row only when the sequence, employee ID and hire date
// cells are blank; otherwise the main row stands alone.
type pairIterator struct {
	rows     [][]string
	firstRow int
	pos      int
}

func newPairIterator(rows [][]string, firstRow int) *pairIterator {
	return &pairIterator{rows: rows, firstRow: firstRow}
}

func (it *pairIterator) Next() (rowPair, bool) {
	for it.pos < len(it.rows) && isBlankRow(it.rows[it.pos]) {
		it.pos++
	}
	if it.pos >= len(it.rows) || isTotalRow(it.rows[it.pos]) {
		it.pos = len(it.rows)
		return rowPair{}, false
	}

	pair := rowPair{mainRow: it.firstRow + it.pos, main: it.rows[it.pos]}
	it.pos++
	if it.pos < len(it.rows) && isIncentiveRow(it.rows[it.pos]) {
		pair.incentiveRow = it.firstRow + it.pos
		pair.incentive = it.rows[it.pos]
		it.pos++
	}
	return pair, true
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isTotalRow(row []string) bool {
	for _, col := range []int{colSequence, colName} {
		v := strings.ToLower(strings.ReplaceAll(cell(row, col), " ", ""))
		for _, marker := range totalMarkers {
			if v == marker {
				return true
			}
		}
	}
	return false
}

func isIncentiveRow(row []string) bool {
	if isBlankRow(row) || isTotalRow(row) {
		return false
	}
	return cell(row, colSequence) == "" && cell(row, colEmployeeID) == "" && cell(row, colHireDate) == ""
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parsePair(pair rowPair) ParsedRecord {
	rec := ParsedRecord{
		RowNumber:          pair.mainRow,
		IncentiveRowNumber: pair.incentiveRow,
		Sequence:           cell(pair.main, colSequence),
		EmployeeCode:       cell(pair.main, colEmployeeID),
		Name:               cell(pair.main, colName),
		Allowances:         Components{},
		Deductions:         Components{},
		MatchStatus:        MatchUnmatched,
	}
	if rec.EmployeeCode == "" && rec.Name == "" {
		rec.addIssue(IssueError, IssueMissingIdentity, fmt.Sprintf("row %d has neither employee ID nor name", pair.mainRow))
	}
	if raw := cell(pair.main, colHireDate); raw != "" {
		if hire, ok := parseHireDate(raw); ok {
			rec.HireDate = &hire
		} else {
			rec.addIssue(IssueWarning, IssueBadHireDate, fmt.Sprintf("%s: unreadable hire date %q", cellRef(colHireDate, pair.mainRow), raw))
		}
	}

	money := func(row []string, rowNumber, col int) decimal.Decimal {
		raw := cell(row, col)
		amount, ok := parseMoney(raw)
		if !ok {
			rec.addIssue(IssueError, IssueBadCell, fmt.Sprintf("%s: %q is not a number", cellRef(col, rowNumber), raw))
		}
		return amount
	}

	rec.BaseSalary = money(pair.main, pair.mainRow, colBasePay)
	rec.Allowances[AllowanceOvertime] = money(pair.main, pair.mainRow, colOvertime).Add(money(pair.main, pair.mainRow, colExtraOvertime))
	rec.Allowances[AllowanceHoliday] = money(pair.main, pair.mainRow, colHolidayPay)
	rec.Allowances[AllowanceAnnualLeave] = money(pair.main, pair.mainRow, colAnnualLeave)
	rec.Deductions[DeductionNationalPension] = money(pair.main, pair.mainRow, colNationalPension)
	rec.Deductions[DeductionHealthInsurance] = money(pair.main, pair.mainRow, colHealthInsurance)
	rec.Deductions[DeductionEmploymentInsurance] = money(pair.main, pair.mainRow, colEmploymentInsurance)
	rec.Deductions[DeductionIncomeTax] = money(pair.main, pair.mainRow, colIncomeTax)
	rec.Deductions[DeductionLocalIncomeTax] = money(pair.main, pair.mainRow, colLocalIncomeTax)

	// An orphan main row keeps zero incentive fields.
	rec.Allowances[AllowanceNightShift] = decimal.Zero
	rec.Allowances[AllowanceVariableIncentive] = decimal.Zero
	rec.Allowances[AllowanceBonusReward] = decimal.Zero
	rec.Allowances[AllowanceRetroactive] = decimal.Zero
	rec.Deductions[DeductionLongTermCare] = decimal.Zero
	if pair.incentive != nil {
		rec.NationalIDMasked = maskNationalID(cell(pair.incentive, colName))
		rec.Allowances[AllowanceNightShift] = money(pair.incentive, pair.incentiveRow, colBasePay)
		rec.Allowances[AllowanceVariableIncentive] = money(pair.incentive, pair.incentiveRow, colOvertime)
		rec.Allowances[AllowanceBonusReward] = money(pair.incentive, pair.incentiveRow, colExtraOvertime)
		rec.Allowances[AllowanceRetroactive] = money(pair.incentive, pair.incentiveRow, colHolidayPay)
		rec.Deductions[DeductionLongTermCare] = money(pair.incentive, pair.incentiveRow, colNationalPension)
	}
	rec.recompute()
	return rec
}

func cellRef(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Sprintf("row %d col %d", row, col+1)
	}
	return name
}

// parseMoney reads a money cell. Blank and "-" are zero; thousands
// separators are tolerated. Unreadable input yields zero and false.
func parseMoney(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return decimal.Zero, true
	}
	raw = strings.ReplaceAll(raw, ",", "")
	negative := strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")")
	if negative {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

func parseHireDate(raw string) (time.Time, bool) {
	for _, layout := range hireDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// maskNationalID keeps the birth-date prefix and the first digit after it.
func maskNationalID(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) >= 7 {
		return digits[:6] + "-" + digits[6:7] + strings.Repeat("*", len(digits)-7)
	}
	if raw == "" {
		return ""
	}
	runes := []rune(raw)
	keep := min(2, len(runes))
	return string(runes[:keep]) + strings.Repeat("*", len(runes)-keep)
}
