package payroll

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"hrdesk/internal/domain/core"
)

// Matcher resolves parsed rows to directory employees by exact ID, then by
// exact normalized name. It never guesses and never creates employees.
type Matcher struct {
	byID     map[string]core.Employee
	byNumber map[string]core.Employee
	byName   map[string][]core.Employee
}

func NewMatcher(employees []core.Employee) *Matcher {
	m := &Matcher{
		byID:     make(map[string]core.Employee, len(employees)),
		byNumber: make(map[string]core.Employee, len(employees)),
		byName:   make(map[string][]core.Employee, len(employees)),
	}
	for _, emp := range employees {
		m.byID[emp.ID] = emp
		if emp.EmployeeNumber != "" {
			m.byNumber[emp.EmployeeNumber] = emp
		}
		if key := NormalizeName(emp.Name); key != "" {
			m.byName[key] = append(m.byName[key], emp)
		}
	}
	return m
}

// NormalizeName applies Unicode NFC and collapses whitespace.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

func (m *Matcher) lookupID(code string) (core.Employee, string, bool) {
	if emp, ok := m.byID[code]; ok {
		return emp, "id", true
	}
	if emp, ok := m.byNumber[code]; ok {
		return emp, "employee_number", true
	}
	return core.Employee{}, "", false
}

// Match sets the match fields of rec and records issues for anything the
// caller has to resolve by hand.
func (m *Matcher) Match(rec *ParsedRecord) {
	rec.MatchStatus = MatchUnmatched
	rec.ResolvedEmployeeID = nil
	rec.MatchedBy = ""

	code := strings.TrimSpace(rec.EmployeeCode)
	if code != "" {
		if emp, by, ok := m.lookupID(code); ok {
			m.resolve(rec, emp, by)
			if rec.Name != "" && NormalizeName(rec.Name) != NormalizeName(emp.Name) {
				rec.addIssue(IssueWarning, IssueNameMismatch,
					fmt.Sprintf("employee ID %s belongs to %q, sheet says %q", code, emp.Name, rec.Name))
			}
			return
		}
		rec.addIssue(IssueWarning, IssueUnknownID, fmt.Sprintf("employee ID %s is not in the directory", code))
	}

	key := NormalizeName(rec.Name)
	candidates := m.byName[key]
	switch {
	case key == "":
		rec.addIssue(IssueWarning, IssueUnmatched, "no employee ID or name to match")
	case len(candidates) == 1:
		m.resolve(rec, candidates[0], "name")
	case len(candidates) > 1:
		rec.addIssue(IssueWarning, IssueAmbiguousName,
			fmt.Sprintf("name %q matches %d employees; choose one manually", rec.Name, len(candidates)))
	default:
		rec.addIssue(IssueWarning, IssueUnmatched, fmt.Sprintf("no employee named %q", rec.Name))
	}
}

func (m *Matcher) resolve(rec *ParsedRecord, emp core.Employee, by string) {
	id := emp.ID
	rec.ResolvedEmployeeID = &id
	rec.MatchStatus = MatchMatched
	rec.MatchedBy = by
}

// Has reports whether id is a known directory employee.
func (m *Matcher) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}
