package payroll

import (
	"testing"

	"hrdesk/internal/domain/core"
)

func directoryEmployees() []core.Employee {
	return []core.Employee{
		{ID: "E100", EmployeeNumber: "1001", Name: "Ana Kim", Department: "Ops", Active: true},
		{ID: "E200", Name: "Ben Lee", Department: "Sales", Active: true},
		{ID: "E300", Name: "Park Min", Active: true},
		{ID: "E301", Name: "Park Min", Active: true},
		{ID: "E400", Name: "한결", Active: true},
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(directoryEmployees())
	cases := []struct {
		name      string
		code      string
		sheetName string
		wantID    string
		wantBy    string
		wantIssue string
	}{
		{"by id", "E200", "Ben Lee", "E200", "id", ""},
		{"by employee number", "1001", "Ana Kim", "E100", "employee_number", ""},
		{"id wins over name", "E100", "Ben Lee", "E100", "id", IssueNameMismatch},
		{"unknown id falls back to name", "X9", "Ben Lee", "E200", "name", IssueUnknownID},
		{"name with extra spaces", "", "  Ana   Kim ", "E100", "name", ""},
		{"decomposed hangul", "", "한결", "E400", "name", ""},
		{"ambiguous name", "", "Park Min", "", "", IssueAmbiguousName},
		{"no such name", "", "Nobody", "", "", IssueUnmatched},
		{"case differs", "", "ana kim", "", "", IssueUnmatched},
	}
	for _, tc := range cases {
		rec := ParsedRecord{EmployeeCode: tc.code, Name: tc.sheetName}
		m.Match(&rec)
		if tc.wantID == "" {
			if rec.ResolvedEmployeeID != nil || rec.MatchStatus != MatchUnmatched {
				t.Fatalf("%s: expected no match, got %+v", tc.name, rec)
			}
		} else {
			if rec.ResolvedEmployeeID == nil || *rec.ResolvedEmployeeID != tc.wantID {
				t.Fatalf("%s: expected %s, got %+v", tc.name, tc.wantID, rec)
			}
			if rec.MatchStatus != MatchMatched || rec.MatchedBy != tc.wantBy {
				t.Fatalf("%s: expected matched by %s, got %s/%s", tc.name, tc.wantBy, rec.MatchStatus, rec.MatchedBy)
			}
		}
		if tc.wantIssue != "" && !hasIssue(rec, tc.wantIssue) {
			t.Fatalf("%s: expected issue %s, got %+v", tc.name, tc.wantIssue, rec.Issues)
		}
		if tc.wantIssue == "" && len(rec.Issues) != 0 {
			t.Fatalf("%s: expected no issues, got %+v", tc.name, rec.Issues)
		}
	}
	if !m.Has("E300") || m.Has("1001") {
		t.Fatal("Has should only know directory IDs")
	}
}
