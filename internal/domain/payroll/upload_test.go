package payroll

import (
	"context"
	"strings"
	"testing"
	"time"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/platform/apperr"
)

type countingRecorder struct {
	previews, invalid      int
	saved, skipped, failed int
}

func (r *countingRecorder) RecordPayrollPreview(records, invalid int) {
	r.previews += records
	r.invalid += invalid
}

func (r *countingRecorder) RecordPayrollConfirm(saved, skipped, failed int) {
	r.saved += saved
	r.skipped += skipped
	r.failed += failed
}

type uploadFixture struct {
	svc      *Service
	store    *MemoryStore
	recorder *countingRecorder
	admin    auth.Principal
	ana      auth.Principal
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	employees := append(directoryEmployees(), core.Employee{ID: "E-ADM", Name: "Admin", Active: true})
	store := NewMemoryStore()
	recorder := &countingRecorder{}
	svc := NewService(store, core.NewMemoryStore(employees...), NewSessionStore(time.Hour))
	svc.Recorder = recorder
	svc.Now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
	return &uploadFixture{
		svc:      svc,
		store:    store,
		recorder: recorder,
		admin:    auth.Principal{UserID: "u-admin", EmployeeID: "E-ADM", Role: auth.RoleAdmin},
		ana:      auth.Principal{UserID: "u-ana", EmployeeID: "E100", Role: auth.RoleUser},
	}
}

// marchUpload has Ana on rows 3-4, an ambiguous "Park Min" on row 5, Ben
// with a broken cell on row 6 and Ana again on row 7.
func marchUpload(t *testing.T) []byte {
	t.Helper()
	return workbook(t, append(sheetHeader(),
		[]any{1, "E100", "Ana Kim", "2020-01-10", 3000000, 100000, 0, 0, 0, 135000, 106350, 27000, 80000, 8000},
		[]any{"", "", "900101-1234567", "", 40000, 0, 0, 0, "", 13770},
		[]any{2, "", "Park Min", "2021-01-01", 2000000, 0, 0, 0, 0, 90000, 70900, 18000, 30000, 3000},
		[]any{3, "E200", "Ben Lee", "2023-02-01", "oops", 0, 0, 0, 0, 0, 0, 0, 0, 0},
		[]any{4, "E100", "Ana Kim", "2020-01-10", 3100000, 0, 0, 0, 0, 139500, 109900, 27900, 85000, 8500},
	))
}

func (f *uploadFixture) preview(t *testing.T) PreviewResult {
	t.Helper()
	res, err := f.svc.Preview(context.Background(), f.admin, PreviewInput{FileName: "march.xlsx", Data: marchUpload(t), Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	return res
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func rowResult(t *testing.T, res ConfirmResult, row int) RowResult {
	t.Helper()
	for _, r := range res.Results {
		if r.RowNumber == row {
			return r
		}
	}
	t.Fatalf("no result for row %d", row)
	return RowResult{}
}

func TestPreviewClassifiesRecords(t *testing.T) {
	f := newUploadFixture(t)
	res := f.preview(t)

	want := Summary{Total: 4, Valid: 1, Warning: 1, Duplicate: 1, Invalid: 1, Matched: 3, Unmatched: 1}
	if res.Summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, res.Summary)
	}
	statuses := map[int]ValidationStatus{}
	for _, rec := range res.Records {
		statuses[rec.RowNumber] = rec.ValidationStatus
	}
	if statuses[3] != StatusValid || statuses[5] != StatusWarning || statuses[6] != StatusInvalid || statuses[7] != StatusDuplicate {
		t.Fatalf("unexpected statuses %v", statuses)
	}
	if f.recorder.previews != 4 || f.recorder.invalid != 1 {
		t.Fatalf("unexpected recorder counts %+v", f.recorder)
	}

	records, _ := f.store.ListMonth(context.Background(), 2025, 3)
	if len(records) != 0 {
		t.Fatalf("preview must not write records, found %d", len(records))
	}
}

func TestConfirmDefaultsAndSingleUse(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()
	res := f.preview(t)

	out, err := f.svc.Confirm(ctx, f.admin, res.Token, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.Saved != 1 || out.Skipped != 2 || out.Failed != 1 {
		t.Fatalf("expected 1 saved, 2 skipped, 1 failed, got %+v", out)
	}
	if r := rowResult(t, out, 5); r.Status != RowError {
		t.Fatalf("expected unmatched row to fail, got %+v", r)
	}
	if r := rowResult(t, out, 6); r.Status != RowSkipped {
		t.Fatalf("expected invalid row to be skipped, got %+v", r)
	}
	if r := rowResult(t, out, 7); r.Status != RowSkipped || r.RecordID != "" {
		t.Fatalf("expected the in-file duplicate to be skipped, got %+v", r)
	}

	records, _ := f.store.ListMonth(ctx, 2025, 3)
	if len(records) != 1 || !records[0].BaseSalary.Equal(dec("3000000")) {
		t.Fatalf("expected one record with the first row's values, got %+v", records)
	}
	if records[0].SourceFile != "march.xlsx" || records[0].CreatedBy != "u-admin" {
		t.Fatalf("unexpected provenance %+v", records[0])
	}

	_, err = f.svc.Confirm(ctx, f.admin, res.Token, nil)
	expectKind(t, err, apperr.KindConflict)
	if f.recorder.saved != 1 || f.recorder.failed != 1 {
		t.Fatalf("unexpected recorder counts %+v", f.recorder)
	}
}

func TestConfirmActions(t *testing.T) {
	f := newUploadFixture(t)
	res := f.preview(t)

	out, err := f.svc.Confirm(context.Background(), f.admin, res.Token, []RecordAction{
		{RowNumber: 5, Action: ActionManualMatch, EmployeeID: "E301"},
		{RowNumber: 6, Action: ActionAccept},
		{RowNumber: 7, Action: ActionSkip},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 5); r.Status != RowSaved || r.EmployeeID != "E301" {
		t.Fatalf("expected manual match to save for E301, got %+v", r)
	}
	if r := rowResult(t, out, 6); r.Status != RowError {
		t.Fatalf("expected explicit accept of an invalid row to fail, got %+v", r)
	}
	if r := rowResult(t, out, 7); r.Status != RowSkipped {
		t.Fatalf("expected skip, got %+v", r)
	}
	records, _ := f.store.ListMonth(context.Background(), 2025, 3)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestConfirmRejectsBadActionsAndKeepsSession(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()
	res := f.preview(t)

	bad := [][]RecordAction{
		{{RowNumber: 99, Action: ActionAccept}},
		{{RowNumber: 3, Action: ActionAccept}, {RowNumber: 3, Action: ActionSkip}},
		{{RowNumber: 5, Action: ActionManualMatch}},
		{{RowNumber: 5, Action: ActionManualMatch, EmployeeID: "E999"}},
		{{RowNumber: 5, Action: "guess"}},
	}
	for i, actions := range bad {
		_, err := f.svc.Confirm(ctx, f.admin, res.Token, actions)
		expectKind(t, err, apperr.KindValidation)
		if f.svc.Sessions.Len() != 1 {
			t.Fatalf("case %d: rejected actions must keep the session", i)
		}
	}
	if _, err := f.svc.Confirm(ctx, f.admin, res.Token, nil); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestConfirmKeepsFirstInFileDuplicate(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	out, err := f.svc.Confirm(ctx, f.admin, f.preview(t).Token, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 7); r.Status != RowSkipped || !strings.Contains(r.Message, "row 3") {
		t.Fatalf("expected row 7 to be skipped in favour of row 3, got %+v", r)
	}

	out, err = f.svc.Confirm(ctx, f.admin, f.preview(t).Token, []RecordAction{{RowNumber: 7, Action: ActionAccept}})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 3); r.Status != RowSaved {
		t.Fatalf("expected row 3 to save, got %+v", r)
	}
	if r := rowResult(t, out, 7); r.Status != RowError || !strings.Contains(r.Message, "already saved from row 3") {
		t.Fatalf("expected explicit accept of the second row to fail, got %+v", r)
	}
	records, _ := f.store.ListMonth(ctx, 2025, 3)
	if len(records) != 1 || !records[0].BaseSalary.Equal(dec("3000000")) {
		t.Fatalf("expected row 3 values to survive, got %+v", records)
	}
}

func TestDuplicatesRequireOptIn(t *testing.T) {
	f := newUploadFixture(t)
	f.svc.DuplicatesRequireOptIn = true
	ctx := context.Background()

	out, err := f.svc.Confirm(ctx, f.admin, f.preview(t).Token, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 3); r.Status != RowSaved {
		t.Fatalf("expected first upload to save, got %+v", r)
	}

	out, err = f.svc.Confirm(ctx, f.admin, f.preview(t).Token, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 3); r.Status != RowSkipped {
		t.Fatalf("expected committed period to be skipped without opt-in, got %+v", r)
	}

	out, err = f.svc.Confirm(ctx, f.admin, f.preview(t).Token, []RecordAction{{RowNumber: 3, Action: ActionAccept}})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r := rowResult(t, out, 3); r.Status != RowSaved {
		t.Fatalf("expected explicit accept to save the duplicate, got %+v", r)
	}
}

func TestPreviewFlagsCommittedPeriod(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Confirm(ctx, f.admin, f.preview(t).Token, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	res := f.preview(t)
	for _, rec := range res.Records {
		if rec.RowNumber == 3 && (rec.ValidationStatus != StatusDuplicate || !hasIssue(rec, IssueDuplicatePeriod)) {
			t.Fatalf("expected re-upload to be flagged as duplicate period, got %+v", rec)
		}
	}
}

func TestPreviewGuards(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, f.ana, PreviewInput{Data: marchUpload(t), Year: 2025, Month: 3})
	expectKind(t, err, apperr.KindForbidden)
	_, err = f.svc.Preview(ctx, f.admin, PreviewInput{Data: marchUpload(t), Year: 2025, Month: 13})
	expectKind(t, err, apperr.KindValidation)
	_, err = f.svc.Preview(ctx, f.admin, PreviewInput{Year: 2025, Month: 3})
	expectKind(t, err, apperr.KindValidation)
	_, err = f.svc.Preview(ctx, f.admin, PreviewInput{Data: []byte("plain text"), Year: 2025, Month: 3})
	expectKind(t, err, apperr.KindFormat)
}

func TestDiscardAndExpiredToken(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()
	res := f.preview(t)

	if err := f.svc.Discard(ctx, f.admin, res.Token); err != nil {
		t.Fatalf("discard: %v", err)
	}
	_, err := f.svc.Confirm(ctx, f.admin, res.Token, nil)
	expectKind(t, err, apperr.KindConflict)

	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f.svc.Sessions.now = func() time.Time { return now }
	res = f.preview(t)
	now = now.Add(2 * time.Hour)
	if removed := f.svc.SweepSessions(); removed != 1 {
		t.Fatalf("expected sweep to remove the stale preview, got %d", removed)
	}
	_, err = f.svc.Confirm(ctx, f.admin, res.Token, nil)
	expectKind(t, err, apperr.KindConflict)
}
