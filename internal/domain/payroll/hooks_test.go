package payroll

import (
	"context"
	"testing"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/notifications"
)

func TestConfirmAndAdjustLeaveTrailAndNotices(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()
	trail := audit.New(audit.NewMemoryStore())
	f.svc.Audit = audit.NewTrail(trail)
	f.svc.Notifier = notifications.New(notifications.NewMemoryStore())

	res := f.preview(t)
	out, err := f.svc.Confirm(ctx, f.admin, res.Token, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	items, _, err := f.svc.Notifier.List(ctx, f.ana, false, 10, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(items) != out.Saved {
		t.Fatalf("expected one notice per saved row (%d), got %d", out.Saved, len(items))
	}
	if items[0].Type != notifications.TypePayslipPublished || items[0].Title != "Payslip for 2025-03 is available" {
		t.Fatalf("unexpected notice %+v", items[0])
	}

	recordID := rowResult(t, out, 3).RecordID
	if _, err := f.svc.Adjust(ctx, f.admin, recordID, Delta{BaseSalary: dec("10000")}); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	events, total, err := trail.List(ctx, f.admin, audit.Filter{}, true, 10, 0)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected confirm and adjust events, got %+v", events)
	}
	if events[0].Action != audit.ActionPayrollAdjust || events[0].EntityID != recordID || events[0].Before == nil {
		t.Fatalf("unexpected adjust event %+v", events[0])
	}
	if events[1].Action != audit.ActionPayrollConfirm || events[1].EntityID != "2025-03/march.xlsx" {
		t.Fatalf("unexpected confirm event %+v", events[1])
	}
}
