package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/platform/apperr"
)

type PreviewInput struct {
	FileName string
	Data     []byte
	Year     int
	Month    int
}

// Preview parses and matches an upload and parks the result in a session.
// Nothing is written to the ledger.
func (s *Service) Preview(ctx context.Context, actor auth.Principal, in PreviewInput) (PreviewResult, error) {
	if !auth.Can(actor, auth.ActPayrollUpload, auth.Resource{}) {
		return PreviewResult{}, apperr.Forbidden(ErrForbidden)
	}
	if err := validatePeriod(in.Year, in.Month); err != nil {
		return PreviewResult{}, err
	}
	if len(in.Data) == 0 {
		return PreviewResult{}, apperr.Validation(ErrEmptyUpload)
	}

	records, err := ParseWorkbook(bytes.NewReader(in.Data))
	if errors.Is(err, ErrFormat) {
		return PreviewResult{}, apperr.Format(err)
	}
	if err != nil {
		return PreviewResult{}, err
	}
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return PreviewResult{}, err
	}
	existing, err := s.Store.EmployeesWithRecords(ctx, in.Year, in.Month)
	if err != nil {
		return PreviewResult{}, err
	}
	classify(records, NewMatcher(employees), existing)

	sess := s.Sessions.Put(Session{
		OwnerID:  actor.UserID,
		Year:     in.Year,
		Month:    in.Month,
		FileName: in.FileName,
		Records:  records,
	})
	summary := summarize(records)
	if s.Recorder != nil {
		s.Recorder.RecordPayrollPreview(summary.Total, summary.Invalid)
	}
	slog.InfoContext(ctx, "payroll preview created",
		"file", in.FileName,
		"period", fmt.Sprintf("%d-%02d", in.Year, in.Month),
		"records", summary.Total,
		"invalid", summary.Invalid,
		"unmatched", summary.Unmatched,
	)
	return PreviewResult{
		Token:     sess.Token,
		Year:      sess.Year,
		Month:     sess.Month,
		FileName:  sess.FileName,
		ExpiresAt: sess.ExpiresAt,
		Records:   records,
		Summary:   summary,
	}, nil
}

// classify matches each record and assigns its validation status with
// precedence invalid > duplicate > warning > valid.
func classify(records []ParsedRecord, matcher *Matcher, committed []string) {
	existing := make(map[string]bool, len(committed))
	for _, id := range committed {
		existing[id] = true
	}
	firstRow := map[string]int{}

	for i := range records {
		rec := &records[i]
		matcher.Match(rec)

		if !rec.hasErrors() {
			if rec.NetSalary.IsNegative() {
				rec.addIssue(IssueWarning, IssueNegativeNet, fmt.Sprintf("net pay is negative (%s)", rec.NetSalary.StringFixed(2)))
			}
			if rec.BaseSalary.IsZero() {
				rec.addIssue(IssueWarning, IssueZeroBase, "base pay is zero")
			}
		}

		duplicate := false
		if rec.ResolvedEmployeeID != nil {
			id := *rec.ResolvedEmployeeID
			if existing[id] {
				duplicate = true
				rec.addIssue(IssueWarning, IssueDuplicatePeriod, "a record for this employee and period exists; confirming replaces it")
			}
			if row, seen := firstRow[id]; seen {
				duplicate = true
				rec.addIssue(IssueWarning, IssueDuplicateInFile, fmt.Sprintf("employee already appears on row %d; only the first row is saved", row))
			} else {
				firstRow[id] = rec.RowNumber
			}
		}

		switch {
		case rec.hasErrors():
			rec.ValidationStatus = StatusInvalid
		case duplicate:
			rec.ValidationStatus = StatusDuplicate
		case rec.hasWarnings():
			rec.ValidationStatus = StatusWarning
		default:
			rec.ValidationStatus = StatusValid
		}
	}
}

func summarize(records []ParsedRecord) Summary {
	sum := Summary{Total: len(records)}
	for _, rec := range records {
		switch rec.ValidationStatus {
		case StatusValid:
			sum.Valid++
		case StatusWarning:
			sum.Warning++
		case StatusDuplicate:
			sum.Duplicate++
		case StatusInvalid:
			sum.Invalid++
		}
		if rec.MatchStatus == MatchMatched {
			sum.Matched++
		} else {
			sum.Unmatched++
		}
	}
	return sum
}

// Confirm commits a previewed upload. Actions are validated before the
// session is consumed, so a rejected call can be corrected and retried.
func (s *Service) Confirm(ctx context.Context, actor auth.Principal, token string, actions []RecordAction) (ConfirmResult, error) {
	if !auth.Can(actor, auth.ActPayrollUpload, auth.Resource{}) {
		return ConfirmResult{}, apperr.Forbidden(ErrForbidden)
	}
	sess, err := s.Sessions.Get(token)
	if err != nil {
		return ConfirmResult{}, sessionError(err)
	}
	if err := ownSession(actor, sess); err != nil {
		return ConfirmResult{}, err
	}
	byRow, err := s.validateActions(ctx, sess, actions)
	if err != nil {
		return ConfirmResult{}, err
	}
	sess, err = s.Sessions.Take(token, func(sess Session) error { return ownSession(actor, sess) })
	if err != nil {
		return ConfirmResult{}, sessionError(err)
	}

	now := s.Now().UTC()
	savedFrom := map[string]int{}
	result := ConfirmResult{Year: sess.Year, Month: sess.Month, Results: make([]RowResult, 0, len(sess.Records))}
	for _, rec := range sess.Records {
		action, explicit := byRow[rec.RowNumber]
		row := s.commitRow(ctx, actor, sess, rec, action, explicit, savedFrom, now)
		switch row.Status {
		case RowSaved:
			result.Saved++
		case RowSkipped:
			result.Skipped++
		case RowError:
			result.Failed++
		}
		result.Results = append(result.Results, row)
	}

	if s.Recorder != nil {
		s.Recorder.RecordPayrollConfirm(result.Saved, result.Skipped, result.Failed)
	}
	s.Audit.Record(ctx, actor, audit.ActionPayrollConfirm, audit.EntityPayrollUpload,
		fmt.Sprintf("%d-%02d/%s", sess.Year, sess.Month, sess.FileName), nil,
		map[string]int{"saved": result.Saved, "skipped": result.Skipped, "failed": result.Failed})
	slog.InfoContext(ctx, "payroll upload confirmed",
		"file", sess.FileName,
		"period", fmt.Sprintf("%d-%02d", sess.Year, sess.Month),
		"saved", result.Saved,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *Service) validateActions(ctx context.Context, sess Session, actions []RecordAction) (map[int]RecordAction, error) {
	byRow := make(map[int]RecordAction, len(actions))
	for _, a := range actions {
		if _, ok := sess.record(a.RowNumber); !ok {
			return nil, apperr.Validation(fmt.Errorf("%w: row %d is not part of this upload", ErrInvalidAction, a.RowNumber))
		}
		if _, dup := byRow[a.RowNumber]; dup {
			return nil, apperr.Validation(fmt.Errorf("%w: row %d has more than one action", ErrInvalidAction, a.RowNumber))
		}
		switch a.Action {
		case ActionAccept, ActionSkip:
		case ActionManualMatch:
			a.EmployeeID = strings.TrimSpace(a.EmployeeID)
			if a.EmployeeID == "" {
				return nil, apperr.Validation(fmt.Errorf("%w: row %d: manualMatch requires employeeId", ErrInvalidAction, a.RowNumber))
			}
			if _, err := s.Directory.GetEmployee(ctx, a.EmployeeID); err != nil {
				if errors.Is(err, core.ErrEmployeeNotFound) {
					return nil, apperr.Validation(fmt.Errorf("%w: row %d: employee %s not found", ErrUnknownEmployee, a.RowNumber, a.EmployeeID))
				}
				return nil, err
			}
		default:
			return nil, apperr.Validation(fmt.Errorf("%w: row %d: unknown action %q", ErrInvalidAction, a.RowNumber, a.Action))
		}
		byRow[a.RowNumber] = a
	}
	return byRow, nil
}

func (s *Service) defaultAction(rec ParsedRecord) (Action, string) {
	switch {
	case rec.ValidationStatus == StatusInvalid:
		return ActionSkip, "invalid record"
	case rec.ValidationStatus == StatusDuplicate && s.DuplicatesRequireOptIn:
		return ActionSkip, "duplicate requires explicit accept"
	default:
		return ActionAccept, ""
	}
}

// commitRow saves one record. savedFrom maps employees saved earlier in the
// same confirm to their row; a later row for the same employee is skipped, or
// fails when it was explicitly accepted.
func (s *Service) commitRow(ctx context.Context, actor auth.Principal, sess Session, rec ParsedRecord, action RecordAction, explicit bool, savedFrom map[string]int, now time.Time) RowResult {
	res := RowResult{RowNumber: rec.RowNumber}
	act := action.Action
	if !explicit {
		var reason string
		act, reason = s.defaultAction(rec)
		res.Message = reason
	}
	if act == ActionSkip {
		res.Status = RowSkipped
		return res
	}
	if rec.ValidationStatus == StatusInvalid {
		res.Status = RowError
		res.Message = "invalid record cannot be saved: " + firstError(rec)
		return res
	}

	switch {
	case act == ActionManualMatch:
		res.EmployeeID = action.EmployeeID
	case rec.ResolvedEmployeeID != nil:
		res.EmployeeID = *rec.ResolvedEmployeeID
	default:
		res.Status = RowError
		res.Message = fmt.Sprintf("%s: no employee resolved for %q", apperr.KindUnmatchedEmployee, rec.Name)
		return res
	}
	if row, ok := savedFrom[res.EmployeeID]; ok {
		res.Status = RowSkipped
		if explicit {
			res.Status = RowError
		}
		res.Message = fmt.Sprintf("employee %s already saved from row %d", res.EmployeeID, row)
		return res
	}

	saved, err := s.upsert(ctx, Record{
		EmployeeID: res.EmployeeID,
		Year:       sess.Year,
		Month:      sess.Month,
		BaseSalary: rec.BaseSalary,
		Allowances: rec.Allowances.Clone(),
		Deductions: rec.Deductions.Clone(),
		SourceFile: sess.FileName,
		CreatedBy:  actor.UserID,
	}, now)
	if err != nil {
		slog.WarnContext(ctx, "payroll row save failed", "row", rec.RowNumber, "employeeId", res.EmployeeID, "err", err)
		res.Status = RowError
		res.Message = err.Error()
		return res
	}
	res.Status = RowSaved
	res.RecordID = saved.ID
	savedFrom[res.EmployeeID] = rec.RowNumber
	s.announce(ctx, saved)
	return res
}

func firstError(rec ParsedRecord) string {
	for _, issue := range rec.Issues {
		if issue.Level == IssueError {
			return issue.Message
		}
	}
	return "unknown problem"
}

// Discard drops a pending upload.
func (s *Service) Discard(ctx context.Context, actor auth.Principal, token string) error {
	if !auth.Can(actor, auth.ActPayrollUpload, auth.Resource{}) {
		return apperr.Forbidden(ErrForbidden)
	}
	if err := s.Sessions.Delete(token, func(sess Session) error { return ownSession(actor, sess) }); err != nil {
		return sessionError(err)
	}
	slog.InfoContext(ctx, "payroll preview discarded", "token", token)
	return nil
}

// SweepSessions removes expired previews.
func (s *Service) SweepSessions() int {
	return s.Sessions.Sweep()
}

func (s *Service) upsert(ctx context.Context, rec Record, now time.Time) (Record, error) {
	rec.Recompute()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PaymentStatus == "" {
		rec.PaymentStatus = PaymentPending
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return s.Store.UpsertRecord(ctx, rec)
}
