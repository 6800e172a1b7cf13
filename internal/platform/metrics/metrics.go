package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	payrollPreviews       uint64
	payrollPreviewRecords uint64
	payrollInvalidRecords uint64
	payrollSaved          uint64
	payrollSkipped        uint64
	payrollFailed         uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordPayrollPreview(records, invalid int) {
	atomic.AddUint64(&c.payrollPreviews, 1)
	atomic.AddUint64(&c.payrollPreviewRecords, uint64(max(records, 0)))
	atomic.AddUint64(&c.payrollInvalidRecords, uint64(max(invalid, 0)))
}

func (c *Collector) RecordPayrollConfirm(saved, skipped, failed int) {
	atomic.AddUint64(&c.payrollSaved, uint64(max(saved, 0)))
	atomic.AddUint64(&c.payrollSkipped, uint64(max(skipped, 0)))
	atomic.AddUint64(&c.payrollFailed, uint64(max(failed, 0)))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"payroll": map[string]uint64{
			"previewsTotal":       atomic.LoadUint64(&c.payrollPreviews),
			"previewRecordsTotal": atomic.LoadUint64(&c.payrollPreviewRecords),
			"invalidRecordsTotal": atomic.LoadUint64(&c.payrollInvalidRecords),
			"savedTotal":          atomic.LoadUint64(&c.payrollSaved),
			"skippedTotal":        atomic.LoadUint64(&c.payrollSkipped),
			"failedTotal":         atomic.LoadUint64(&c.payrollFailed),
		},
	}
}
