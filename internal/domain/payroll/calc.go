package payroll

import "github.com/shopspring/decimal"

// Sum adds every component amount.
func (c Components) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range c {
		total = total.Add(amount)
	}
	return total
}

func (c Components) Clone() Components {
	out := make(Components, len(c))
	for name, amount := range c {
		out[name] = amount
	}
	return out
}

// ComputePayroll derives the totals and net pay, rounded to 2 places.
func ComputePayroll(baseSalary decimal.Decimal, allowances, deductions Components) (totalAllowances, totalDeductions, net decimal.Decimal) {
	totalAllowances = allowances.Sum().Round(2)
	totalDeductions = deductions.Sum().Round(2)
	net = baseSalary.Add(totalAllowances).Sub(totalDeductions).Round(2)
	return totalAllowances, totalDeductions, net
}

// Recompute refreshes derived totals; stored totals are never trusted.
func (r *Record) Recompute() {
	r.BaseSalary = r.BaseSalary.Round(2)
	r.TotalAllowances, r.TotalDeductions, r.NetSalary = ComputePayroll(r.BaseSalary, r.Allowances, r.Deductions)
}

func (r *ParsedRecord) recompute() {
	r.TotalAllowances, r.TotalDeductions, r.NetSalary = ComputePayroll(r.BaseSalary, r.Allowances, r.Deductions)
}

// Apply adds d to r and recomputes totals.
func (r *Record) Apply(d Delta) {
	r.BaseSalary = r.BaseSalary.Add(d.BaseSalary)
	if r.Allowances == nil {
		r.Allowances = Components{}
	}
	for name, amount := range d.Allowances {
		r.Allowances[name] = r.Allowances[name].Add(amount)
	}
	if r.Deductions == nil {
		r.Deductions = Components{}
	}
	for name, amount := range d.Deductions {
		r.Deductions[name] = r.Deductions[name].Add(amount)
	}
	if d.PaymentStatus != nil {
		r.PaymentStatus = *d.PaymentStatus
	}
	r.Recompute()
}
