package tools

import "regexp"

// GapPattern pairs a set of regexes with the capability name and template
// signature description handed to the synthesiser when one of them hits.
type GapPattern struct {
	Key         string
	Description string
	Patterns    []*regexp.Regexp
}

func pats(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// gapPatterns covers 10 domains (finance, Monte Carlo/numerics, HR/payroll,
// SLA/ops, supply chain, date/time, statistics, tax, risk/compliance,
// AR/collections) with 2-4 capability keys each, 30 keys in all.
var gapPatterns = []GapPattern{
	// finance
	{"finance_npv", "Compute(params) with cash_flow_0..n and discount_rate -> net present value", pats(`(?i)\bnet present value\b`, `(?i)\bnpv\b`)},
	{"finance_irr", "Compute(params) with cash_flow_0..n -> internal rate of return", pats(`(?i)\binternal rate of return\b`, `(?i)\birr\b`)},
	{"finance_bond_price", "Compute(params) with face_value, coupon_rate, yield, periods -> bond price", pats(`(?i)\bbond price\b`, `(?i)\byield to maturity\b`)},
	{"finance_wacc", "Compute(params) with equity, debt, cost_of_equity, cost_of_debt, tax_rate -> WACC", pats(`(?i)\bweighted average cost of capital\b`, `(?i)\bwacc\b`)},

	// Monte Carlo / numerics
	{"numerics_monte_carlo", "Compute(params) with trials, mean, stddev -> simulated outcome distribution summary", pats(`(?i)\bmonte carlo\b`, `(?i)\bsimulat(e|ion)\b.*\b(risk|outcome)\b`)},
	{"numerics_regression", "Compute(params) with x values, y values -> linear regression slope/intercept", pats(`(?i)\blinear regression\b`, `(?i)\btrend line\b`)},
	{"numerics_optimization", "Compute(params) with constraints -> optimal allocation", pats(`(?i)\boptimi[sz]e\b.*\ballocation\b`)},

	// HR/payroll
	{"hr_overtime_pay", "Compute(params) with hourly_rate, regular_hours, overtime_hours -> total pay", pats(`(?i)\bovertime pay\b`, `(?i)\btime and a half\b`)},
	{"hr_pto_accrual", "Compute(params) with accrual_rate, months_employed -> accrued PTO balance", pats(`(?i)\bpto accrual\b`, `(?i)\bvacation accrual\b`)},
	{"hr_severance", "Compute(params) with years_of_service, base_salary -> severance amount", pats(`(?i)\bseverance\b`)},

	// SLA/ops
	{"sla_credit", "Compute(params) with committed_pct, actual_pct, monthly_fee -> SLA credit owed", pats(`(?i)\bsla credit\b`, `(?i)\bservice level credit\b`)},
	{"sla_uptime", "Compute(params) with downtime_minutes, period_minutes -> uptime percentage", pats(`(?i)\buptime percentage\b`, `(?i)\bavailability percentage\b`)},
	{"ops_mttr", "Compute(params) with incident durations -> mean time to repair", pats(`(?i)\bmean time to (repair|recovery)\b`, `(?i)\bmttr\b`)},

	// supply chain
	{"supply_eoq", "Compute(params) with annual_demand, order_cost, holding_cost -> economic order quantity", pats(`(?i)\beconomic order quantity\b`, `(?i)\beoq\b`)},
	{"supply_safety_stock", "Compute(params) with lead_time, demand_stddev, service_level -> safety stock", pats(`(?i)\bsafety stock\b`, `(?i)\breorder point\b`)},
	{"supply_fill_rate", "Compute(params) with units_shipped, units_ordered -> fill rate", pats(`(?i)\bfill rate\b`, `(?i)\border fulfillment rate\b`)},

	// date/time
	{"datetime_business_days", "Compute(params) with start_date, end_date -> business days between", pats(`(?i)\bbusiness days between\b`, `(?i)\bworking days\b`)},
	{"datetime_sla_deadline", "Compute(params) with start_timestamp, sla_hours -> deadline timestamp accounting for business hours", pats(`(?i)\bsla deadline\b`, `(?i)\bresponse time deadline\b`)},

	// statistics
	{"stats_confidence_interval", "Compute(params) with mean, stddev, n, confidence -> confidence interval bounds", pats(`(?i)\bconfidence interval\b`)},
	{"stats_zscore", "Compute(params) with value, mean, stddev -> z-score", pats(`(?i)\bz-?score\b`, `(?i)\bstandard deviations? (from|above|below)\b`)},
	{"stats_correlation", "Compute(params) with x values, y values -> correlation coefficient", pats(`(?i)\bcorrelation coefficient\b`, `(?i)\bpearson\b`)},

	// tax
	{"tax_effective_rate", "Compute(params) with taxable_income, bracket table -> effective tax rate", pats(`(?i)\beffective tax rate\b`, `(?i)\btax bracket\b`)},
	{"tax_withholding", "Compute(params) with gross_pay, allowances, filing_status -> withholding amount", pats(`(?i)\bwithholding amount\b`, `(?i)\btax withholding\b`)},
	{"tax_depreciation_macrs", "Compute(params) with cost, recovery_period -> MACRS depreciation schedule", pats(`(?i)\bmacrs\b`)},

	// risk/compliance
	{"risk_var", "Compute(params) with returns, confidence -> value at risk", pats(`(?i)\bvalue at risk\b`, `(?i)\bvar\b.*\bconfidence\b`)},
	{"risk_score", "Compute(params) with risk factors -> composite risk score", pats(`(?i)\brisk score\b`, `(?i)\bcomposite risk\b`)},
	{"compliance_threshold_breach", "Compute(params) with measured_value, threshold -> breach magnitude", pats(`(?i)\bthreshold breach\b`, `(?i)\bexceeds? (the )?threshold\b`)},

	// AR/collections
	{"ar_dso", "Compute(params) with accounts_receivable, total_credit_sales, days -> days sales outstanding", pats(`(?i)\bdays sales outstanding\b`, `(?i)\bdso\b`)},
	{"ar_aging_bucket", "Compute(params) with invoice_date, as_of_date -> aging bucket (current/30/60/90+)", pats(`(?i)\baging bucket\b`, `(?i)\bpast due\b.*\bdays\b`)},
	{"ar_collection_probability", "Compute(params) with days_past_due -> estimated collection probability", pats(`(?i)\bcollection probability\b`, `(?i)\blikelihood of (payment|collection)\b`)},
}

// DetectGapPattern runs Phase 1 (pattern) gap detection: zero external
// cost, returns the first matching capability.
func DetectGapPattern(taskText string) (*GapPattern, bool) {
	for _, gp := range gapPatterns {
		for _, re := range gp.Patterns {
			if re.MatchString(taskText) {
				return &gp, true
			}
		}
	}
	return nil, false
}
