package budget

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteReportCSV streams a month-per-row budget report for [from, to],
// closing with a totals row. Money columns use English digit grouping.
func (s *Service) WriteReportCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	budgets, err := s.List(ctx, from, to)
	if err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	money := func(v float64) string {
		return printer.Sprintf("%.2f", v)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "planned_income", "planned_expenses", "actual_income", "actual_expenses", "net_result"}); err != nil {
		return err
	}

	var totals RangeTotals
	for _, b := range budgets {
		if err := cw.Write([]string{
			b.Month.Format("2006-01"),
			money(b.PlannedIncome),
			money(b.PlannedExpenses),
			money(b.ActualIncome),
			money(b.ActualExpenses),
			money(b.NetResult),
		}); err != nil {
			return err
		}
		totals.PlannedIncome += b.PlannedIncome
		totals.PlannedExpenses += b.PlannedExpenses
		totals.ActualIncome += b.ActualIncome
		totals.ActualExpenses += b.ActualExpenses
	}

	if err := cw.Write([]string{
		"total",
		money(totals.PlannedIncome),
		money(totals.PlannedExpenses),
		money(totals.ActualIncome),
		money(totals.ActualExpenses),
		money(totals.ActualIncome - totals.ActualExpenses),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
