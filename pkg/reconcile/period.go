package reconcile

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
	"github.com/pyhub-apps/factura-energia-golang/pkg/patterns"
)

const dateLayout = "2006-01-02"

// ParsePeriod reads a billing period written as "start a end" or as a
// single date. A single date covers its whole month.
func ParsePeriod(period string) (start, end time.Time, ok bool) {
	period = strings.TrimSpace(period)
	if period == "" || period == invoice.NotFound {
		return time.Time{}, time.Time{}, false
	}

	if from, to, found := strings.Cut(period, patterns.PeriodSeparator); found {
		start, err := time.Parse(dateLayout, strings.TrimSpace(from))
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end, err := time.Parse(dateLayout, strings.TrimSpace(to))
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}

	start, err := time.Parse(dateLayout, period)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, lastOfMonth(start), true
}

// ResolveDateRange returns the query window covering every billing period
// in records, widened to whole months. Without any usable period the window
// is the month of now.
func ResolveDateRange(records []invoice.Record, now time.Time, logger *slog.Logger) (from, to time.Time) {
	if logger == nil {
		logger = slog.Default()
	}

	found := false
	for _, r := range records {
		period := r.Fields.Get(invoice.KeyBillingPeriod)
		start, end, ok := ParsePeriod(period)
		if !ok {
			if period != invoice.NotFound {
				logger.Warn("unparseable billing period", "path", r.ID, "period", period)
			}
			continue
		}
		if !found || start.Before(from) {
			from = start
		}
		if !found || end.After(to) {
			to = end
		}
		found = true
	}

	if !found {
		logger.Warn("no billing periods found, using current month")
		return firstOfMonth(now), lastOfMonth(now)
	}
	return firstOfMonth(from), lastOfMonth(to)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}
