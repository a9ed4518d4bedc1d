package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
)

// ErrNoSites is returned when no invoice carries a site code
var ErrNoSites = errors.New("no invoice has a site code")

// BillingSource provides billing records for a date window
type BillingSource interface {
	FetchBillingRecords(ctx context.Context, from, to time.Time, sites []string) ([]BillingRecord, error)
}

// Reconciler fetches the billing records for a set of invoices and
// compares them
type Reconciler struct {
	source   BillingSource
	comparer *Comparer
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a reconciler
func NewReconciler(source BillingSource, comparer *Comparer, logger *slog.Logger) *Reconciler {
	if comparer == nil {
		comparer = NewComparer(WithComparerLogger(logger))
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{source: source, comparer: comparer, logger: logger, now: time.Now}
}

// Sites returns the distinct site codes of records in first-seen order
func Sites(records []invoice.Record) []string {
	var sites []string
	for _, r := range records {
		if site := r.SiteCode(); site != "" && !slices.Contains(sites, site) {
			sites = append(sites, site)
		}
	}
	return sites
}

// Reconcile compares records with the database. When from or to is zero
// the window is derived from the billing periods of the records.
func (r *Reconciler) Reconcile(ctx context.Context, records []invoice.Record, from, to time.Time) ([]Comparison, error) {
	sites := Sites(records)
	if len(sites) == 0 {
		return nil, ErrNoSites
	}

	if from.IsZero() || to.IsZero() {
		from, to = ResolveDateRange(records, r.now(), r.logger)
	}
	r.logger.Info("reconciling invoices", "sites", len(sites), "from", from.Format(dateLayout), "to", to.Format(dateLayout))

	dataset, err := r.source.FetchBillingRecords(ctx, from, to, sites)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	if len(dataset) == 0 {
		r.logger.Warn("database returned no billing records")
	}

	return r.comparer.Compare(records, dataset), nil
}
