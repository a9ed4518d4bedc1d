// Package reconcile compares extracted invoices with the billing records
// stored in the corporate database.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BillingTable holds one settlement row per frontier and billing date
const BillingTable = "app_ectc_gecc.reporte_liquidacion_frts"

// Querier is the part of a pgx pool the repository needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type column struct {
	expr  string
	alias string
}

var billingColumns = []column{
	{"v_consumo_energia_ajustado", "subtotal_energía_total"},
	{"q_activa", "energía_activa"},
	{"q_inductiva_pen", "energía_reactiva_inductiva_facturada"},
	{"q_capacitiva_pen", "energía_reactiva_capacitiva_facturada"},
	{"v_gm", "generación_mes_corriente"},
	{"v_rm", "restricciones_mes_corriente"},
	{"v_cm", "comercialización_mes_corriente"},
	{"v_dm", "distribución_mes_corriente"},
	{"v_om", "otros_cargos_mes_corriente"},
	{"v_ppond", "pérdidas_mes_corriente"},
	{"v_tpond", "transmisión_mes_corriente"},
	{"v_reactiva_pen", "energía_inductiva_capacitiva_facturada_mes_corriente"},
	{"v_consumo_energia", "subtotal_energía_mes_corriente"},
	{"v_gm_ajuste", "generación_ajustes_anteriores"},
	{"v_rm_ajuste", "restricciones_ajustes_anteriores"},
	{"v_cm_ajuste", "comercialización_ajustes_anteriores"},
	{"v_dm_ajuste", "distribución_ajustes_anteriores"},
	{"v_om_ajuste", "otros_cargos_ajustes_anteriores"},
	{"v_ppond_ajuste", "pérdidas_ajustes_anteriores"},
	{"v_tpond_ajuste", "transmisión_ajustes_anteriores"},
	{"v_consumo_energia_ajuste", "subtotal_energía_ajustes_anteriores"},
	{"v_reactiva_pen_ajuste", "energía_inductiva_capacitiva_facturada_ajustes_anteriores"},
	{"v_gm_ajustado", "generación_total"},
	{"v_rm_ajustado", "restricciones_total"},
	{"v_cm_ajustado", "comercialización_total"},
	{"v_dm_ajustado", "distribución_total"},
	{"v_om_ajustado", "otros_cargos_total"},
	{"v_ppond_ajustado", "pérdidas_total"},
	{"v_tpond_ajustado", "transmisión_total"},
	{"v_reactiva_pen_ajustado", "energía_inductiva_capacitiva_facturada_total"},
	{"v_contribucion", "contribución"},
	{"v_compensacion", "compensaciones"},
	{"total_saldo_cartera", "amortizacion"},
	{"v_iapb", "impuesto_alumbrado_público"},
	{"v_iap_ajuste", "ajuste_iap_otros_meses"},
	{"v_sgcv", "tasa_especial_convivencia_ciudadana"},
	{"v_asgcv", "ajuste_tasa_convivencia_otros_meses"},
	{"v_neto_factura", "neto_a_pagar"},
	{"factor_m", "factor_m"},
	{"v_aj_cargos_regulados", "ajustes_cargos_regulados"},
	{"interes_mora", "interés_por_mora"},
}

// ValueColumns returns the numeric column names of a billing record
func ValueColumns() []string {
	names := make([]string, len(billingColumns))
	for i, c := range billingColumns {
		names[i] = c.alias
	}
	return names
}

// BillingRecord is one settlement row
type BillingRecord struct {
	Site        string
	Invoice     string
	BillingDate *time.Time
	Values      map[string]decimal.NullDecimal
}

// Value returns a numeric column; ok is false for NULL or unknown columns
func (b BillingRecord) Value(column string) (decimal.Decimal, bool) {
	v, found := b.Values[column]
	if !found || !v.Valid {
		return decimal.Zero, false
	}
	return v.Decimal, true
}

// Repository reads billing records
type Repository struct {
	db     Querier
	logger *slog.Logger
}

// NewRepository creates a repository over db
func NewRepository(db Querier, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{db: db, logger: logger}
}

// Connect opens a connection pool and checks it is reachable
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

func selectList() string {
	var b strings.Builder
	b.WriteString("COALESCE(frontera, '') AS frt, COALESCE(factura_dian::text, '') AS factura, fechafacturacion")
	for _, c := range billingColumns {
		fmt.Fprintf(&b, ", %s AS %q", c.expr, c.alias)
	}
	return b.String()
}

var (
	rangeQuery = "SELECT " + selectList() + " FROM " + BillingTable +
		" WHERE fechafacturacion BETWEEN to_date($1, 'YYYY-MM-DD') AND to_date($2, 'YYYY-MM-DD')"
	siteQuery = "SELECT " + selectList() + " FROM " + BillingTable +
		" WHERE frontera = ANY($1) ORDER BY fechafacturacion DESC"
)

// FetchBillingRecords returns the records billed between from and to,
// restricted to sites when any are given. When that finds nothing it looks
// the sites up regardless of date, newest first.
func (r *Repository) FetchBillingRecords(ctx context.Context, from, to time.Time, sites []string) ([]BillingRecord, error) {
	query := rangeQuery
	args := []any{from.Format(dateLayout), to.Format(dateLayout)}
	if len(sites) > 0 {
		query += " AND frontera = ANY($3)"
		args = append(args, sites)
	}

	r.logger.Info("querying billing records", "from", args[0], "to", args[1], "sites", len(sites))
	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 && len(sites) > 0 {
		r.logger.Info("no billing records in range, searching by frontier")
		records, err = r.query(ctx, siteQuery, sites)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("billing records fetched", "count", len(records))
	return records, nil
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]BillingRecord, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query billing records: %w", err)
	}
	defer rows.Close()

	var records []BillingRecord
	for rows.Next() {
		var rec BillingRecord
		values := make([]decimal.NullDecimal, len(billingColumns))
		dest := make([]any, 0, 3+len(billingColumns))
		dest = append(dest, &rec.Site, &rec.Invoice, &rec.BillingDate)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan billing record: %w", err)
		}

		rec.Values = make(map[string]decimal.NullDecimal, len(billingColumns))
		for i, c := range billingColumns {
			rec.Values[c.alias] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read billing records: %w", err)
	}
	return records, nil
}
