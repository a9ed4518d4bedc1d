package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
)

func billingColumnsHeader() []string {
	return append([]string{"frt", "factura", "fechafacturacion"}, ValueColumns()...)
}

func billingRow(site string, values map[string]int64) []any {
	date := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	row := []any{site, "FE-" + site, &date}
	for _, col := range ValueColumns() {
		if v, ok := values[col]; ok {
			row = append(row, decimal.NewNullDecimal(decimal.NewFromInt(v)))
		} else {
			row = append(row, decimal.NullDecimal{})
		}
	}
	return row
}

func TestRepository_FetchBillingRecords(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("range query", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .* FROM app_ectc_gecc.reporte_liquidacion_frts WHERE fechafacturacion BETWEEN`).
			WithArgs("2024-01-01", "2024-01-31", []string{"Frt1"}).
			WillReturnRows(pgxmock.NewRows(billingColumnsHeader()).
				AddRow(billingRow("Frt1", map[string]int64{"neto_a_pagar": 1499})...))

		records, err := NewRepository(mock, nil).FetchBillingRecords(context.Background(), from, to, []string{"Frt1"})
		require.NoError(t, err)
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "Frt1", rec.Site)
		assert.Equal(t, "FE-Frt1", rec.Invoice)
		require.NotNil(t, rec.BillingDate)

		v, ok := rec.Value("neto_a_pagar")
		require.True(t, ok)
		assert.Equal(t, "1499", v.String())

		_, ok = rec.Value("contribución")
		assert.False(t, ok)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("falls back to frontier lookup", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`WHERE fechafacturacion BETWEEN`).
			WithArgs("2024-01-01", "2024-01-31", []string{"Frt1"}).
			WillReturnRows(pgxmock.NewRows(billingColumnsHeader()))
		mock.ExpectQuery(`WHERE frontera = ANY\(\$1\) ORDER BY fechafacturacion DESC`).
			WithArgs([]string{"Frt1"}).
			WillReturnRows(pgxmock.NewRows(billingColumnsHeader()).
				AddRow(billingRow("Frt1", nil)...).
				AddRow(billingRow("Frt1", nil)...))

		records, err := NewRepository(mock, nil).FetchBillingRecords(context.Background(), from, to, []string{"Frt1"})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no sites skips the fallback", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`WHERE fechafacturacion BETWEEN`).
			WithArgs("2024-01-01", "2024-01-31").
			WillReturnRows(pgxmock.NewRows(billingColumnsHeader()))

		records, err := NewRepository(mock, nil).FetchBillingRecords(context.Background(), from, to, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		boom := errors.New("relation does not exist")
		mock.ExpectQuery(`WHERE fechafacturacion BETWEEN`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(boom)

		_, err = NewRepository(mock, nil).FetchBillingRecords(context.Background(), from, to, []string{"Frt1"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name  string
		input string
		start string
		end   string
		ok    bool
	}{
		{name: "range", input: "2024-01-05 a 2024-02-04", start: "2024-01-05", end: "2024-02-04", ok: true},
		{name: "single date", input: "2024-02-10", start: "2024-02-10", end: "2024-02-29", ok: true},
		{name: "december", input: "2023-12-01", start: "2023-12-01", end: "2023-12-31", ok: true},
		{name: "sentinel", input: invoice.NotFound},
		{name: "garbage", input: "enero 2024"},
		{name: "bad range", input: "2024-01-01 a ayer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := ParsePeriod(tt.input)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.start, start.Format(dateLayout))
			assert.Equal(t, tt.end, end.Format(dateLayout))
		})
	}
}

func TestResolveDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("widens to whole months", func(t *testing.T) {
		records := []invoice.Record{
			newRecord("a", "Frt1", "2024-01-05 a 2024-02-04", nil),
			newRecord("b", "Frt2", "2024-03-10", nil),
		}
		from, to := ResolveDateRange(records, now, nil)
		assert.Equal(t, "2024-01-01", from.Format(dateLayout))
		assert.Equal(t, "2024-03-31", to.Format(dateLayout))
	})

	t.Run("current month without periods", func(t *testing.T) {
		records := []invoice.Record{newRecord("a", "Frt1", invoice.NotFound, nil)}
		from, to := ResolveDateRange(records, now, nil)
		assert.Equal(t, "2024-06-01", from.Format(dateLayout))
		assert.Equal(t, "2024-06-30", to.Format(dateLayout))
	})
}
