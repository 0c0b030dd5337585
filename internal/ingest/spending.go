package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Spending dataset column names (HHS Medicaid Provider Spending schema).
const (
	colBillingNPI = "BILLING_PROVIDER_NPI_NUM"
	colClaimMonth = "CLAIM_FROM_MONTH"
	colPaid       = "TOTAL_PAID"
	colClaims     = "TOTAL_CLAIMS"
	colBene       = "TOTAL_UNIQUE_BENEFICIARIES"
)

// SpendingOptions controls the spending scan.
type SpendingOptions struct {
	// UseStdGzip selects compress/gzip over pgzip for ".gz" inputs.
	UseStdGzip bool

	// OnRow is called once per raw row read (valid or not), for progress
	// reporting. May be nil.
	OnRow func()
}

// LoadSpending reduces the spending dataset to per-provider-month sums in a
// single streaming pass. The full row set is never materialized: each row is
// folded into a hash-map accumulator keyed by NPI as it is read.
//
// ".parquet" inputs are aggregated inside DuckDB (see spending_duckdb.go);
// everything else is treated as CSV, optionally gzip-compressed.
func LoadSpending(ctx context.Context, path string, opts SpendingOptions) (*SpendingAggregate, error) {
	if strings.HasSuffix(path, ".parquet") {
		return loadSpendingParquet(ctx, path, opts)
	}
	return loadSpendingCSV(ctx, path, opts)
}

func loadSpendingCSV(ctx context.Context, path string, opts SpendingOptions) (*SpendingAggregate, error) {
	in, err := openInput(path, opts.UseStdGzip)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r := newCSVReader(in)
	idx, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}
	if missing := idx.require(colBillingNPI, colClaimMonth, colPaid, colClaims, colBene); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required columns %v", path, missing)
	}

	agg := newSpendingAggregate()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A structurally broken row (bare quote, etc.) is a
			// data-quality error, not a fatal one.
			agg.RowsRead++
			agg.RowsRejected++
			if opts.OnRow != nil {
				opts.OnRow()
			}
			continue
		}

		agg.RowsRead++
		if opts.OnRow != nil {
			opts.OnRow()
		}

		npi := idx.get(record, colBillingNPI)
		month, paid, claims, bene, ok := parseSpendingRow(
			npi,
			idx.get(record, colClaimMonth),
			idx.get(record, colPaid),
			idx.get(record, colClaims),
			idx.get(record, colBene),
		)
		if !ok {
			agg.RowsRejected++
			continue
		}
		agg.add(npi, month, paid, claims, bene)
	}

	return agg, nil
}

// parseSpendingRow validates and converts one spending row. A row with an
// invalid NPI, unparseable month, or non-numeric paid amount is rejected
// outright; missing claim/beneficiary counts degrade to zero rather than
// discarding the dollar amount.
func parseSpendingRow(npi, monthStr, paidStr, claimsStr, beneStr string) (Month, float64, int64, int64, bool) {
	if !ValidNPI(npi) {
		return 0, 0, 0, 0, false
	}
	month, err := ParseMonth(monthStr)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	paid, err := strconv.ParseFloat(paidStr, 64)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	claims := parseCount(claimsStr)
	bene := parseCount(beneStr)
	return month, paid, claims, bene, true
}

func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Some extracts render counts as "123.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
