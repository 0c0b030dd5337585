package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// loadSpendingParquet aggregates a parquet spending file with DuckDB's
// streaming read_parquet scan. The GROUP BY executes out of core inside the
// engine; only the grouped provider-month rows cross into Go.
func loadSpendingParquet(ctx context.Context, path string, opts SpendingOptions) (*SpendingAggregate, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging duckdb: %w", err)
	}

	// Row counts first: total rows and rows failing the schema contract.
	countQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (
				WHERE BILLING_PROVIDER_NPI_NUM IS NULL
				   OR length(CAST(BILLING_PROVIDER_NPI_NUM AS VARCHAR)) <> 10
				   OR CLAIM_FROM_MONTH IS NULL
				   OR TOTAL_PAID IS NULL
			)
		FROM read_parquet(?)`

	agg := newSpendingAggregate()
	if err := db.QueryRowContext(ctx, countQuery, absPath).Scan(&agg.RowsRead, &agg.RowsRejected); err != nil {
		return nil, fmt.Errorf("counting rows in %s: %w", path, err)
	}

	groupQuery := `
		SELECT
			CAST(BILLING_PROVIDER_NPI_NUM AS VARCHAR),
			-- "YYYY-MM" whether the column is a month string or a date
			substr(CAST(CLAIM_FROM_MONTH AS VARCHAR), 1, 7),
			CAST(SUM(TOTAL_PAID) AS DOUBLE),
			CAST(COALESCE(SUM(TOTAL_CLAIMS), 0) AS BIGINT),
			CAST(COALESCE(SUM(TOTAL_UNIQUE_BENEFICIARIES), 0) AS BIGINT)
		FROM read_parquet(?)
		WHERE BILLING_PROVIDER_NPI_NUM IS NOT NULL
		  AND length(CAST(BILLING_PROVIDER_NPI_NUM AS VARCHAR)) = 10
		  AND CLAIM_FROM_MONTH IS NOT NULL
		  AND TOTAL_PAID IS NOT NULL
		GROUP BY 1, 2`

	rows, err := db.QueryContext(ctx, groupQuery, absPath)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			npi, monthStr string
			paid          float64
			claims, bene  int64
		)
		if err := rows.Scan(&npi, &monthStr, &paid, &claims, &bene); err != nil {
			return nil, fmt.Errorf("scanning aggregate row: %w", err)
		}
		if opts.OnRow != nil {
			opts.OnRow()
		}

		if !ValidNPI(npi) {
			agg.RowsRejected++
			continue
		}
		month, err := ParseMonth(monthStr)
		if err != nil {
			agg.RowsRejected++
			continue
		}
		agg.add(npi, month, paid, claims, bene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading aggregates from %s: %w", path, err)
	}

	return agg, nil
}
