package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// LEIE column names (OIG exclusion list CSV schema).
const (
	colLEIENPI       = "NPI"
	colLEIEExclDate  = "EXCLDATE"
	colLEIEExclType  = "EXCLTYPE"
	colLEIEBusName   = "BUSNAME"
	colLEIELastName  = "LASTNAME"
	colLEIEFirstName = "FIRSTNAME"
)

// LEIEResult holds the parsed exclusion list plus data-quality counters.
type LEIEResult struct {
	Records      []ExclusionRecord
	RowsRead     int64
	RowsRejected int64
}

// LoadLEIE reads the OIG LEIE exclusion list. A record is kept when it has
// a parseable exclusion date and either a valid 10-digit NPI or a non-empty
// name (the latter feeds the lower-confidence name-fallback match only).
func LoadLEIE(ctx context.Context, path string, useStdGzip bool) (*LEIEResult, error) {
	in, err := openInput(path, useStdGzip)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r := newCSVReader(in)
	idx, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}
	if missing := idx.require(colLEIENPI, colLEIEExclDate); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required columns %v", path, missing)
	}

	result := &LEIEResult{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.RowsRead++
			result.RowsRejected++
			continue
		}
		result.RowsRead++

		npi := idx.get(record, colLEIENPI)
		if npi != "" && !ValidNPI(npi) {
			npi = ""
		}

		exclDate, err := parseLEIEDate(idx.get(record, colLEIEExclDate))
		if err != nil {
			result.RowsRejected++
			continue
		}

		name := displayName(
			idx.get(record, colLEIEBusName),
			idx.get(record, colLEIEFirstName),
			idx.get(record, colLEIELastName),
		)
		if npi == "" && name == "" {
			result.RowsRejected++
			continue
		}

		result.Records = append(result.Records, ExclusionRecord{
			NPI:            npi,
			Name:           name,
			NormalizedName: NormalizeName(name),
			ExclusionDate:  exclDate,
			ExclusionType:  idx.get(record, colLEIEExclType),
		})
	}

	return result, nil
}

// parseLEIEDate parses the LEIE's integer-style YYYYMMDD exclusion date.
func parseLEIEDate(s string) (time.Time, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid exclusion date %q: %w", s, err)
	}
	return t, nil
}

// displayName builds a provider display name: business name when present,
// otherwise "FIRST LAST".
func displayName(busName, firstName, lastName string) string {
	if busName != "" {
		return busName
	}
	parts := make([]string, 0, 2)
	if firstName != "" {
		parts = append(parts, firstName)
	}
	if lastName != "" {
		parts = append(parts, lastName)
	}
	return strings.Join(parts, " ")
}

// NormalizeName folds case, strips punctuation, and collapses whitespace so
// exclusion-list names can be compared to registry names by exact equality.
// This is deliberately not a fuzzy match.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// punctuation dropped
		}
	}
	return strings.TrimRight(b.String(), " ")
}
