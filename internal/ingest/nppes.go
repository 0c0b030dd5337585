package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// NPPES column names. The registry's native schema is over 300 columns
// wide; only these are consumed.
const (
	colNPPESNPI           = "NPI"
	colNPPESEntityType    = "Entity Type Code"
	colNPPESOrgName       = "Provider Organization Name (Legal Business Name)"
	colNPPESLastName      = "Provider Last Name (Legal Name)"
	colNPPESFirstName     = "Provider First Name"
	colNPPESPracticeState = "Provider Business Practice Location Address State Name"
	colNPPESMailState     = "Provider Business Mailing Address State Name"
	colNPPESTaxonomy      = "Healthcare Provider Taxonomy Code_1"
	colNPPESEnumDate      = "Provider Enumeration Date"
	colNPPESOfficialLast  = "Authorized Official Last Name"
	colNPPESOfficialFirst = "Authorized Official First Name"
	colNPPESOfficialPhone = "Authorized Official Telephone Number"
)

// NPPESResult holds the projected registry plus data-quality counters.
type NPPESResult struct {
	Records      map[string]*RegistryRecord // keyed by NPI
	RowsRead     int64
	RowsRejected int64
}

// LoadNPPES reads the NPPES registry CSV with column projection: each row is
// reduced to the projected RegistryRecord as it streams past, so the wide
// native rows are never held.
func LoadNPPES(ctx context.Context, path string, useStdGzip bool, onRow func()) (*NPPESResult, error) {
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
	if missing := idx.require(colNPPESNPI); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required columns %v", path, missing)
	}

	result := &NPPESResult{Records: make(map[string]*RegistryRecord)}
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
			if onRow != nil {
				onRow()
			}
			continue
		}
		result.RowsRead++
		if onRow != nil {
			onRow()
		}

		npi := idx.get(record, colNPPESNPI)
		if !ValidNPI(npi) {
			result.RowsRejected++
			continue
		}

		// Practice state, falling back to mailing state.
		state := idx.get(record, colNPPESPracticeState)
		if state == "" {
			state = idx.get(record, colNPPESMailState)
		}

		reg := &RegistryRecord{
			NPI:            npi,
			EntityTypeCode: idx.get(record, colNPPESEntityType),
			TaxonomyCode:   idx.get(record, colNPPESTaxonomy),
			State:          state,
			OfficialPhone:  idx.get(record, colNPPESOfficialPhone),
		}

		reg.Name = displayName(
			idx.get(record, colNPPESOrgName),
			idx.get(record, colNPPESFirstName),
			idx.get(record, colNPPESLastName),
		)

		if enumStr := idx.get(record, colNPPESEnumDate); enumStr != "" {
			if t, err := time.Parse("01/02/2006", enumStr); err == nil {
				reg.EnumerationDate = t
			}
		}

		first := idx.get(record, colNPPESOfficialFirst)
		last := idx.get(record, colNPPESOfficialLast)
		reg.OfficialKey = OfficialKey(first, last)
		if reg.OfficialKey != "" {
			reg.OfficialName = strings.TrimSpace(first + " " + last)
		}

		result.Records[npi] = reg
	}

	return result, nil
}

// OfficialKey builds the authorized-official grouping key "FIRST|LAST".
// Returns "" unless both name parts are present.
func OfficialKey(first, last string) string {
	first = strings.ToUpper(strings.TrimSpace(first))
	last = strings.ToUpper(strings.TrimSpace(last))
	if first == "" || last == "" {
		return ""
	}
	return first + "|" + last
}
