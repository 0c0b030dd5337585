package ingest

import (
	"context"
	"strings"
	"testing"
)

func nppesCSV(rows ...string) string {
	header := strings.Join([]string{
		"NPI",
		"Entity Type Code",
		"Provider Organization Name (Legal Business Name)",
		"Provider Last Name (Legal Name)",
		"Provider First Name",
		"Provider Business Practice Location Address State Name",
		"Provider Business Mailing Address State Name",
		"Healthcare Provider Taxonomy Code_1",
		"Provider Enumeration Date",
		"Authorized Official Last Name",
		"Authorized Official First Name",
		"Authorized Official Telephone Number",
	}, ",")
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestLoadNPPES(t *testing.T) {
	csv := nppesCSV(
		"1234567890,2,ACME HOME CARE LLC,,,TX,,251E00000X,01/15/2020,GARCIA,MARIA,5125551234",
		"9876543210,1,,SMITH,JOHN,,CA,207Q00000X,06/30/2015,,,",
		"5555555555,1,,DOE,JANE,NY,,,,,,",
		"12345,1,,BAD,NPI,TX,,,,,,",
	)
	path := writeTestFile(t, "nppes.csv", csv)

	result, err := LoadNPPES(context.Background(), path, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.RowsRead != 4 || result.RowsRejected != 1 {
		t.Errorf("expected 4 read / 1 rejected, got %d/%d", result.RowsRead, result.RowsRejected)
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}

	org := result.Records["1234567890"]
	if org.Name != "ACME HOME CARE LLC" || org.EntityTypeCode != "2" || org.TaxonomyCode != "251E00000X" {
		t.Errorf("unexpected org record: %+v", org)
	}
	if org.State != "TX" {
		t.Errorf("state = %q, want TX", org.State)
	}
	if got := org.EnumerationDate.Format("2006-01-02"); got != "2020-01-15" {
		t.Errorf("enumeration date = %s, want 2020-01-15", got)
	}
	if org.OfficialKey != "MARIA|GARCIA" || org.OfficialName != "MARIA GARCIA" {
		t.Errorf("official key/name = %q / %q", org.OfficialKey, org.OfficialName)
	}

	ind := result.Records["9876543210"]
	if ind.Name != "JOHN SMITH" {
		t.Errorf("individual name = %q, want JOHN SMITH", ind.Name)
	}
	if ind.State != "CA" {
		t.Errorf("expected mailing-state fallback to CA, got %q", ind.State)
	}
	if ind.OfficialKey != "" {
		t.Errorf("expected empty official key, got %q", ind.OfficialKey)
	}

	if bare := result.Records["5555555555"]; !bare.EnumerationDate.IsZero() {
		t.Errorf("expected zero enumeration date, got %v", bare.EnumerationDate)
	}
}

func TestOfficialKey(t *testing.T) {
	if got := OfficialKey(" maria ", "garcia"); got != "MARIA|GARCIA" {
		t.Errorf("OfficialKey = %q", got)
	}
	if got := OfficialKey("", "garcia"); got != "" {
		t.Errorf("expected empty key when first name missing, got %q", got)
	}
	if got := OfficialKey("maria", ""); got != "" {
		t.Errorf("expected empty key when last name missing, got %q", got)
	}
}
