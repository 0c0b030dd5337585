package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// openInput opens path for reading, transparently decompressing a ".gz"
// suffix. pgzip decompresses on multiple cores; useStdGzip selects the
// standard library's single-threaded reader instead when pgzip misbehaves
// on a given file.
func openInput(path string, useStdGzip bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	var gz io.ReadCloser
	if useStdGzip {
		gz, err = gzip.NewReader(f)
	} else {
		gz, err = pgzip.NewReader(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip reader for %s: %w", path, err)
	}
	return &gzipFile{gz: gz, f: f}, nil
}

type gzipFile struct {
	gz io.ReadCloser
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFile) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// columnIndex maps CSV header names to their positions.
type columnIndex map[string]int

func readHeader(r *csv.Reader, path string) (columnIndex, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx, nil
}

// get returns the trimmed value of column name in record, or "" when the
// column is absent or the record is short.
func (c columnIndex) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// require verifies all named columns exist, returning the missing ones.
func (c columnIndex) require(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := c[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // tolerate ragged rows; validated per field
	return cr
}
