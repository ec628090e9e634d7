// Package ingest reads tabular data extracts into string-keyed rows.
//
// The core modules never touch files directly; they consume []Row produced
// here (or posted over HTTP as JSON objects). This keeps file formats and
// discovery quirks out of the valuation code.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Row is one record of an extract, keyed by column header.
type Row map[string]string

// Get returns the first non-empty value among the given keys. Extracts from
// different vendors spell some headers differently, so lookups accept
// alternates.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ReadCSV parses a CSV file into rows keyed by the header line.
// Short records are tolerated; missing cells are simply absent from the row.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s contains no data rows", path)
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// FindNewest returns the most recently modified file under dir whose
// lowercased name contains marker and ends in .csv. Returns an error when no
// candidate exists.
func FindNewest(dir, marker string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".csv") || !strings.Contains(name, marker) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = filepath.Join(dir, entry.Name())
			newestMod = mod
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no %q csv extract found in %s", marker, dir)
	}
	return newest, nil
}
