// Package loader reads one sensor export file into canonical rows: it
// applies the schema mapping, resolves sensor identity and coordinates from
// the filename, and stamps every row as UTC.
package loader

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pasc/internal/schema"
	"pasc/pkg/contracts/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// Identity is the sensor tag and coordinates resolved from one filename.
// Coordinates stay nil when the filename could not be parsed.
type Identity struct {
	Sensor string
	Lat    *float64
	Lon    *float64
}

// ParseFilename extracts the sensor tag and coordinates from a filename of
// the form "<name> (<lat> <lon>) <kind> <start>_<end>.csv". The tag is the
// substring up to the first space, upper-cased; the coordinates sit inside
// the parentheses nearest the final dot.
//
// A malformed filename is not fatal: the first 7 characters of the stem
// become the tag, coordinates stay empty, and the error describes what was
// wrong so the caller can log it and continue.
func ParseFilename(path string) (Identity, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	id, err := parseStrict(base)
	if err != nil {
		fallback := stem
		if len(fallback) > 7 {
			fallback = fallback[:7]
		}
		return Identity{Sensor: strings.TrimSpace(fallback)}, err
	}
	return id, nil
}

func parseStrict(base string) (Identity, error) {
	spc := strings.Index(base, " ")
	if spc < 0 {
		return Identity{}, fmt.Errorf("no space after sensor name in %q", base)
	}
	tag := strings.ToUpper(strings.TrimSpace(base[:spc]))

	open := strings.Index(base, "(")
	closed := strings.Index(base, ")")
	if open < 0 || closed < 0 {
		return Identity{}, fmt.Errorf("no coordinate parentheses in %q", base)
	}
	if closed <= open {
		return Identity{}, fmt.Errorf("malformed coordinate parentheses in %q", base)
	}

	coords := strings.TrimSpace(base[open+1 : closed])
	parts := strings.Fields(coords)
	if len(parts) != 2 {
		return Identity{}, fmt.Errorf("expected \"lat lon\" inside parentheses, got %q", coords)
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Identity{}, fmt.Errorf("parse latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Identity{}, fmt.Errorf("parse longitude %q: %w", parts[1], err)
	}

	return Identity{Sensor: tag, Lat: &lat, Lon: &lon}, nil
}

// Load reads one channel/kind export file. Filename-parse failures degrade
// to a truncated tag per ParseFilename; schema mismatches and unreadable
// files are returned as errors. Files that parse to zero data rows yield an
// empty slice and no error.
func Load(path string, kind domain.Kind, logger *slog.Logger) ([]domain.Row, error) {
	id, err := ParseFilename(path)
	if err != nil {
		logger.Warn("filename does not follow the \"<name> (<lat> <lon>) <kind> <dates>.csv\" convention, using truncated tag with empty coordinates",
			slog.String("file", filepath.Base(path)),
			slog.String("sensor", id.Sensor),
			slog.String("error", err.Error()))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	mapping, strategy, err := schema.Reconcile(kind, records[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logger.Debug("schema reconciled",
		slog.String("file", filepath.Base(path)),
		slog.String("kind", kind.String()),
		slog.String("strategy", strategy.String()))

	// Index canonical columns by their position in this file.
	colIndex := make(map[string]int, len(mapping))
	for i, header := range records[0] {
		header = strings.TrimSpace(header)
		if canonical, ok := mapping[header]; ok {
			colIndex[canonical] = i
		}
	}
	tsIdx, ok := colIndex[domain.ColTimestamp]
	if !ok {
		return nil, fmt.Errorf("%s: no timestamp column after reconciliation", filepath.Base(path))
	}

	rows := make([]domain.Row, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		if tsIdx >= len(record) {
			continue
		}
		ts, err := parseTimestamp(record[tsIdx])
		if err != nil {
			logger.Warn("skipping row with unparseable timestamp",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", lineNo+2),
				slog.String("error", err.Error()))
			continue
		}

		values := make(map[string]float64, len(colIndex))
		for canonical, idx := range colIndex {
			if canonical == domain.ColTimestamp || canonical == domain.ColEntryID {
				continue
			}
			if idx >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[idx])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			values[canonical] = v
		}

		rows = append(rows, domain.Row{
			Sensor: id.Sensor,
			Time:   ts,
			Lat:    id.Lat,
			Lon:    id.Lon,
			Values: values,
		})
	}

	return rows, nil
}

// parseTimestamp parses an export timestamp, tolerating the trailing
// literal " UTC" suffix some firmware versions append.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "UTC"))
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// LoadKind loads and concatenates every file of one kind. Zero-row files
// are skipped; unreadable files and schema mismatches abort the batch.
func LoadKind(paths []string, kind domain.Kind, logger *slog.Logger) ([]domain.Row, error) {
	var rows []domain.Row
	for _, path := range paths {
		fileRows, err := Load(path, kind, logger)
		if err != nil {
			return nil, err
		}
		if len(fileRows) == 0 {
			logger.Debug("skipping empty export file", slog.String("file", filepath.Base(path)))
			continue
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}
