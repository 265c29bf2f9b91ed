// Package schema reconciles the column headers found in a sensor export file
// with the canonical column set for that file's kind. Firmware revisions
// reorder and occasionally rename columns; reconciliation first consults a
// declared alias table per kind and only falls back to positional
// sort-then-zip pairing when the declared lookup cannot account for every
// header.
package schema

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"pasc/pkg/contracts/domain"
)

// Strategy records how a mapping was produced, so callers can log it and a
// silent positional guess never goes unnoticed.
type Strategy int

const (
	StrategyDeclared Strategy = iota
	StrategyPositional
)

func (s Strategy) String() string {
	if s == StrategyPositional {
		return "positional"
	}
	return "declared"
}

// MismatchError is returned when a file's headers cannot be reconciled to
// any known canonical set. It carries the symmetric difference so the
// diagnostic names exactly what was unexpected and what was missing.
type MismatchError struct {
	Kind       domain.Kind
	Expected   []string
	Actual     []string
	Missing    []string // canonical columns with no counterpart in the file
	Unexpected []string // file columns with no canonical counterpart
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: missing %v, unexpected %v",
		e.Kind, e.Missing, e.Unexpected)
}

// canonical column sets per kind, in export order.
var canonicalColumns = map[domain.Kind][]string{
	domain.PrimaryA: {
		domain.ColTimestamp, domain.ColEntryID,
		domain.ColPM1ATM, domain.ColPM25ATM, domain.ColPM10ATM,
		domain.ColUptime, domain.ColRSSI,
		domain.ColTemp, domain.ColHumidity, domain.ColPM25CF1,
	},
	domain.PrimaryB: {
		domain.ColTimestamp, domain.ColEntryID,
		domain.ColPM1ATM, domain.ColPM25ATM, domain.ColPM10ATM,
		domain.ColFreeMem, domain.ColADC,
		domain.ColPressure, domain.ColPM25CF1,
	},
	domain.SecondaryA: {
		domain.ColTimestamp, domain.ColEntryID,
		domain.ColCount03, domain.ColCount05, domain.ColCount10,
		domain.ColCount25, domain.ColCount50, domain.ColCount100,
		domain.ColPM1CF1, domain.ColPM10CF1,
	},
	domain.SecondaryB: {
		domain.ColTimestamp, domain.ColEntryID,
		domain.ColCount03, domain.ColCount05, domain.ColCount10,
		domain.ColCount25, domain.ColCount50, domain.ColCount100,
		domain.ColPM1CF1, domain.ColPM10CF1,
	},
}

// aliases maps historical header names to their canonical replacement, per
// kind. Old A-channel firmware reported the radio field as ADC before the
// RSSI_dbm rename; older exports also spelled concentration columns with the
// CF=1/CF=ATM convention.
var aliases = map[domain.Kind]map[string]string{
	domain.PrimaryA: {
		domain.ColADC:          domain.ColRSSI,
		"PM1.0_CF=ATM_ug/m3":   domain.ColPM1ATM,
		"PM2.5_CF=ATM_ug/m3":   domain.ColPM25ATM,
		"PM10.0_CF=ATM_ug/m3":  domain.ColPM10ATM,
		"PM2.5_CF=1_ug/m3":     domain.ColPM25CF1,
	},
	domain.PrimaryB: {
		"PM1.0_CF=ATM_ug/m3":  domain.ColPM1ATM,
		"PM2.5_CF=ATM_ug/m3":  domain.ColPM25ATM,
		"PM10.0_CF=ATM_ug/m3": domain.ColPM10ATM,
		"PM2.5_CF=1_ug/m3":    domain.ColPM25CF1,
		"Mem":                 domain.ColFreeMem,
	},
	domain.SecondaryA: {
		">=0.3um/dl":         domain.ColCount03,
		">=0.5um/dl":         domain.ColCount05,
		">=1.0um/dl":         domain.ColCount10,
		">=2.5um/dl":         domain.ColCount25,
		">=5.0um/dl":         domain.ColCount50,
		">=10.0um/dl":        domain.ColCount100,
		"PM1.0_CF=1_ug/m3":   domain.ColPM1CF1,
		"PM10.0_CF=1_ug/m3":  domain.ColPM10CF1,
	},
	domain.SecondaryB: {
		">=0.3um/dl":         domain.ColCount03,
		">=0.5um/dl":         domain.ColCount05,
		">=1.0um/dl":         domain.ColCount10,
		">=2.5um/dl":         domain.ColCount25,
		">=5.0um/dl":         domain.ColCount50,
		">=10.0um/dl":        domain.ColCount100,
		"PM1.0_CF=1_ug/m3":   domain.ColPM1CF1,
		"PM10.0_CF=1_ug/m3":  domain.ColPM10CF1,
	},
}

// CanonicalColumns returns the canonical header set for a kind, in export
// order.
func CanonicalColumns(kind domain.Kind) []string {
	cols := canonicalColumns[kind]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// Reconcile produces a rename mapping from the file's actual headers to the
// canonical set for the kind. Blank and "Unnamed" trailing headers are
// ignored; entry_id is optional since the oldest exports predate it.
//
// The declared table is authoritative. The positional sort-then-zip pairing
// is a heuristic retained for unknown firmware variants: both header lists
// are sorted lexicographically and paired position for position, which
// recovers reorders but misassigns if a column was added or removed. The
// returned Strategy tells the caller which path produced the mapping.
func Reconcile(kind domain.Kind, actual []string) (map[string]string, Strategy, error) {
	cleaned := cleanHeaders(actual)
	canon := canonicalColumns[kind]

	if mapping, ok := declaredMapping(kind, cleaned, canon); ok {
		return mapping, StrategyDeclared, nil
	}

	if mapping, ok := positionalMapping(kind, cleaned, canon); ok {
		slog.Warn("schema reconciled positionally, column identity is unverified",
			slog.String("kind", kind.String()))
		return mapping, StrategyPositional, nil
	}

	return nil, StrategyDeclared, mismatch(kind, cleaned, canon)
}

// declaredMapping resolves every actual header through exact canonical names
// or the per-kind alias table. It succeeds only when every header resolves
// and no canonical column (entry_id excepted) is left unmatched.
func declaredMapping(kind domain.Kind, actual, canon []string) (map[string]string, bool) {
	known := make(map[string]bool, len(canon))
	for _, c := range canon {
		known[c] = true
	}

	mapping := make(map[string]string, len(actual))
	matched := make(map[string]bool, len(actual))
	for _, h := range actual {
		target := h
		if alias, ok := aliases[kind][h]; ok {
			target = alias
		}
		if !known[target] || matched[target] {
			return nil, false
		}
		mapping[h] = target
		matched[target] = true
	}

	for _, c := range canon {
		if !matched[c] && c != domain.ColEntryID {
			return nil, false
		}
	}
	return mapping, true
}

// positionalMapping sorts both header lists and zips them. It only applies
// when the lists have equal length, optionally after dropping entry_id from
// the canonical side for pre-entry_id exports.
func positionalMapping(kind domain.Kind, actual, canon []string) (map[string]string, bool) {
	expected := canon
	if len(actual) == len(canon)-1 {
		expected = without(canon, domain.ColEntryID)
	}
	if len(actual) != len(expected) {
		return nil, false
	}

	sortedActual := make([]string, len(actual))
	copy(sortedActual, actual)
	sort.Strings(sortedActual)

	sortedCanon := make([]string, len(expected))
	copy(sortedCanon, expected)
	sort.Strings(sortedCanon)

	mapping := make(map[string]string, len(actual))
	for i, h := range sortedActual {
		mapping[h] = sortedCanon[i]
	}
	return mapping, true
}

func mismatch(kind domain.Kind, actual, canon []string) *MismatchError {
	actualSet := make(map[string]bool, len(actual))
	for _, h := range actual {
		actualSet[h] = true
	}
	canonSet := make(map[string]bool, len(canon))
	for _, c := range canon {
		canonSet[c] = true
	}

	var missing, unexpected []string
	for _, c := range canon {
		if !actualSet[c] && !hasAliasFor(kind, c, actual) {
			missing = append(missing, c)
		}
	}
	for _, h := range actual {
		target := h
		if alias, ok := aliases[kind][h]; ok {
			target = alias
		}
		if !canonSet[target] {
			unexpected = append(unexpected, h)
		}
	}
	sort.Strings(missing)
	sort.Strings(unexpected)

	return &MismatchError{
		Kind:       kind,
		Expected:   CanonicalColumns(kind),
		Actual:     actual,
		Missing:    missing,
		Unexpected: unexpected,
	}
}

func hasAliasFor(kind domain.Kind, canonical string, actual []string) bool {
	for _, h := range actual {
		if aliases[kind][h] == canonical {
			return true
		}
	}
	return false
}

// cleanHeaders drops blank headers and pandas-style "Unnamed" padding
// columns that some export tools append.
func cleanHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasPrefix(h, "Unnamed") {
			continue
		}
		out = append(out, h)
	}
	return out
}

func without(cols []string, drop string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}
