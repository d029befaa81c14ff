// Package importer turns Fidelity position exports into ledger snapshots.
// It owns schema-level concerns (column names, currency formats, footer
// junk); semantic validation lives in the ledger.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"tradeguard/internal/types"

	"github.com/shopspring/decimal"
)

// Export is the parsed content of one broker CSV: the holding rows plus
// cash adjustments (pending activity) that never become holdings.
type Export struct {
	Rows        []types.HoldingRow
	PendingCash decimal.Decimal
}

// Fidelity account numbers look like X48681083; footer disclaimer lines do
// not, which is how they get filtered.
var accountNumberPattern = regexp.MustCompile(`^[A-Z]\d+`)

var requiredColumns = []string{"Symbol", "Quantity", "Current Value"}

// ParseFidelityCSV reads a Fidelity positions export. It tolerates the
// quirks of real exports (UTF-8 BOM, ragged footer rows, "--" for missing
// values, $1,234.56 currency formatting) but a row that should be a
// holding and cannot be parsed fails the whole call: a partially imported
// export is worse than none.
func ParseFidelityCSV(r io.Reader) (*Export, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: reading header failed: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[name] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("importer: export is missing required column %q", required)
		}
	}

	export := &Export{PendingCash: decimal.Zero}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged footer lines are expected at the end of Fidelity exports.
			continue
		}
		line++
		if acctIdx, ok := cols["Account Number"]; ok {
			if acctIdx >= len(record) || !accountNumberPattern.MatchString(strings.TrimSpace(record[acctIdx])) {
				continue
			}
		}
		symbol := strings.ToUpper(strings.TrimSpace(field(record, cols, "Symbol")))
		if symbol == "" {
			continue
		}

		// Unsettled buys show up as a negative "Pending activity" debit;
		// it adjusts cash rather than becoming a holding.
		if strings.Contains(symbol, "PENDING ACTIVITY") {
			pending, err := parseCurrency(field(record, cols, "Current Value"))
			if err != nil {
				return nil, fmt.Errorf("importer: line %d: pending activity value: %w", line, err)
			}
			export.PendingCash = export.PendingCash.Add(pending)
			continue
		}

		// Numeric identifiers (CUSIPs, restricted lots) are not tradeable
		// tickers.
		if isAllDigits(symbol) {
			continue
		}

		quantity, err := parseNumber(field(record, cols, "Quantity"))
		if err != nil {
			return nil, fmt.Errorf("importer: line %d (%s): quantity: %w", line, symbol, err)
		}
		value, err := parseCurrency(field(record, cols, "Current Value"))
		if err != nil {
			return nil, fmt.Errorf("importer: line %d (%s): current value: %w", line, symbol, err)
		}
		costBasis, err := parseCurrency(costBasisField(record, cols))
		if err != nil {
			return nil, fmt.Errorf("importer: line %d (%s): cost basis: %w", line, symbol, err)
		}

		export.Rows = append(export.Rows, types.HoldingRow{
			Symbol:      symbol,
			Quantity:    quantity,
			CostBasis:   costBasis,
			MarketValue: value,
		})
	}
	return export, nil
}

// ParseFidelityFile opens and parses an export on disk.
func ParseFidelityFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: opening %s failed: %w", path, err)
	}
	defer f.Close()
	return ParseFidelityCSV(f)
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// costBasisField handles both header variants Fidelity has shipped.
func costBasisField(record []string, cols map[string]int) string {
	if v := field(record, cols, "Cost Basis Per Share"); strings.TrimSpace(v) != "" {
		return v
	}
	return field(record, cols, "Average Cost Basis")
}

// parseCurrency parses "$1,234.56", "-$12.00", "+$5", "--" (missing) and
// plain numbers.
func parseCurrency(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" || cleaned == "--" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a currency amount: %q", raw)
	}
	return d, nil
}

func parseNumber(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "--" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
