package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = "\ufeff" + `Account Number,Account Name,Symbol,Description,Quantity,Last Price,Current Value,Cost Basis Per Share
X48681083,Individual,AAPL,APPLE INC,10.500,$220.00,"$2,310.00",$150.25
X48681083,Individual,SPAXX**,FIDELITY GOVERNMENT MONEY MARKET,941.51,$1.00,$941.51,--
X48681083,Individual,Pending Activity,,,,-$200.00,
X48681083,Individual,315911107,RESTRICTED LOT,5,$10.00,$50.00,$10.00
X48681083,Individual,XOM,EXXON MOBIL CORP,20,$110.50,"$2,210.00",$95.00

"The data and information in this spreadsheet is provided to you solely for your use"
"Brokerage services are provided by Fidelity Brokerage Services LLC"
Date downloaded 08/03/2026 3:01 PM ET
`

func TestParseFidelityCSV(t *testing.T) {
	export, err := ParseFidelityCSV(strings.NewReader(sampleExport))
	require.NoError(t, err)

	require.Len(t, export.Rows, 3, "SPAXX is a row, pending activity and CUSIPs are not")

	aapl := export.Rows[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.True(t, aapl.Quantity.Equal(decimal.NewFromFloat(10.5)), "got %s", aapl.Quantity)
	assert.True(t, aapl.MarketValue.Equal(decimal.NewFromInt(2_310)), "got %s", aapl.MarketValue)
	assert.True(t, aapl.CostBasis.Equal(decimal.NewFromFloat(150.25)), "got %s", aapl.CostBasis)

	spaxx := export.Rows[1]
	assert.Equal(t, "SPAXX**", spaxx.Symbol)
	assert.True(t, spaxx.CostBasis.IsZero(), `"--" cost basis parses as zero`)

	assert.True(t, export.PendingCash.Equal(decimal.NewFromInt(-200)), "got %s", export.PendingCash)
}

func TestParseFidelityCSVFiltersFooter(t *testing.T) {
	export, err := ParseFidelityCSV(strings.NewReader(sampleExport))
	require.NoError(t, err)
	for _, row := range export.Rows {
		assert.NotContains(t, row.Symbol, "BROKERAGE")
		assert.NotContains(t, row.Symbol, "DATE")
	}
}

func TestParseFidelityCSVMissingColumn(t *testing.T) {
	csv := `Account Number,Symbol,Description
X48681083,AAPL,APPLE INC
`
	_, err := ParseFidelityCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quantity")
}

func TestParseFidelityCSVBadNumberFailsWholeFile(t *testing.T) {
	csv := `Account Number,Symbol,Quantity,Current Value
X48681083,AAPL,ten,$100.00
`
	_, err := ParseFidelityCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestParseFidelityCSVCostBasisHeaderVariant(t *testing.T) {
	csv := `Account Number,Symbol,Quantity,Current Value,Average Cost Basis
X48681083,AAPL,10,$1000.00,$95.50
`
	export, err := ParseFidelityCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, export.Rows, 1)
	assert.True(t, export.Rows[0].CostBasis.Equal(decimal.NewFromFloat(95.5)))
}

func TestParseCurrency(t *testing.T) {
	cases := map[string]string{
		"$1,234.56": "1234.56",
		"-$12.00":   "-12",
		"+$5":       "5",
		"--":        "0",
		"":          "0",
		"941.51":    "941.51",
	}
	for raw, want := range cases {
		got, err := parseCurrency(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q: got %s", raw, got)
	}

	_, err := parseCurrency("n/a")
	assert.Error(t, err)
}
