package ledger

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cillers/ledgerd/internal/model"
)

// fixedClock pins the date-fallback behavior for assertions.
var fixedClock = func() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testParser() *Parser {
	return &Parser{Now: fixedClock}
}

const sampleCSV = `Vernr,Bokföringsdatum,Registreringsdatum,Konto,Benämning,Ks,Projnr,Verifikationstext,Transaktionsinfo,Debet,Kredit
A100,2024-03-15,2024-03-16,4010,Material,KS1,P1,ACME AB Faktura,Inköp,"1 234,56",0
A101,2024-03-17,2024-03-18,3010,Försäljning,,,Kundbetalning,,0,"2 500,00"
`

func TestParseRecords(t *testing.T) {
	records, diags := testParser().Parse(sampleCSV)

	require.Len(t, records, 2)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "headers detected")

	r := records[0]
	assert.Equal(t, "A100", r.Vernr)
	assert.Equal(t, 4010, r.AccountNumber)
	assert.Equal(t, model.NewDate(2024, 3, 15), r.PostingDate)
	assert.Equal(t, model.NewDate(2024, 3, 16), r.RegistrationDate)
	assert.Equal(t, "Material", r.AccountName)
	assert.Equal(t, "KS1", r.Ks)
	assert.Equal(t, "P1", r.ProjectNumber)
	assert.Equal(t, "ACME AB Faktura", r.VerificationText)
	assert.Equal(t, "Inköp", r.TransactionInfo)
	assert.InDelta(t, 1234.56, r.Debit, 0.0001)
	assert.InDelta(t, 0, r.Credit, 0.0001)

	assert.InDelta(t, 2500.0, records[1].Credit, 0.0001)
}

func TestParseSkipsRowsWithoutVernr(t *testing.T) {
	csv := "Vernr,Konto,Debet\nA1,4010,100\n,4020,200\nA3,4030,300\n"
	records, diags := testParser().Parse(csv)

	require.Len(t, records, 2)
	for _, r := range records {
		assert.NotEmpty(t, r.Vernr)
	}
	assert.Equal(t, "A1", records[0].Vernr)
	assert.Equal(t, "A3", records[1].Vernr)

	var rowDiags []string
	for _, d := range diags {
		if strings.Contains(d, "vernr column not found") {
			rowDiags = append(rowDiags, d)
		}
	}
	require.Len(t, rowDiags, 1)
	assert.Contains(t, rowDiags[0], "row 2")
}

func TestParseCapsRowDiagnostics(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Vernr,Konto\n")
	for i := 0; i < 10; i++ {
		sb.WriteString(",4010\n")
	}
	records, diags := testParser().Parse(sb.String())

	assert.Empty(t, records)
	var rowDiags int
	for _, d := range diags {
		if strings.Contains(d, "vernr column not found") {
			rowDiags++
		}
	}
	assert.Equal(t, maxRowDiagnostics, rowDiags)
}

func TestParseDateFallback(t *testing.T) {
	today := model.DateOf(fixedClock())

	p := testParser()
	tests := []struct {
		name string
		s    string
		want model.Date
	}{
		{"valid", "2024-03-15", model.NewDate(2024, 3, 15)},
		{"invalid", "not-a-date", today},
		{"empty", "", today},
		{"wrong layout", "15/03/2024", today},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.parseDate(tt.s))
		})
	}
}

func TestParseSemicolonDialect(t *testing.T) {
	csv := "Vernr;Konto;Debet\nB1;4010;\"1 000,00\"\n"
	records, _ := testParser().Parse(csv)

	require.Len(t, records, 1)
	assert.Equal(t, "B1", records[0].Vernr)
	assert.Equal(t, 4010, records[0].AccountNumber)
	assert.InDelta(t, 1000.0, records[0].Debit, 0.0001)
}

func TestParseMangledHeaderAliases(t *testing.T) {
	// Headers that lost their non-ASCII characters in a lossy decode.
	csv := "vernr,Bokfringsdatum,Benmning,Konto\nC1,2024-01-02,Hyra,5010\n"
	records, _ := testParser().Parse(csv)

	require.Len(t, records, 1)
	assert.Equal(t, model.NewDate(2024, 1, 2), records[0].PostingDate)
	assert.Equal(t, "Hyra", records[0].AccountName)
}

func TestParseNoHeaders(t *testing.T) {
	records, diags := testParser().Parse("")

	assert.Empty(t, records)
	require.Len(t, diags, 1)
	assert.Equal(t, "no headers detected", diags[0])
}

func TestParsePreservesInputOrder(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Vernr,Konto\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "V%02d,4010\n", i)
	}
	records, _ := testParser().Parse(sb.String())

	require.Len(t, records, 20)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("V%02d", i), r.Vernr)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\tc\n", '\t'},
		{"pipe", "a|b|c\n", '|'},
		{"no delimiter falls back to comma", "justoneheader\n", ','},
		{"empty", "", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter(tt.content))
		})
	}
}
