package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cillers/ledgerd/internal/model"
)

// maxRowDiagnostics caps how many row-level failures are reported per
// parse; later failures are still skipped but not recorded.
const maxRowDiagnostics = 4

// sniffSampleSize bounds how much content the dialect sniffer inspects.
const sniffSampleSize = 1024

// fieldAliases maps each logical field to its accepted header variants,
// in priority order. Matching is case-insensitive. The non-ASCII
// Swedish headers also appear in encoding-mangled forms when an export
// went through a lossy decode upstream.
var fieldAliases = map[string][]string{
	"vernr":             {"Vernr"},
	"posting_date":      {"Bokföringsdatum", "Bokfringsdatum", "bokforingsdatum"},
	"registration_date": {"Registreringsdatum"},
	"account_number":    {"Konto"},
	"account_name":      {"Benämning", "Benmning", "benamning"},
	"ks":                {"Ks"},
	"project_number":    {"Projnr"},
	"verification_text": {"Verifikationstext"},
	"transaction_info":  {"Transaktionsinfo"},
	"debit":             {"Debet"},
	"credit":            {"Kredit"},
}

// Parser turns decoded CSV content into cost records. Now supplies the
// fallback date for unparseable date fields and is injectable for tests.
type Parser struct {
	Now func() time.Time
}

// New returns a Parser using the system clock.
func New() *Parser {
	return &Parser{Now: time.Now}
}

// Parse converts CSV content into cost records plus an ordered list of
// diagnostic messages. Row-level failures are recorded (capped at the
// first few) and the row skipped; parsing itself never fails.
func (p *Parser) Parse(content string) ([]model.CostRecord, []string) {
	var records []model.CostRecord
	var diags []string

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = sniffDelimiter(content)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil || len(header) == 0 {
		diags = append(diags, "no headers detected")
		return records, diags
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	diags = append(diags, fmt.Sprintf("headers detected: %v", header))

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(col)] = i
	}

	rowNum := 0
	failures := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			if failures < maxRowDiagnostics {
				diags = append(diags, fmt.Sprintf("row %d: %v", rowNum, err))
			}
			failures++
			continue
		}

		vernr := strings.TrimSpace(getField(row, colIdx, "vernr"))
		if vernr == "" {
			if failures < maxRowDiagnostics {
				diags = append(diags, fmt.Sprintf("row %d: vernr column not found, columns: %v", rowNum, header))
			}
			failures++
			continue
		}

		records = append(records, model.CostRecord{
			Vernr:            vernr,
			PostingDate:      p.parseDate(getField(row, colIdx, "posting_date")),
			RegistrationDate: p.parseDate(getField(row, colIdx, "registration_date")),
			AccountNumber:    parseAccountNumber(getField(row, colIdx, "account_number")),
			AccountName:      getField(row, colIdx, "account_name"),
			Ks:               getField(row, colIdx, "ks"),
			ProjectNumber:    getField(row, colIdx, "project_number"),
			VerificationText: getField(row, colIdx, "verification_text"),
			TransactionInfo:  getField(row, colIdx, "transaction_info"),
			Debit:            parseAmount(getField(row, colIdx, "debit")),
			Credit:           parseAmount(getField(row, colIdx, "credit")),
		})
	}

	return records, diags
}

// parseDate parses a YYYY-MM-DD date, falling back to the current date
// for empty or unparseable input.
func (p *Parser) parseDate(s string) model.Date {
	d, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return model.DateOf(p.Now())
	}
	return d
}

// getField returns the first matching alias column for a logical field,
// or empty string when no alias is present in the header.
func getField(row []string, colIdx map[string]int, field string) string {
	for _, alias := range fieldAliases[field] {
		if i, ok := colIdx[strings.ToLower(alias)]; ok && i < len(row) {
			return row[i]
		}
	}
	return ""
}

// sniffDelimiter inspects the first line of a content sample and picks
// the most frequent candidate delimiter, defaulting to comma when none
// stands out.
func sniffDelimiter(content string) rune {
	sample := content
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	if i := strings.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	best := ','
	bestCount := 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}
