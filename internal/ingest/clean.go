// Package ingest decodes raw CSV uploads into cleaned transaction
// records. Cleaning is a pure function of the input bytes: the same
// input always produces the same records and report.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Expected CSV columns. Transaction_ID and Auth_code are accepted but
// never projected; Success and Transaction_Notes are optional.
const (
	colAmount  = "Total"
	colMethod  = "Transaction_Type"
	colStatus  = "Type"
	colSource  = "Source"
	colCountry = "Country"
	colDate    = "Day"
	colNotes   = "Transaction_Notes"
	colSuccess = "Success"
)

// missingNotes is the sentinel substituted for an absent note.
const missingNotes = "N/A"

// dateLayouts are tried in order when parsing the Day column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// Result is the outcome of cleaning one raw input.
type Result struct {
	Records []domain.Transaction
	Report  domain.CleanReport
}

// Clean decodes and cleans a raw CSV byte stream.
//
// Rows are retained only when their Success indicator equals 1 (a missing
// column means no success filtering) and their date parses. Rows with an
// unparseable date or amount are dropped and counted in the report rather
// than failing the whole upload. A stream that cannot be decoded as CSV
// at all returns *domain.ErrParse with no partial result.
func Clean(raw []byte) (*Result, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &domain.ErrParse{Reason: "empty input"}
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &domain.ErrParse{Reason: "reading header", Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		cols[name] = i
	}
	for _, required := range []string{colAmount, colMethod, colStatus, colSource, colCountry, colDate} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.ErrParse{Reason: "missing column " + required}
		}
	}
	_, hasSuccess := cols[colSuccess]
	_, hasNotes := cols[colNotes]

	res := &Result{Records: []domain.Transaction{}}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row means the stream is not valid delimited
			// data; halt with no partial output.
			return nil, &domain.ErrParse{Reason: "reading row", Err: err}
		}
		res.Report.RowsRead++

		if hasSuccess && !isSuccess(field(row, cols[colSuccess])) {
			res.Report.RowsDroppedUnsuccessful++
			continue
		}

		date, ok := parseDate(field(row, cols[colDate]))
		if !ok {
			res.Report.RowsDroppedBadDate++
			continue
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(field(row, cols[colAmount])))
		if err != nil {
			res.Report.RowsDroppedBadAmount++
			continue
		}

		notes := missingNotes
		if hasNotes {
			if v := strings.TrimSpace(field(row, cols[colNotes])); v != "" {
				notes = v
			}
		}

		res.Records = append(res.Records, domain.Transaction{
			Amount:    amount,
			Method:    strings.TrimSpace(field(row, cols[colMethod])),
			Status:    strings.TrimSpace(field(row, cols[colStatus])),
			Source:    strings.TrimSpace(field(row, cols[colSource])),
			Country:   strings.TrimSpace(field(row, cols[colCountry])),
			Date:      date,
			Notes:     notes,
			PeriodKey: date.Format(domain.PeriodLayout),
		})
	}

	res.Report.RowsKept = len(res.Records)
	return res, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// isSuccess mirrors the upstream convention: the indicator must equal 1;
// anything else (including blank) is a failed transaction.
func isSuccess(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 1
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
