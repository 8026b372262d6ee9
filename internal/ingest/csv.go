// Package ingest normalizes broker CSV exports into RawExecution batches.
// It owns all file-format concerns so the matcher never sees a CSV dialect:
// downstream code receives validated, already-normalized executions plus a
// report of the rows that had to be skipped.
package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeledger/internal/errors"
	"tradeledger/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// csvRow mirrors one line of a normalized broker export. Every field is a
// string so one malformed value skips that row alone; typed fields would make
// gocsv abort the whole file on the first bad cell.
type csvRow struct {
	Symbol     string `csv:"symbol"`
	Side       string `csv:"side"`
	Quantity   string `csv:"quantity"`
	Price      string `csv:"price"`
	Commission string `csv:"commission"`
	Date       string `csv:"date"`
	Time       string `csv:"time"`
	ExternalID string `csv:"external_id"`
}

// SkippedRow records one rejected CSV line and why it was rejected.
type SkippedRow struct {
	Line   int
	Reason string
}

// Batch is the outcome of parsing one CSV file.
type Batch struct {
	ID         string
	Executions []models.RawExecution
	Skipped    []SkippedRow
}

// ReadCSV parses a normalized broker export for one account. Malformed rows
// are skipped and reported, never fatal; only an unreadable file errors.
func ReadCSV(r io.Reader, account string) (*Batch, error) {
	if account == "" {
		return nil, errors.ErrAccountRequired
	}

	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	batch := &Batch{ID: uuid.NewString()}
	for i, row := range rows {
		exec, err := normalize(row, account)
		if err != nil {
			// Header is line 1, first data row line 2.
			batch.Skipped = append(batch.Skipped, SkippedRow{Line: i + 2, Reason: err.Error()})
			continue
		}
		batch.Executions = append(batch.Executions, exec)
	}
	return batch, nil
}

func normalize(row *csvRow, account string) (models.RawExecution, error) {
	var exec models.RawExecution

	side := models.Side(strings.ToUpper(strings.TrimSpace(row.Side)))
	if !side.Valid() {
		return exec, errors.NewValidationError("side", row.Side, "must be BUY or SELL")
	}

	symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
	if symbol == "" {
		return exec, errors.NewValidationError("symbol", row.Symbol, "must not be empty")
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(row.Quantity), 10, 64)
	if err != nil || quantity <= 0 {
		return exec, errors.NewValidationError("quantity", row.Quantity, "must be a positive integer")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return exec, errors.NewValidationError("price", row.Price, "must be a positive decimal")
	}

	commission := decimal.Zero
	if c := strings.TrimSpace(row.Commission); c != "" {
		commission, err = decimal.NewFromString(c)
		if err != nil || commission.IsNegative() {
			return exec, errors.NewValidationError("commission", row.Commission, "must be a non-negative decimal")
		}
	}

	executedAt, err := parseTimestamp(row.Date, row.Time)
	if err != nil {
		return exec, err
	}

	externalID := strings.TrimSpace(row.ExternalID)
	if externalID == "" {
		// Rows without a broker id cannot be deduplicated across imports;
		// a generated id at least keeps ordering deterministic within a run.
		externalID = uuid.NewString()
	}

	exec = models.RawExecution{
		Account:    account,
		ExternalID: externalID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
		ExecutedAt: executedAt,
	}
	return exec, nil
}

// parseTimestamp folds the separate date and time-of-day columns into one
// timestamp. A missing time-of-day defaults to midnight.
func parseTimestamp(dateStr, timeStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	day, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, errors.NewValidationError("date", dateStr, "must be YYYY-MM-DD")
	}

	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return day, nil
	}
	tod, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}, errors.NewValidationError("time", timeStr, "must be HH:MM:SS")
	}
	return day.Add(time.Duration(tod.Hour())*time.Hour +
		time.Duration(tod.Minute())*time.Minute +
		time.Duration(tod.Second())*time.Second), nil
}
