package review

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"subprocess-review-backend/internal/models"
	"subprocess-review-backend/internal/services/batching"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportResult summarizes one spreadsheet import for the admin screen.
type ImportResult struct {
	Imported    int      `json:"imported"`
	Duplicates  int      `json:"duplicates"`
	FilteredOut int      `json:"filtered_out"`
	BatchIDs    []int    `json:"batch_ids"`
	RowErrors   []string `json:"row_errors"`
}

// Import parses a spreadsheet (CSV or XLSX), filters rows by the action
// allow/deny lists, drops duplicates of already-stored rows, chunks the
// survivors into batches and persists them. Malformed rows are reported
// in RowErrors and skipped; they never abort the import.
func (s *Service) Import(r io.Reader, filename string) (*ImportResult, error) {
	rows, err := parseTable(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableUpload, err)
	}

	result := &ImportResult{}

	// 1. Action filter, then per-row validation of the grouping fields.
	// Row numbers in errors refer to the original file order.
	var validated []batching.Record
	for i, row := range rows {
		if status, ok := row["status"]; ok && !s.actionAllowed(status) {
			result.FilteredOut++
			continue
		}
		record, err := recordFromRow(row, i)
		if err != nil {
			result.RowErrors = append(result.RowErrors, err.Error())
			continue
		}
		validated = append(validated, record)
	}

	// 2. Duplicate detection against stored rows and within the file.
	// Stored payloads are canonicalized first: Postgres renders jsonb with
	// its own whitespace, so raw bytes never match a fresh json.Marshal.
	existing, err := s.subprocessRepo.ExistingPayloads()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[canonicalPayload(p)] = true
	}

	var fresh []batching.Record
	for _, record := range validated {
		payload, err := json.Marshal(record.Fields)
		if err != nil {
			return nil, err
		}
		if seen[string(payload)] {
			result.Duplicates++
			continue
		}
		seen[string(payload)] = true
		fresh = append(fresh, record)
	}

	if len(fresh) == 0 {
		log.Printf("import %s: nothing new to import (%d duplicates, %d filtered)",
			filename, result.Duplicates, result.FilteredOut)
		return result, nil
	}

	// 3. Chunk into batches, continuing ids from the stored maximum
	maxID, err := s.subprocessRepo.MaxBatchID()
	if err != nil {
		return nil, err
	}
	batches, err := batching.Chunk(fresh, s.cfg.ChunkSize, maxID+1)
	if err != nil {
		return nil, err
	}

	// 4. Persist
	now := time.Now()
	var inserts []models.Subprocess
	for _, b := range batches {
		result.BatchIDs = append(result.BatchIDs, b.ID)
		for pos, record := range b.Records {
			payload, err := json.Marshal(record.Fields)
			if err != nil {
				return nil, err
			}
			inserts = append(inserts, models.Subprocess{
				ID:         uuid.New(),
				BatchID:    b.ID,
				Position:   pos,
				Fornecedor: record.Fornecedor,
				Pag:        record.Pag,
				ExternalID: record.ExternalID,
				Dados:      payload,
				CreatedAt:  now,
			})
		}
	}
	if err := s.subprocessRepo.InsertAll(inserts); err != nil {
		return nil, err
	}

	result.Imported = len(inserts)
	s.invalidateBatches()

	log.Printf("import %s: %d rows in %d batches (%d duplicates, %d filtered, %d row errors)",
		filename, result.Imported, len(batches), result.Duplicates, result.FilteredOut, len(result.RowErrors))
	return result, nil
}

func (s *Service) actionAllowed(status string) bool {
	normalized := normalize(status)
	for _, term := range s.cfg.DeniedTerms {
		if strings.Contains(normalized, normalize(term)) {
			return false
		}
	}
	for _, action := range s.cfg.AllowedActions {
		if normalized == normalize(action) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// canonicalPayload reduces a stored payload to the compact, key-sorted
// form json.Marshal produces for a map, so dedupe comparisons survive
// whatever rendering the backend returns. Unparseable payloads pass
// through raw and simply never match.
func canonicalPayload(raw string) string {
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return raw
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return string(out)
}

func recordFromRow(row map[string]string, index int) (batching.Record, error) {
	fornecedor := strings.TrimSpace(row["fornecedor"])
	if fornecedor == "" {
		return batching.Record{}, &batching.MissingFieldError{Field: "fornecedor", Row: index}
	}
	pag := normalizePag(row["pag"])
	if pag == "" {
		return batching.Record{}, &batching.MissingFieldError{Field: "pag", Row: index}
	}
	externalID := strings.TrimSpace(row["id"])
	if externalID == "" {
		return batching.Record{}, &batching.MissingFieldError{Field: "id", Row: index}
	}

	fields := make(map[string]string, len(row))
	for k, v := range row {
		fields[k] = strings.TrimSpace(v)
	}
	fields["pag"] = pag

	return batching.Record{
		Fornecedor: fornecedor,
		Pag:        pag,
		ExternalID: externalID,
		Fields:     fields,
	}, nil
}

// normalizePag collapses spreadsheet noise like "3.0" to "3"; anything
// non-numeric passes through trimmed.
func normalizePag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return strconv.Itoa(int(f))
	}
	return trimmed
}

// parseValor reads a monetary cell in either Brazilian ("1.234,56") or
// plain ("1234.56") notation. Unparseable cells count as zero.
func parseValor(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseTable reads a tabular upload into rows keyed by their lowercased
// header. XLSX goes through excelize; anything else is treated as
// delimited text with the separator sniffed from the first kilobyte.
func parseTable(r io.Reader, filename string) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return parseXLSX(r)
	}
	return parseCSV(r)
}

func parseCSV(r io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(r)
	sample, _ := br.Peek(1024)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	switch {
	case strings.Contains(string(sample), "\t"):
		reader.Comma = '\t'
	case strings.Contains(string(sample), ";") && !strings.Contains(string(sample), ","):
		reader.Comma = ';'
	default:
		reader.Comma = ','
	}

	headerRow, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read table header: %w", err)
	}
	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = normalize(h)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if strings.Join(record, "") == "" {
			continue
		}
		rows = append(rows, rowToMap(headers, record))
	}
	return rows, nil
}

func parseXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %q: %w", sheets[0], err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = normalize(h)
	}

	var rows []map[string]string
	for _, record := range raw[1:] {
		if strings.Join(record, "") == "" {
			continue
		}
		rows = append(rows, rowToMap(headers, record))
	}
	return rows, nil
}

func rowToMap(headers, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
