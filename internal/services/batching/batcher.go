package batching

import (
	"fmt"
	"sort"
)

// Record is one validated import row before persistence. Fields carries the
// full normalized row (lowercase headers) for the payload column.
type Record struct {
	Fornecedor string
	Pag        string
	ExternalID string
	Fields     map[string]string
}

// Batch is a chunk of records sharing one (fornecedor, pag) key. IDs are
// sequential over the whole run, never reset per group.
type Batch struct {
	ID         int
	Fornecedor string
	Pag        string
	Records    []Record
}

// MissingFieldError reports an import row without a grouping field. Rows
// are never coerced into a default group.
type MissingFieldError struct {
	Field string
	Row   int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %d: missing required field %q", e.Row, e.Field)
}

// Chunk partitions records into batches: two-level grouping by fornecedor
// then pag, each group sliced into consecutive chunks of at most chunkSize,
// ids assigned sequentially starting at nextID. An empty input yields no
// batches and no error.
func Chunk(records []Record, chunkSize, nextID int) ([]Batch, error) {
	if chunkSize < 1 {
		chunkSize = 1
	}

	// 1. Reject rows missing a grouping key
	for i, r := range records {
		if r.Fornecedor == "" {
			return nil, &MissingFieldError{Field: "fornecedor", Row: i}
		}
		if r.Pag == "" {
			return nil, &MissingFieldError{Field: "pag", Row: i}
		}
	}

	// 2. Sort by (fornecedor, pag), keeping original order inside a group
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Fornecedor != sorted[j].Fornecedor {
			return sorted[i].Fornecedor < sorted[j].Fornecedor
		}
		return sorted[i].Pag < sorted[j].Pag
	})

	// 3. Walk the sorted rows, cutting a new batch on key change or when
	// the current chunk is full
	var batches []Batch
	for _, r := range sorted {
		n := len(batches)
		if n == 0 ||
			batches[n-1].Fornecedor != r.Fornecedor ||
			batches[n-1].Pag != r.Pag ||
			len(batches[n-1].Records) == chunkSize {
			batches = append(batches, Batch{
				ID:         nextID,
				Fornecedor: r.Fornecedor,
				Pag:        r.Pag,
			})
			nextID++
			n++
		}
		batches[n-1].Records = append(batches[n-1].Records, r)
	}

	return batches, nil
}
