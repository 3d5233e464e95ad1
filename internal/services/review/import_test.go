package review

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"subprocess-review-backend/internal/models"
)

func TestParseCSVSniffsDelimiter(t *testing.T) {
	cases := map[string]string{
		"comma":     "FORNECEDOR,PAG,ID\nX,1,10\n",
		"tab":       "FORNECEDOR\tPAG\tID\nX\t1\t10\n",
		"semicolon": "FORNECEDOR;PAG;ID\nX;1;10\n",
	}
	for name, csv := range cases {
		t.Run(name, func(t *testing.T) {
			rows, err := parseCSV(strings.NewReader(csv))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "X", rows[0]["fornecedor"])
			assert.Equal(t, "1", rows[0]["pag"])
			assert.Equal(t, "10", rows[0]["id"])
		})
	}
}

func TestParseCSVSkipsBlankRows(t *testing.T) {
	csv := "FORNECEDOR,PAG,ID\nX,1,10\n,,\nY,2,20\n"
	rows, err := parseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseCSVShortRowsPadEmpty(t *testing.T) {
	csv := "FORNECEDOR,PAG,ID\nX,1\n"
	rows, err := parseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["id"])
}

func TestImportXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	data := [][]interface{}{
		{"FORNECEDOR", "PAG", "ID", "STATUS", "VALOR"},
		{"X", "1", "10", "ASSINAR OD", "123,45"},
		{"X", "1", "11", "ASSINAR CH", "10"},
		{"X", "1", "12", "ENVIADO ACI", "10"},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	s := newTestService(t, testConfig())
	result, err := s.Import(&buf, "planilha.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.FilteredOut)

	batches, err := s.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.InDelta(t, 133.45, batches[0].TotalValue, 0.001)
}

func TestCanonicalPayload(t *testing.T) {
	// Postgres-style jsonb rendering collapses to the compact form
	assert.Equal(t,
		`{"fornecedor":"X","pag":"1"}`,
		canonicalPayload(`{"fornecedor": "X", "pag": "1"}`))
	// already-compact payloads are unchanged
	assert.Equal(t,
		`{"fornecedor":"X","pag":"1"}`,
		canonicalPayload(`{"fornecedor":"X","pag":"1"}`))
	// garbage passes through and never matches
	assert.Equal(t, "not-json", canonicalPayload("not-json"))
}

func TestImportDedupeSurvivesBackendRendering(t *testing.T) {
	s := newTestService(t, testConfig())

	// A stored row whose payload carries jsonb-style spacing, as the
	// production backend returns it.
	spaced := `{"fornecedor": "X", "id": "10", "pag": "1", "status": "ASSINAR OD", "valor": "10"}`
	require.NoError(t, s.subprocessRepo.InsertAll([]models.Subprocess{{
		ID:         uuid.New(),
		BatchID:    1,
		Position:   0,
		Fornecedor: "X",
		Pag:        "1",
		ExternalID: "10",
		Dados:      []byte(spaced),
	}}))

	csv := "FORNECEDOR,PAG,ID,STATUS,VALOR\nX,1,10,ASSINAR OD,10\n"
	result, err := s.Import(strings.NewReader(csv), "upload.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Duplicates)
}

func TestActionAllowed(t *testing.T) {
	s := &Service{cfg: testConfig()}

	assert.True(t, s.actionAllowed("ASSINAR OD"))
	assert.True(t, s.actionAllowed(" assinar ch "))
	assert.False(t, s.actionAllowed("OUTRA ACAO"))
	assert.False(t, s.actionAllowed("CANCELADO"))
	// deny list wins even over an allow-listed action
	assert.False(t, s.actionAllowed("ASSINAR OD cancelado"))
	assert.False(t, s.actionAllowed("enviado ACI"))
}

func TestNormalizePag(t *testing.T) {
	assert.Equal(t, "3", normalizePag("3"))
	assert.Equal(t, "3", normalizePag("3.0"))
	assert.Equal(t, "3", normalizePag(" 3 "))
	assert.Equal(t, "3/2024", normalizePag("3/2024"))
	assert.Equal(t, "", normalizePag("   "))
}

func TestParseValor(t *testing.T) {
	assert.InDelta(t, 1234.56, parseValor("1.234,56"), 0.001)
	assert.InDelta(t, 1234.56, parseValor("1234.56"), 0.001)
	assert.InDelta(t, 1234.56, parseValor("R$ 1.234,56"), 0.001)
	assert.InDelta(t, 10.0, parseValor("10"), 0.001)
	assert.Zero(t, parseValor(""))
	assert.Zero(t, parseValor("n/a"))
}
