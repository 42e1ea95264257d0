package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/poiesic/profilematch/core"
)

func result(name string, final float64) *core.ScoreResult {
	return &core.ScoreResult{
		Profile: &core.Profile{ProfileID: name, Name: name, Summary: name + " works on graphs", Keywords: []string{"graphs", "ml"}},
		Scores:  core.ScoreBreakdown{FinalScore: final, Semantic: final},
		Rationale: core.Rationale{
			EmbeddingModel: "test-model",
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	summary := "Bea is a strong match."
	results := []*core.ScoreResult{result("Ada", 0.4), result("Bea", 0.9), result("Cy", 0.4)}
	results[1].SummaryText = &summary

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "graph learning", results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, RankingsSheet}, f.GetSheetList())

	query, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "graph learning", query)
	top, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Bea", top)

	rows, err := f.GetRows(RankingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Rank", rows[0][0])
	assert.Equal(t, "Bea", rows[1][1])
	assert.Equal(t, summary, rows[1][11])
	// ties keep input order
	assert.Equal(t, "Ada", rows[2][1])
	assert.Equal(t, "Cy", rows[3][1])
	assert.Equal(t, "graphs, ml", rows[2][10])

	// input slice is not reordered
	assert.Equal(t, "Ada", results[0].Profile.Name)
}

func TestWriteXLSX_NoResults(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteXLSX(&buf, "q", nil), ErrNoResults)
	assert.Zero(t, buf.Len())
}
