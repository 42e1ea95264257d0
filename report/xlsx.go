// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report renders score results as spreadsheets.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/poiesic/profilematch/core"
)

const (
	SummarySheet  = "Summary"
	RankingsSheet = "Rankings"
)

var ErrNoResults = errors.New("no results to export")

var rankingHeaders = []string{
	"Rank", "Name", "Title", "Department", "Profile URL",
	"Final", "Semantic", "Compatibility", "Feasibility",
	"Keyword Overlap", "Keywords", "Summary",
}

// WriteXLSX writes a workbook with a summary sheet and a rankings sheet
// ordered by final score, highest first. Ties keep input order.
func WriteXLSX(w io.Writer, query string, results []*core.ScoreResult) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b *core.ScoreResult) int {
		return cmp.Compare(b.Scores.FinalScore, a.Scores.FinalScore)
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(RankingsSheet); err != nil {
		return err
	}
	if err := writeSummary(f, query, ranked); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeRankings(f, ranked); err != nil {
		return fmt.Errorf("rankings sheet: %w", err)
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSummary(f *excelize.File, query string, ranked []*core.ScoreResult) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 60); err != nil {
		return err
	}

	var total float64
	for _, r := range ranked {
		total += r.Scores.FinalScore
	}
	rows := [][2]any{
		{"Query:", query},
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Profiles Scored:", len(ranked)},
		{"Top Match:", ranked[0].Profile.Name},
		{"Top Score:", ranked[0].Scores.FinalScore},
		{"Average Score:", total / float64(len(ranked))},
		{"Embedding Model:", ranked[0].Rationale.EmbeddingModel},
	}
	for i, row := range rows {
		label := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(SummarySheet, label, row[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeRankings(f *excelize.File, ranked []*core.ScoreResult) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(RankingsSheet, "A1", &rankingHeaders); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rankingHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(RankingsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range ranked {
		p := r.Profile
		summary := p.Summary
		if r.SummaryText != nil {
			summary = *r.SummaryText
		}
		row := []any{
			i + 1, p.Name, p.Title, p.Department, p.ProfileURL,
			r.Scores.FinalScore, r.Scores.Semantic, r.Scores.Compatibility, r.Scores.Feasibility,
			r.Rationale.Compatibility.KeywordOverlap, strings.Join(p.Keywords, ", "), summary,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RankingsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(RankingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
