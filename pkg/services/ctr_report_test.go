package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeReport(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", addr, &row))
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseFileReadsRows(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"template_id", "impressions", "clicks"},
		{"hero-left", 1200, 48},
		{"text-only", 800, 9},
	})

	rows, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, CTRRow{TemplateID: "hero-left", Impressions: 1200, Clicks: 48}, rows[0])
	assert.Equal(t, CTRRow{TemplateID: "text-only", Impressions: 800, Clicks: 9}, rows[1])
}

func TestParseFileJapaneseHeaders(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"テンプレート", "表示回数", "クリック数"},
		{"hero-left", "1,200", "48"},
	})

	rows, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 1200.0, rows[0].Impressions, "thousands separator stripped")
}

func TestParseFileSkipsBadRows(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"template_id", "impressions", "clicks"},
		{"hero-left", "not-a-number", 48},
		{"", 100, 5},
		{"text-only", 800, 9},
	})

	rows, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "text-only", rows[0].TemplateID)
}

func TestParseFileMissingColumns(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"template_id", "views"},
		{"hero-left", 100},
	})

	_, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestParseFileNoUsableRows(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"template_id", "impressions", "clicks"},
		{"", "", ""},
	})

	_, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}

func TestParseFileHeaderOnly(t *testing.T) {
	path := writeReport(t, [][]interface{}{
		{"template_id", "impressions", "clicks"},
	})

	_, err := NewCTRReportService(zap.NewNop()).ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewCTRReportService(zap.NewNop()).ParseFile("/no/such/report.xlsx")
	require.Error(t, err)
}
