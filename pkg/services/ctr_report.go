package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// CTRReportService parses marketplace performance exports into the rows
// IngestCTR consumes. Reports are xlsx workbooks as downloaded from seller
// consoles: a header row naming the columns, one line per template.
type CTRReportService interface {
	ParseFile(path string) ([]CTRRow, error)
}

type ctrReportService struct {
	logger *zap.Logger
}

// NewCTRReportService creates a new CTRReportService.
func NewCTRReportService(logger *zap.Logger) CTRReportService {
	return &ctrReportService{logger: logger}
}

var _ CTRReportService = (*ctrReportService)(nil)

// Header aliases seen across seller console exports.
var (
	templateHeaders   = []string{"template_id", "template", "テンプレート"}
	impressionHeaders = []string{"impressions", "impression", "表示回数", "インプレッション"}
	clickHeaders      = []string{"clicks", "click", "クリック数", "クリック"}
)

func (s *ctrReportService) ParseFile(path string) ([]CTRRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read report sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("report %s has no data rows", path)
	}

	tmplCol := findColumn(rows[0], templateHeaders)
	imprCol := findColumn(rows[0], impressionHeaders)
	clickCol := findColumn(rows[0], clickHeaders)
	if tmplCol < 0 || imprCol < 0 || clickCol < 0 {
		return nil, fmt.Errorf("report %s is missing template/impressions/clicks columns", path)
	}

	var out []CTRRow
	for i, row := range rows[1:] {
		templateID := cell(row, tmplCol)
		if templateID == "" {
			continue
		}
		impressions, errI := parseCount(cell(row, imprCol))
		clicks, errC := parseCount(cell(row, clickCol))
		if errI != nil || errC != nil {
			s.logger.Warn("Skipping unparseable report row",
				zap.String("path", path), zap.Int("row", i+2))
			continue
		}
		if clicks > impressions {
			s.logger.Warn("Report row has more clicks than impressions",
				zap.String("template", templateID), zap.Int("row", i+2))
		}
		out = append(out, CTRRow{TemplateID: templateID, Impressions: impressions, Clicks: clicks})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("report %s yielded no usable rows", path)
	}
	return out, nil
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseCount tolerates the thousands separators spreadsheets love.
func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("bad count %q", s)
	}
	return v, nil
}
