package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"workbook-generator/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// RosterReader loads the roster table from a CSV export or an XLSX
// workbook.
type RosterReader struct {
	nameColumn string
	log        *zap.Logger
}

func NewRosterReader(nameColumn string, log *zap.Logger) *RosterReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &RosterReader{nameColumn: nameColumn, log: log}
}

// Read picks the format from the file extension; anything that is not a
// spreadsheet is read as CSV.
func (r *RosterReader) Read(path string) (*domain.Roster, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return r.readXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRosterUnreadable, err)
		}
		defer f.Close()
		return r.ParseCSV(f)
	}
}

// ParseCSV reads a roster from CSV text with a header row.
func (r *RosterReader) ParseCSV(in io.Reader) (*domain.Roster, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRosterUnreadable, err)
	}
	return r.fromRows(rows)
}

func (r *RosterReader) readXLSX(path string) (*domain.Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx %s: %v", domain.ErrRosterUnreadable, path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", domain.ErrRosterUnreadable, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrRosterUnreadable, sheets[0], err)
	}
	return r.fromRows(rows)
}

// fromRows builds the roster from a header row and answer rows. Names are
// trimmed, blank names skipped and a repeated name keeps its first row.
func (r *RosterReader) fromRows(rows [][]string) (*domain.Roster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", domain.ErrRosterUnreadable)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	nameIdx := -1
	for i, h := range header {
		if h == r.nameColumn {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrRosterColumnMissing, r.nameColumn)
	}

	roster := &domain.Roster{Columns: header}
	seen := map[string]bool{}
	for lineNo, row := range rows[1:] {
		if nameIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		if seen[name] {
			r.log.Warn("duplicate roster name, keeping first row",
				zap.String("name", name), zap.Int("row", lineNo+2))
			continue
		}
		seen[name] = true

		answers := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) && col != "" {
				answers[col] = row[i]
			}
		}
		roster.Participants = append(roster.Participants, domain.ParticipantRecord{
			Name:    name,
			Source:  domain.SourceRoster,
			Answers: answers,
		})
	}
	return roster, nil
}
