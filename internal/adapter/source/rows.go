package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"labrec/internal/domain"
)

// header maps a normalized column name to its position.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) get(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return domain.Unknown
	}
	v := strings.TrimSpace(row[i])
	if v == "" || strings.EqualFold(v, "nan") {
		return domain.Unknown
	}
	return v
}

// toRecord converts one data row. pos is used as the index when the
// dataset has no usable index column.
func (h header) toRecord(row []string, pos int) (domain.Record, error) {
	index := pos
	if raw := h.get(row, "index"); raw != domain.Unknown {
		n, err := parseIndex(raw)
		if err != nil {
			return domain.Record{}, err
		}
		index = n
	}

	return domain.Record{
		Index:              index,
		ResearchInstitute:  h.get(row, "research_institute"),
		Department:         h.get(row, "department"),
		LabName:            h.get(row, "lab_name"),
		ResearchKeywords:   h.get(row, "research_keywords"),
		ResearchTopics:     h.get(row, "research_topics"),
		ResearchTechniques: h.get(row, "research_techniques"),
		LabDescription:     h.get(row, "lab_description"),
		ProfessorName:      h.get(row, "professor_name"),
		Degree:             h.get(row, "degree"),
		ProfessorTitle:     h.get(row, "professor_title"),
		LabWebsite:         h.get(row, "lab_website"),
		ProfessorCareer:    h.getAny(row, "professoer_career", "professor_career"),
		Telephone:          h.get(row, "telephone"),
		Fax:                h.get(row, "fax"),
		Email:              h.get(row, "email"),
		RecentPublications: h.get(row, "recent_publications"),
	}, nil
}

func (h header) getAny(row []string, columns ...string) string {
	for _, c := range columns {
		if v := h.get(row, c); v != domain.Unknown {
			return v
		}
	}
	return domain.Unknown
}

// parseIndex accepts "12" and spreadsheet-style "12.0". Negative values are
// rejected; they would collide with domain.WebIndex.
func parseIndex(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid index %q", raw)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return int(f), nil
}

// rowsToRecords converts a header row plus data rows. Blank rows are skipped.
func rowsToRecords(rows [][]string, offset int) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	h := newHeader(rows[0])

	records := make([]domain.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := h.toRecord(row, offset+len(records))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
