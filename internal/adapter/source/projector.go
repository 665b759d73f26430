package source

import (
	"fmt"

	"labrec/internal/domain"
)

// Project flattens records into searchable documents, one per record.
func Project(records []domain.Record) []domain.Document {
	docs := make([]domain.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, domain.Document{Index: r.Index, Text: DocumentText(r)})
	}
	return docs
}

// DocumentText renders the searchable fields of r.
func DocumentText(r domain.Record) string {
	return fmt.Sprintf("Research Institute: %s\n"+
		"Department: %s\n"+
		"Lab Name: %s\n"+
		"Research Keywords: %s\n"+
		"Research Topics: %s\n"+
		"Research Techniques: %s\n"+
		"Lab Description: %s\n",
		orUnknown(r.ResearchInstitute),
		orUnknown(r.Department),
		orUnknown(r.LabName),
		orUnknown(r.ResearchKeywords),
		orUnknown(r.ResearchTopics),
		orUnknown(r.ResearchTechniques),
		orUnknown(r.LabDescription),
	)
}

func orUnknown(s string) string {
	if s == "" {
		return domain.Unknown
	}
	return s
}

// ByIndex indexes records for presentation lookups.
func ByIndex(records []domain.Record) map[int]domain.Record {
	m := make(map[int]domain.Record, len(records))
	for _, r := range records {
		m[r.Index] = r
	}
	return m
}
