package domain

import "strconv"

// Unknown is the value stored for any record field missing from the source.
const Unknown = "Unknown"

// WebIndex marks a recommendation that came from the web fallback and has no
// backing record.
const WebIndex = -1

// Record is one lab row from the dataset.
type Record struct {
	Index              int    `json:"index"`
	ResearchInstitute  string `json:"research_institute"`
	Department         string `json:"department"`
	LabName            string `json:"lab_name"`
	ResearchKeywords   string `json:"research_keywords"`
	ResearchTopics     string `json:"research_topics"`
	ResearchTechniques string `json:"research_techniques"`
	LabDescription     string `json:"lab_description"`

	ProfessorName      string `json:"professor_name"`
	Degree             string `json:"degree"`
	ProfessorTitle     string `json:"professor_title"`
	LabWebsite         string `json:"lab_website"`
	ProfessorCareer    string `json:"professoer_career"`
	Telephone          string `json:"telephone"`
	Fax                string `json:"fax"`
	Email              string `json:"email"`
	RecentPublications string `json:"recent_publications"`
}

// Document is the flattened, searchable form of a Record.
type Document struct {
	Index int
	Text  string
}

// ID is the string key used by the dense index.
func (d Document) ID() string {
	return strconv.Itoa(d.Index)
}

// Candidate is a ranked retrieval result. Rank is 1-based.
type Candidate struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Recommendation is a candidate that survived the relevance gate, or an entry
// produced by the web fallback (Index == WebIndex).
type Recommendation struct {
	Index   int    `json:"index"`
	LabInfo string `json:"lab_info"`
	Reason  string `json:"recommendation_reason"`
}

// IsWeb reports whether the recommendation has no backing record.
func (r Recommendation) IsWeb() bool {
	return r.Index == WebIndex
}

// WebResult is one raw hit returned by the web-search capability.
type WebResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score,omitempty"`
}

type Posting struct {
	DocIndex int
	TF       int
}

type Stats struct {
	TotalDocs int
	AvgDocLen float64
}

// GateState is the state of the relevance gate for one query.
type GateState int

const (
	StateProcessing GateState = iota
	StateHasResults
	StateNoResults
)

func (s GateState) String() string {
	switch s {
	case StateProcessing:
		return "PROCESSING"
	case StateHasResults:
		return "HAS_RESULTS"
	case StateNoResults:
		return "NO_RESULTS"
	default:
		return "UNKNOWN"
	}
}
