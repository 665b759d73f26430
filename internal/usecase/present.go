package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// PresentUseCase renders recommendations as text blocks for display.
type PresentUseCase struct {
	records map[int]domain.Record
	llm     port.LLM
	polish  bool
	logger  *zap.Logger
}

// NewPresentUseCase creates a presenter. llm may be nil when polish is false.
func NewPresentUseCase(records map[int]domain.Record, llm port.LLM, polish bool, logger *zap.Logger) *PresentUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresentUseCase{
		records: records,
		llm:     llm,
		polish:  polish && llm != nil,
		logger:  logger,
	}
}

// Present renders one block per recommendation. Database recommendations
// whose record is missing are skipped with a warning.
func (u *PresentUseCase) Present(ctx context.Context, recs []domain.Recommendation) []string {
	blocks := make([]string, 0, len(recs))
	for i, r := range recs {
		rank := i + 1
		if r.IsWeb() {
			blocks = append(blocks, renderWeb(rank, r))
			continue
		}

		rec, ok := u.records[r.Index]
		if !ok {
			u.logger.Warn("no record for recommendation, skipping", zap.Int("index", r.Index))
			continue
		}

		block := renderLab(rank, r.Reason, rec)
		if u.polish {
			polished, err := u.llm.Generate(ctx, fmt.Sprintf(promptPolish, block))
			if err != nil || strings.TrimSpace(polished) == "" {
				u.logger.Warn("polish failed, using raw block", zap.Int("index", r.Index), zap.Error(err))
			} else {
				block = strings.TrimSpace(polished)
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func renderWeb(rank int, r domain.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Recommendation %d (web search)\n\n", rank)
	b.WriteString(strings.TrimSpace(r.Reason))
	b.WriteString("\n")
	b.WriteString(separator)
	return b.String()
}

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func renderLab(rank int, reason string, r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Recommendation %d\n%s\n\n", rank, strings.TrimSpace(reason))
	fmt.Fprintf(&b, "🎓 [Lab] %s\n", r.LabName)
	fmt.Fprintf(&b, "👨‍🏫 [Advisor] %s %s\n", r.ProfessorTitle, r.ProfessorName)
	fmt.Fprintf(&b, "🏛️ [Affiliation] %s / %s\n", r.ResearchInstitute, r.Department)
	fmt.Fprintf(&b, "🎓 [Degree] %s\n\n", r.Degree)

	b.WriteString("🔬 [Research]\n")
	fmt.Fprintf(&b, "• Keywords: %s\n", r.ResearchKeywords)
	fmt.Fprintf(&b, "• Topics: %s\n", r.ResearchTopics)
	fmt.Fprintf(&b, "• Techniques: %s\n\n", r.ResearchTechniques)

	fmt.Fprintf(&b, "💡 [About the lab]\n%s\n\n", r.LabDescription)
	fmt.Fprintf(&b, "🧑‍🔬 [Professor career]\n%s\n\n", r.ProfessorCareer)
	fmt.Fprintf(&b, "📚 [Recent publications]\n%s\n\n", r.RecentPublications)

	b.WriteString("📬 [Contact]\n")
	fmt.Fprintf(&b, "• Website: %s\n", r.LabWebsite)
	fmt.Fprintf(&b, "• Email: %s\n", r.Email)
	fmt.Fprintf(&b, "• Phone: %s / Fax: %s\n", r.Telephone, r.Fax)
	b.WriteString(separator)
	return b.String()
}
