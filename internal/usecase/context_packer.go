package usecase

import (
	"fmt"
	"sort"
	"strings"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// ContextPacker packs web results into a context block that fits a token
// budget.
type ContextPacker struct {
	tokenizer port.Tokenizer
}

func NewContextPacker(tokenizer port.Tokenizer) *ContextPacker {
	return &ContextPacker{tokenizer: tokenizer}
}

// PackedContext is the rendered context block.
type PackedContext struct {
	Text         string
	Sources      []domain.WebResult
	BudgetTokens int
	UsedTokens   int
}

// Pack selects results greedily by score per token until the budget is
// spent, then renders them in their original order. A budget <= 0 keeps
// every result. The best result is always kept.
func (p *ContextPacker) Pack(results []domain.WebResult, budget int) PackedContext {
	type ranked struct {
		pos     int
		tokens  int
		utility float64
	}

	items := make([]ranked, len(results))
	for i, r := range results {
		tokens := p.tokenizer.CountTokens(r.Title + " " + r.Content)
		if tokens == 0 {
			tokens = 1
		}
		// Unscored results rank by brevity.
		score := r.Score
		if score <= 0 {
			score = 1
		}
		items[i] = ranked{pos: i, tokens: tokens, utility: score / float64(tokens)}
	}

	selected := make([]ranked, 0, len(items))
	used := 0
	if budget <= 0 {
		selected = append(selected, items...)
		for _, it := range items {
			used += it.tokens
		}
	} else {
		byUtility := append([]ranked(nil), items...)
		sort.SliceStable(byUtility, func(i, j int) bool {
			return byUtility[i].utility > byUtility[j].utility
		})
		for _, it := range byUtility {
			if used+it.tokens > budget && len(selected) > 0 {
				continue
			}
			selected = append(selected, it)
			used += it.tokens
		}
		sort.Slice(selected, func(i, j int) bool {
			return selected[i].pos < selected[j].pos
		})
	}

	var b strings.Builder
	b.WriteString("Web search results:\n\n")
	sources := make([]domain.WebResult, 0, len(selected))
	for i, it := range selected {
		r := results[it.pos]
		fmt.Fprintf(&b, "[Source %d] %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", r.PublishedDate)
		}
		fmt.Fprintf(&b, "Content: %s\n\n", r.Content)
		sources = append(sources, r)
	}

	return PackedContext{
		Text:         b.String(),
		Sources:      sources,
		BudgetTokens: budget,
		UsedTokens:   used,
	}
}
