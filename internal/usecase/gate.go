package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"labrec/internal/domain"
	"labrec/internal/metrics"
	"labrec/internal/port"
)

const (
	GateModeJSON     = "json"
	GateModeSentinel = "sentinel"

	defaultSentinel = "NOT_RELEVANT"
)

// GateOptions configures the relevance gate.
type GateOptions struct {
	Mode        string // GateModeJSON or GateModeSentinel
	Sentinel    string
	Concurrency int // judgments in flight, <= 1 is sequential
}

// Verdict is the outcome of one relevance judgment.
type Verdict struct {
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
}

// RelevanceGate asks the completion model to accept or reject each
// retrieved lab.
type RelevanceGate struct {
	llm    port.LLM
	opts   GateOptions
	logger *zap.Logger
}

func NewRelevanceGate(llm port.LLM, opts GateOptions, logger *zap.Logger) *RelevanceGate {
	if opts.Mode == "" {
		opts.Mode = GateModeJSON
	}
	if opts.Sentinel == "" {
		opts.Sentinel = defaultSentinel
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelevanceGate{llm: llm, opts: opts, logger: logger}
}

// Filter judges every candidate and returns the relevant ones in input
// order. A failed judgment excludes its candidate and is logged. The state
// is StateHasResults when anything survived, else StateNoResults.
func (g *RelevanceGate) Filter(ctx context.Context, query string, candidates []domain.Document) ([]domain.Recommendation, domain.GateState) {
	verdicts := make([]*Verdict, len(candidates))

	eg := &errgroup.Group{}
	eg.SetLimit(g.opts.Concurrency)
	for i, c := range candidates {
		i, c := i, c
		eg.Go(func() error {
			v, err := g.Judge(ctx, query, c)
			if err != nil {
				metrics.RecordGateVerdict("error")
				g.logger.Warn("relevance judgment failed, excluding candidate",
					zap.Int("index", c.Index),
					zap.Error(err))
				return nil
			}
			if v.Relevant {
				metrics.RecordGateVerdict("relevant")
			} else {
				metrics.RecordGateVerdict("irrelevant")
			}
			verdicts[i] = &v
			return nil
		})
	}
	_ = eg.Wait()

	var kept []domain.Recommendation
	for i, v := range verdicts {
		if v == nil || !v.Relevant {
			continue
		}
		kept = append(kept, domain.Recommendation{
			Index:   candidates[i].Index,
			LabInfo: candidates[i].Text,
			Reason:  v.Reason,
		})
	}

	state := domain.StateNoResults
	if len(kept) > 0 {
		state = domain.StateHasResults
	}
	g.logger.Debug("relevance gate finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.Stringer("state", state))

	return kept, state
}

// Judge runs one relevance judgment. Failures wrap domain.ErrRelevanceJudgment.
func (g *RelevanceGate) Judge(ctx context.Context, query string, candidate domain.Document) (Verdict, error) {
	system := promptGateSystem
	if g.opts.Mode == GateModeSentinel {
		system = fmt.Sprintf(promptGateSentinelSystem, g.opts.Sentinel)
	}

	response, err := g.llm.GenerateWithSystem(ctx, system, gateUserPrompt(query, candidate.Text))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", domain.ErrRelevanceJudgment, err)
	}

	var v Verdict
	if g.opts.Mode == GateModeSentinel {
		v, err = parseSentinelVerdict(response, g.opts.Sentinel)
	} else {
		v, err = parseJSONVerdict(response)
	}
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", domain.ErrRelevanceJudgment, err)
	}

	// The rejection marker anywhere in the response rejects the candidate,
	// whatever the parsed verdict says.
	if v.Relevant && strings.Contains(response, g.opts.Sentinel) {
		v.Relevant = false
	}
	return v, nil
}

func parseSentinelVerdict(response, sentinel string) (Verdict, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return Verdict{}, fmt.Errorf("empty response")
	}
	if strings.Contains(text, sentinel) {
		return Verdict{Relevant: false, Reason: text}, nil
	}
	return Verdict{Relevant: true, Reason: text}, nil
}

func parseJSONVerdict(response string) (Verdict, error) {
	raw := extractJSON(response)
	if raw == "" {
		return Verdict{}, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Relevant *bool  `json:"relevant"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Verdict{}, fmt.Errorf("invalid verdict JSON: %w", err)
	}
	if parsed.Relevant == nil {
		return Verdict{}, fmt.Errorf("verdict JSON missing \"relevant\"")
	}
	return Verdict{Relevant: *parsed.Relevant, Reason: strings.TrimSpace(parsed.Reason)}, nil
}

// extractJSON returns the text from the first '{' to the last '}'.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}
