package skills

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gaybro8777/mediacloud/internal/ai"
	"github.com/gaybro8777/mediacloud/internal/querylang"
)

// codeBlockPattern extracts the contents of a single fenced code block,
// tolerating an optional language tag after the opening fence.
var codeBlockPattern = regexp.MustCompile("(?s)```(?:\\w+)?\\s*(.*?)\\s*```")

// SuggestQuerySkill turns a natural-language description of a media topic
// into a Solr-flavored boolean query, the same grammar internal/querylang
// parses. The candidate is always round-tripped through querylang.Parse
// before being returned, so a hallucinated or malformed suggestion surfaces
// as an ordinary syntax error rather than a silently broken query.
type SuggestQuerySkill struct {
	client *ai.Client
	logger *slog.Logger
}

// NewSuggestQuerySkill creates a new suggest_query skill.
func NewSuggestQuerySkill(client *ai.Client) *SuggestQuerySkill {
	return &SuggestQuerySkill{
		client: client,
		logger: slog.Default().With("skill", "suggest_query"),
	}
}

func (s *SuggestQuerySkill) Name() string { return "suggest_query" }
func (s *SuggestQuerySkill) Description() string {
	return "Suggest a Solr-flavored boolean search query from a natural-language description of a media topic"
}
func (s *SuggestQuerySkill) Examples() []string {
	return []string{
		"Coverage of climate policy debates in local news",
		"Stories about election misinformation on social media",
		"Articles mentioning both inflation and interest rates",
	}
}

const suggestQuerySystemPrompt = `You are a media-monitoring research assistant. Given a natural-language
description of a media topic, propose a single Solr-flavored boolean search query that would find
relevant news stories.

Query syntax:
- Bare words are implicitly ORed: "cat dog" means "cat OR dog"
- Use AND, OR, NOT (case-insensitive) to combine terms
- Group with parentheses: (cat OR dog) AND adopted
- Use "quoted phrases" for exact phrase matches
- Use field:value for field-scoped terms, and field:[a TO b] for ranges
- Use a trailing * for a wildcard: polic*

Respond with ONLY the query, wrapped in a single code block, and nothing else.`

func (s *SuggestQuerySkill) Execute(ctx context.Context, input ai.SkillInput) (*ai.SkillOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if s.client == nil || !s.client.IsAvailable() {
		s.logger.Warn("AI client unavailable, returning fallback", "tenant_id", input.TenantID)
		return fallbackOutput(s.Name()), nil
	}

	messages := []ai.Message{
		{Role: "user", Content: input.Query},
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.Query(queryCtx, suggestQuerySystemPrompt, messages, 512)
	if err != nil {
		s.logger.Error("AI query failed, returning fallback", "error", err, "tenant_id", input.TenantID)
		return fallbackOutput(s.Name()), nil
	}

	candidate := extractQuery(resp.Content)

	if _, err := querylang.Parse(candidate); err != nil {
		return nil, fmt.Errorf("suggested query failed validation: %w", err)
	}

	return &ai.SkillOutput{
		Answer:     candidate,
		Confidence: 0.75,
		SkillName:  s.Name(),
		TokensUsed: resp.TokensUsed,
		LatencyMS:  resp.LatencyMS,
	}, nil
}

// extractQuery pulls the query text out of a fenced code block if present,
// otherwise trims and returns the response verbatim.
func extractQuery(content string) string {
	if m := codeBlockPattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}
