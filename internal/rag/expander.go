package rag

import (
	"context"
	"fmt"
	"strings"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/narrative"
)

// NoProfileSentinel is returned by ProfileLookup when no character name matches.
const NoProfileSentinel = "(질문에 명시된 인물 정보가 없습니다. 문맥을 통해 파악하세요.)"

const noTraits = "정보 없음"

// QueryExpander rewrites questions so that every alias of a mentioned character is spelled out.
type QueryExpander struct {
	llm     LLM
	roster  []narrative.Character
	mapping string
}

// NewQueryExpander builds the alias mapping for roster. An empty roster makes Expand a no-op.
func NewQueryExpander(llm LLM, roster []narrative.Character) *QueryExpander {
	lines := make([]string, 0, len(roster))
	kept := make([]narrative.Character, 0, len(roster))
	for _, c := range roster {
		if len(c.NameCandidates) == 0 {
			continue
		}
		kept = append(kept, c)
		lines = append(lines, aliasRule(c))
	}
	return &QueryExpander{
		llm:     llm,
		roster:  kept,
		mapping: strings.Join(lines, "\n"),
	}
}

// aliasRule renders "- 감지 키워드: [a, b, c] -> 변환: a(b, c)".
func aliasRule(c narrative.Character) string {
	primary := c.Canonical()
	aliases := make([]string, 0, len(c.NameCandidates)-1)
	seen := map[string]struct{}{primary: {}}
	for _, n := range c.NameCandidates {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		aliases = append(aliases, n)
	}
	return fmt.Sprintf("- 감지 키워드: [%s] -> 변환: %s(%s)",
		strings.Join(c.NameCandidates, ", "), primary, strings.Join(aliases, ", "))
}

// Mapping returns the alias rules passed to the model.
func (e *QueryExpander) Mapping() string {
	return e.mapping
}

// Expand rewrites query for retrieval. Without a roster the query is returned unchanged.
func (e *QueryExpander) Expand(ctx context.Context, query string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(e.roster) == 0 {
		return query, nil
	}

	system := strings.Replace(RewriteSystemPrompt, "{char_list}", e.mapping, 1)
	reply, err := e.llm.Ask(ctx, system, "User: "+query)
	if err != nil {
		return "", externalError("rewrite", err)
	}

	rewritten := cleanRewrite(reply)
	if rewritten == "" {
		logger.WarnContext(ctx, "empty rewrite, using original query", "raw", reply)
		return query, nil
	}

	logger.InfoContext(ctx, "query rewritten", "original", query, "rewritten", rewritten)
	return rewritten, nil
}

// cleanRewrite strips the "Rewritten:" label and stray quoting.
func cleanRewrite(reply string) string {
	s := strings.ReplaceAll(reply, "Rewritten:", "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, "'")
	return strings.TrimSpace(s)
}

// ProfileLookup formats the traits of every character whose name variant occurs in text.
// Matching is a plain substring test and is approximate.
func (e *QueryExpander) ProfileLookup(text string) string {
	var profiles []string
	for _, c := range e.roster {
		if !mentions(text, c.NameCandidates) {
			continue
		}

		appearance := noTraits
		if len(c.AppearanceTraits) > 0 {
			appearance = strings.Join(c.AppearanceTraits, ", ")
		}
		behavior := noTraits
		if len(c.BehaviorTraits) > 0 {
			behavior = strings.Join(c.BehaviorTraits, "\n    - ")
		}

		profiles = append(profiles, fmt.Sprintf(
			"### 인물: %s\n  * [외모 특징]: %s\n  * [성격 및 행동]:\n    - %s\n",
			strings.Join(c.NameCandidates, ", "), appearance, behavior,
		))
	}

	if len(profiles) == 0 {
		return NoProfileSentinel
	}
	return strings.Join(profiles, "\n")
}

func mentions(text string, names []string) bool {
	for _, n := range names {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
