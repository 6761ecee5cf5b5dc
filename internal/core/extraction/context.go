package extraction

import (
	"errors"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// contextScorer rates how invoice-like the neighbourhood of a term is.
type contextScorer struct {
	// Match on the automaton is not safe for concurrent use.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
	// groupOf maps a keyword index to its group.
	groupOf []int
	bonuses []int
}

func newContextScorer(groups []KeywordGroup) (*contextScorer, error) {
	if len(groups) == 0 {
		return nil, errors.New("at least one context keyword group is required")
	}

	var keywords []string
	var groupOf []int
	bonuses := make([]int, len(groups))
	for gi, g := range groups {
		bonuses[gi] = g.Bonus
		for _, kw := range g.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			keywords = append(keywords, kw)
			groupOf = append(groupOf, gi)
		}
	}
	if len(keywords) == 0 {
		return nil, errors.New("context keyword groups are empty")
	}

	return &contextScorer{
		matcher: ahocorasick.NewStringMatcher(keywords),
		groupOf: groupOf,
		bonuses: bonuses,
	}, nil
}

// ContextScore runs the default extractor's context scorer.
func ContextScore(text, term string) int {
	return defaultExtractor.ContextScore(text, term)
}

// ContextScore locates the first line containing term, case-insensitively,
// and returns a position bonus plus a bonus for each keyword group seen in
// the two lines either side. Later occurrences are ignored.
func (e *Extractor) ContextScore(text, term string) int {
	return e.context.score(text, term)
}

func (c *contextScorer) score(text, term string) int {
	needle := strings.ToLower(term)
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}

		score := 0
		switch {
		case i < 5:
			score += 3
		case i < 10:
			score += 2
		case float64(i) < float64(len(lines))/2:
			score += 1
		}

		return score + c.windowBonus(lines, i)
	}
	return 0
}

func (c *contextScorer) windowBonus(lines []string, center int) int {
	var window []string
	for j := center - 2; j <= center+2; j++ {
		if j < 0 || j >= len(lines) || lines[j] == "" {
			continue
		}
		window = append(window, lines[j])
	}
	haystack := []byte(strings.ToLower(strings.Join(window, " ")))

	c.mu.Lock()
	hits := c.matcher.Match(haystack)
	c.mu.Unlock()

	seen := make(map[int]bool, len(c.bonuses))
	bonus := 0
	for _, idx := range hits {
		g := c.groupOf[idx]
		if seen[g] {
			continue
		}
		seen[g] = true
		bonus += c.bonuses[g]
	}
	return bonus
}
