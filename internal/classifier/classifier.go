// Package classifier assigns a topic label to article titles by counting
// keyword hits per category.
package classifier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"NewsAggregator/internal/domain"
)

// Keywords maps a category to the phrases that vote for it.
type Keywords map[domain.Category][]string

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	keywords map[domain.Category][]string
}

// New trims and de-duplicates the keyword lists so that each phrase
// contributes at most one point per title. Keywords are matched verbatim
// against the lower-cased title, so an entry with capitals never matches.
func New(kw Keywords) *Classifier {
	c := &Classifier{
		keywords: make(map[domain.Category][]string, len(domain.Categories)),
	}

	for _, cat := range domain.Categories {
		seen := map[string]struct{}{}
		for _, word := range kw[cat] {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			c.keywords[cat] = append(c.keywords[cat], word)
		}
	}

	return c
}

// Classify labels every title independently, preserving order.
func (c *Classifier) Classify(titles []string) []domain.Category {
	labels := make([]domain.Category, len(titles))
	for i, title := range titles {
		labels[i] = c.ClassifyTitle(title)
	}
	return labels
}

// ClassifyTitle returns the label with the highest score. Ties go to
// politics, then sports; a title without any hit is others.
func (c *Classifier) ClassifyTitle(title string) domain.Category {
	scores := c.Scores(title)

	politics := scores[domain.CategoryPolitics]
	sports := scores[domain.CategorySports]
	others := scores[domain.CategoryOthers]

	best := max(politics, sports, others)
	switch {
	case best == 0:
		return domain.CategoryOthers
	case politics == best:
		return domain.CategoryPolitics
	case sports == best:
		return domain.CategorySports
	default:
		return domain.CategoryOthers
	}
}

// Scores exposes the per-category hit counts for auditing.
func (c *Classifier) Scores(title string) map[domain.Category]int {
	lowered := lower(title)

	scores := make(map[domain.Category]int, len(domain.Categories))
	for _, cat := range domain.Categories {
		for _, word := range c.keywords[cat] {
			if strings.Contains(lowered, word) {
				scores[cat]++
			}
		}
	}
	return scores
}

// Casers keep internal state, so each call gets its own.
func lower(s string) string {
	return cases.Lower(language.Bulgarian).String(s)
}
