package signals

import (
	"strings"
)

// Vector holds per-category counts for one response.
// A nil Counts map means the response was absent and nothing was classified.
type Vector struct {
	Counts map[Category]int
}

// Get returns the count for a category, 0 when absent.
func (v Vector) Get(c Category) int {
	return v.Counts[c]
}

// Total is the sum of all category counts.
func (v Vector) Total() int {
	total := 0
	for _, n := range v.Counts {
		total += n
	}
	return total
}

// Empty reports whether the vector carries no categories at all.
func (v Vector) Empty() bool {
	return len(v.Counts) == 0
}

// Classifier scores response text against a rule table.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New builds a classifier from a rule table.
func New(rules []Rule) (*Classifier, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return &Classifier{rules: normalize(rules)}, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns a copy of the classifier's rule table, in display order.
func (c *Classifier) Rules() []Rule {
	return normalize(c.rules)
}

// Categories returns the category names in display order.
func (c *Classifier) Categories() []Category {
	out := make([]Category, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}

// Classify counts, per category, how many distinct patterns occur in the text.
// Repeated occurrences of one pattern count once. A nil response yields an empty vector.
func (c *Classifier) Classify(response *string) Vector {
	if response == nil {
		return Vector{}
	}
	return c.ClassifyText(*response)
}

// ClassifyText is Classify for a known-present response.
func (c *Classifier) ClassifyText(text string) Vector {
	text = strings.ToLower(text)
	counts := make(map[Category]int, len(c.rules))
	for _, r := range c.rules {
		n := 0
		for _, p := range r.Patterns {
			if strings.Contains(text, p) {
				n++
			}
		}
		counts[r.Category] = n
	}
	return Vector{Counts: counts}
}

// Matches returns the distinct patterns found for each category.
func (c *Classifier) Matches(text string) map[Category][]string {
	text = strings.ToLower(text)
	out := make(map[Category][]string)
	for _, r := range c.rules {
		for _, p := range r.Patterns {
			if strings.Contains(text, p) {
				out[r.Category] = append(out[r.Category], p)
			}
		}
	}
	return out
}
