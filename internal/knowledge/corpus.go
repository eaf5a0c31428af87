// Package knowledge implements keyword-overlap retrieval over uploaded
// document passages.
package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Passage is one retrievable text chunk tagged with its origin.
type Passage struct {
	Text   string
	Source string
	Page   int
}

// Corpus is the append-only in-memory passage store. Loading a new document
// adds to the corpus; prior entries are never replaced.
type Corpus struct {
	mu       sync.RWMutex
	passages []Passage
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{}
}

// Add appends passages to the corpus.
func (c *Corpus) Add(passages ...Passage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passages = append(c.passages, passages...)
}

// Len returns the number of stored passages.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.passages)
}

var wordPattern = regexp.MustCompile(`\w+`)

// Search scores every passage by the number of query terms it contains and
// returns the top 5 formatted with source/page headers. The result is always
// a human-readable string suitable for use as a tool result.
func (c *Corpus) Search(query string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.passages) == 0 {
		return "Knowledge base is empty. Please upload a PDF file first."
	}

	terms := map[string]struct{}{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		terms[w] = struct{}{}
	}

	type scored struct {
		score   int
		passage Passage
	}
	var matches []scored
	for _, p := range c.passages {
		text := strings.ToLower(p.Text)
		score := 0
		for term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{score: score, passage: p})
		}
	}

	if len(matches) == 0 {
		return "No relevant information found in the uploaded documents."
	}

	// Stable sort keeps corpus order for equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > 5 {
		matches = matches[:5]
	}

	var b strings.Builder
	b.WriteString("Found relevant information:\n\n")
	for _, m := range matches {
		b.WriteString(fmt.Sprintf("--- From %s (Page %d) ---\n", m.passage.Source, m.passage.Page))
		b.WriteString(m.passage.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
