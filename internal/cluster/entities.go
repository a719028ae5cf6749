package cluster

import (
	"regexp"
	"strings"
)

// Heuristic entity extraction for Latin-script text. Each pass is
// individually noisy; consumers require several shared entities, which
// filters generic capitalized words.
var (
	compoundPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)+\b`)
	singleCapWord   = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	acronymPattern  = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	namedEventYear  = regexp.MustCompile(`\b([A-Z][a-z]+)\s+(\d{2,4})\b`)
)

// entitySet is a set of normalized (lowercase, underscore-joined) entities.
type entitySet map[string]struct{}

func (s entitySet) add(entity string) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return
	}
	s[entity] = struct{}{}
}

// sharedCount returns how many entities of at least minLength appear in both
// sets.
func (s entitySet) sharedCount(other entitySet, minLength int) int {
	count := 0
	for entity := range s {
		if len(entity) < minLength {
			continue
		}
		if _, ok := other[entity]; ok {
			count++
		}
	}
	return count
}

// extractEntities pulls proper nouns, acronyms, and named events out of free
// text: (a) consecutive-capitalized-word compounds, (b) single capitalized
// words not at a sentence start, (c) short ALL-CAPS acronyms, (d) capitalized
// words immediately followed by a 2-4 digit number.
func extractEntities(text string) entitySet {
	entities := make(entitySet)
	if strings.TrimSpace(text) == "" {
		return entities
	}

	for _, match := range compoundPattern.FindAllString(text, -1) {
		entities.add(normalizeEntity(match))
	}

	for _, loc := range singleCapWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if len(word) < 3 {
			continue
		}
		if isSentenceStart(text, loc[0]) {
			continue
		}
		entities.add(strings.ToLower(word))
	}

	for _, acronym := range acronymPattern.FindAllString(text, -1) {
		entities.add(strings.ToLower(acronym))
	}

	for _, parts := range namedEventYear.FindAllStringSubmatch(text, -1) {
		entities.add(strings.ToLower(parts[1]) + "_" + parts[2])
	}

	return entities
}

func normalizeEntity(compound string) string {
	return strings.Join(strings.Fields(strings.ToLower(compound)), "_")
}

// isSentenceStart reports whether the word beginning at idx opens a sentence.
// A sentence boundary is `.`, `!`, or `?` followed by whitespace; the very
// first word of the text counts as well.
func isSentenceStart(text string, idx int) bool {
	j := idx - 1
	sawSpace := false
	for j >= 0 {
		switch text[j] {
		case ' ', '\t', '\n', '\r':
			sawSpace = true
			j--
			continue
		}
		break
	}
	if j < 0 {
		return true
	}
	if !sawSpace {
		return false
	}
	return text[j] == '.' || text[j] == '!' || text[j] == '?'
}

// clusterEntities builds the entity set describing a cluster from its title
// and up to maxTitles member titles. Titles are joined with sentence
// punctuation so the skip-first-word rule holds across each of them.
func clusterEntities(c StoryCluster, articles map[string]Article, maxTitles int) entitySet {
	parts := make([]string, 0, maxTitles+1)
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	for _, id := range c.ArticleIDs {
		if len(parts) > maxTitles {
			break
		}
		if article, ok := articles[id]; ok && article.Title != "" {
			parts = append(parts, article.Title)
		}
	}
	return extractEntities(strings.Join(parts, ". "))
}
