package cluster

import (
	"math"
	"regexp"
	"strings"
)

// Vectorizer builds TF-IDF vectors over a fixed set of articles and answers
// cosine-similarity queries between them.
type Vectorizer struct {
	docs map[string]docVector
}

type docVector struct {
	weights map[string]float64
	norm    float64
}

// contentPrefixLen bounds how much article body feeds the vector; titles and
// descriptions carry most of the signal.
const contentPrefixLen = 500

var (
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "his": {}, "has": {}, "had": {}, "have": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "will": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "their": {}, "there": {},
	"been": {}, "were": {}, "said": {}, "says": {}, "after": {}, "over": {},
	"into": {}, "about": {}, "more": {}, "than": {}, "also": {}, "its": {},
}

// NewVectorizer tokenizes every article and computes log-dampened TF-IDF
// weights: tf = 1+log(count), idf = log(1 + N/(1+df)).
func NewVectorizer(articles []Article) *Vectorizer {
	termCounts := make([]map[string]int, len(articles))
	df := make(map[string]int)

	for i, article := range articles {
		counts := make(map[string]int)
		for _, token := range tokenizeText(documentText(article)) {
			counts[token]++
		}
		termCounts[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	n := float64(len(articles))
	docs := make(map[string]docVector, len(articles))
	for i, article := range articles {
		weights := make(map[string]float64, len(termCounts[i]))
		var sumSquares float64
		for term, count := range termCounts[i] {
			idf := math.Log(1 + n/float64(1+df[term]))
			w := (1 + math.Log(float64(count))) * idf
			weights[term] = w
			sumSquares += w * w
		}
		docs[article.ID] = docVector{weights: weights, norm: math.Sqrt(sumSquares)}
	}

	return &Vectorizer{docs: docs}
}

// Similarity returns the cosine similarity between two documents. Unknown
// IDs and zero-norm documents score 0.
func (v *Vectorizer) Similarity(aID, bID string) float64 {
	a, okA := v.docs[aID]
	b, okB := v.docs[bID]
	if !okA || !okB {
		return 0
	}
	denom := a.norm * b.norm
	if denom == 0 {
		denom = 1
	}
	return dotProduct(a.weights, b.weights) / denom
}

// Weights exposes the term weights of a document for centroid accumulation.
// Callers must not mutate the returned map.
func (v *Vectorizer) Weights(id string) map[string]float64 {
	return v.docs[id].weights
}

// centroidSimilarity scores a document against an accumulated centroid. The
// centroid is an element-wise sum of member vectors and is never
// re-normalized, so both norms are computed fresh here.
func centroidSimilarity(doc, centroid map[string]float64) float64 {
	denom := mapNorm(centroid) * mapNorm(doc)
	if denom == 0 {
		denom = 1
	}
	return dotProduct(doc, centroid) / denom
}

// dotProduct iterates the smaller map so sparse-against-dense stays cheap.
func dotProduct(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	return dot
}

func mapNorm(m map[string]float64) float64 {
	var sumSquares float64
	for _, w := range m {
		sumSquares += w * w
	}
	return math.Sqrt(sumSquares)
}

// addInto accumulates src into dst element-wise.
func addInto(dst, src map[string]float64) {
	for term, w := range src {
		dst[term] += w
	}
}

func documentText(a Article) string {
	content := a.Content
	if len(content) > contentPrefixLen {
		content = content[:contentPrefixLen]
	}
	return a.Title + " " + a.Description + " " + content
}

// tokenizeText lowercases, strips URLs and punctuation, and drops short or
// stopword tokens.
func tokenizeText(text string) []string {
	text = strings.ToLower(urlPattern.ReplaceAllString(text, " "))
	text = nonAlphanumeric.ReplaceAllString(text, " ")

	var tokens []string
	for _, token := range strings.Fields(text) {
		if len(token) <= 2 {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
