package cluster

import (
	"math"
	"testing"
)

func TestVectorizerSimilarity(t *testing.T) {
	articles := []Article{
		{ID: "a1", Title: "Central bank raises interest rates", Description: "Policy makers lifted rates to curb inflation"},
		{ID: "a2", Title: "Central bank raises rates to curb inflation", Description: "Interest rates lifted by policy makers"},
		{ID: "a3", Title: "Football final ends in penalty shootout", Description: "Dramatic match decided on penalties"},
	}
	vec := NewVectorizer(articles)

	same := vec.Similarity("a1", "a2")
	different := vec.Similarity("a1", "a3")

	if same <= different {
		t.Fatalf("expected related articles to score higher: same=%f different=%f", same, different)
	}
	if same < 0.3 {
		t.Errorf("expected strong similarity for near-duplicates, got %f", same)
	}
	if different > 0.05 {
		t.Errorf("expected near-zero similarity for unrelated articles, got %f", different)
	}
}

func TestVectorizerUnknownAndEmptyDocs(t *testing.T) {
	articles := []Article{
		{ID: "a1", Title: "Central bank raises interest rates"},
		{ID: "empty", Title: "", Description: "", Content: ""},
	}
	vec := NewVectorizer(articles)

	if sim := vec.Similarity("a1", "missing"); sim != 0 {
		t.Errorf("unknown id should score 0, got %f", sim)
	}

	sim := vec.Similarity("a1", "empty")
	if math.IsNaN(sim) {
		t.Fatalf("zero-norm document produced NaN")
	}
	if sim != 0 {
		t.Errorf("empty document should score 0, got %f", sim)
	}
}

func TestTokenizeText(t *testing.T) {
	tokens := tokenizeText("The markets rallied, see https://example.com/report for details!")

	for _, token := range tokens {
		switch token {
		case "the", "for":
			t.Errorf("stopword %q survived tokenization", token)
		case "https", "example", "com":
			t.Errorf("url fragment %q survived tokenization", token)
		}
		if len(token) <= 2 {
			t.Errorf("short token %q survived tokenization", token)
		}
	}

	want := map[string]bool{"markets": false, "rallied": false, "details": false}
	for _, token := range tokens {
		if _, ok := want[token]; ok {
			want[token] = true
		}
	}
	for token, seen := range want {
		if !seen {
			t.Errorf("expected token %q in %v", token, tokens)
		}
	}
}

func TestCentroidSimilarity(t *testing.T) {
	articles := []Article{
		{ID: "a1", Title: "Storm damages coastal towns", Description: "Heavy winds and flooding hit the coast"},
		{ID: "a2", Title: "Storm flooding damages towns along coast", Description: "Coastal areas hit by heavy winds"},
		{ID: "a3", Title: "Chip maker reports record quarterly earnings"},
	}
	vec := NewVectorizer(articles)

	centroid := make(map[string]float64)
	addInto(centroid, vec.Weights("a1"))
	addInto(centroid, vec.Weights("a2"))

	near := centroidSimilarity(vec.Weights("a2"), centroid)
	far := centroidSimilarity(vec.Weights("a3"), centroid)

	if near <= far {
		t.Fatalf("member should be closer to centroid: near=%f far=%f", near, far)
	}
	if far > 0.05 {
		t.Errorf("unrelated article too close to centroid: %f", far)
	}

	if sim := centroidSimilarity(vec.Weights("a1"), map[string]float64{}); math.IsNaN(sim) || sim != 0 {
		t.Errorf("empty centroid should score 0, got %f", sim)
	}
}
