package cluster

import "testing"

func TestExtractEntitiesCompounds(t *testing.T) {
	entities := extractEntities("The White House issued a statement today")

	if _, ok := entities["the_white_house"]; !ok {
		t.Fatalf("expected compound entity the_white_house, got %v", entities)
	}
}

func TestExtractEntitiesSkipsSentenceStarts(t *testing.T) {
	entities := extractEntities("Today is a good day")

	if len(entities) != 0 {
		t.Fatalf("sentence-initial word should not become an entity, got %v", entities)
	}

	entities = extractEntities("Rescue teams reached the valley. Morning brought more rain")
	if _, ok := entities["morning"]; ok {
		t.Errorf("word after sentence boundary should be skipped, got %v", entities)
	}
}

func TestExtractEntitiesAcronymsAndEvents(t *testing.T) {
	entities := extractEntities("NASA confirmed the launch while fans awaited Euro 2024 coverage")

	for _, want := range []string{"nasa", "euro_2024"} {
		if _, ok := entities[want]; !ok {
			t.Errorf("expected entity %q in %v", want, entities)
		}
	}
}

func TestSharedCountRespectsMinLength(t *testing.T) {
	a := entitySet{"acme_corp": {}, "eu": {}, "nasa": {}}
	b := entitySet{"acme_corp": {}, "eu": {}, "zenith": {}}

	if got := a.sharedCount(b, 4); got != 1 {
		t.Errorf("expected 1 shared entity of length >= 4, got %d", got)
	}
	if got := a.sharedCount(b, 0); got != 2 {
		t.Errorf("expected 2 shared entities without length filter, got %d", got)
	}
}

func TestClusterEntitiesJoinsTitles(t *testing.T) {
	articles := map[string]Article{
		"a1": {ID: "a1", Title: "Acme Corp announces layoffs"},
		"a2": {ID: "a2", Title: "Workers react to Acme Corp cuts"},
	}
	c := StoryCluster{Title: "Acme Corp layoffs", ArticleIDs: []string{"a1", "a2"}}

	entities := clusterEntities(c, articles, 10)
	if _, ok := entities["acme_corp"]; !ok {
		t.Fatalf("expected acme_corp from cluster titles, got %v", entities)
	}
	// "Workers" opens its own joined sentence and must not leak in.
	if _, ok := entities["workers"]; ok {
		t.Errorf("sentence-initial title word leaked into entities: %v", entities)
	}
}
