package cluster

import (
	"context"
	"testing"
	"time"
)

func TestRuleBasedSeverityHighestLevelWins(t *testing.T) {
	c := StoryCluster{
		Title: "Missile strike kills dozens, death toll rises",
		Articles: []Article{
			{Title: "Death toll climbs after missile strike"},
		},
	}

	sev := ruleBasedSeverity(c)
	if sev.Level != 5 || sev.Label != "War/Conflict" {
		t.Fatalf("conflict terms must outrank casualty terms, got %+v", sev)
	}
}

func TestRuleBasedSeverityTable(t *testing.T) {
	cases := []struct {
		title string
		level int
		label string
	}{
		{"Parliament passes sweeping election legislation", 3, "National Politics"},
		{"Inflation eases as central bank holds rates", 2, "Economy/Markets"},
		{"Startup launches cloud software platform", 1, "Tech/Business"},
		{"Local museum extends weekend opening hours", 0, "Other"},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			sev := ruleBasedSeverity(StoryCluster{Title: tc.title})
			if sev.Level != tc.level || sev.Label != tc.label {
				t.Errorf("got %+v, want level %d label %q", sev, tc.level, tc.label)
			}
		})
	}
}

func TestAssessClusterSeverityPrefersModel(t *testing.T) {
	fake := &fakeChatClient{response: `{"level": 4, "label": "Mass Casualty/Deaths", "reasons": ["dozens injured"]}`}
	calls := newTestCalls(fake, nil)

	c := StoryCluster{Title: "Factory accident", ArticleIDs: []string{"a1", "a2"}}
	sev := assessClusterSeverity(context.Background(), calls, c, true)
	if sev.Level != 4 {
		t.Fatalf("expected model judgment, got %+v", sev)
	}
}

func TestAssessClusterSeverityFallsBackToRules(t *testing.T) {
	fake := &fakeChatClient{response: `{"level": 0, "label": "Other", "reasons": []}`}
	calls := newTestCalls(fake, nil)

	c := StoryCluster{Title: "Parliament election results announced", ArticleIDs: []string{"a1"}}
	sev := assessClusterSeverity(context.Background(), calls, c, true)
	if sev.Level != 3 {
		t.Fatalf("level-0 model answer should fall back to rules, got %+v", sev)
	}

	sev = assessClusterSeverity(context.Background(), &externalCalls{}, c, true)
	if sev.Level != 3 {
		t.Fatalf("disabled client should use rules, got %+v", sev)
	}
}

func TestRankScoreOrdersClusters(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	weights := DefaultRankWeights()

	big := StoryCluster{
		Articles: []Article{
			{URL: "https://reuters.com/a", PublishedAt: now.Add(-1 * time.Hour)},
			{URL: "https://apnews.com/b", PublishedAt: now.Add(-2 * time.Hour)},
			{URL: "https://bbc.com/c", PublishedAt: now.Add(-3 * time.Hour)},
		},
		ImageURLs: []string{"https://img/1.jpg", "https://img/2.jpg"},
		Severity:  &Severity{Level: 5, Label: "War/Conflict"},
	}
	small := StoryCluster{
		Articles: []Article{
			{URL: "https://example.com/x", PublishedAt: now.Add(-72 * time.Hour)},
			{URL: "https://example.com/y", PublishedAt: now.Add(-80 * time.Hour)},
		},
		Severity: &Severity{Level: 0, Label: "Other"},
	}

	bigScore := rankScore(big, now, weights)
	smallScore := rankScore(small, now, weights)
	if bigScore <= smallScore {
		t.Fatalf("bigger, fresher, boosted cluster should outrank: %f vs %f", bigScore, smallScore)
	}

	clusters := []StoryCluster{
		{Title: "low", Score: smallScore},
		{Title: "high", Score: bigScore},
	}
	sortClustersByScore(clusters)
	if clusters[0].Title != "high" {
		t.Fatalf("expected descending sort, got %+v", clusters)
	}
}
