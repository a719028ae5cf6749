package cluster

import (
	"context"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

type severityRule struct {
	level   int
	label   string
	pattern *regexp.Regexp
}

// severityRules in descending priority. The highest-level matching rule
// wins, not the first match: a story mentioning both a missile strike and a
// death toll is War/Conflict, not Mass Casualty.
var severityRules = []severityRule{
	{5, "War/Conflict", regexp.MustCompile(`(?i)\b(war|invasion|missile|airstrike|air strike|shelling|ceasefire|offensive|troops|frontline|artillery)\b`)},
	{4, "Mass Casualty/Deaths", regexp.MustCompile(`(?i)\b(death toll|killed|casualti\w*|fatalities|massacre|mass shooting|dead|died)\b`)},
	{3, "National Politics", regexp.MustCompile(`(?i)\b(election|parliament|congress|senate|president|prime minister|minister|impeach\w*|legislation|referendum)\b`)},
	{2, "Economy/Markets", regexp.MustCompile(`(?i)\b(inflation|interest rate|rates|fed|central bank|stocks|markets?|gdp|recession|tariff\w*|earnings)\b`)},
	{1, "Tech/Business", regexp.MustCompile(`(?i)\b(tech|startup|software|chip\w*|merger|acquisition|launch\w*|app|cloud)\b`)},
}

// ruleBasedSeverity classifies a cluster from its title plus member titles
// and descriptions.
func ruleBasedSeverity(c StoryCluster) Severity {
	var sb strings.Builder
	sb.WriteString(c.Title)
	for _, a := range c.Articles {
		sb.WriteString(" ")
		sb.WriteString(a.Title)
		sb.WriteString(" ")
		sb.WriteString(a.Description)
	}
	text := sb.String()

	best := UnknownSeverity()
	for _, rule := range severityRules {
		if rule.level <= best.Level {
			continue
		}
		if rule.pattern.MatchString(text) {
			best = Severity{
				Level:   rule.level,
				Label:   rule.label,
				Reasons: []string{"matched " + rule.label + " terms"},
			}
		}
	}
	return best
}

// assessClusterSeverity prefers the model's judgment when enabled but falls
// back to the rule set whenever the model is unavailable, errors out, or
// returns level 0.
func assessClusterSeverity(ctx context.Context, calls *externalCalls, c StoryCluster, useLLM bool) Severity {
	if useLLM && calls.enabled() {
		sev, err := calls.assessSeverity(ctx, c)
		if err != nil {
			log.Printf("severity: model assessment failed for %q, using rules: %v", c.Title, err)
		} else if sev.Level > 0 {
			return sev
		}
	}
	return ruleBasedSeverity(c)
}

// RankWeights parameterizes the composite ranking score.
type RankWeights struct {
	Articles      float64
	Domains       float64
	Images        float64
	Recency       float64
	SeverityBoost map[string]float64
}

// DefaultRankWeights returns the standard ranking configuration.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Articles: 1.0,
		Domains:  0.5,
		Images:   0.3,
		Recency:  2.0,
		SeverityBoost: map[string]float64{
			"War/Conflict":         2.5,
			"Mass Casualty/Deaths": 2.0,
			"National Politics":    1.2,
			"Economy/Markets":      0.8,
			"Tech/Business":        0.4,
		},
	}
}

// rankScore computes the composite ranking score for an enriched cluster.
func rankScore(c StoryCluster, now time.Time, w RankWeights) float64 {
	domains := make(map[string]struct{})
	var latest time.Time
	for _, a := range c.Articles {
		domains[articleDomain(a)] = struct{}{}
		if a.PublishedAt.After(latest) {
			latest = a.PublishedAt
		}
	}

	imageBonus := -1.0
	switch {
	case len(c.ImageURLs) >= 2:
		imageBonus = 2
	case len(c.ImageURLs) == 1:
		imageBonus = 1
	}

	recencyDecay := 0.0
	if !latest.IsZero() {
		hours := now.Sub(latest).Hours()
		if hours < 0 {
			hours = 0
		}
		recencyDecay = math.Exp(-hours / 24)
	}

	score := w.Articles*math.Log(1+float64(len(c.Articles))) +
		w.Domains*float64(len(domains)) +
		w.Images*imageBonus +
		w.Recency*recencyDecay
	if c.Severity != nil {
		score += w.SeverityBoost[c.Severity.Label]
	}
	return score
}

// sortClustersByScore orders clusters by descending score; ties keep their
// existing relative order.
func sortClustersByScore(clusters []StoryCluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Score > clusters[j].Score
	})
}
