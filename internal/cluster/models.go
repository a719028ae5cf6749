package cluster

import "time"

// Source identifies the outlet an article came from.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Article represents a single news document fed into the pipeline.
// Inputs are treated as immutable; the pipeline never mutates them.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      Source    `json:"source"`
	Category    string    `json:"category"`
	ImageWidth  int       `json:"imageWidth,omitempty"`
	ImageHeight int       `json:"imageHeight,omitempty"`
}

// Severity captures how consequential a story is, on a 0..5 scale.
type Severity struct {
	Level   int      `json:"level"`
	Label   string   `json:"label"`
	Reasons []string `json:"reasons"`
}

// UnknownSeverity is the default assessment when no rule or model matches.
func UnknownSeverity() Severity {
	return Severity{Level: 0, Label: "Other", Reasons: []string{}}
}

// StoryCluster is a group of articles describing the same real-world event.
type StoryCluster struct {
	Title      string    `json:"clusterTitle"`
	ArticleIDs []string  `json:"articleIds"`
	Articles   []Article `json:"articles,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	ImageURLs  []string  `json:"imageUrls,omitempty"`
	Severity   *Severity `json:"severity,omitempty"`
	Score      float64   `json:"score,omitempty"`
}

// Result is the pipeline's terminal output.
type Result struct {
	Clusters    []StoryCluster `json:"clusters"`
	RateLimited bool           `json:"rateLimited"`
}

// addID appends id to the cluster unless it is already a member.
func (c *StoryCluster) addID(id string) {
	for _, existing := range c.ArticleIDs {
		if existing == id {
			return
		}
	}
	c.ArticleIDs = append(c.ArticleIDs, id)
}

// unionIDs merges other's members into c, preserving c's order first.
func (c *StoryCluster) unionIDs(other StoryCluster) {
	for _, id := range other.ArticleIDs {
		c.addID(id)
	}
}

func articleIndex(articles []Article) map[string]Article {
	index := make(map[string]Article, len(articles))
	for _, a := range articles {
		index[a.ID] = a
	}
	return index
}
