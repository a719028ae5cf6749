package cluster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type rawArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
	Category    string `json:"category"`
	ImageWidth  int    `json:"imageWidth"`
	ImageHeight int    `json:"imageHeight"`
}

// DecodeArticles parses a JSON array of articles, skipping entries without a
// title or URL.
func DecodeArticles(data []byte) ([]Article, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	var raws []rawArticle
	if err := decoder.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	articles := make([]Article, 0, len(raws))
	for _, r := range raws {
		if r.Title == "" || r.URL == "" {
			continue
		}
		published, err := time.Parse(time.RFC3339, r.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse time for %s: %w", r.ID, err)
		}
		articles = append(articles, Article{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Content:     r.Content,
			URL:         r.URL,
			URLToImage:  r.URLToImage,
			PublishedAt: published,
			Source:      r.Source,
			Category:    r.Category,
			ImageWidth:  r.ImageWidth,
			ImageHeight: r.ImageHeight,
		})
	}

	return articles, nil
}

// extractJSON recovers the JSON payload from a model response that may wrap
// it in markdown fences or surrounding prose. Returns "" when no balanced
// object or array can be found.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		end := strings.LastIndex(content, "]")
		if end > arrStart {
			return content[arrStart : end+1]
		}
	}
	if objStart != -1 {
		end := strings.LastIndex(content, "}")
		if end > objStart {
			return content[objStart : end+1]
		}
	}
	return ""
}

// decodeCall unmarshals a model response into out, attempting JSON-substring
// recovery before giving up. The returned error is always a
// *MalformedResponseError so callers can degrade to an empty result.
func decodeCall(call, content string, out any) error {
	payload := extractJSON(content)
	if payload == "" {
		return &MalformedResponseError{Call: call, Err: fmt.Errorf("no json payload in response")}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &MalformedResponseError{Call: call, Err: err}
	}
	return nil
}
