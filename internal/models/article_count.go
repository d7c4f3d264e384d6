package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ArticleCommentCount is the materialized comment count of one article
type ArticleCommentCount struct {
	ArticleID    string    `json:"article_id" db:"article_id"`
	CommentCount int       `json:"comment_count" db:"comment_count"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleCount pairs an article id with its count
type ArticleCount struct {
	ArticleID string
	Count     int
}

// ArticleCounts is an ordered list of counts. It marshals to a JSON object
// whose keys keep the order of the list.
type ArticleCounts []ArticleCount

// NewArticleCounts returns one zero entry per distinct id, in first-seen order
func NewArticleCounts(ids []string) ArticleCounts {
	seen := make(map[string]struct{}, len(ids))
	counts := make(ArticleCounts, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		counts = append(counts, ArticleCount{ArticleID: id})
	}
	return counts
}

// Fill copies values from found into the matching entries. Missing ids keep 0.
func (a ArticleCounts) Fill(found map[string]int) {
	for i := range a {
		a[i].Count = found[a[i].ArticleID]
	}
}

// Get returns the count for articleID
func (a ArticleCounts) Get(articleID string) (int, bool) {
	for _, c := range a {
		if c.ArticleID == articleID {
			return c.Count, true
		}
	}
	return 0, false
}

// MarshalJSON implements json.Marshaler
func (a ArticleCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.ArticleID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
