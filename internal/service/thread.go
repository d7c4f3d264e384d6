package service

import (
	"sort"

	"github.com/comment-server/internal/models"
)

// assembleThreads nests rows under the roots named in rootIDs, keeping the
// order of rootIDs. Replies whose root was not part of the depth-0 rows are
// attached to a root materialized from rows, and rows whose root cannot be
// found at all are dropped. Replies are ordered by creation time.
func assembleThreads(rootIDs []string, rows []*models.Comment) []*models.CommentResponse {
	byID := make(map[string]*models.Comment, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}

	// nil marks a root slot not yet filled
	threads := make(map[string]*models.CommentResponse, len(rootIDs))
	for _, id := range rootIDs {
		threads[id] = nil
	}

	for _, c := range rows {
		if c.Depth == 0 {
			if existing, ok := threads[c.ID]; ok && existing == nil {
				threads[c.ID] = models.NewCommentResponse(c)
			}
			continue
		}

		root, ok := threads[c.RootCommentID]
		if !ok {
			continue
		}
		if root == nil {
			rc, found := byID[c.RootCommentID]
			if !found {
				continue
			}
			root = models.NewCommentResponse(rc)
			threads[c.RootCommentID] = root
		}
		root.AddReply(models.NewCommentResponse(c))
	}

	result := make([]*models.CommentResponse, 0, len(rootIDs))
	for _, id := range rootIDs {
		thread := threads[id]
		if thread == nil {
			continue
		}
		sort.SliceStable(thread.Replies, func(i, j int) bool {
			return thread.Replies[i].CreatedAt.Before(thread.Replies[j].CreatedAt)
		})
		result = append(result, thread)
	}
	return result
}
