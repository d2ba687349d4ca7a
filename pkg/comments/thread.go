// Package comments groups flat comment rows into reply threads.
package comments

import "github.com/contentcrush/crush/pkg/model"

// Thread is a comment together with its replies, recursively.
type Thread struct {
	Comment model.Comment
	Replies []*Thread
}

// Len returns the number of comments in the thread, including the root.
func (t *Thread) Len() int {
	n := 1
	for _, r := range t.Replies {
		n += r.Len()
	}
	return n
}

// BuildThreads groups comments by parent id. Top-level comments, and replies
// whose parent is not in the input, become roots. Input order is kept at
// every level. When ids repeat, the last row wins and is placed once.
func BuildThreads(comments []model.Comment) []*Thread {
	byID := make(map[int64]*Thread, len(comments))
	winner := make(map[int64]int, len(comments))
	for i, c := range comments {
		byID[c.ID] = &Thread{Comment: c}
		winner[c.ID] = i
	}

	var roots []*Thread
	for i, c := range comments {
		if winner[c.ID] != i {
			continue
		}
		node := byID[c.ID]
		if c.ParentID != nil && *c.ParentID != c.ID {
			if parent, ok := byID[*c.ParentID]; ok && !descends(parent, node, byID) {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// descends reports whether candidate is reachable from node by following
// parent links, which would make attaching node under candidate a cycle.
func descends(candidate, node *Thread, byID map[int64]*Thread) bool {
	seen := make(map[int64]bool)
	cur := candidate
	for cur != nil && !seen[cur.Comment.ID] {
		if cur == node {
			return true
		}
		seen[cur.Comment.ID] = true
		if cur.Comment.ParentID == nil {
			return false
		}
		cur = byID[*cur.Comment.ParentID]
	}
	return false
}

// Count returns the total number of comments across all threads.
func Count(threads []*Thread) int {
	n := 0
	for _, t := range threads {
		n += t.Len()
	}
	return n
}
