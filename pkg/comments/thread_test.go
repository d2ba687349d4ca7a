package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcrush/crush/pkg/model"
)

func ids(threads []*Thread) []int64 {
	var out []int64
	for _, t := range threads {
		out = append(out, t.Comment.ID)
	}
	return out
}

func TestBuildThreadsGroupsReplies(t *testing.T) {
	comments := []model.Comment{
		{ID: 1, Text: "first"},
		{ID: 2, Text: "reply to first", ParentID: model.Ref(1)},
		{ID: 3, Text: "second"},
		{ID: 4, Text: "reply to reply", ParentID: model.Ref(2)},
		{ID: 5, Text: "another reply to first", ParentID: model.Ref(1)},
	}

	threads := BuildThreads(comments)

	require.Len(t, threads, 2)
	assert.Equal(t, []int64{1, 3}, ids(threads))
	assert.Equal(t, []int64{2, 5}, ids(threads[0].Replies))
	assert.Equal(t, []int64{4}, ids(threads[0].Replies[0].Replies))
	assert.Equal(t, 5, Count(threads))
}

func TestBuildThreadsReplyBeforeParent(t *testing.T) {
	comments := []model.Comment{
		{ID: 2, ParentID: model.Ref(1)},
		{ID: 1},
	}

	threads := BuildThreads(comments)

	require.Len(t, threads, 1)
	assert.Equal(t, int64(1), threads[0].Comment.ID)
	assert.Equal(t, []int64{2}, ids(threads[0].Replies))
}

func TestBuildThreadsOrphanReplyBecomesRoot(t *testing.T) {
	comments := []model.Comment{
		{ID: 1},
		{ID: 2, ParentID: model.Ref(99)},
	}

	threads := BuildThreads(comments)

	assert.Equal(t, []int64{1, 2}, ids(threads))
}

func TestBuildThreadsCycleTerminates(t *testing.T) {
	comments := []model.Comment{
		{ID: 1, ParentID: model.Ref(2)},
		{ID: 2, ParentID: model.Ref(1)},
		{ID: 3, ParentID: model.Ref(3)},
	}

	threads := BuildThreads(comments)

	assert.Equal(t, 3, Count(threads))
}

func TestBuildThreadsEmpty(t *testing.T) {
	assert.Empty(t, BuildThreads(nil))
}

func TestBuildThreadsDuplicateIDsPlacedOnce(t *testing.T) {
	threads := BuildThreads([]model.Comment{
		{ID: 1, Text: "a"},
		{ID: 1, Text: "b"},
	})

	require.Len(t, threads, 1)
	assert.Equal(t, "b", threads[0].Comment.Text)
	assert.Equal(t, 1, Count(threads))
}

func TestBuildThreadsDuplicateReplyPlacedOnce(t *testing.T) {
	threads := BuildThreads([]model.Comment{
		{ID: 1, Text: "root"},
		{ID: 2, Text: "draft", ParentID: model.Ref(1)},
		{ID: 3, Text: "other"},
		{ID: 2, Text: "edited", ParentID: model.Ref(1)},
	})

	require.Len(t, threads, 2)
	assert.Equal(t, []int64{1, 3}, ids(threads))
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "edited", threads[0].Replies[0].Comment.Text)
	assert.Equal(t, 3, Count(threads))
}
