package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/contentcrush/crush/pkg/comments"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/model"
)

// detailMarkdown renders the detail pane content for node as markdown.
func detailMarkdown(node *hierarchy.TreeNode, d *model.Dataset, dates format.DateOptions, now time.Time) string {
	if node == nil {
		return "_Nothing selected._"
	}

	var sb strings.Builder
	if node.IsFile() && node.File != nil {
		writeFileDetail(&sb, node, dates, now)
		return sb.String()
	}

	fmt.Fprintf(&sb, "# %s\n\n", node.Name)
	if c, ok := node.Client(); ok {
		sb.WriteString("| Client | Company | Email |\n|---|---|---|\n")
		fmt.Fprintf(&sb, "| %s | %s | %s |\n\n", c.Name, orDash(c.Company), orDash(c.Email))
	} else if p, ok := node.Project(); ok {
		sb.WriteString("| Project | Status | Created |\n|---|---|---|\n")
		fmt.Fprintf(&sb, "| %s | %s | %s |\n\n", p.Name, orDash(string(p.Status)), format.DateAt(p.CreatedAt, dates, now))
	} else if t, ok := node.Task(); ok {
		due := "—"
		if t.DueDate != nil {
			due = format.DateAt(*t.DueDate, dates, now)
		}
		sb.WriteString("| Task | Status | Due |\n|---|---|---|\n")
		fmt.Fprintf(&sb, "| %s | %s | %s |\n\n", t.Title, orDash(string(t.Status)), due)
	}

	c := hierarchy.Count([]*hierarchy.TreeNode{node})
	fmt.Fprintf(&sb, "**Contents:** %d projects, %d tasks, %d files (%s), %d favorites\n\n",
		c.Projects, c.Tasks, c.Files, format.FileSize(c.Bytes), c.Favorites)

	if d != nil {
		if kind, id, ok := node.EntityRef(); ok {
			writeComments(&sb, comments.BuildThreads(d.CommentsFor(kind, id)), dates, now)
		}
	}
	return sb.String()
}

func writeFileDetail(sb *strings.Builder, node *hierarchy.TreeNode, dates format.DateOptions, now time.Time) {
	f := node.File
	star := ""
	if f.IsFavorite {
		star = " ★"
	}
	fmt.Fprintf(sb, "# %s%s\n\n", node.Name, star)
	sb.WriteString("| Type | Size | Uploaded |\n|---|---|---|\n")
	fmt.Fprintf(sb, "| %s | %s | %s |\n\n", orDash(f.FileType), format.FileSize(f.FileSize), format.DateAt(f.UploadDate, dates, now))
	fmt.Fprintf(sb, "**Path:** `%s`\n\n", f.Path)
	if f.URL != "" {
		fmt.Fprintf(sb, "**URL:** %s\n\n", f.URL)
	}
	sb.WriteString("`" + fileActions + "`\n")
}

// previewMarkdown renders a fetched file: the text preview first, then the
// file's details.
func previewMarkdown(node *hierarchy.TreeNode, res FileResultMsg, dates format.DateOptions, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n**Local copy:** `%s`\n\n", res.Attachment.FileName, res.Path)
	if res.Preview != "" {
		fence := "```"
		for strings.Contains(res.Preview, fence) {
			fence += "`"
		}
		sb.WriteString(fence + "\n" + res.Preview)
		if !strings.HasSuffix(res.Preview, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(fence + "\n\n")
	}
	if node != nil && node.IsFile() {
		sb.WriteString("---\n\n")
		writeFileDetail(&sb, node, dates, now)
	}
	return sb.String()
}

func writeComments(sb *strings.Builder, threads []*comments.Thread, dates format.DateOptions, now time.Time) {
	if len(threads) == 0 {
		return
	}
	fmt.Fprintf(sb, "### Comments (%d)\n\n", comments.Count(threads))
	var walk func(t *comments.Thread, depth int)
	walk = func(t *comments.Thread, depth int) {
		quote := strings.Repeat(">", depth+1) + " "
		fmt.Fprintf(sb, "%s**%s** (%s)\n%s\n", quote, t.Comment.Author, format.DateAt(t.Comment.CreatedAt, dates, now), strings.TrimSpace(quote))
		fmt.Fprintf(sb, "%s%s\n\n", quote, strings.ReplaceAll(t.Comment.Text, "\n", "\n"+quote))
		for _, r := range t.Replies {
			walk(r, depth+1)
		}
	}
	for _, t := range threads {
		walk(t, 0)
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
