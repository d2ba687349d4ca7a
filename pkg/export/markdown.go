// Package export renders the hierarchy to files: a markdown report, dataset
// snapshots, and a storage-per-client bar chart in SVG or PNG.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
)

// MarkdownOptions controls the report header and date rendering.
type MarkdownOptions struct {
	Title string
	Now   time.Time
	Dates format.DateOptions
}

// GenerateMarkdown creates a report of the forest: summary, per-client
// storage table, and an outline of every client with its files.
func GenerateMarkdown(forest []*hierarchy.TreeNode, opts MarkdownOptions) string {
	if opts.Title == "" {
		opts.Title = "Content Crush Files"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	stats := analysis.Compute(forest)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", opts.Title)
	fmt.Fprintf(&sb, "Generated: %s\n\n", opts.Now.Format(time.RFC1123))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Clients**: %d\n", stats.Counts.Clients)
	fmt.Fprintf(&sb, "- **Projects**: %d\n", stats.Counts.Projects)
	fmt.Fprintf(&sb, "- **Tasks**: %d\n", stats.Counts.Tasks)
	fmt.Fprintf(&sb, "- **Files**: %d (%s)\n", stats.Counts.Files, format.FileSize(stats.Counts.Bytes))
	fmt.Fprintf(&sb, "- **Favorites**: %d\n\n", stats.Counts.Favorites)

	if len(stats.Clients) > 0 {
		sb.WriteString("## Storage by Client\n\n")
		sb.WriteString("| Client | Projects | Tasks | Files | Size |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, c := range stats.Clients {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %s |\n",
				escapeCell(c.Name), c.Projects, c.Tasks, c.Files, format.FileSize(c.Bytes))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")

	if len(forest) == 0 {
		sb.WriteString("_No clients to display._\n")
		return sb.String()
	}

	for _, root := range forest {
		fmt.Fprintf(&sb, "## %s\n\n", root.Name)
		if !root.HasChildren() {
			sb.WriteString("_Empty._\n\n")
			continue
		}
		for _, child := range root.Children {
			writeOutline(&sb, child, 0, opts.Dates, opts.Now)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeOutline(sb *strings.Builder, node *hierarchy.TreeNode, depth int, dates format.DateOptions, now time.Time) {
	indent := strings.Repeat("  ", depth)
	if node.IsFile() {
		star := ""
		if node.File.IsFavorite {
			star = " ★"
		}
		fmt.Fprintf(sb, "%s- `%s` (%s, %s)%s\n", indent, node.Name,
			format.FileSize(node.File.FileSize), format.DateAt(node.File.UploadDate, dates, now), star)
		return
	}
	fmt.Fprintf(sb, "%s- **%s** _(%s)_\n", indent, node.Name, node.Kind)
	for _, child := range node.Children {
		writeOutline(sb, child, depth+1, dates, now)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
