package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/export"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/ui"
)

func (a *app) newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the whole tree without the interactive browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			forest, diags := hierarchy.BuildWithDiagnostics(d.Clients, d.Projects, d.Tasks, d.Attachments)
			for _, diag := range diags {
				a.logger.Warn("row omitted from tree",
					zap.String("kind", string(diag.Kind)),
					zap.String("node", diag.NodeID),
					zap.String("ref", diag.Ref))
			}

			out := cmd.OutOrStdout()
			tree := ui.NewTreeModel(ui.DefaultTheme(lipgloss.NewRenderer(out)))
			tree.SetDateOptions(a.dateOptions())
			tree.Build(forest)
			_, err = io.WriteString(out, tree.RenderAll())
			return err
		},
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize storage per client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			stats := analysis.Compute(hierarchy.BuildDataset(d))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), renderStats(stats, lipgloss.NewRenderer(cmd.OutOrStdout())))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}

// renderStats formats the statistics as a summary line and two tables.
func renderStats(s analysis.Stats, r *lipgloss.Renderer) string {
	c := s.Counts
	var b strings.Builder
	fmt.Fprintf(&b, "%d clients, %d projects, %d tasks, %d files (%s), %d favorites\n",
		c.Clients, c.Projects, c.Tasks, c.Files, format.FileSize(c.Bytes), c.Favorites)
	if c.Files > 0 {
		fmt.Fprintf(&b, "file size: mean %s, median %s, stddev %s\n",
			format.FileSize(int64(s.MeanFileSize)),
			format.FileSize(int64(s.MedianFileSize)),
			format.FileSize(int64(s.StdDevFileSize)))
	}
	if len(s.Clients) == 0 {
		return b.String()
	}

	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	style := func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return header
		}
		return cell
	}

	clients := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(style).
		Headers("CLIENT", "PROJECTS", "TASKS", "FILES", "★", "SIZE")
	for _, cs := range s.Clients {
		clients.Row(cs.Name,
			fmt.Sprint(cs.Projects), fmt.Sprint(cs.Tasks), fmt.Sprint(cs.Files),
			fmt.Sprint(cs.Favorites), format.FileSize(cs.Bytes))
	}
	b.WriteString("\n")
	b.WriteString(clients.Render())
	b.WriteString("\n")

	if len(s.Largest) > 0 {
		largest := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(style).
			Headers("LARGEST FILES", "SIZE")
		for _, f := range s.Largest {
			largest.Row(f.Path, format.FileSize(f.Bytes))
		}
		b.WriteString("\n")
		b.WriteString(largest.Render())
		b.WriteString("\n")
	}
	return b.String()
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		formatName string
		outPath    string
		title      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report, snapshot or storage chart",
		Long: `Export the dataset in one of these formats:

  md          Markdown report: summary, storage table and the full tree
  json, jsonc, yaml
              Snapshot of every collection, readable with --source
  svg, png    Bar chart of storage per client

The format defaults to the extension of --out. Text formats go to stdout
when --out is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveExportFormat(formatName, outPath)
			if err != nil {
				return err
			}
			if outPath == "" && f == export.FormatPNG {
				return fmt.Errorf("png export needs --out")
			}

			d, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			opts := export.Options{Title: title, Now: time.Now(), Dates: a.dateOptions()}

			if outPath == "" {
				data, err := export.Render(d, f, opts)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := export.WriteFile(outPath, d, f, opts); err != nil {
				return err
			}
			a.logger.Info("exported", zap.String("path", outPath), zap.String("format", string(f)))
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "md, json, jsonc, yaml, svg or png")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	cmd.Flags().StringVar(&title, "title", "", "report or chart title")
	return cmd
}

// resolveExportFormat prefers an explicit --format, then the --out
// extension, then markdown.
func resolveExportFormat(name, out string) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	if out != "" {
		return export.FormatFromPath(out)
	}
	return export.FormatMarkdown, nil
}

func (a *app) dateOptions() format.DateOptions {
	return format.DateOptions{
		Layout:   a.cfg.Preferences.DateFormat,
		Relative: a.cfg.Preferences.RelativeDates,
	}
}
