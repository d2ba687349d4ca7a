// Package analysis computes storage statistics over a hierarchy forest for
// the dashboard footer, `crush stats` and chart exports.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/contentcrush/crush/pkg/hierarchy"
)

// DefaultLargestLimit caps Stats.Largest.
const DefaultLargestLimit = 5

// ClientStats aggregates everything beneath one client node.
type ClientStats struct {
	NodeID    string `json:"node_id"`
	Name      string `json:"name"`
	Projects  int    `json:"projects"`
	Tasks     int    `json:"tasks"`
	Files     int    `json:"files"`
	Favorites int    `json:"favorites"`
	Bytes     int64  `json:"bytes"`
}

// CategoryStats aggregates files of one icon category.
type CategoryStats struct {
	Category hierarchy.FileCategory `json:"category"`
	Files    int                    `json:"files"`
	Bytes    int64                  `json:"bytes"`
}

// FileRef names a file node for reports.
type FileRef struct {
	NodeID string `json:"node_id"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

// Stats summarizes a forest.
type Stats struct {
	Counts     hierarchy.Counts `json:"counts"`
	Clients    []ClientStats    `json:"clients"`    // Bytes descending, then name
	Categories []CategoryStats  `json:"categories"` // Files descending, then category
	Largest    []FileRef        `json:"largest"`    // Bytes descending

	MeanFileSize   float64 `json:"mean_file_size"`
	StdDevFileSize float64 `json:"stddev_file_size"`
	MedianFileSize float64 `json:"median_file_size"`
}

// Compute walks the forest once per client and returns its statistics.
// Unreachable entities (dropped by the builder) are not counted.
func Compute(forest []*hierarchy.TreeNode) Stats {
	s := Stats{Counts: hierarchy.Count(forest)}

	var sizes []float64
	var files []FileRef
	byCategory := make(map[hierarchy.FileCategory]*CategoryStats)

	for _, root := range forest {
		cs := ClientStats{NodeID: root.ID, Name: root.Name}
		hierarchy.Walk([]*hierarchy.TreeNode{root}, func(node *hierarchy.TreeNode, _ int) bool {
			switch node.Kind {
			case hierarchy.KindProject:
				cs.Projects++
			case hierarchy.KindTask:
				cs.Tasks++
			case hierarchy.KindFile:
				if node.File == nil {
					return true
				}
				cs.Files++
				cs.Bytes += node.File.FileSize
				if node.File.IsFavorite {
					cs.Favorites++
				}
				sizes = append(sizes, float64(node.File.FileSize))
				files = append(files, FileRef{NodeID: node.ID, Path: node.File.Path, Bytes: node.File.FileSize})

				cat := byCategory[node.File.Category]
				if cat == nil {
					cat = &CategoryStats{Category: node.File.Category}
					byCategory[node.File.Category] = cat
				}
				cat.Files++
				cat.Bytes += node.File.FileSize
			}
			return true
		})
		s.Clients = append(s.Clients, cs)
	}

	sort.SliceStable(s.Clients, func(i, j int) bool {
		if s.Clients[i].Bytes != s.Clients[j].Bytes {
			return s.Clients[i].Bytes > s.Clients[j].Bytes
		}
		return s.Clients[i].Name < s.Clients[j].Name
	})

	for _, c := range byCategory {
		s.Categories = append(s.Categories, *c)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Files != s.Categories[j].Files {
			return s.Categories[i].Files > s.Categories[j].Files
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})

	sort.SliceStable(files, func(i, j int) bool { return files[i].Bytes > files[j].Bytes })
	if len(files) > DefaultLargestLimit {
		files = files[:DefaultLargestLimit]
	}
	s.Largest = files

	switch len(sizes) {
	case 0:
	case 1:
		s.MeanFileSize = sizes[0]
		s.MedianFileSize = sizes[0]
	default:
		s.MeanFileSize, s.StdDevFileSize = stat.MeanStdDev(sizes, nil)
		sort.Float64s(sizes)
		s.MedianFileSize = stat.Quantile(0.5, stat.Empirical, sizes, nil)
	}

	return s
}

// Share returns each client's fraction of the total bytes, in Clients order.
// All zeros when nothing is stored.
func (s Stats) Share() []float64 {
	out := make([]float64, len(s.Clients))
	if s.Counts.Bytes == 0 {
		return out
	}
	for i, c := range s.Clients {
		out[i] = float64(c.Bytes) / float64(s.Counts.Bytes)
	}
	return out
}
