package hierarchy

import (
	"fmt"

	"github.com/contentcrush/crush/pkg/model"
)

// DiagnosticKind classifies a row the builder could not place in the forest.
type DiagnosticKind string

const (
	DiagDanglingParent DiagnosticKind = "dangling_parent" // Parent id does not resolve
	DiagNoParent       DiagnosticKind = "no_parent"       // Project/task without a parent id
	DiagUnknownType    DiagnosticKind = "unknown_type"    // Attachment type is not client/project/task
	DiagDuplicateID    DiagnosticKind = "duplicate_id"    // Later entity overwrote an earlier one
)

// Diagnostic describes one omitted or overwritten row. The forest itself is
// unaffected by diagnostics; they only report what was silently dropped.
type Diagnostic struct {
	Kind   DiagnosticKind
	NodeID string // Node that was dropped or overwritten
	Ref    string // Unresolved reference, e.g. "client-7"
}

func (d Diagnostic) String() string {
	if d.Ref == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.NodeID)
	}
	return fmt.Sprintf("%s: %s -> %s", d.Kind, d.NodeID, d.Ref)
}

// ClientNodeID returns the namespaced node id of a client.
func ClientNodeID(id int64) string { return fmt.Sprintf("client-%d", id) }

// ProjectNodeID returns the namespaced node id of a project.
func ProjectNodeID(id int64) string { return fmt.Sprintf("project-%d", id) }

// TaskNodeID returns the namespaced node id of a task.
func TaskNodeID(id int64) string { return fmt.Sprintf("task-%d", id) }

// FileNodeID returns the namespaced node id of an attachment.
func FileNodeID(id int64, kind model.EntityType) string {
	return fmt.Sprintf("file-%d-%s", id, kind)
}

// Build assembles the forest from the four collections. Roots are exactly the
// clients, in input order. Projects, tasks and attachments whose parent does
// not resolve are omitted.
//
// Build is pure: the inputs are read but never modified, and the returned
// nodes point back into the input slices through their Origin.
func Build(clients []model.Client, projects []model.Project, tasks []model.Task, attachments []model.Attachment) []*TreeNode {
	forest, _ := BuildWithDiagnostics(clients, projects, tasks, attachments)
	return forest
}

// BuildDataset is Build over a Dataset snapshot.
func BuildDataset(d *model.Dataset) []*TreeNode {
	if d == nil {
		return nil
	}
	return Build(d.Clients, d.Projects, d.Tasks, d.Attachments)
}

// BuildWithDiagnostics is Build plus a list of everything that was dropped or
// overwritten along the way.
func BuildWithDiagnostics(clients []model.Client, projects []model.Project, tasks []model.Task, attachments []model.Attachment) ([]*TreeNode, []Diagnostic) {
	var diags []Diagnostic

	// Paths are only needed for file nodes, keyed by node id.
	paths := make(map[string]string, len(clients)+len(projects)+len(tasks))

	// Phase 1: clients. Every client yields exactly one root.
	roots := make([]*TreeNode, 0, len(clients))
	clientNodes := make(map[int64]*TreeNode, len(clients))
	for i := range clients {
		c := &clients[i]
		node := &TreeNode{
			ID:     ClientNodeID(c.ID),
			Name:   c.Name,
			Kind:   KindClient,
			Origin: ClientOrigin{Client: c},
		}
		if _, dup := clientNodes[c.ID]; dup {
			diags = append(diags, Diagnostic{Kind: DiagDuplicateID, NodeID: node.ID})
		}
		clientNodes[c.ID] = node
		paths[node.ID] = c.Name
		roots = append(roots, node)
	}

	// Phase 2: projects, appended to their client when it resolves.
	projectNodes := make(map[int64]*TreeNode, len(projects))
	for i := range projects {
		p := &projects[i]
		node := &TreeNode{
			ID:     ProjectNodeID(p.ID),
			Name:   p.Name,
			Kind:   KindProject,
			Origin: ProjectOrigin{Project: p},
		}
		if _, dup := projectNodes[p.ID]; dup {
			diags = append(diags, Diagnostic{Kind: DiagDuplicateID, NodeID: node.ID})
		}
		projectNodes[p.ID] = node
		paths[node.ID] = p.Name

		if p.ClientID == nil {
			diags = append(diags, Diagnostic{Kind: DiagNoParent, NodeID: node.ID})
			continue
		}
		parent, ok := clientNodes[*p.ClientID]
		if !ok {
			diags = append(diags, Diagnostic{Kind: DiagDanglingParent, NodeID: node.ID, Ref: ClientNodeID(*p.ClientID)})
			continue
		}
		parent.Children = append(parent.Children, node)
		paths[node.ID] = paths[parent.ID] + "/" + p.Name
	}

	// Phase 3: tasks, appended to their project when it resolves. A project
	// that was itself dropped still receives its tasks; they stay unreachable.
	taskNodes := make(map[int64]*TreeNode, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		node := &TreeNode{
			ID:     TaskNodeID(t.ID),
			Name:   t.Title,
			Kind:   KindTask,
			Origin: TaskOrigin{Task: t},
		}
		if _, dup := taskNodes[t.ID]; dup {
			diags = append(diags, Diagnostic{Kind: DiagDuplicateID, NodeID: node.ID})
		}
		taskNodes[t.ID] = node
		paths[node.ID] = t.Title

		if t.ProjectID == nil {
			diags = append(diags, Diagnostic{Kind: DiagNoParent, NodeID: node.ID})
			continue
		}
		parent, ok := projectNodes[*t.ProjectID]
		if !ok {
			diags = append(diags, Diagnostic{Kind: DiagDanglingParent, NodeID: node.ID, Ref: ProjectNodeID(*t.ProjectID)})
			continue
		}
		parent.Children = append(parent.Children, node)
		paths[node.ID] = paths[parent.ID] + "/" + t.Title
	}

	// Phase 4: attachments, routed by (type, entity_id).
	for i := range attachments {
		a := &attachments[i]
		id := FileNodeID(a.ID, a.Type)

		var parent *TreeNode
		var ok bool
		switch a.Type {
		case model.EntityClient:
			parent, ok = clientNodes[a.EntityID]
		case model.EntityProject:
			parent, ok = projectNodes[a.EntityID]
		case model.EntityTask:
			parent, ok = taskNodes[a.EntityID]
		default:
			diags = append(diags, Diagnostic{Kind: DiagUnknownType, NodeID: id, Ref: string(a.Type)})
			continue
		}
		if !ok {
			diags = append(diags, Diagnostic{
				Kind:   DiagDanglingParent,
				NodeID: id,
				Ref:    fmt.Sprintf("%s-%d", a.Type, a.EntityID),
			})
			continue
		}

		parent.Children = append(parent.Children, &TreeNode{
			ID:   id,
			Name: a.FileName,
			Kind: KindFile,
			File: &FileInfo{
				FileType:   a.FileType,
				FileSize:   a.FileSize,
				UploadDate: a.UploadedAt,
				Path:       paths[parent.ID] + "/" + a.FileName,
				URL:        a.FileURL,
				IsFavorite: a.IsFavorite,
				Category:   CategoryForMIME(a.FileType),
			},
			Origin: FileOrigin{Attachment: a},
		})
	}

	return roots, diags
}
