// Package hierarchy assembles the client → project → task → file forest
// shown by the file browser.
package hierarchy

import (
	"time"

	"github.com/contentcrush/crush/pkg/model"
)

// NodeKind identifies what a TreeNode stands for.
type NodeKind string

const (
	KindClient  NodeKind = "client"
	KindProject NodeKind = "project"
	KindTask    NodeKind = "task"
	KindFile    NodeKind = "file"
)

// TreeNode is one entry of the forest. IDs are namespaced by kind so that
// entities of different kinds sharing a numeric id never collide.
type TreeNode struct {
	ID       string      // "client-1", "project-10", "task-100", "file-1000-task"
	Name     string      // Display name (client/project name, task title, file name)
	Kind     NodeKind    // client, project, task or file
	Children []*TreeNode // Input order; always nil for file nodes
	File     *FileInfo   // Only set for file nodes
	Origin   Origin      // Source entity, for lookup only
}

// FileInfo holds the file-only attributes of a TreeNode.
type FileInfo struct {
	FileType   string       // MIME type
	FileSize   int64        // Bytes
	UploadDate time.Time    // When the file was uploaded
	Path       string       // "Client/Project/Task/file.ext"
	URL        string       // Where the file can be fetched from
	IsFavorite bool         // Starred by the user
	Category   FileCategory // Icon category resolved from FileType
}

// IsFile reports whether the node is a file leaf.
func (n *TreeNode) IsFile() bool {
	return n != nil && n.Kind == KindFile
}

// HasChildren reports whether the node has at least one child.
func (n *TreeNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Origin is the back-reference from a node to the entity it was built from.
// It is a closed set: ClientOrigin, ProjectOrigin, TaskOrigin, FileOrigin.
type Origin interface {
	Kind() NodeKind
	isOrigin()
}

// ClientOrigin points at the client a node was built from.
type ClientOrigin struct{ Client *model.Client }

// ProjectOrigin points at the project a node was built from.
type ProjectOrigin struct{ Project *model.Project }

// TaskOrigin points at the task a node was built from.
type TaskOrigin struct{ Task *model.Task }

// FileOrigin points at the attachment a file node was built from.
type FileOrigin struct{ Attachment *model.Attachment }

func (ClientOrigin) Kind() NodeKind  { return KindClient }
func (ProjectOrigin) Kind() NodeKind { return KindProject }
func (TaskOrigin) Kind() NodeKind    { return KindTask }
func (FileOrigin) Kind() NodeKind    { return KindFile }

func (ClientOrigin) isOrigin()  {}
func (ProjectOrigin) isOrigin() {}
func (TaskOrigin) isOrigin()    {}
func (FileOrigin) isOrigin()    {}

// Client returns the source client if this is a client node.
func (n *TreeNode) Client() (*model.Client, bool) {
	if o, ok := n.Origin.(ClientOrigin); ok && o.Client != nil {
		return o.Client, true
	}
	return nil, false
}

// Project returns the source project if this is a project node.
func (n *TreeNode) Project() (*model.Project, bool) {
	if o, ok := n.Origin.(ProjectOrigin); ok && o.Project != nil {
		return o.Project, true
	}
	return nil, false
}

// Task returns the source task if this is a task node.
func (n *TreeNode) Task() (*model.Task, bool) {
	if o, ok := n.Origin.(TaskOrigin); ok && o.Task != nil {
		return o.Task, true
	}
	return nil, false
}

// Attachment returns the source attachment if this is a file node.
func (n *TreeNode) Attachment() (*model.Attachment, bool) {
	if o, ok := n.Origin.(FileOrigin); ok && o.Attachment != nil {
		return o.Attachment, true
	}
	return nil, false
}

// EntityRef returns the entity type and id behind a client, project or task
// node. ok is false for file nodes.
func (n *TreeNode) EntityRef() (kind model.EntityType, id int64, ok bool) {
	switch o := n.Origin.(type) {
	case ClientOrigin:
		return model.EntityClient, o.Client.ID, true
	case ProjectOrigin:
		return model.EntityProject, o.Project.ID, true
	case TaskOrigin:
		return model.EntityTask, o.Task.ID, true
	}
	return "", 0, false
}
