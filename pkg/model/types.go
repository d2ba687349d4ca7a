package model

import (
	"fmt"
	"time"
)

// Client is the top-level owner of projects and files.
type Client struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Company   string    `json:"company,omitempty" yaml:"company,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// Validate checks if the client data is logically valid
func (c *Client) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("client ID cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("client name cannot be empty")
	}
	return nil
}

// Project belongs to zero or one client.
type Project struct {
	ID        int64         `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	ClientID  *int64        `json:"client_id" yaml:"client_id"`
	Status    ProjectStatus `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// Validate checks if the project data is logically valid
func (p *Project) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("project ID cannot be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("invalid project status: %s", p.Status)
	}
	return nil
}

// ProjectStatus tracks where a project is in its lifecycle
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

// IsValid returns true if the status is a recognized value
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

// Task belongs to zero or one project.
type Task struct {
	ID        int64      `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	ProjectID *int64     `json:"project_id" yaml:"project_id"`
	Status    TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// Validate checks if the task data is logically valid
func (t *Task) Validate() error {
	if t.ID == 0 {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.Title == "" {
		return fmt.Errorf("task title cannot be empty")
	}
	if t.Status != "" && !t.Status.IsValid() {
		return fmt.Errorf("invalid task status: %s", t.Status)
	}
	return nil
}

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

// IsValid returns true if the status is a recognized value
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

// EntityType names the kind of entity an attachment or comment hangs off.
type EntityType string

const (
	EntityClient  EntityType = "client"
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
)

// IsValid returns true if the entity type is a recognized value
func (e EntityType) IsValid() bool {
	switch e {
	case EntityClient, EntityProject, EntityTask:
		return true
	}
	return false
}

// Attachment is an uploaded file attached to a client, project or task.
// Type discriminates which collection EntityID points into.
type Attachment struct {
	ID         int64      `json:"id" yaml:"id"`
	Type       EntityType `json:"type" yaml:"type"`
	EntityID   int64      `json:"entity_id" yaml:"entity_id"`
	FileName   string     `json:"file_name" yaml:"file_name"`
	FileType   string     `json:"file_type" yaml:"file_type"`
	FileSize   int64      `json:"file_size" yaml:"file_size"`
	UploadedAt time.Time  `json:"uploaded_at" yaml:"uploaded_at"`
	FileURL    string     `json:"file_url,omitempty" yaml:"file_url,omitempty"`
	IsFavorite bool       `json:"isFavorite" yaml:"is_favorite"`
}

// Validate checks if the attachment data is logically valid
func (a *Attachment) Validate() error {
	if a.ID == 0 {
		return fmt.Errorf("attachment ID cannot be empty")
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("invalid attachment type: %q", a.Type)
	}
	if a.FileName == "" {
		return fmt.Errorf("attachment file_name cannot be empty")
	}
	if a.FileSize < 0 {
		return fmt.Errorf("file_size (%d) cannot be negative", a.FileSize)
	}
	return nil
}

// Comment is a message in a discussion on a client, project or task.
// Replies point at their parent through ParentID.
type Comment struct {
	ID         int64      `json:"id" yaml:"id"`
	EntityType EntityType `json:"entity_type" yaml:"entity_type"`
	EntityID   int64      `json:"entity_id" yaml:"entity_id"`
	ParentID   *int64     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Author     string     `json:"author" yaml:"author"`
	Text       string     `json:"text" yaml:"text"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

// Dataset is a stable snapshot of every collection the browser consumes.
type Dataset struct {
	Clients     []Client     `json:"clients" yaml:"clients"`
	Projects    []Project    `json:"projects" yaml:"projects"`
	Tasks       []Task       `json:"tasks" yaml:"tasks"`
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
	Comments    []Comment    `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Validate runs Validate on every entity and returns the first failure.
// The tree builder never calls this; strict callers opt in.
func (d *Dataset) Validate() error {
	for i := range d.Clients {
		if err := d.Clients[i].Validate(); err != nil {
			return fmt.Errorf("clients[%d]: %w", i, err)
		}
	}
	for i := range d.Projects {
		if err := d.Projects[i].Validate(); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
	}
	for i := range d.Tasks {
		if err := d.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	for i := range d.Attachments {
		if err := d.Attachments[i].Validate(); err != nil {
			return fmt.Errorf("attachments[%d]: %w", i, err)
		}
	}
	return nil
}

// CommentsFor returns the comments attached to the given entity, in input order.
func (d *Dataset) CommentsFor(kind EntityType, id int64) []Comment {
	var out []Comment
	for _, c := range d.Comments {
		if c.EntityType == kind && c.EntityID == id {
			out = append(out, c)
		}
	}
	return out
}

// Ref returns a pointer to v. Handy for the nullable foreign keys.
func Ref(v int64) *int64 {
	return &v
}
