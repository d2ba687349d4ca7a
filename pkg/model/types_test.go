package model

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestEntityType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		kind EntityType
		want bool
	}{
		{"Client", EntityClient, true},
		{"Project", EntityProject, true},
		{"Task", EntityTask, true},
		{"File", "file", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("EntityType.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status ProjectStatus
		want   bool
	}{
		{"Planning", ProjectPlanning, true},
		{"Active", ProjectActive, true},
		{"OnHold", ProjectOnHold, true},
		{"Completed", ProjectCompleted, true},
		{"Invalid", "archived", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("ProjectStatus.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"Todo", TaskTodo, true},
		{"InProgress", TaskInProgress, true},
		{"Review", TaskReview, true},
		{"Done", TaskDone, true},
		{"Invalid", "blocked", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("TaskStatus.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttachment_Validate(t *testing.T) {
	valid := Attachment{ID: 1, Type: EntityTask, EntityID: 100, FileName: "logo.png", FileSize: 10}

	tests := []struct {
		name    string
		mutate  func(a *Attachment)
		wantErr string
	}{
		{"Valid", func(a *Attachment) {}, ""},
		{"MissingID", func(a *Attachment) { a.ID = 0 }, "ID cannot be empty"},
		{"BadType", func(a *Attachment) { a.Type = "folder" }, "invalid attachment type"},
		{"MissingName", func(a *Attachment) { a.FileName = "" }, "file_name"},
		{"NegativeSize", func(a *Attachment) { a.FileSize = -1 }, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDataset_ValidateReportsIndex(t *testing.T) {
	d := Dataset{
		Clients:  []Client{{ID: 1, Name: "Acme"}},
		Projects: []Project{{ID: 10, Name: "Website"}, {ID: 11}},
	}
	err := d.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "projects[1]") {
		t.Errorf("expected error to name projects[1], got %v", err)
	}
}

func TestDataset_CommentsFor(t *testing.T) {
	d := Dataset{Comments: []Comment{
		{ID: 1, EntityType: EntityTask, EntityID: 100, Text: "a"},
		{ID: 2, EntityType: EntityProject, EntityID: 100, Text: "b"},
		{ID: 3, EntityType: EntityTask, EntityID: 100, Text: "c"},
	}}

	got := d.CommentsFor(EntityTask, 100)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("CommentsFor(task, 100) = %+v, want ids [1 3]", got)
	}
}

func TestAttachmentJSONFieldNames(t *testing.T) {
	a := Attachment{
		ID: 1000, Type: EntityTask, EntityID: 100, FileName: "logo.png",
		FileType: "image/png", FileSize: 2048,
		UploadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsFavorite: true,
	}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, field := range []string{`"entity_id":100`, `"file_name":"logo.png"`, `"isFavorite":true`, `"type":"task"`} {
		if !strings.Contains(s, field) {
			t.Errorf("expected %s in %s", field, s)
		}
	}
}
