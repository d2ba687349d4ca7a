package hierarchy

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/contentcrush/crush/pkg/model"
)

// shapeNode is the structural projection used to compare forests.
type shapeNode struct {
	ID       string
	Name     string
	Kind     NodeKind
	Children []shapeNode
}

func shape(forest []*TreeNode) []shapeNode {
	out := make([]shapeNode, 0, len(forest))
	for _, n := range forest {
		out = append(out, shapeNode{ID: n.ID, Name: n.Name, Kind: n.Kind, Children: shape(n.Children)})
	}
	return out
}

func acmeDataset() ([]model.Client, []model.Project, []model.Task, []model.Attachment) {
	clients := []model.Client{{ID: 1, Name: "Acme"}}
	projects := []model.Project{{ID: 10, Name: "Website", ClientID: model.Ref(1)}}
	tasks := []model.Task{{ID: 100, Title: "Design", ProjectID: model.Ref(10)}}
	attachments := []model.Attachment{{
		ID: 1000, Type: model.EntityTask, EntityID: 100,
		FileName: "logo.png", FileType: "image/png", FileSize: 2048,
		UploadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	return clients, projects, tasks, attachments
}

// TestBuildEmpty verifies Build handles empty collections
func TestBuildEmpty(t *testing.T) {
	forest := Build(nil, nil, nil, nil)
	if len(forest) != 0 {
		t.Errorf("expected 0 roots, got %d", len(forest))
	}
}

// TestBuildExampleScenario is the Acme → Website → Design → logo.png example.
func TestBuildExampleScenario(t *testing.T) {
	clients, projects, tasks, attachments := acmeDataset()
	forest := Build(clients, projects, tasks, attachments)

	want := []shapeNode{{
		ID: "client-1", Name: "Acme", Kind: KindClient,
		Children: []shapeNode{{
			ID: "project-10", Name: "Website", Kind: KindProject,
			Children: []shapeNode{{
				ID: "task-100", Name: "Design", Kind: KindTask,
				Children: []shapeNode{{ID: "file-1000-task", Name: "logo.png", Kind: KindFile, Children: []shapeNode{}}},
			}},
		}},
	}}
	if diff := cmp.Diff(want, shape(forest)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}

	file := forest[0].Children[0].Children[0].Children[0]
	if file.File == nil {
		t.Fatal("expected file info on file node")
	}
	if file.File.Category != CategoryImage {
		t.Errorf("category = %s, want image", file.File.Category)
	}
	if file.File.Path != "Acme/Website/Design/logo.png" {
		t.Errorf("path = %q", file.File.Path)
	}
	if file.File.FileSize != 2048 {
		t.Errorf("size = %d, want 2048", file.File.FileSize)
	}
	if a, ok := file.Attachment(); !ok || a.ID != 1000 {
		t.Errorf("expected attachment origin 1000, got %v %v", a, ok)
	}
}

// TestBuildDanglingAttachmentDropped changes entity_id to an unknown task.
func TestBuildDanglingAttachmentDropped(t *testing.T) {
	clients, projects, tasks, attachments := acmeDataset()
	attachments[0].EntityID = 999

	forest, diags := BuildWithDiagnostics(clients, projects, tasks, attachments)

	task := forest[0].Children[0].Children[0]
	if task.ID != "task-100" {
		t.Fatalf("expected task-100, got %s", task.ID)
	}
	if len(task.Children) != 0 {
		t.Errorf("expected task-100 to have no children, got %d", len(task.Children))
	}
	if len(diags) != 1 || diags[0].Kind != DiagDanglingParent || diags[0].Ref != "task-999" {
		t.Errorf("expected one dangling_parent diagnostic for task-999, got %v", diags)
	}
}

// TestBuildOrphanProjectOmitted verifies projects with unknown clients vanish.
func TestBuildOrphanProjectOmitted(t *testing.T) {
	clients := []model.Client{{ID: 1, Name: "Acme"}}
	projects := []model.Project{
		{ID: 10, Name: "Website", ClientID: model.Ref(1)},
		{ID: 11, Name: "Ghost", ClientID: model.Ref(42)},
		{ID: 12, Name: "Loose"},
	}
	tasks := []model.Task{{ID: 100, Title: "Under ghost", ProjectID: model.Ref(11)}}
	attachments := []model.Attachment{{ID: 5, Type: model.EntityProject, EntityID: 11, FileName: "x.pdf"}}

	forest, diags := BuildWithDiagnostics(clients, projects, tasks, attachments)

	if len(forest) != 1 {
		t.Fatalf("expected 1 root, got %d", len(forest))
	}
	idx := Index(forest)
	for _, id := range []string{"project-11", "project-12", "task-100", "file-5-project"} {
		if _, ok := idx[id]; ok {
			t.Errorf("expected %s to be unreachable", id)
		}
	}
	if _, ok := idx["project-10"]; !ok {
		t.Error("expected project-10 to be reachable")
	}

	kinds := map[DiagnosticKind]int{}
	for _, d := range diags {
		kinds[d.Kind]++
	}
	if kinds[DiagDanglingParent] != 1 || kinds[DiagNoParent] != 1 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

// TestBuildChildOrderFollowsInput verifies children are not re-sorted
func TestBuildChildOrderFollowsInput(t *testing.T) {
	clients := []model.Client{{ID: 1, Name: "Acme"}}
	projects := []model.Project{
		{ID: 30, Name: "Zeta", ClientID: model.Ref(1)},
		{ID: 10, Name: "Alpha", ClientID: model.Ref(1)},
		{ID: 20, Name: "Mid", ClientID: model.Ref(1)},
	}
	attachments := []model.Attachment{
		{ID: 2, Type: model.EntityClient, EntityID: 1, FileName: "b.txt"},
		{ID: 1, Type: model.EntityClient, EntityID: 1, FileName: "a.txt"},
	}

	forest := Build(clients, projects, nil, attachments)

	var got []string
	for _, child := range forest[0].Children {
		got = append(got, child.ID)
	}
	want := []string{"project-30", "project-10", "project-20", "file-2-client", "file-1-client"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("child order mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildNamespacedIDs verifies same numeric id across kinds never collides
func TestBuildNamespacedIDs(t *testing.T) {
	clients := []model.Client{{ID: 7, Name: "Seven"}}
	projects := []model.Project{{ID: 7, Name: "Seven P", ClientID: model.Ref(7)}}
	tasks := []model.Task{{ID: 7, Title: "Seven T", ProjectID: model.Ref(7)}}
	attachments := []model.Attachment{
		{ID: 7, Type: model.EntityClient, EntityID: 7, FileName: "c"},
		{ID: 7, Type: model.EntityProject, EntityID: 7, FileName: "p"},
		{ID: 7, Type: model.EntityTask, EntityID: 7, FileName: "t"},
	}

	forest := Build(clients, projects, tasks, attachments)

	seen := map[string]bool{}
	Walk(forest, func(n *TreeNode, _ int) bool {
		if seen[n.ID] {
			t.Errorf("duplicate node id %s", n.ID)
		}
		seen[n.ID] = true
		return true
	})
	if len(seen) != 6 {
		t.Errorf("expected 6 unique nodes, got %d", len(seen))
	}
}

// TestBuildUnknownAttachmentType verifies unknown types are dropped
func TestBuildUnknownAttachmentType(t *testing.T) {
	clients := []model.Client{{ID: 1, Name: "Acme"}}
	attachments := []model.Attachment{{ID: 1, Type: "folder", EntityID: 1, FileName: "x"}}

	forest, diags := BuildWithDiagnostics(clients, nil, nil, attachments)
	if len(forest[0].Children) != 0 {
		t.Errorf("expected no children, got %d", len(forest[0].Children))
	}
	if len(diags) != 1 || diags[0].Kind != DiagUnknownType {
		t.Errorf("expected unknown_type diagnostic, got %v", diags)
	}
}

// TestBuildDuplicateIDLastWriteWins verifies the later project receives tasks
func TestBuildDuplicateIDLastWriteWins(t *testing.T) {
	clients := []model.Client{{ID: 1, Name: "Acme"}}
	projects := []model.Project{
		{ID: 10, Name: "First", ClientID: model.Ref(1)},
		{ID: 10, Name: "Second", ClientID: model.Ref(1)},
	}
	tasks := []model.Task{{ID: 100, Title: "T", ProjectID: model.Ref(10)}}

	forest, diags := BuildWithDiagnostics(clients, projects, tasks, nil)

	children := forest[0].Children
	if len(children) != 2 {
		t.Fatalf("expected both project nodes appended, got %d", len(children))
	}
	if len(children[0].Children) != 0 || len(children[1].Children) != 1 {
		t.Errorf("expected task under the second project only")
	}
	if len(diags) != 1 || diags[0].Kind != DiagDuplicateID {
		t.Errorf("expected duplicate_id diagnostic, got %v", diags)
	}
}

// TestBuildDoesNotMutateInputs verifies the builder is pure
func TestBuildDoesNotMutateInputs(t *testing.T) {
	clients, projects, tasks, attachments := acmeDataset()
	before := []any{clients[0], projects[0], tasks[0], attachments[0]}

	Build(clients, projects, tasks, attachments)

	after := []any{clients[0], projects[0], tasks[0], attachments[0]}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("inputs mutated (-before +after):\n%s", diff)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: DiagDanglingParent, NodeID: "project-2", Ref: "client-9"}
	if got := d.String(); !strings.Contains(got, "project-2 -> client-9") {
		t.Errorf("String() = %q", got)
	}
	d = Diagnostic{Kind: DiagNoParent, NodeID: "task-1"}
	if got := d.String(); got != "no_parent: task-1" {
		t.Errorf("String() = %q", got)
	}
}

func TestEntityRef(t *testing.T) {
	clients, projects, tasks, attachments := acmeDataset()
	forest := Build(clients, projects, tasks, attachments)
	idx := Index(forest)

	tests := []struct {
		id     string
		kind   model.EntityType
		entity int64
		ok     bool
	}{
		{"client-1", model.EntityClient, 1, true},
		{"project-10", model.EntityProject, 10, true},
		{"task-100", model.EntityTask, 100, true},
		{"file-1000-task", "", 0, false},
	}
	for _, tt := range tests {
		kind, id, ok := idx[tt.id].EntityRef()
		if kind != tt.kind || id != tt.entity || ok != tt.ok {
			t.Errorf("EntityRef(%s) = (%s, %d, %v), want (%s, %d, %v)", tt.id, kind, id, ok, tt.kind, tt.entity, tt.ok)
		}
	}
}

func TestCount(t *testing.T) {
	clients, projects, tasks, attachments := acmeDataset()
	attachments = append(attachments, model.Attachment{
		ID: 1001, Type: model.EntityClient, EntityID: 1, FileName: "brief.pdf", FileSize: 100, IsFavorite: true,
	})
	got := Count(Build(clients, projects, tasks, attachments))
	want := Counts{Clients: 1, Projects: 1, Tasks: 1, Files: 2, Favorites: 1, Bytes: 2148}
	if got != want {
		t.Errorf("Count() = %+v, want %+v", got, want)
	}
}
