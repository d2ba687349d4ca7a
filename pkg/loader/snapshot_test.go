package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/model"
)

func sampleDataset() *model.Dataset {
	at := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	return &model.Dataset{
		Clients:  []model.Client{{ID: 1, Name: "Acme", CreatedAt: at}},
		Projects: []model.Project{{ID: 10, Name: "Website", ClientID: model.Ref(1), Status: model.ProjectActive, CreatedAt: at}},
		Tasks:    []model.Task{{ID: 100, Title: "Design", ProjectID: model.Ref(10), Status: model.TaskTodo, DueDate: &at}},
		Attachments: []model.Attachment{
			{ID: 1000, Type: model.EntityTask, EntityID: 100, FileName: "logo.png", FileType: "image/png", FileSize: 2048, UploadedAt: at, IsFavorite: true},
		},
		Comments: []model.Comment{
			{ID: 1, EntityType: model.EntityTask, EntityID: 100, Author: "sam", Text: "hi", CreatedAt: at},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"snap.json", "snap.jsonc", "snap.yaml", "snap.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			want := sampleDataset()

			require.NoError(t, Save(path, want))
			got, err := Load(path)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeJSONWireNames(t *testing.T) {
	doc := `{
		"clients": [{"id": 1, "name": "Acme"}],
		"projects": [{"id": 10, "name": "Website", "client_id": null}],
		"tasks": [],
		"attachments": [{"id": 5, "type": "client", "entity_id": 1, "file_name": "a.pdf",
			"file_type": "application/pdf", "file_size": 3, "uploaded_at": "2024-01-01T00:00:00Z", "isFavorite": true}]
	}`

	d, err := Decode([]byte(doc), FormatJSON)
	require.NoError(t, err)

	require.Len(t, d.Projects, 1)
	assert.Nil(t, d.Projects[0].ClientID)
	require.Len(t, d.Attachments, 1)
	assert.True(t, d.Attachments[0].IsFavorite)
	assert.Equal(t, model.EntityClient, d.Attachments[0].Type)
}

func TestDecodeJSONCComments(t *testing.T) {
	doc := `// exported by hand
	{
		"clients": [
			{"id": 1, "name": "Acme"}, // trailing comma below
		],
	}`

	d, err := Decode([]byte(doc), FormatJSONC)
	require.NoError(t, err)
	require.Len(t, d.Clients, 1)
	assert.Equal(t, "Acme", d.Clients[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("{"), FormatJSON)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = Decode([]byte("{/* open"), FormatJSONC)
	assert.ErrorContains(t, err, "invalid JSONC")

	_, err = Decode([]byte("clients: [\n"), FormatYAML)
	assert.ErrorContains(t, err, "invalid YAML")

	_, err = Decode(nil, Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":  FormatJSON,
		"a.JSONC": FormatJSONC,
		"a.yaml":  FormatYAML,
		"a.yml":   FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("a.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeJSONCHeader(t *testing.T) {
	data, err := Encode(sampleDataset(), FormatJSONC)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// crush dataset snapshot")
}

func TestSourceLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yaml")
	require.NoError(t, Save(path, sampleDataset()))

	src := NewSource(path)
	assert.Equal(t, path, src.Path())

	d, err := src.LoadDataset(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.Clients, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.LoadDataset(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeAcmeExampleAcrossFormats(t *testing.T) {
	docs := map[Format]string{
		FormatJSON: `{
			"clients": [{"id": 1, "name": "Acme"}],
			"projects": [{"id": 10, "name": "Website", "client_id": 1}],
			"tasks": [{"id": 100, "title": "Design", "project_id": 10}],
			"attachments": [{"id": 1000, "type": "task", "entity_id": 100, "file_name": "logo.png",
				"file_type": "image/png", "file_size": 2048, "uploaded_at": "2024-01-01"}]
		}`,
		FormatJSONC: `{
			// date-only upload time
			"clients": [{"id": 1, "name": "Acme"}],
			"projects": [{"id": 10, "name": "Website", "client_id": 1}],
			"tasks": [{"id": 100, "title": "Design", "project_id": 10, "due_date": "2024-02-01"}],
			"attachments": [{"id": 1000, "type": "task", "entity_id": 100, "file_name": "logo.png",
				"file_type": "image/png", "file_size": 2048, "uploaded_at": "2024-01-01",}],
		}`,
		FormatYAML: `
clients: [{id: 1, name: Acme}]
projects: [{id: 10, name: Website, client_id: 1}]
tasks: [{id: 100, title: Design, project_id: 10}]
attachments:
  - {id: 1000, type: task, entity_id: 100, file_name: logo.png, file_type: image/png, file_size: 2048, uploaded_at: 2024-01-01}
`,
	}
	for f, doc := range docs {
		t.Run(string(f), func(t *testing.T) {
			d, err := Decode([]byte(doc), f)
			require.NoError(t, err)
			require.Len(t, d.Attachments, 1)
			assert.True(t, d.Attachments[0].UploadedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
				"uploaded_at = %v", d.Attachments[0].UploadedAt)

			forest := hierarchy.BuildDataset(d)
			require.Len(t, forest, 1)
			assert.Equal(t, "client-1", forest[0].ID)
			task := forest[0].Children[0].Children[0]
			assert.Equal(t, "task-100", task.ID)
			require.Len(t, task.Children, 1)
			assert.Equal(t, "file-1000-task", task.Children[0].ID)
			assert.Equal(t, hierarchy.CategoryImage, task.Children[0].File.Category)
		})
	}
}

func TestDecodeJSONCDueDate(t *testing.T) {
	doc := `{"tasks": [{"id": 1, "title": "a", "due_date": "2024-02-01"}, {"id": 2, "title": "b", "due_date": null}]}`
	d, err := Decode([]byte(doc), FormatJSONC)
	require.NoError(t, err)
	require.Len(t, d.Tasks, 2)
	require.NotNil(t, d.Tasks[0].DueDate)
	assert.Equal(t, "2024-02-01", d.Tasks[0].DueDate.Format(time.DateOnly))
	assert.Nil(t, d.Tasks[1].DueDate)
}

func TestDecodeBadTimestamp(t *testing.T) {
	doc := `{"clients": [{"id": 1, "name": "Acme", "created_at": "yesterday"}]}`
	_, err := Decode([]byte(doc), FormatJSON)
	assert.ErrorContains(t, err, "yesterday")
}

func TestDecodeNumericStringIDs(t *testing.T) {
	docs := map[Format]string{
		FormatJSON: `{
			"clients": [{"id": "1", "name": "Acme"}],
			"projects": [{"id": "10", "name": "Website", "client_id": "1"}],
			"tasks": [{"id": "100", "title": "Design", "project_id": "10"}],
			"attachments": [{"id": "1000", "type": "task", "entity_id": "100", "file_name": "logo.png"}],
			"comments": [{"id": "7", "entity_type": "task", "entity_id": "100", "parent_id": "6", "text": "hi"}]
		}`,
		FormatYAML: `
clients: [{id: "1", name: Acme}]
projects: [{id: "10", name: Website, client_id: "1"}]
tasks: [{id: "100", title: Design, project_id: "10"}]
attachments: [{id: "1000", type: task, entity_id: "100", file_name: logo.png}]
comments: [{id: "7", entity_type: task, entity_id: "100", parent_id: "6", text: hi}]
`,
	}
	for f, doc := range docs {
		t.Run(string(f), func(t *testing.T) {
			d, err := Decode([]byte(doc), f)
			require.NoError(t, err)
			assert.Equal(t, int64(1), d.Clients[0].ID)
			assert.Equal(t, model.Ref(1), d.Projects[0].ClientID)
			assert.Equal(t, model.Ref(10), d.Tasks[0].ProjectID)
			assert.Equal(t, int64(100), d.Attachments[0].EntityID)
			assert.Equal(t, model.Ref(6), d.Comments[0].ParentID)

			forest := hierarchy.BuildDataset(d)
			require.Len(t, forest, 1)
			assert.Equal(t, 1, hierarchy.Count(forest).Files)
		})
	}
}

func TestDecodeNonNumericIDRejected(t *testing.T) {
	_, err := Decode([]byte(`{"clients": [{"id": "acme", "name": "Acme"}]}`), FormatJSON)
	assert.ErrorContains(t, err, "not an integer")

	_, err = Decode([]byte("clients: [{id: acme, name: Acme}]\n"), FormatYAML)
	assert.ErrorContains(t, err, "invalid YAML")
}
