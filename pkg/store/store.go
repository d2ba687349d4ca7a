// Package store persists clients, projects, tasks, attachments and comments
// in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/contentcrush/crush/pkg/model"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

// Store is a SQLite-backed entity store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("opened store", zap.String("path", path))
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	clients := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	// client_id is not a foreign key; dangling references are valid data.
	projects := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		client_id INTEGER,
		status TEXT NOT NULL DEFAULT 'planning',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);
	`

	tasks := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		project_id INTEGER,
		status TEXT NOT NULL DEFAULT 'todo',
		due_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	`

	attachments := `
	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		uploaded_at TEXT NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		is_favorite INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_entity ON attachments(type, entity_id);
	`

	comments := `
	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_type TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		parent_id INTEGER,
		author TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_entity ON comments(entity_type, entity_id);
	`

	for _, table := range []string{clients, projects, tasks, attachments, comments} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadDataset reads every collection concurrently and returns them as one
// snapshot.
func (s *Store) LoadDataset(ctx context.Context) (*model.Dataset, error) {
	var d model.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { d.Clients, err = s.Clients(ctx); return })
	g.Go(func() (err error) { d.Projects, err = s.Projects(ctx); return })
	g.Go(func() (err error) { d.Tasks, err = s.Tasks(ctx); return })
	g.Go(func() (err error) { d.Attachments, err = s.Attachments(ctx); return })
	g.Go(func() (err error) { d.Comments, err = s.Comments(ctx); return })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	s.logger.Debug("loaded dataset",
		zap.Int("clients", len(d.Clients)),
		zap.Int("projects", len(d.Projects)),
		zap.Int("tasks", len(d.Tasks)),
		zap.Int("attachments", len(d.Attachments)),
		zap.Int("comments", len(d.Comments)),
	)
	return &d, nil
}

// Clients returns every client ordered by id.
func (s *Store) Clients(ctx context.Context) ([]model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, company, created_at FROM clients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &created); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Projects returns every project ordered by id.
func (s *Store) Projects(ctx context.Context) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, client_id, status, created_at FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var clientID sql.NullInt64
		var status, created string
		if err := rows.Scan(&p.ID, &p.Name, &clientID, &status, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.ClientID = nullableID(clientID)
		p.Status = model.ProjectStatus(status)
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Tasks returns every task ordered by id.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, title, project_id, status, due_date FROM tasks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		var projectID sql.NullInt64
		var status string
		var due sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &projectID, &status, &due); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.ProjectID = nullableID(projectID)
		t.Status = model.TaskStatus(status)
		if due.Valid {
			d := parseTime(due.String)
			t.DueDate = &d
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const attachmentColumns = "id, type, entity_id, file_name, file_type, file_size, uploaded_at, file_url, is_favorite"

func scanAttachment(sc interface{ Scan(...any) error }) (model.Attachment, error) {
	var a model.Attachment
	var kind, uploaded string
	if err := sc.Scan(&a.ID, &kind, &a.EntityID, &a.FileName, &a.FileType, &a.FileSize, &uploaded, &a.FileURL, &a.IsFavorite); err != nil {
		return a, err
	}
	a.Type = model.EntityType(kind)
	a.UploadedAt = parseTime(uploaded)
	return a, nil
}

// Attachments returns every attachment ordered by id.
func (s *Store) Attachments(ctx context.Context) ([]model.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+attachmentColumns+" FROM attachments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var out []model.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Attachment returns one attachment by id.
func (s *Store) Attachment(ctx context.Context, id int64) (*model.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+attachmentColumns+" FROM attachments WHERE id = ?", id)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("attachment %d: %w", id, err)
	}
	return &a, nil
}

// Comments returns every comment ordered by id.
func (s *Store) Comments(ctx context.Context) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, entity_type, entity_id, parent_id, author, text, created_at FROM comments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		var kind, created string
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &kind, &c.EntityID, &parent, &c.Author, &c.Text, &created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.EntityType = model.EntityType(kind)
		c.ParentID = nullableID(parent)
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetFavorite stars or unstars an attachment.
func (s *Store) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE attachments SET is_favorite = ? WHERE id = ?", favorite, id)
	if err != nil {
		return fmt.Errorf("set favorite %d: %w", id, err)
	}
	return requireRow(res, "attachment", id)
}

// DeleteAttachment removes an attachment.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete attachment %d: %w", id, err)
	}
	return requireRow(res, "attachment", id)
}

// CreateClient inserts c and sets its ID (and CreatedAt when zero).
func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO clients (name, email, company, created_at) VALUES (?, ?, ?, ?)",
		c.Name, c.Email, c.Company, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// CreateProject inserts p and sets its ID.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if p.Status == "" {
		p.Status = model.ProjectPlanning
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (name, client_id, status, created_at) VALUES (?, ?, ?, ?)",
		p.Name, nullInt(p.ClientID), string(p.Status), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// CreateTask inserts t and sets its ID.
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (title, project_id, status, due_date) VALUES (?, ?, ?, ?)",
		t.Title, nullInt(t.ProjectID), string(t.Status), nullTime(t.DueDate))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// AddAttachment inserts a and sets its ID. The owning entity is not checked.
func (s *Store) AddAttachment(ctx context.Context, a *model.Attachment) error {
	if !a.Type.IsValid() {
		return fmt.Errorf("add attachment: invalid type %q", a.Type)
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO attachments (type, entity_id, file_name, file_type, file_size, uploaded_at, file_url, is_favorite) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		string(a.Type), a.EntityID, a.FileName, a.FileType, a.FileSize, formatTime(a.UploadedAt), a.FileURL, a.IsFavorite)
	if err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// AddComment inserts c and sets its ID.
func (s *Store) AddComment(ctx context.Context, c *model.Comment) error {
	if !c.EntityType.IsValid() {
		return fmt.Errorf("add comment: invalid entity type %q", c.EntityType)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (entity_type, entity_id, parent_id, author, text, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(c.EntityType), c.EntityID, nullInt(c.ParentID), c.Author, c.Text, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// Seed inserts every row of d, keeping the ids it already has. It runs in a
// single transaction; on error nothing is written.
func (s *Store) Seed(ctx context.Context, d *model.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range d.Clients {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO clients (id, name, email, company, created_at) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Email, c.Company, formatTime(orNow(c.CreatedAt, s.now))); err != nil {
			return fmt.Errorf("seed client %d: %w", c.ID, err)
		}
	}
	for _, p := range d.Projects {
		status := p.Status
		if status == "" {
			status = model.ProjectPlanning
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (id, name, client_id, status, created_at) VALUES (?, ?, ?, ?, ?)",
			p.ID, p.Name, nullInt(p.ClientID), string(status), formatTime(orNow(p.CreatedAt, s.now))); err != nil {
			return fmt.Errorf("seed project %d: %w", p.ID, err)
		}
	}
	for _, t := range d.Tasks {
		status := t.Status
		if status == "" {
			status = model.TaskTodo
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (id, title, project_id, status, due_date) VALUES (?, ?, ?, ?, ?)",
			t.ID, t.Title, nullInt(t.ProjectID), string(status), nullTime(t.DueDate)); err != nil {
			return fmt.Errorf("seed task %d: %w", t.ID, err)
		}
	}
	for _, a := range d.Attachments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO attachments (id, type, entity_id, file_name, file_type, file_size, uploaded_at, file_url, is_favorite) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			a.ID, string(a.Type), a.EntityID, a.FileName, a.FileType, a.FileSize, formatTime(orNow(a.UploadedAt, s.now)), a.FileURL, a.IsFavorite); err != nil {
			return fmt.Errorf("seed attachment %d: %w", a.ID, err)
		}
	}
	for _, c := range d.Comments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO comments (id, entity_type, entity_id, parent_id, author, text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.ID, string(c.EntityType), c.EntityID, nullInt(c.ParentID), c.Author, c.Text, formatTime(orNow(c.CreatedAt, s.now))); err != nil {
			return fmt.Errorf("seed comment %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.logger.Info("seeded store",
		zap.Int("clients", len(d.Clients)),
		zap.Int("attachments", len(d.Attachments)))
	return nil
}

func requireRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return model.Ref(v.Int64)
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func orNow(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t
}
