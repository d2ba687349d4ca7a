package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// timestampLayouts are tried in order when decoding a Timestamp.
var timestampLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// Timestamp decodes a JSON time given in RFC 3339 form or as a bare
// YYYY-MM-DD date. Null and the empty string decode to the zero time.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with the layouts Timestamp accepts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: want RFC 3339 or YYYY-MM-DD", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	v, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// flexID decodes an id given as a JSON number or as a numeric string.
type flexID int64

func (id *flexID) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		raw = strings.TrimSpace(raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("id %s is not an integer", data)
	}
	*id = flexID(v)
	return nil
}

func (id *flexID) ref() *int64 {
	if id == nil {
		return nil
	}
	return Ref(int64(*id))
}

func (c *Client) UnmarshalJSON(data []byte) error {
	type plain Client
	var aux struct {
		plain
		ID        flexID    `json:"id"`
		CreatedAt Timestamp `json:"created_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Client(aux.plain)
	c.ID = int64(aux.ID)
	c.CreatedAt = aux.CreatedAt.Time
	return nil
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var aux struct {
		plain
		ID        flexID    `json:"id"`
		ClientID  *flexID   `json:"client_id"`
		CreatedAt Timestamp `json:"created_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Project(aux.plain)
	p.ID = int64(aux.ID)
	p.ClientID = aux.ClientID.ref()
	p.CreatedAt = aux.CreatedAt.Time
	return nil
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		ID        flexID     `json:"id"`
		ProjectID *flexID    `json:"project_id"`
		DueDate   *Timestamp `json:"due_date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	t.ID = int64(aux.ID)
	t.ProjectID = aux.ProjectID.ref()
	t.DueDate = nil
	if aux.DueDate != nil && !aux.DueDate.IsZero() {
		due := aux.DueDate.Time
		t.DueDate = &due
	}
	return nil
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	type plain Attachment
	var aux struct {
		plain
		ID         flexID    `json:"id"`
		EntityID   flexID    `json:"entity_id"`
		UploadedAt Timestamp `json:"uploaded_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Attachment(aux.plain)
	a.ID = int64(aux.ID)
	a.EntityID = int64(aux.EntityID)
	a.UploadedAt = aux.UploadedAt.Time
	return nil
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var aux struct {
		plain
		ID        flexID    `json:"id"`
		EntityID  flexID    `json:"entity_id"`
		ParentID  *flexID   `json:"parent_id"`
		CreatedAt Timestamp `json:"created_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Comment(aux.plain)
	c.ID = int64(aux.ID)
	c.EntityID = int64(aux.EntityID)
	c.ParentID = aux.ParentID.ref()
	c.CreatedAt = aux.CreatedAt.Time
	return nil
}
