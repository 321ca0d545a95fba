package codec

import (
	"taskline/internal/docdb"
	"taskline/internal/domain"
)

var (
	Projects Codec[domain.Project]       = ProjectCodec{}
	States   Codec[domain.WorkflowState] = StateCodec{}
	Tasks    Codec[domain.Task]          = TaskCodec{}
	Users    Codec[domain.User]          = UserCodec{}
	Audit    Codec[domain.AuditLogEntry] = AuditCodec{}
	Sessions Codec[domain.Session]       = SessionCodec{}
)

// ProjectCodec: id|name|creator_id|created_at
type ProjectCodec struct{}

func (ProjectCodec) Collection() string         { return "projects" }
func (ProjectCodec) ID(p domain.Project) string { return p.ID }

func (c ProjectCodec) EncodeLine(p domain.Project) (string, error) {
	return joinLine(c.Collection(), p.ID, p.Name, p.CreatorID, formatTime(p.CreatedAt))
}

func (c ProjectCodec) DecodeLine(line string) (domain.Project, error) {
	f, err := splitLine(c.Collection(), line, 4)
	if err != nil {
		return domain.Project{}, err
	}
	created, err := parseTime(c.Collection(), "created_at", f[3])
	if err != nil {
		return domain.Project{}, err
	}
	return domain.Project{ID: f[0], Name: f[1], CreatorID: f[2], CreatedAt: created}, nil
}

func (ProjectCodec) EncodeDocument(p domain.Project) (docdb.Document, error) {
	return docdb.Document{
		"id":         p.ID,
		"name":       p.Name,
		"creator_id": p.CreatorID,
		"created_at": formatTime(p.CreatedAt),
	}, nil
}

func (c ProjectCodec) DecodeDocument(doc docdb.Document) (domain.Project, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	p := domain.Project{
		ID:        r.id(),
		Name:      r.str("name"),
		CreatorID: r.str("creator_id"),
		CreatedAt: r.timestamp("created_at"),
	}
	if r.err != nil {
		return domain.Project{}, r.err
	}
	return p, nil
}

// StateCodec: id|name|project_id
type StateCodec struct{}

func (StateCodec) Collection() string               { return "states" }
func (StateCodec) ID(s domain.WorkflowState) string { return s.ID }

func (c StateCodec) EncodeLine(s domain.WorkflowState) (string, error) {
	return joinLine(c.Collection(), s.ID, s.Name, s.ProjectID)
}

func (c StateCodec) DecodeLine(line string) (domain.WorkflowState, error) {
	f, err := splitLine(c.Collection(), line, 3)
	if err != nil {
		return domain.WorkflowState{}, err
	}
	return domain.WorkflowState{ID: f[0], Name: f[1], ProjectID: f[2]}, nil
}

func (StateCodec) EncodeDocument(s domain.WorkflowState) (docdb.Document, error) {
	return docdb.Document{"id": s.ID, "name": s.Name, "project_id": s.ProjectID}, nil
}

func (c StateCodec) DecodeDocument(doc docdb.Document) (domain.WorkflowState, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	s := domain.WorkflowState{ID: r.id(), Name: r.str("name"), ProjectID: r.str("project_id")}
	if r.err != nil {
		return domain.WorkflowState{}, r.err
	}
	return s, nil
}

// TaskCodec: id|title|description|state_id|project_id|creator_id|created_at
type TaskCodec struct{}

func (TaskCodec) Collection() string      { return "tasks" }
func (TaskCodec) ID(t domain.Task) string { return t.ID }

func (c TaskCodec) EncodeLine(t domain.Task) (string, error) {
	return joinLine(c.Collection(), t.ID, t.Title, t.Description, t.StateID, t.ProjectID, t.CreatorID, formatTime(t.CreatedAt))
}

func (c TaskCodec) DecodeLine(line string) (domain.Task, error) {
	f, err := splitLine(c.Collection(), line, 7)
	if err != nil {
		return domain.Task{}, err
	}
	created, err := parseTime(c.Collection(), "created_at", f[6])
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:          f[0],
		Title:       f[1],
		Description: f[2],
		StateID:     f[3],
		ProjectID:   f[4],
		CreatorID:   f[5],
		CreatedAt:   created,
	}, nil
}

func (TaskCodec) EncodeDocument(t domain.Task) (docdb.Document, error) {
	return docdb.Document{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"state_id":    t.StateID,
		"project_id":  t.ProjectID,
		"creator_id":  t.CreatorID,
		"created_at":  formatTime(t.CreatedAt),
	}, nil
}

func (c TaskCodec) DecodeDocument(doc docdb.Document) (domain.Task, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	t := domain.Task{
		ID:          r.id(),
		Title:       r.str("title"),
		Description: r.str("description"),
		StateID:     r.str("state_id"),
		ProjectID:   r.str("project_id"),
		CreatorID:   r.str("creator_id"),
		CreatedAt:   r.timestamp("created_at"),
	}
	if r.err != nil {
		return domain.Task{}, r.err
	}
	return t, nil
}

// UserCodec: id|username|password_hash|role
type UserCodec struct{}

func (UserCodec) Collection() string      { return "users" }
func (UserCodec) ID(u domain.User) string { return u.ID }

func (c UserCodec) EncodeLine(u domain.User) (string, error) {
	return joinLine(c.Collection(), u.ID, u.Username, u.PasswordHash, string(u.Role))
}

func (c UserCodec) DecodeLine(line string) (domain.User, error) {
	f, err := splitLine(c.Collection(), line, 4)
	if err != nil {
		return domain.User{}, err
	}
	role, err := domain.ParseRole(f[3])
	if err != nil {
		return domain.User{}, malformedEnum(c.Collection(), "role", err)
	}
	return domain.User{ID: f[0], Username: f[1], PasswordHash: f[2], Role: role}, nil
}

func (UserCodec) EncodeDocument(u domain.User) (docdb.Document, error) {
	return docdb.Document{
		"id":            u.ID,
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
	}, nil
}

func (c UserCodec) DecodeDocument(doc docdb.Document) (domain.User, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	u := domain.User{ID: r.id(), Username: r.str("username"), PasswordHash: r.str("password_hash")}
	roleText := r.str("role")
	if r.err != nil {
		return domain.User{}, r.err
	}
	role, err := domain.ParseRole(roleText)
	if err != nil {
		return domain.User{}, malformedEnum(c.Collection(), "role", err)
	}
	u.Role = role
	return u, nil
}

// AuditCodec: id|actor_id|entity_type|entity_id|action|description|timestamp
type AuditCodec struct{}

func (AuditCodec) Collection() string               { return "audit" }
func (AuditCodec) ID(e domain.AuditLogEntry) string { return e.ID }

func (c AuditCodec) EncodeLine(e domain.AuditLogEntry) (string, error) {
	return joinLine(c.Collection(), e.ID, e.ActorID, string(e.EntityType), e.EntityID, string(e.Action), e.Description, formatTime(e.Timestamp))
}

func (c AuditCodec) DecodeLine(line string) (domain.AuditLogEntry, error) {
	f, err := splitLine(c.Collection(), line, 7)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}
	return c.build(f[0], f[1], f[2], f[3], f[4], f[5], f[6])
}

func (AuditCodec) EncodeDocument(e domain.AuditLogEntry) (docdb.Document, error) {
	return docdb.Document{
		"id":          e.ID,
		"actor_id":    e.ActorID,
		"entity_type": string(e.EntityType),
		"entity_id":   e.EntityID,
		"action":      string(e.Action),
		"description": e.Description,
		"timestamp":   formatTime(e.Timestamp),
	}, nil
}

func (c AuditCodec) DecodeDocument(doc docdb.Document) (domain.AuditLogEntry, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	id, actor, typ, entityID, action, desc, ts := r.id(), r.str("actor_id"), r.str("entity_type"),
		r.str("entity_id"), r.str("action"), r.str("description"), r.str("timestamp")
	if r.err != nil {
		return domain.AuditLogEntry{}, r.err
	}
	return c.build(id, actor, typ, entityID, action, desc, ts)
}

func (c AuditCodec) build(id, actor, typ, entityID, action, desc, ts string) (domain.AuditLogEntry, error) {
	entityType, err := domain.ParseEntityType(typ)
	if err != nil {
		return domain.AuditLogEntry{}, malformedEnum(c.Collection(), "entity_type", err)
	}
	act, err := domain.ParseAction(action)
	if err != nil {
		return domain.AuditLogEntry{}, malformedEnum(c.Collection(), "action", err)
	}
	at, err := parseTime(c.Collection(), "timestamp", ts)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}
	return domain.AuditLogEntry{
		ID:          id,
		ActorID:     actor,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      act,
		Description: desc,
		Timestamp:   at,
	}, nil
}

// SessionCodec: id|user_id|username|password_hash|role|started_at
type SessionCodec struct{}

func (SessionCodec) Collection() string         { return "session" }
func (SessionCodec) ID(s domain.Session) string { return s.ID }

func (c SessionCodec) EncodeLine(s domain.Session) (string, error) {
	return joinLine(c.Collection(), s.ID, s.User.ID, s.User.Username, s.User.PasswordHash, string(s.User.Role), formatTime(s.StartedAt))
}

func (c SessionCodec) DecodeLine(line string) (domain.Session, error) {
	f, err := splitLine(c.Collection(), line, 6)
	if err != nil {
		return domain.Session{}, err
	}
	return c.build(f[0], f[1], f[2], f[3], f[4], f[5])
}

func (SessionCodec) EncodeDocument(s domain.Session) (docdb.Document, error) {
	return docdb.Document{
		"id":            s.ID,
		"user_id":       s.User.ID,
		"username":      s.User.Username,
		"password_hash": s.User.PasswordHash,
		"role":          string(s.User.Role),
		"started_at":    formatTime(s.StartedAt),
	}, nil
}

func (c SessionCodec) DecodeDocument(doc docdb.Document) (domain.Session, error) {
	r := docReader{collection: c.Collection(), doc: doc}
	id, userID, username, hash, role, started := r.id(), r.str("user_id"), r.str("username"),
		r.str("password_hash"), r.str("role"), r.str("started_at")
	if r.err != nil {
		return domain.Session{}, r.err
	}
	return c.build(id, userID, username, hash, role, started)
}

func (c SessionCodec) build(id, userID, username, hash, roleText, started string) (domain.Session, error) {
	role, err := domain.ParseRole(roleText)
	if err != nil {
		return domain.Session{}, malformedEnum(c.Collection(), "role", err)
	}
	at, err := parseTime(c.Collection(), "started_at", started)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		ID:        id,
		User:      domain.User{ID: userID, Username: username, PasswordHash: hash, Role: role},
		StartedAt: at,
	}, nil
}
