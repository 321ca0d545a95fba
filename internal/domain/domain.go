package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleMate  Role = "MATE"
)

// ParseRole accepts the canonical upper-case role names.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleMate:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type EntityType string

const (
	EntityProject EntityType = "PROJECT"
	EntityTask    EntityType = "TASK"
	EntityState   EntityType = "STATE"
)

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityProject, EntityTask, EntityState:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionCreate, ActionUpdate, ActionDelete:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowState is one column of a project's board.
type WorkflowState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"project_id"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StateID     string    `json:"state_id"`
	ProjectID   string    `json:"project_id"`
	CreatorID   string    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// AuditLogEntry records one successful mutation. Entries are append-only.
type AuditLogEntry struct {
	ID          string     `json:"id"`
	ActorID     string     `json:"actor_id"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Action      Action     `json:"action"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"ts"`
}

// Session holds the authenticated user. At most one exists at a time.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	StartedAt time.Time `json:"started_at"`
}

// BoardColumn is a workflow state with the tasks currently in it.
type BoardColumn struct {
	State WorkflowState `json:"state"`
	Tasks []Task        `json:"tasks"`
}
