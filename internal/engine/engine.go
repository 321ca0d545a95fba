package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskline/internal/audit"
	"taskline/internal/domain"
	"taskline/internal/engine/auth"
	"taskline/internal/errs"
	"taskline/internal/repo"
	"taskline/internal/session"
)

// Hasher turns passwords into stored hashes and checks them back.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Stores are the record stores an Engine runs on. All of them must come
// from the same backend.
type Stores struct {
	Projects repo.Store[domain.Project]
	States   repo.Store[domain.WorkflowState]
	Tasks    repo.Store[domain.Task]
	Users    repo.Store[domain.User]
	Audit    repo.Store[domain.AuditLogEntry]
	Sessions repo.Store[domain.Session]
}

type Engine struct {
	Projects *audit.Mutation[domain.Project]
	States   *audit.Mutation[domain.WorkflowState]
	Tasks    *audit.Mutation[domain.Task]
	Users    repo.Store[domain.User]
	Trail    *audit.Trail
	Session  *session.Store
	Hasher   Hasher
	Now      func() time.Time
	NewID    func() string
	Log      zerolog.Logger
}

func New(s Stores, hasher Hasher, log zerolog.Logger) *Engine {
	trail := audit.NewTrail(s.Audit)
	e := &Engine{
		Projects: audit.NewMutation(s.Projects, trail, domain.EntityProject,
			func(p domain.Project) string { return p.ID }, describe("project", func(p domain.Project) string { return p.Name })),
		States: audit.NewMutation(s.States, trail, domain.EntityState,
			func(st domain.WorkflowState) string { return st.ID }, describe("state", func(st domain.WorkflowState) string { return st.Name })),
		Tasks: audit.NewMutation(s.Tasks, trail, domain.EntityTask,
			func(t domain.Task) string { return t.ID }, describeTask),
		Users:   s.Users,
		Trail:   trail,
		Session: session.New(s.Sessions),
		Hasher:  hasher,
		Now:     time.Now,
		NewID:   uuid.NewString,
		Log:     log,
	}
	e.Projects.Now, e.Projects.NewID, e.Projects.Logger = e.now, e.newID, log
	e.States.Now, e.States.NewID, e.States.Logger = e.now, e.newID, log
	e.Tasks.Now, e.Tasks.NewID, e.Tasks.Logger = e.now, e.newID, log
	e.Session.Now, e.Session.NewID = e.now, e.newID
	return e
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// Users

// Bootstrap creates the first ADMIN. It fails once any user exists.
func (e *Engine) Bootstrap(ctx context.Context, username, password string) (domain.User, error) {
	const op = "user.bootstrap"
	if err := validateCredentials(op, username, password); err != nil {
		return domain.User{}, err
	}
	users, err := e.Users.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if len(users) > 0 {
		return domain.User{}, errs.Errorf(errs.ValidationFailure, op, "workspace already has users")
	}
	return e.addUser(ctx, op, username, password, domain.RoleAdmin)
}

func (e *Engine) RegisterUser(ctx context.Context, actor domain.User, username, password string, role domain.Role) (domain.User, error) {
	const op = "user.register"
	if err := auth.Authorize(actor.Role, auth.RegisterUser, ""); err != nil {
		return domain.User{}, err
	}
	if err := validateCredentials(op, username, password); err != nil {
		return domain.User{}, err
	}
	if err := validateRole(op, role); err != nil {
		return domain.User{}, err
	}
	taken, err := repo.Filter[domain.User](ctx, e.Users, func(u domain.User) bool { return u.Username == username })
	if err != nil {
		return domain.User{}, err
	}
	if len(taken) > 0 {
		return domain.User{}, errs.Errorf(errs.DuplicateKey, op, "username %q is taken", username)
	}
	return e.addUser(ctx, op, username, password, role)
}

func (e *Engine) addUser(ctx context.Context, op, username, password string, role domain.Role) (domain.User, error) {
	hash, err := e.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{ID: e.newID(), Username: username, PasswordHash: hash, Role: role}
	if err := e.Users.Add(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	e.Log.Info().Str("user_id", u.ID).Str("username", u.Username).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// DeleteUser removes a user. A session held by that user is ended too.
func (e *Engine) DeleteUser(ctx context.Context, actor domain.User, id string) error {
	if err := auth.Authorize(actor.Role, auth.DeleteUser, id); err != nil {
		return err
	}
	if err := e.Users.Delete(ctx, id); err != nil {
		return err
	}
	cur, err := e.Session.Current(ctx)
	switch {
	case errs.Is(err, errs.NotFound):
		return nil
	case err != nil:
		return err
	case cur.User.ID == id:
		return e.Session.ClearCurrent(ctx)
	}
	return nil
}

func (e *Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	return e.Users.List(ctx)
}

// Login checks the credentials and makes the user current. A failed login
// leaves any existing session in place.
func (e *Engine) Login(ctx context.Context, username, password string) (domain.Session, error) {
	const op = "session.login"
	if err := validateCredentials(op, username, password); err != nil {
		return domain.Session{}, err
	}
	matches, err := repo.Filter[domain.User](ctx, e.Users, func(u domain.User) bool { return u.Username == username })
	if err != nil {
		return domain.Session{}, err
	}
	invalid := errs.Errorf(errs.AuthFailure, op, "invalid username or password")
	if len(matches) == 0 {
		return domain.Session{}, invalid
	}
	u := matches[0]
	ok, err := e.Hasher.Verify(password, u.PasswordHash)
	if err != nil {
		e.Log.Warn().Err(err).Str("user_id", u.ID).Msg("stored password hash is unreadable")
		return domain.Session{}, invalid
	}
	if !ok {
		return domain.Session{}, invalid
	}
	sess, err := e.Session.SetCurrent(ctx, u)
	if err != nil {
		return domain.Session{}, err
	}
	e.Log.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("logged in")
	return sess, nil
}

func (e *Engine) Logout(ctx context.Context) error {
	return e.Session.ClearCurrent(ctx)
}

// WhoAmI returns the logged-in user or errs.NotFound.
func (e *Engine) WhoAmI(ctx context.Context) (domain.User, error) {
	sess, err := e.Session.Current(ctx)
	if err != nil {
		return domain.User{}, err
	}
	return sess.User, nil
}

// Projects

// CreateProject stores a new project owned by actor. When the audit entry
// cannot be written the project is still returned along with an error for
// which audit.IsUncertain is true.
func (e *Engine) CreateProject(ctx context.Context, actor domain.User, name string) (domain.Project, error) {
	const op = "project.create"
	if err := auth.Authorize(actor.Role, auth.CreateProject, ""); err != nil {
		return domain.Project{}, err
	}
	if err := requireText(op, "name", name); err != nil {
		return domain.Project{}, err
	}
	p := domain.Project{ID: e.newID(), Name: name, CreatorID: actor.ID, CreatedAt: e.now().UTC()}
	if err := e.Projects.Add(ctx, actor.ID, p); err != nil {
		return committed(p, err)
	}
	return p, nil
}

func (e *Engine) UpdateProject(ctx context.Context, actor domain.User, id, name string) (domain.Project, error) {
	const op = "project.update"
	if err := auth.Authorize(actor.Role, auth.UpdateProject, id); err != nil {
		return domain.Project{}, err
	}
	if err := requireText(op, "name", name); err != nil {
		return domain.Project{}, err
	}
	p, err := repo.MustGet[domain.Project](ctx, e.Projects, "project", id)
	if err != nil {
		return domain.Project{}, err
	}
	p.Name = name
	if err := e.Projects.Update(ctx, actor.ID, p); err != nil {
		return committed(p, err)
	}
	return p, nil
}

// DeleteProject removes the project with its tasks and states, each removal
// audited on its own. It stops at the first failure.
func (e *Engine) DeleteProject(ctx context.Context, actor domain.User, id string) error {
	if err := auth.Authorize(actor.Role, auth.DeleteProject, id); err != nil {
		return err
	}
	if _, err := repo.MustGet[domain.Project](ctx, e.Projects, "project", id); err != nil {
		return err
	}
	tasks, err := e.ListTasks(ctx, TaskFilter{ProjectID: id})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := e.Tasks.Delete(ctx, actor.ID, t.ID); err != nil {
			return err
		}
	}
	states, err := e.ListStates(ctx, id)
	if err != nil {
		return err
	}
	for _, st := range states {
		if err := e.States.Delete(ctx, actor.ID, st.ID); err != nil {
			return err
		}
	}
	return e.Projects.Delete(ctx, actor.ID, id)
}

func (e *Engine) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return e.Projects.List(ctx)
}

func (e *Engine) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return repo.MustGet[domain.Project](ctx, e.Projects, "project", id)
}

// States

func (e *Engine) CreateState(ctx context.Context, actor domain.User, projectID, name string) (domain.WorkflowState, error) {
	const op = "state.create"
	if err := auth.Authorize(actor.Role, auth.CreateState, projectID); err != nil {
		return domain.WorkflowState{}, err
	}
	if err := requireText(op, "name", name); err != nil {
		return domain.WorkflowState{}, err
	}
	if _, err := repo.MustGet[domain.Project](ctx, e.Projects, "project", projectID); err != nil {
		return domain.WorkflowState{}, err
	}
	st := domain.WorkflowState{ID: e.newID(), Name: name, ProjectID: projectID}
	if err := e.States.Add(ctx, actor.ID, st); err != nil {
		return committed(st, err)
	}
	return st, nil
}

func (e *Engine) RenameState(ctx context.Context, actor domain.User, id, name string) (domain.WorkflowState, error) {
	const op = "state.update"
	if err := auth.Authorize(actor.Role, auth.UpdateState, id); err != nil {
		return domain.WorkflowState{}, err
	}
	if err := requireText(op, "name", name); err != nil {
		return domain.WorkflowState{}, err
	}
	st, err := repo.MustGet[domain.WorkflowState](ctx, e.States, "state", id)
	if err != nil {
		return domain.WorkflowState{}, err
	}
	st.Name = name
	if err := e.States.Update(ctx, actor.ID, st); err != nil {
		return committed(st, err)
	}
	return st, nil
}

// DeleteState refuses to remove a state that still holds tasks.
func (e *Engine) DeleteState(ctx context.Context, actor domain.User, id string) error {
	const op = "state.delete"
	if err := auth.Authorize(actor.Role, auth.DeleteState, id); err != nil {
		return err
	}
	if _, err := repo.MustGet[domain.WorkflowState](ctx, e.States, "state", id); err != nil {
		return err
	}
	tasks, err := e.ListTasks(ctx, TaskFilter{StateID: id})
	if err != nil {
		return err
	}
	if len(tasks) > 0 {
		return errs.Errorf(errs.ValidationFailure, op, "state %s still holds %d task(s)", id, len(tasks))
	}
	return e.States.Delete(ctx, actor.ID, id)
}

// ListStates returns the states of projectID in creation order.
func (e *Engine) ListStates(ctx context.Context, projectID string) ([]domain.WorkflowState, error) {
	return repo.Filter[domain.WorkflowState](ctx, e.States, func(st domain.WorkflowState) bool {
		return st.ProjectID == projectID
	})
}

// Tasks

// TaskCreateOptions are parameters for creating a task. An empty StateID
// places the task in the project's first state.
type TaskCreateOptions struct {
	ProjectID   string
	StateID     string
	Title       string
	Description string
}

func (e *Engine) CreateTask(ctx context.Context, actor domain.User, opts TaskCreateOptions) (domain.Task, error) {
	const op = "task.create"
	if err := auth.Authorize(actor.Role, auth.CreateTask, opts.ProjectID); err != nil {
		return domain.Task{}, err
	}
	if err := requireText(op, "title", opts.Title); err != nil {
		return domain.Task{}, err
	}
	if err := optionalText(op, "description", opts.Description); err != nil {
		return domain.Task{}, err
	}
	if _, err := repo.MustGet[domain.Project](ctx, e.Projects, "project", opts.ProjectID); err != nil {
		return domain.Task{}, err
	}
	states, err := e.ListStates(ctx, opts.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if len(states) == 0 {
		return domain.Task{}, errs.Errorf(errs.ValidationFailure, op, "project %s has no workflow states", opts.ProjectID)
	}
	stateID := opts.StateID
	if stateID == "" {
		stateID = states[0].ID
	} else if !ownsState(states, stateID) {
		return domain.Task{}, errs.Errorf(errs.ValidationFailure, op, "state %s is not in project %s", stateID, opts.ProjectID)
	}
	t := domain.Task{
		ID:          e.newID(),
		Title:       opts.Title,
		Description: opts.Description,
		StateID:     stateID,
		ProjectID:   opts.ProjectID,
		CreatorID:   actor.ID,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.Tasks.Add(ctx, actor.ID, t); err != nil {
		return committed(t, err)
	}
	return t, nil
}

// TaskUpdateOptions changes the fields that are non-nil.
type TaskUpdateOptions struct {
	ID          string
	Title       *string
	Description *string
}

func (e *Engine) UpdateTask(ctx context.Context, actor domain.User, opts TaskUpdateOptions) (domain.Task, error) {
	const op = "task.update"
	if err := auth.Authorize(actor.Role, auth.UpdateTask, opts.ID); err != nil {
		return domain.Task{}, err
	}
	if opts.Title != nil {
		if err := requireText(op, "title", *opts.Title); err != nil {
			return domain.Task{}, err
		}
	}
	if opts.Description != nil {
		if err := optionalText(op, "description", *opts.Description); err != nil {
			return domain.Task{}, err
		}
	}
	t, err := repo.MustGet[domain.Task](ctx, e.Tasks, "task", opts.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if opts.Title != nil {
		t.Title = *opts.Title
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if err := e.Tasks.Update(ctx, actor.ID, t); err != nil {
		return committed(t, err)
	}
	return t, nil
}

// MoveTask puts the task into stateID, which must belong to the task's
// project.
func (e *Engine) MoveTask(ctx context.Context, actor domain.User, id, stateID string) (domain.Task, error) {
	const op = "task.move"
	if err := auth.Authorize(actor.Role, auth.UpdateTask, id); err != nil {
		return domain.Task{}, err
	}
	if err := requireText(op, "state", stateID); err != nil {
		return domain.Task{}, err
	}
	t, err := repo.MustGet[domain.Task](ctx, e.Tasks, "task", id)
	if err != nil {
		return domain.Task{}, err
	}
	st, err := repo.MustGet[domain.WorkflowState](ctx, e.States, "state", stateID)
	if err != nil {
		return domain.Task{}, err
	}
	if st.ProjectID != t.ProjectID {
		return domain.Task{}, errs.Errorf(errs.ValidationFailure, op, "state %s is not in project %s", stateID, t.ProjectID)
	}
	if t.StateID == stateID {
		return t, nil
	}
	t.StateID = stateID
	if err := e.Tasks.Update(ctx, actor.ID, t); err != nil {
		return committed(t, err)
	}
	return t, nil
}

func (e *Engine) DeleteTask(ctx context.Context, actor domain.User, id string) error {
	if err := auth.Authorize(actor.Role, auth.DeleteTask, id); err != nil {
		return err
	}
	return e.Tasks.Delete(ctx, actor.ID, id)
}

func (e *Engine) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return repo.MustGet[domain.Task](ctx, e.Tasks, "task", id)
}

// TaskFilter narrows ListTasks; empty fields match everything.
type TaskFilter struct {
	ProjectID string
	StateID   string
}

func (e *Engine) ListTasks(ctx context.Context, f TaskFilter) ([]domain.Task, error) {
	return repo.Filter[domain.Task](ctx, e.Tasks, func(t domain.Task) bool {
		return (f.ProjectID == "" || t.ProjectID == f.ProjectID) &&
			(f.StateID == "" || t.StateID == f.StateID)
	})
}

// Board groups the project's tasks by state, one column per state in
// creation order.
func (e *Engine) Board(ctx context.Context, projectID string) ([]domain.BoardColumn, error) {
	if _, err := repo.MustGet[domain.Project](ctx, e.Projects, "project", projectID); err != nil {
		return nil, err
	}
	states, err := e.ListStates(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.ListTasks(ctx, TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	cols := make([]domain.BoardColumn, len(states))
	index := make(map[string]int, len(states))
	for i, st := range states {
		cols[i] = domain.BoardColumn{State: st, Tasks: []domain.Task{}}
		index[st.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.StateID]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols, nil
}

// Audit

func (e *Engine) AuditLog(ctx context.Context, f audit.Filter) ([]domain.AuditLogEntry, error) {
	return e.Trail.Entries(ctx, f)
}

func ownsState(states []domain.WorkflowState, id string) bool {
	for _, st := range states {
		if st.ID == id {
			return true
		}
	}
	return false
}

// committed keeps v when the store accepted it but the audit write did not.
func committed[T any](v T, err error) (T, error) {
	if audit.IsUncertain(err) {
		return v, err
	}
	var zero T
	return zero, err
}

func describe[T any](kind string, name func(T) string) audit.Describer[T] {
	return func(action domain.Action, before, after *T) string {
		switch {
		case action == domain.ActionCreate && after != nil:
			return fmt.Sprintf("created %s %q", kind, name(*after))
		case action == domain.ActionDelete && before != nil:
			return fmt.Sprintf("deleted %s %q", kind, name(*before))
		case action == domain.ActionUpdate && before != nil && after != nil && name(*before) != name(*after):
			return fmt.Sprintf("renamed %s %q to %q", kind, name(*before), name(*after))
		case after != nil:
			return fmt.Sprintf("updated %s %q", kind, name(*after))
		}
		return strings.ToLower(string(action)) + "d " + kind
	}
}

var describeTaskName = describe("task", func(t domain.Task) string { return t.Title })

func describeTask(action domain.Action, before, after *domain.Task) string {
	if action == domain.ActionUpdate && before != nil && after != nil && before.StateID != after.StateID {
		return fmt.Sprintf("moved task %q from state %s to %s", after.Title, before.StateID, after.StateID)
	}
	return describeTaskName(action, before, after)
}
