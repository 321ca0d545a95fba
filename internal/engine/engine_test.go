package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"

	"taskline/internal/audit"
	"taskline/internal/codec"
	"taskline/internal/domain"
	"taskline/internal/engine"
	"taskline/internal/engine/auth"
	"taskline/internal/errs"
	"taskline/internal/repo"
)

// countingStore records how many times the wrapped store was touched.
type countingStore[T any] struct {
	repo.Store[T]
	calls *int
}

func (c countingStore[T]) Add(ctx context.Context, v T) error {
	*c.calls++
	return c.Store.Add(ctx, v)
}

func (c countingStore[T]) List(ctx context.Context) ([]T, error) {
	*c.calls++
	return c.Store.List(ctx)
}

func (c countingStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	*c.calls++
	return c.Store.Get(ctx, id)
}

func (c countingStore[T]) Update(ctx context.Context, v T) error {
	*c.calls++
	return c.Store.Update(ctx, v)
}

func (c countingStore[T]) Delete(ctx context.Context, id string) error {
	*c.calls++
	return c.Store.Delete(ctx, id)
}

type testEnv struct {
	Engine       *engine.Engine
	Ctx          context.Context
	Dir          string
	Admin        domain.User
	Mate         domain.User
	ProjectCalls *int
	UserCalls    *int
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()
	projectCalls, userCalls := new(int), new(int)
	stores := engine.Stores{
		Projects: countingStore[domain.Project]{repo.NewFileStore(dir, codec.Projects, log), projectCalls},
		States:   repo.NewFileStore(dir, codec.States, log),
		Tasks:    repo.NewFileStore(dir, codec.Tasks, log),
		Users:    countingStore[domain.User]{repo.NewFileStore(dir, codec.Users, log), userCalls},
		Audit:    repo.NewFileStore(dir, codec.Audit, log),
		Sessions: repo.NewFileStore(dir, codec.Sessions, log),
	}
	hasher := auth.Argon2Hasher{Params: &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}}
	eng := engine.New(stores, hasher, log)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	admin, err := eng.Bootstrap(ctx, "ada", "s3cret")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	mate, err := eng.RegisterUser(ctx, admin, "bob", "hunter2", domain.RoleMate)
	if err != nil {
		t.Fatalf("register mate: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Dir: dir, Admin: admin, Mate: mate, ProjectCalls: projectCalls, UserCalls: userCalls}
}

func (env testEnv) auditEntries(t *testing.T, f audit.Filter) []domain.AuditLogEntry {
	t.Helper()
	entries, err := env.Engine.AuditLog(env.Ctx, f)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	return entries
}

func TestLaunchScenario(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.Engine.CreateProject(env.Ctx, env.Admin, "Launch")
	if err != nil {
		t.Fatalf("create as admin: %v", err)
	}
	entries := env.auditEntries(t, audit.Filter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if e := entries[0]; e.Action != domain.ActionCreate || e.EntityType != domain.EntityProject || e.EntityID != p.ID || e.ActorID != env.Admin.ID {
		t.Fatalf("unexpected audit entry %+v", e)
	}

	before := *env.ProjectCalls
	_, err = env.Engine.CreateProject(env.Ctx, env.Mate, "Launch")
	if !errs.Is(err, errs.AuthorizationDenied) {
		t.Fatalf("expected authorization denied, got %v", err)
	}
	if *env.ProjectCalls != before {
		t.Fatalf("denied create touched the project store %d time(s)", *env.ProjectCalls-before)
	}
	projects, err := env.Engine.ListProjects(env.Ctx)
	if err != nil || len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d (%v)", len(projects), err)
	}
	if n := len(env.auditEntries(t, audit.Filter{})); n != 1 {
		t.Fatalf("expected no new audit entries, got %d total", n)
	}
}

func TestMateCannotManageUsers(t *testing.T) {
	env := newTestEnv(t)
	before := *env.UserCalls

	_, err := env.Engine.RegisterUser(env.Ctx, env.Mate, "eve", "pw", domain.RoleMate)
	if !errs.Is(err, errs.AuthorizationDenied) {
		t.Fatalf("register as mate: expected denial, got %v", err)
	}
	err = env.Engine.DeleteUser(env.Ctx, env.Mate, env.Admin.ID)
	if !errs.Is(err, errs.AuthorizationDenied) {
		t.Fatalf("delete as mate: expected denial, got %v", err)
	}
	_, err = env.Engine.UpdateProject(env.Ctx, env.Mate, "p-1", "Renamed")
	if !errs.Is(err, errs.AuthorizationDenied) {
		t.Fatalf("update project as mate: expected denial, got %v", err)
	}
	if *env.UserCalls != before {
		t.Fatalf("denied calls touched the user store %d time(s)", *env.UserCalls-before)
	}

	if err := env.Engine.DeleteUser(env.Ctx, env.Admin, env.Mate.ID); err != nil {
		t.Fatalf("delete as admin: %v", err)
	}
	users, err := env.Engine.ListUsers(env.Ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("expected 1 user left, got %d (%v)", len(users), err)
	}
}

func TestValidationRunsBeforeStore(t *testing.T) {
	env := newTestEnv(t)
	before := *env.ProjectCalls

	for _, name := range []string{"", "   ", "a|b", "two\nlines"} {
		_, err := env.Engine.CreateProject(env.Ctx, env.Admin, name)
		if !errs.Is(err, errs.ValidationFailure) {
			t.Fatalf("name %q: expected validation failure, got %v", name, err)
		}
	}
	if *env.ProjectCalls != before {
		t.Fatalf("invalid input touched the project store")
	}

	// authorization is checked first
	_, err := env.Engine.CreateProject(env.Ctx, env.Mate, "")
	if !errs.Is(err, errs.AuthorizationDenied) {
		t.Fatalf("expected denial before validation, got %v", err)
	}

	_, err = env.Engine.RegisterUser(env.Ctx, env.Admin, "carol", "", domain.RoleMate)
	if !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("blank password: %v", err)
	}
	_, err = env.Engine.RegisterUser(env.Ctx, env.Admin, "carol", "pw", domain.Role("OWNER"))
	if !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("bad role: %v", err)
	}
	_, err = env.Engine.RegisterUser(env.Ctx, env.Admin, "bob", "pw", domain.RoleMate)
	if !errs.Is(err, errs.DuplicateKey) {
		t.Fatalf("taken username: %v", err)
	}
}

func TestBootstrapOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Bootstrap(env.Ctx, "root", "pw")
	if !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("expected second bootstrap to fail, got %v", err)
	}
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.Engine.WhoAmI(env.Ctx); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected nobody logged in, got %v", err)
	}
	_, err := env.Engine.Login(env.Ctx, "ada", "wrong")
	if !errs.Is(err, errs.AuthFailure) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if _, err := env.Engine.Login(env.Ctx, "nobody", "pw"); !errs.Is(err, errs.AuthFailure) {
		t.Fatalf("expected auth failure for unknown user, got %v", err)
	}

	if _, err := env.Engine.Login(env.Ctx, "ada", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	// a failed attempt keeps the current session
	if _, err := env.Engine.Login(env.Ctx, "bob", "nope"); err == nil {
		t.Fatalf("expected failure")
	}
	u, err := env.Engine.WhoAmI(env.Ctx)
	if err != nil || u.ID != env.Admin.ID {
		t.Fatalf("whoami: %+v %v", u, err)
	}

	if _, err := env.Engine.Login(env.Ctx, "bob", "hunter2"); err != nil {
		t.Fatalf("login as bob: %v", err)
	}
	u, err = env.Engine.WhoAmI(env.Ctx)
	if err != nil || u.ID != env.Mate.ID {
		t.Fatalf("whoami after switch: %+v %v", u, err)
	}

	if err := env.Engine.Logout(env.Ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := env.Engine.Logout(env.Ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if _, err := env.Engine.WhoAmI(env.Ctx); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected logged out, got %v", err)
	}
}

func TestDeletingCurrentUserEndsSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.Login(env.Ctx, "bob", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteUser(env.Ctx, env.Admin, env.Mate.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.WhoAmI(env.Ctx); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected session cleared, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, env.Admin, "Launch")
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.Engine.CreateTask(env.Ctx, env.Mate, engine.TaskCreateOptions{ProjectID: p.ID, Title: "Write notes"})
	if !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("expected failure without states, got %v", err)
	}
	_, err = env.Engine.CreateTask(env.Ctx, env.Mate, engine.TaskCreateOptions{ProjectID: "ghost", Title: "x"})
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected missing project, got %v", err)
	}

	todo, err := env.Engine.CreateState(env.Ctx, env.Mate, p.ID, "To do")
	if err != nil {
		t.Fatal(err)
	}
	done, err := env.Engine.CreateState(env.Ctx, env.Mate, p.ID, "Done")
	if err != nil {
		t.Fatal(err)
	}

	task, err := env.Engine.CreateTask(env.Ctx, env.Mate, engine.TaskCreateOptions{ProjectID: p.ID, Title: "Write notes", Description: "draft, review"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.StateID != todo.ID || task.CreatorID != env.Mate.ID {
		t.Fatalf("unexpected task %+v", task)
	}

	other, err := env.Engine.CreateProject(env.Ctx, env.Admin, "Other")
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := env.Engine.CreateState(env.Ctx, env.Admin, other.ID, "Backlog")
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.CreateTask(env.Ctx, env.Mate, engine.TaskCreateOptions{ProjectID: p.ID, StateID: foreign.ID, Title: "x"})
	if !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("expected foreign state rejected, got %v", err)
	}
	if _, err := env.Engine.MoveTask(env.Ctx, env.Mate, task.ID, foreign.ID); !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("expected move to foreign state rejected, got %v", err)
	}

	task, err = env.Engine.MoveTask(env.Ctx, env.Mate, task.ID, done.ID)
	if err != nil || task.StateID != done.ID {
		t.Fatalf("move: %+v %v", task, err)
	}
	title := "Publish notes"
	task, err = env.Engine.UpdateTask(env.Ctx, env.Mate, engine.TaskUpdateOptions{ID: task.ID, Title: &title})
	if err != nil || task.Title != title || task.Description != "draft, review" {
		t.Fatalf("update: %+v %v", task, err)
	}

	board, err := env.Engine.Board(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 2 || len(board[0].Tasks) != 0 || len(board[1].Tasks) != 1 || board[1].Tasks[0].ID != task.ID {
		t.Fatalf("unexpected board %+v", board)
	}

	if err := env.Engine.DeleteState(env.Ctx, env.Mate, done.ID); !errs.Is(err, errs.ValidationFailure) {
		t.Fatalf("expected delete of non-empty state refused, got %v", err)
	}

	taskLog := env.auditEntries(t, audit.Filter{EntityType: domain.EntityTask, EntityID: task.ID})
	if len(taskLog) != 3 {
		t.Fatalf("expected create, move and update entries, got %d", len(taskLog))
	}
	if taskLog[1].Action != domain.ActionUpdate {
		t.Fatalf("unexpected action %s", taskLog[1].Action)
	}

	if err := env.Engine.DeleteTask(env.Ctx, env.Mate, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := env.Engine.DeleteTask(env.Ctx, env.Mate, task.ID); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := env.Engine.DeleteState(env.Ctx, env.Mate, done.ID); err != nil {
		t.Fatalf("delete empty state: %v", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, env.Admin, "Launch")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateState(env.Ctx, env.Admin, p.ID, "To do"); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"one", "two"} {
		if _, err := env.Engine.CreateTask(env.Ctx, env.Admin, engine.TaskCreateOptions{ProjectID: p.ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	if err := env.Engine.DeleteProject(env.Ctx, env.Mate, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if _, err := env.Engine.GetProject(env.Ctx, p.ID); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected project gone, got %v", err)
	}
	tasks, err := env.Engine.ListTasks(env.Ctx, engine.TaskFilter{ProjectID: p.ID})
	if err != nil || len(tasks) != 0 {
		t.Fatalf("expected tasks gone, got %d (%v)", len(tasks), err)
	}
	deletes := env.auditEntries(t, audit.Filter{Action: domain.ActionDelete})
	if len(deletes) != 4 {
		t.Fatalf("expected 4 delete entries, got %d", len(deletes))
	}
	if last := deletes[len(deletes)-1]; last.EntityType != domain.EntityProject || last.ActorID != env.Mate.ID {
		t.Fatalf("unexpected final entry %+v", last)
	}
}

func TestMalformedTaskFileFailsRead(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.Dir, "tasks"+repo.FileExt)
	if err := os.WriteFile(path, []byte("abc,def\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := env.Engine.ListTasks(env.Ctx, engine.TaskFilter{})
	if !errs.Is(err, errs.MalformedRecord) {
		t.Fatalf("expected malformed record, got %v", err)
	}
}
