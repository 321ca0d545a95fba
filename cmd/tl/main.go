package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskline/internal/app"
	"taskline/internal/audit"
	"taskline/internal/config"
	"taskline/internal/domain"
	"taskline/internal/engine"
	"taskline/internal/errs"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Taskline CLI",
	Long: `Taskline tracks projects, workflow states and tasks for a small team.
- Users: ADMINs manage projects and users; MATEs work on states and tasks.
- Projects own workflow states; every task sits in exactly one state.
- Storage: flat .tbl files, SQLite or Postgres (storage.backend in taskline.yml).
- Audit log: every change to a project, state or task is recorded; view with 'tl log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("backend", "", "storage backend (file, sqlite, postgres)")
	flags.String("dsn", "", "postgres connection string")
	flags.String("log-level", "", "log level")
	_ = viper.BindPFlag("workspace", flags.Lookup("workspace"))
	_ = viper.BindPFlag("json", flags.Lookup("json"))
	_ = viper.BindPFlag("storage.backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("storage.postgres.dsn", flags.Lookup("dsn"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(logCmd())
}

func initCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create taskline.yml and the first ADMIN user",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if err := os.MkdirAll(workspace, 0o755); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", path)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				u, err := e.Bootstrap(ctx, username, password)
				if err != nil {
					return err
				}
				return printUsers([]domain.User{u})
			})
		},
	}
	cmd.Flags().StringVar(&username, "admin", "", "username of the first ADMIN")
	cmd.Flags().StringVar(&password, "password", "", "password of the first ADMIN")
	_ = cmd.MarkFlagRequired("admin")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in; replaces any current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = viper.GetString("password")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				sess, err := e.Login(ctx, args[0], password)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess)
				}
				fmt.Printf("Logged in as %s (%s)\n", sess.User.Username, sess.User.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (or TASKLINE_PASSWORD)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.Logout(ctx)
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				return printUsers([]domain.User{actor})
			})
		},
	}
}

func userCmd() *cobra.Command {
	usr := &cobra.Command{Use: "user", Short: "Manage users"}
	usr.AddCommand(userRegisterCmd())
	usr.AddCommand(userListCmd())
	usr.AddCommand(userDeleteCmd())
	return usr
}

func userRegisterCmd() *cobra.Command {
	var password, role string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a user (ADMIN only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				u, err := e.RegisterUser(ctx, actor, args[0], password, domain.Role(strings.ToUpper(role)))
				if err != nil {
					return err
				}
				return printUsers([]domain.User{u})
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMate), "role (ADMIN or MATE)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				users, err := e.ListUsers(ctx)
				if err != nil {
					return err
				}
				return printUsers(users)
			})
		},
	}
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user (ADMIN only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				return e.DeleteUser(ctx, actor, args[0])
			})
		},
	}
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.ListProjects(ctx)
				if err != nil {
					return err
				}
				return printProjects(items)
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var states []string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project (ADMIN only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				p, err := e.CreateProject(ctx, actor, args[0])
				if err != nil && !audit.IsUncertain(err) {
					return err
				}
				for _, name := range states {
					if _, err := e.CreateState(ctx, actor, p.ID, name); err != nil {
						return err
					}
				}
				if perr := printProjects([]domain.Project{p}); perr != nil {
					return perr
				}
				return err
			})
		},
	}
	cmd.Flags().StringArrayVar(&states, "state", nil, "initial workflow state (repeatable)")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				p, err := e.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printProjects([]domain.Project{p})
			})
		},
	}
}

func projectUpdateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a project (ADMIN only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				p, err := e.UpdateProject(ctx, actor, args[0], name)
				return printCommitted(err, func() error { return printProjects([]domain.Project{p}) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its states and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				return e.DeleteProject(ctx, actor, args[0])
			})
		},
	}
}

func stateCmd() *cobra.Command {
	st := &cobra.Command{Use: "state", Short: "Manage workflow states"}
	st.AddCommand(stateAddCmd())
	st.AddCommand(stateListCmd())
	st.AddCommand(stateRenameCmd())
	st.AddCommand(stateDeleteCmd())
	return st
}

func stateAddCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a workflow state to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				st, err := e.CreateState(ctx, actor, projectID, args[0])
				return printCommitted(err, func() error { return printStates([]domain.WorkflowState{st}) })
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func stateListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the workflow states of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.ListStates(ctx, projectID)
				if err != nil {
					return err
				}
				return printStates(items)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func stateRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a workflow state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				st, err := e.RenameState(ctx, actor, args[0], args[1])
				return printCommitted(err, func() error { return printStates([]domain.WorkflowState{st}) })
			})
		},
	}
}

func stateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an empty workflow state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				return e.DeleteState(ctx, actor, args[0])
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskMoveCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task; it starts in the project's first state unless --state is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Title = args[0]
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				t, err := e.CreateTask(ctx, actor, opts)
				return printCommitted(err, func() error { return printTasks([]domain.Task{t}) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&opts.StateID, "state", "", "workflow state id")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f engine.TaskFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				return printTasks(items)
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "filter by project id")
	cmd.Flags().StringVar(&f.StateID, "state", "", "filter by state id")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				t, err := e.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(t)
				}
				fmt.Printf("%s\n  id:      %s\n  project: %s\n  state:   %s\n  created: %s by %s\n",
					t.Title, t.ID, t.ProjectID, t.StateID, t.CreatedAt.Format(time.RFC3339), t.CreatorID)
				if t.Description != "" {
					fmt.Printf("\n%s\n", t.Description)
				}
				return nil
			})
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.TaskUpdateOptions{ID: args[0]}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				t, err := e.UpdateTask(ctx, actor, opts)
				return printCommitted(err, func() error { return printTasks([]domain.Task{t}) })
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func taskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <state-id>",
		Short: "Move a task to another state of its project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				t, err := e.MoveTask(ctx, actor, args[0], args[1])
				return printCommitted(err, func() error { return printTasks([]domain.Task{t}) })
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, e *engine.Engine, actor domain.User) error {
				return e.DeleteTask(ctx, actor, args[0])
			})
		},
	}
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show a project's tasks grouped by state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				cols, err := e.Board(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cols)
				}
				for i, col := range cols {
					connector := "├── "
					if i == len(cols)-1 {
						connector = "└── "
					}
					fmt.Printf("%s%s (%d)\n", connector, col.State.Name, len(col.Tasks))
					for _, t := range col.Tasks {
						prefix := "│   "
						if i == len(cols)-1 {
							prefix = "    "
						}
						fmt.Printf("%s- %s [%s]\n", prefix, t.Title, t.ID)
					}
				}
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Audit log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var entityType, entityID, action, actorID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the newest audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := audit.Filter{EntityID: entityID, ActorID: actorID, Limit: n}
			if entityType != "" {
				et, err := domain.ParseEntityType(strings.ToUpper(entityType))
				if err != nil {
					return err
				}
				f.EntityType = et
			}
			if action != "" {
				a, err := domain.ParseAction(strings.ToUpper(action))
				if err != nil {
					return err
				}
				f.Action = a
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				entries, err := e.AuditLog(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Time", "Actor", "Action", "Entity", "ID", "Description"})
				for _, en := range entries {
					tw.AppendRow(table.Row{en.Timestamp.Format(time.RFC3339), en.ActorID, en.Action, en.EntityType, en.EntityID, en.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "PROJECT, STATE or TASK")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	cmd.Flags().StringVar(&action, "action", "", "CREATE, UPDATE or DELETE")
	cmd.Flags().StringVar(&actorID, "actor", "", "actor user id")
	return cmd
}

// --- helpers ---

func loadConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if v := viper.GetString("storage.backend"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := viper.GetString("storage.postgres.dsn"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := viper.GetString("log.level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequirePersistent(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := loadConfig(workspace)
	if err != nil {
		return err
	}
	log, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, workspace, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx, cancel := a.WithTimeout(ctx)
	defer cancel()
	return fn(ctx, a.Engine)
}

func withActor(ctx context.Context, fn func(context.Context, *engine.Engine, domain.User) error) error {
	return withEngine(ctx, func(ctx context.Context, e *engine.Engine) error {
		actor, err := e.WhoAmI(ctx)
		if errs.Is(err, errs.NotFound) {
			return fmt.Errorf("not logged in; run tl login <username>")
		}
		if err != nil {
			return err
		}
		return fn(ctx, e, actor)
	})
}

// printCommitted prints the result when the change was stored, including
// when only its audit entry failed, and passes err through.
func printCommitted(err error, show func() error) error {
	if err != nil && !audit.IsUncertain(err) {
		return err
	}
	if perr := show(); perr != nil {
		return perr
	}
	return err
}

func exitCode(err error) int {
	switch {
	case audit.IsUncertain(err):
		return 3
	case errs.Is(err, errs.AuthorizationDenied), errs.Is(err, errs.AuthFailure):
		return 2
	}
	return 1
}

func printUsers(items []domain.User) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	rows := make([]table.Row, 0, len(items))
	for _, u := range items {
		rows = append(rows, table.Row{u.ID, u.Username, u.Role})
	}
	renderTable(table.Row{"ID", "Username", "Role"}, rows)
	return nil
}

func printProjects(items []domain.Project) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	rows := make([]table.Row, 0, len(items))
	for _, p := range items {
		rows = append(rows, table.Row{p.ID, p.Name, p.CreatorID, p.CreatedAt.Format(time.RFC3339)})
	}
	renderTable(table.Row{"ID", "Name", "Creator", "Created"}, rows)
	return nil
}

func printStates(items []domain.WorkflowState) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	rows := make([]table.Row, 0, len(items))
	for _, st := range items {
		rows = append(rows, table.Row{st.ID, st.Name, st.ProjectID})
	}
	renderTable(table.Row{"ID", "Name", "Project"}, rows)
	return nil
}

func printTasks(items []domain.Task) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	rows := make([]table.Row, 0, len(items))
	for _, t := range items {
		rows = append(rows, table.Row{t.ID, t.Title, t.StateID, t.ProjectID, t.CreatorID})
	}
	renderTable(table.Row{"ID", "Title", "State", "Project", "Creator"}, rows)
	return nil
}

func renderTable(header table.Row, rows []table.Row) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
