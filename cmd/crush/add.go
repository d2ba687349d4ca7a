package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/contentcrush/crush/pkg/config"
	"github.com/contentcrush/crush/pkg/loader"
	"github.com/contentcrush/crush/pkg/model"
	"github.com/contentcrush/crush/pkg/store"
)

// interactive reports whether forms can be shown. Tests replace it.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (a *app) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a client, project or task",
		Long: `Create a client, project or task in the database.

Missing required values are asked for in a form when running in a terminal.`,
	}
	cmd.AddCommand(a.newAddClientCmd(), a.newAddProjectCmd(), a.newAddTaskCmd())
	return cmd
}

func (a *app) newAddClientCmd() *cobra.Command {
	var c model.Client
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Name == "" {
				if !interactive() {
					return errors.New("--name is required")
				}
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Client name").Value(&c.Name).Validate(required("name")),
					huh.NewInput().Title("Email").Value(&c.Email),
					huh.NewInput().Title("Company").Value(&c.Company),
				)).WithAccessible(a.cfg.Preferences.HighContrast)
				if err := form.RunWithContext(cmd.Context()); err != nil {
					return err
				}
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				if err := s.CreateClient(ctx, &c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created client %d %q\n", c.ID, c.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "client name")
	cmd.Flags().StringVar(&c.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&c.Company, "company", "", "company name")
	return cmd
}

func (a *app) newAddProjectCmd() *cobra.Command {
	var (
		p      model.Project
		client string
		status string
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				clients, err := s.Clients(ctx)
				if err != nil {
					return err
				}
				if client != "" {
					id, err := resolveClient(clients, client)
					if err != nil {
						return err
					}
					p.ClientID = model.Ref(id)
				}

				if p.Name == "" {
					if !interactive() {
						return errors.New("--name is required")
					}
					var clientID int64
					if p.ClientID != nil {
						clientID = *p.ClientID
					}
					opts := []huh.Option[int64]{huh.NewOption("(no client)", int64(0))}
					for _, c := range clients {
						opts = append(opts, huh.NewOption(c.Name, c.ID))
					}
					form := huh.NewForm(huh.NewGroup(
						huh.NewInput().Title("Project name").Value(&p.Name).Validate(required("name")),
						huh.NewSelect[int64]().Title("Client").Options(opts...).Value(&clientID),
						huh.NewSelect[string]().Title("Status").Options(huh.NewOptions(projectStatuses()...)...).Value(&status),
					)).WithAccessible(a.cfg.Preferences.HighContrast)
					if err := form.RunWithContext(ctx); err != nil {
						return err
					}
					p.ClientID = nil
					if clientID != 0 {
						p.ClientID = model.Ref(clientID)
					}
				}

				if status != "" {
					p.Status = model.ProjectStatus(status)
					if !p.Status.IsValid() {
						return fmt.Errorf("unknown project status %q (want one of %s)", status, strings.Join(projectStatuses(), ", "))
					}
				}
				if err := s.CreateProject(ctx, &p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %d %q\n", p.ID, p.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "project name")
	cmd.Flags().StringVar(&client, "client", "", "owning client, by id or name")
	cmd.Flags().StringVar(&status, "status", "", "planning, active, on_hold or completed")
	return cmd
}

func (a *app) newAddTaskCmd() *cobra.Command {
	var (
		t         model.Task
		projectID int64
		status    string
		due       string
	)
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				if t.Title == "" {
					if !interactive() {
						return errors.New("--title is required")
					}
					projects, err := s.Projects(ctx)
					if err != nil {
						return err
					}
					opts := []huh.Option[int64]{huh.NewOption("(no project)", int64(0))}
					for _, p := range projects {
						opts = append(opts, huh.NewOption(p.Name, p.ID))
					}
					form := huh.NewForm(huh.NewGroup(
						huh.NewInput().Title("Task title").Value(&t.Title).Validate(required("title")),
						huh.NewSelect[int64]().Title("Project").Options(opts...).Value(&projectID),
						huh.NewInput().Title("Due date").Placeholder("YYYY-MM-DD").Value(&due).Validate(validDate),
					)).WithAccessible(a.cfg.Preferences.HighContrast)
					if err := form.RunWithContext(ctx); err != nil {
						return err
					}
				}

				if projectID != 0 {
					t.ProjectID = model.Ref(projectID)
				}
				if status != "" {
					t.Status = model.TaskStatus(status)
					if !t.Status.IsValid() {
						return fmt.Errorf("unknown task status %q", status)
					}
				}
				if due != "" {
					d, err := time.Parse(time.DateOnly, due)
					if err != nil {
						return fmt.Errorf("--due: %w", err)
					}
					t.DueDate = &d
				}
				if err := s.CreateTask(ctx, &t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %d %q\n", t.ID, t.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&t.Title, "title", "", "task title")
	cmd.Flags().Int64Var(&projectID, "project", 0, "owning project id")
	cmd.Flags().StringVar(&status, "status", "", "todo, in_progress, review or done")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [snapshot]",
		Short: "Fill the database from a snapshot, or with demo data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := demoDataset(time.Now())
			if len(args) == 1 {
				var err error
				if d, err = loader.Load(args[0]); err != nil {
					return err
				}
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				if err := s.Seed(ctx, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d clients, %d projects, %d tasks, %d files\n",
					len(d.Clients), len(d.Projects), len(d.Tasks), len(d.Attachments))
				return nil
			})
		},
	}
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write .crush/config.yaml in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(cwd, config.DirName, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default(filepath.Dir(path))
			if a.sourcePath != "" {
				cfg.Source = a.cfg.Source
			} else if found := config.ScanSources(cwd, 2); len(found) > 0 {
				cfg.Source.Path = found[0]
				cfg.Source.Kind = config.InferSourceKind(found[0])
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			if err := loader.EnsureGitignored(cwd, config.DirName); err != nil {
				a.logger.Warn("updating .gitignore", zap.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (source: %s)\n", path, cfg.Source.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

// withStore opens the writable store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	s, err := a.writableStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}()
	return fn(ctx, s)
}

// resolveClient accepts a numeric id or a case-insensitive client name.
func resolveClient(clients []model.Client, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, c := range clients {
			if c.ID == id {
				return id, nil
			}
		}
		return 0, fmt.Errorf("client %d: %w", id, store.ErrNotFound)
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("client %q: %w", ref, store.ErrNotFound)
}

func projectStatuses() []string {
	return []string{
		string(model.ProjectPlanning),
		string(model.ProjectActive),
		string(model.ProjectOnHold),
		string(model.ProjectCompleted),
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validDate(s string) error {
	if s == "" {
		return nil
	}
	_, err := time.Parse(time.DateOnly, s)
	return err
}
