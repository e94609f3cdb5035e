// Package cli implements the coursekit command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/coursekit/internal/curriculum"
	"github.com/p-n-ai/coursekit/internal/platform/config"
	"github.com/p-n-ai/coursekit/internal/progress"
	"github.com/p-n-ai/coursekit/internal/validator"
)

// ErrInvalidCurriculum is returned by `validate --strict` when any module fails.
var ErrInvalidCurriculum = errors.New("curriculum has invalid modules")

// App holds the instances shared by every subcommand. Catalog and Validator are
// built once flags are parsed; the progress store is opened on first use.
// The HTTP server opens its own store per request instead, so it sees writes made
// by other processes and never holds a backend lock between requests.
type App struct {
	cfg       *config.Config
	catalog   *curriculum.Catalog
	validator *validator.Validator
	store     *progress.Store
}

// New creates an App from loaded configuration.
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Close releases the progress store if one was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) setup() {
	c := a.cfg.Curriculum
	a.catalog = curriculum.NewCatalog(c.Path,
		curriculum.WithExtensions(c.PrimaryExt, c.AlternativeExt),
		curriculum.WithDescriptionFile(c.DescriptionFile),
	)
	a.validator = validator.New(a.catalog)
	slog.Debug("catalog ready", "root", a.catalog.Root())
}

// progressStore returns the store shared by the commands of one invocation.
func (a *App) progressStore(ctx context.Context) (*progress.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// openStore opens a new store on the configured backend. The caller closes it.
func (a *App) openStore(ctx context.Context) (*progress.Store, error) {
	p, err := progress.OpenPersister(ctx, a.cfg.Backend())
	if err != nil {
		return nil, fmt.Errorf("opening progress backend %s: %w", a.cfg.Progress.Backend, err)
	}
	store, err := progress.NewStore(p)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "coursekit",
		Short: "Manage and track a numbered exercise curriculum",
		Long: `coursekit discovers curriculum modules, checks that every exercise has a
matching solution and test, and records a learner's progress.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.setup()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.cfg.Curriculum.Path, "root", app.cfg.Curriculum.Path,
		"curriculum root directory")
	root.PersistentFlags().StringVar(&app.cfg.Progress.Path, "progress", app.cfg.Progress.Path,
		"progress location for the selected backend")

	root.AddCommand(
		newListCommand(app),
		newValidateCommand(app),
		newProgressCommand(app),
		newStartCommand(app),
		newCompleteCommand(app),
		newStatsCommand(app),
		newResetCommand(app),
		newDiffCommand(app),
		newExportCommand(app),
		newServeCommand(app),
	)
	return root
}

func (a *App) module(id string) (*curriculum.ModuleEntry, error) {
	m, ok := a.catalog.LoadModule(id)
	if !ok {
		return nil, fmt.Errorf("module %s not found under %s", id, a.catalog.Root())
	}
	return m, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
