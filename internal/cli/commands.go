package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/p-n-ai/coursekit/internal/curriculum"
	"github.com/p-n-ai/coursekit/internal/progress"
	"github.com/p-n-ai/coursekit/internal/report"
	"github.com/p-n-ai/coursekit/internal/validator"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List curriculum modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := app.catalog.Discover()
			if err != nil {
				return err
			}
			w := out(cmd)
			if len(modules) == 0 {
				fmt.Fprintf(w, "No modules found in %s\n", app.catalog.Root())
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MODULE\tTITLE\tEXERCISES\tSOLUTIONS\tTESTS")
			for _, m := range modules {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n",
					m.ID, m.Title(), len(m.ExerciseNames()), len(m.Solutions), len(m.Tests))
			}
			return tw.Flush()
		},
	}
}

func newValidateCommand(app *App) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [moduleId]",
		Short: "Check modules for missing solutions, tests and objectives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict = strict || app.cfg.Curriculum.Strict

			if len(args) == 1 {
				res := app.validator.ValidateModule(args[0])
				fmt.Fprint(out(cmd), validator.GenerateReport(res))
				if strict && !res.Valid {
					return ErrInvalidCurriculum
				}
				return nil
			}

			all, err := app.validator.ValidateAll()
			if err != nil {
				return err
			}
			fmt.Fprint(out(cmd), validator.GenerateSummary(all))
			if strict && all.InvalidModules > 0 {
				return ErrInvalidCurriculum
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any module is invalid")
	return cmd
}

func newProgressCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show progress across all modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}
			modules, err := app.catalog.Discover()
			if err != nil {
				return err
			}
			writeProgress(out(cmd), store.OverallProgress(modules))
			return nil
		},
	}
}

func writeProgress(w io.Writer, op progress.OverallProgress) {
	fmt.Fprintf(w, "Overall: %d/%d exercises (%d%%), %d/%d modules complete\n",
		op.CompletedInCatalog, op.TotalExercises, op.Percentage, op.CompletedModules, op.TotalModules)
	if op.CurrentModule != "" {
		fmt.Fprintf(w, "Current: %s exercise %s\n", op.CurrentModule, op.CurrentExercise)
	}
	if op.LastActivity.IsZero() {
		fmt.Fprintln(w, "Last activity: never")
	} else {
		fmt.Fprintf(w, "Last activity: %s\n", op.LastActivity.Local().Format("2006-01-02 15:04"))
	}

	if len(op.Modules) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, mp := range op.Modules {
		mark := " "
		if mp.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s %3d%%  %s (%d/%d)\n",
			mark, bar(mp.Percentage, 20), mp.Percentage, mp.ModuleID, mp.CompletedExercises, mp.TotalExercises)
	}
}

func bar(percent, width int) string {
	filled := percent * width / 100
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

func newStartCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <moduleId> <exerciseId>",
		Short: "Mark an exercise as started",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID, exerciseID := args[0], args[1]
			m, err := app.module(moduleID)
			if err != nil {
				return err
			}
			if !slices.Contains(m.ExerciseNames(), exerciseID) {
				return fmt.Errorf("module %s has no exercise %s", moduleID, exerciseID)
			}

			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.StartExercise(moduleID, exerciseID); err != nil {
				return err
			}

			w := out(cmd)
			fmt.Fprintf(w, "Started %s exercise %s\n", moduleID, exerciseID)
			if ex, ok := m.Find(curriculum.RoleExercise, exerciseID, curriculum.LanguagePrimary); ok {
				fmt.Fprintf(w, "Open %s\n", ex.Path)
			}
			return nil
		},
	}
}

func newCompleteCommand(app *App) *cobra.Command {
	var failed bool

	cmd := &cobra.Command{
		Use:   "complete <moduleId> <exerciseId>",
		Short: "Record an exercise completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID, exerciseID := args[0], args[1]
			m, err := app.module(moduleID)
			if err != nil {
				return err
			}
			if !slices.Contains(m.ExerciseNames(), exerciseID) {
				return fmt.Errorf("module %s has no exercise %s", moduleID, exerciseID)
			}

			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}
			alreadyDone := store.Record().IsModuleCompleted(moduleID)
			if err := store.CompleteExercise(moduleID, exerciseID, !failed); err != nil {
				return err
			}

			w := out(cmd)
			result := "tests passed"
			if failed {
				result = "tests failed"
			}
			fmt.Fprintf(w, "Completed %s exercise %s (%s)\n", moduleID, exerciseID, result)

			mp := store.ModuleProgress(moduleID, *m)
			fmt.Fprintf(w, "Module progress: %d/%d (%d%%)\n", mp.CompletedExercises, mp.TotalExercises, mp.Percentage)
			if mp.Completed && !alreadyDone {
				if err := store.CompleteModule(moduleID); err != nil {
					return err
				}
				fmt.Fprintf(w, "Module %s complete\n", moduleID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failed, "failed", false, "record that the exercise tests did not pass")
	return cmd
}

func newStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and test statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := app.catalog.Statistics()
			if err != nil {
				return err
			}
			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}
			ps := store.Record().Stats

			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Modules:\t%d\n", cs.Modules)
			fmt.Fprintf(tw, "Exercise files:\t%d (%s %d, %s %d)\n", cs.Exercises,
				app.catalog.Extension(curriculum.LanguagePrimary), cs.PrimaryExercises,
				app.catalog.Extension(curriculum.LanguageAlternative), cs.AlternativeExercises)
			fmt.Fprintf(tw, "Solution files:\t%d\n", cs.Solutions)
			fmt.Fprintf(tw, "Test files:\t%d\n", cs.Tests)
			fmt.Fprintf(tw, "Completed exercises:\t%d\n", ps.TotalCompleted)
			fmt.Fprintf(tw, "Passed attempts:\t%d\n", ps.PassedTests)
			fmt.Fprintf(tw, "Failed attempts:\t%d\n", ps.FailedTests)
			return tw.Flush()
		},
	}
}

func newResetCommand(app *App) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all recorded progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := out(cmd)
			if !confirm {
				fmt.Fprintln(w, "This erases all recorded progress. Re-run with --confirm to proceed.")
				return nil
			}
			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(w, "Progress reset.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm erasing all progress")
	return cmd
}

func newDiffCommand(app *App) *cobra.Command {
	var alt bool

	cmd := &cobra.Command{
		Use:   "diff <moduleId> <exerciseId>",
		Short: "Show what a solution changes relative to its exercise",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := curriculum.LanguagePrimary
			if alt {
				lang = curriculum.LanguageAlternative
			}
			w := out(cmd)
			d, err := app.validator.Diff(args[0], args[1], lang, isTerminal(w))
			if err != nil {
				return err
			}
			fmt.Fprintln(w, d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&alt, "alt", false, "diff the alternative-language files")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newExportCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write modules, validation and progress to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := app.catalog.Discover()
			if err != nil {
				return err
			}
			all, err := app.validator.ValidateAll()
			if err != nil {
				return err
			}
			store, err := app.progressStore(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := report.WriteWorkbook(f, modules, all, store.OverallProgress(modules)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}
			fmt.Fprintf(out(cmd), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "progress.xlsx", "spreadsheet to write")
	return cmd
}
