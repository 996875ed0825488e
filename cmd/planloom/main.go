package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshharrison/planloom/internal/config"
	"github.com/joshharrison/planloom/internal/engine"
	"github.com/joshharrison/planloom/internal/logging"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/store"
	"github.com/joshharrison/planloom/internal/ui"
)

var (
	flagConfig    string
	flagWorkspace string
	flagSchedule  string
	flagJSON      bool
	flagVerbose   bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planloom",
		Short: "Critical path scheduling for project plans",
		Long: `Planloom keeps project schedules in a workspace file, computes the critical
path, slack and weighted progress of each schedule, detects resource
conflicts and tracks drift against a saved baseline.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(flagConfig); err != nil {
				return err
			}
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if flagWorkspace != "" {
				cfg.Workspace.Path = flagWorkspace
			}
			if flagVerbose {
				cfg.Logger.Level = "debug"
			}
			logger = logging.BuildOrNop(cfg.Logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./planloom.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace file (overrides workspace.path)")
	rootCmd.PersistentFlags().StringVarP(&flagSchedule, "schedule", "s", "", "Schedule id or name (optional when only one exists)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(depCmd())
	rootCmd.AddCommand(resourceCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(conflictsCmd())
	rootCmd.AddCommand(baselineCmd())
	rootCmd.AddCommand(varianceCmd())
	rootCmd.AddCommand(deadlinesCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(watchCmd())

	return rootCmd
}

// --- Workspace helpers ---

func newEngine(l *zap.Logger) *engine.Engine {
	return engine.New(
		engine.WithLogger(l),
		engine.WithSettings(engine.SettingsFrom(cfg.Engine)),
	)
}

// openWorkspace loads the workspace file into a fresh engine.
func openWorkspace() (*store.Workspace, *engine.Engine, error) {
	ws, err := store.Open(cfg.Workspace.Path)
	if err != nil {
		return nil, nil, err
	}
	e := newEngine(logger)
	if err := e.Load(ws.Schedules); err != nil {
		return nil, nil, fmt.Errorf("load workspace %s: %w", ws.Path(), err)
	}
	return ws, e, nil
}

// saveWorkspace writes the engine state back to the workspace file.
func saveWorkspace(ws *store.Workspace, e *engine.Engine) error {
	ws.SetSchedules(e.Schedules())
	if err := ws.Save(); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	logger.Debug("workspace saved", zap.String("path", ws.Path()), zap.Int("schedules", len(ws.Schedules)))
	return nil
}

// mutateWorkspace opens the workspace, runs fn and saves on success.
func mutateWorkspace(fn func(e *engine.Engine) error) error {
	ws, e, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return err
	}
	return saveWorkspace(ws, e)
}

// resolveSchedule maps an id or a case-insensitive name to a schedule id.
// An empty ref selects the only schedule when exactly one exists.
func resolveSchedule(e *engine.Engine, ref string) (string, error) {
	all := e.Schedules()
	if ref == "" {
		switch len(all) {
		case 0:
			return "", fmt.Errorf("no schedules in workspace (run 'planloom schedule add')")
		case 1:
			return all[0].ID, nil
		default:
			return "", fmt.Errorf("%d schedules in workspace, pick one with --schedule", len(all))
		}
	}

	for _, s := range all {
		if s.ID == ref {
			return s.ID, nil
		}
	}
	var matches []string
	for _, s := range all {
		if strings.EqualFold(s.Name, ref) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		names := make([]string, len(all))
		for i, s := range all {
			names[i] = s.Name
		}
		return "", notFound("schedule", ref, names)
	default:
		return "", fmt.Errorf("schedule name %q is ambiguous (%s), use the id", ref, strings.Join(matches, ", "))
	}
}

// resolveTask maps a task id or case-insensitive name to a task id.
func resolveTask(s *model.Schedule, ref string) (string, error) {
	if t := s.Task(ref); t != nil {
		return t.ID, nil
	}
	var matches []string
	names := make([]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		names = append(names, t.Name)
		if strings.EqualFold(t.Name, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", notFound("task", ref, names)
	default:
		return "", fmt.Errorf("task name %q is ambiguous (%s), use the id", ref, strings.Join(matches, ", "))
	}
}

// resolveResource maps a resource id or case-insensitive name to a resource id.
func resolveResource(s *model.Schedule, ref string) (string, error) {
	if r := s.Resource(ref); r != nil {
		return r.ID, nil
	}
	names := make([]string, 0, len(s.Resources))
	for _, r := range s.Resources {
		names = append(names, r.Name)
		if strings.EqualFold(r.Name, ref) {
			return r.ID, nil
		}
	}
	return "", notFound("resource", ref, names)
}

// notFound wraps model.NotFoundError with a suggestion for a close name.
func notFound(kind, ref string, candidates []string) error {
	err := model.NewNotFoundError(kind, ref)
	if s := suggest(ref, candidates); s != "" {
		return fmt.Errorf("%w (did you mean %q?)", err, s)
	}
	return err
}

// suggest returns the candidate closest to ref, or "" if none is close.
func suggest(ref string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(ref), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(ref)/3) {
		return ""
	}
	return best
}

// currentSchedule resolves --schedule against e and returns its snapshot.
func currentSchedule(e *engine.Engine) (*model.Schedule, error) {
	sid, err := resolveSchedule(e, flagSchedule)
	if err != nil {
		return nil, err
	}
	return e.Schedule(sid)
}

// --- Flag parsing helpers ---

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}

// parseWindow parses START/END or START/END=QTY. Quantity defaults to 1.
func parseWindow(s string) (model.Availability, error) {
	span, qtyStr, hasQty := strings.Cut(s, "=")
	startStr, endStr, ok := strings.Cut(span, "/")
	if !ok {
		return model.Availability{}, model.NewValidationError("window", s, "expected START/END[=QTY]")
	}
	start, err := model.ParseDate(startStr)
	if err != nil {
		return model.Availability{}, err
	}
	end, err := model.ParseDate(endStr)
	if err != nil {
		return model.Availability{}, err
	}
	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(qtyStr)
		if err != nil {
			return model.Availability{}, model.NewValidationError("window quantity", qtyStr, "expected an integer")
		}
	}
	return model.Availability{StartDate: start, EndDate: end, Quantity: qty}, nil
}

func parseWindows(specs []string) ([]model.Availability, error) {
	out := make([]model.Availability, 0, len(specs))
	for _, s := range specs {
		w, err := parseWindow(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printOK(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", ui.Green("✓"), fmt.Sprintf(format, args...))
}
