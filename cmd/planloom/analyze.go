package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/engine"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/reporter"
	"github.com/joshharrison/planloom/internal/ui"
)

// analyzeSchedule recomputes a schedule and gathers everything the reporter needs.
func analyzeSchedule(e *engine.Engine, sid string) (*reporter.Reporter, error) {
	if _, err := e.CalculateCriticalPath(sid); err != nil {
		return nil, fmt.Errorf("critical path: %w", err)
	}
	if _, err := e.CalculateProgress(sid); err != nil {
		return nil, err
	}
	s, err := e.Schedule(sid)
	if err != nil {
		return nil, err
	}
	result, err := e.CriticalPathAnalysis(sid)
	if err != nil {
		return nil, err
	}
	conflicts, err := e.DetectResourceConflicts(sid)
	if err != nil {
		return nil, err
	}
	return reporter.New(s, result, conflicts), nil
}

func analyzeCmd() *cobra.Command {
	var flagTable, flagAll bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute critical path, slack and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				var ids []string
				if flagAll {
					for _, s := range e.Schedules() {
						ids = append(ids, s.ID)
					}
				} else {
					sid, err := resolveSchedule(e, flagSchedule)
					if err != nil {
						return err
					}
					ids = []string{sid}
				}

				out := cmd.OutOrStdout()
				for _, sid := range ids {
					rpt, err := analyzeSchedule(e, sid)
					if err != nil {
						return err
					}
					if flagJSON {
						data, err := rpt.JSON()
						if err != nil {
							return err
						}
						fmt.Fprintln(out, string(data))
						continue
					}
					if flagTable {
						rpt.PrintTable(out)
						fmt.Fprintln(out)
						continue
					}
					rpt.PrintStatus(out)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&flagTable, "table", false, "Print ES/EF/LS/LF table instead of waves")
	cmd.Flags().BoolVar(&flagAll, "all", false, "Analyze every schedule")
	return cmd
}

func conflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Report resource overallocation and unavailability",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}
			s, err := currentSchedule(e)
			if err != nil {
				return err
			}
			conflicts, err := e.DetectResourceConflicts(s.ID)
			if err != nil {
				return err
			}
			if flagJSON {
				if conflicts == nil {
					conflicts = []model.Conflict{}
				}
				return outputJSON(conflicts)
			}
			reporter.New(s, nil, conflicts).PrintConflicts(cmd.OutOrStdout())
			return nil
		},
	}
}

func baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save or restore the schedule baseline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Snapshot current dates as the baseline (replaces any previous one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				sid, err := resolveSchedule(e, flagSchedule)
				if err != nil {
					return err
				}
				s, err := e.SaveBaseline(sid)
				if err != nil {
					return err
				}
				printOK("baseline saved for %s (%d tasks)", ui.Bold(s.Name), len(s.Baseline.Tasks))
				return nil
			})
		},
	})

	var flagNoRecompute bool
	revert := &cobra.Command{
		Use:   "revert",
		Short: "Restore baselined dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, e, err := openWorkspace()
			if err != nil {
				return err
			}
			sid, err := resolveSchedule(e, flagSchedule)
			if err != nil {
				return err
			}
			s, err := e.RevertToBaseline(sid)
			if err != nil {
				return err
			}
			if s.Baseline == nil {
				fmt.Printf("%s no baseline saved for %s, nothing to revert\n", ui.Yellow("⊘"), s.Name)
				return nil
			}
			if _, err := ws.Archive(); err != nil {
				return err
			}
			if !flagNoRecompute {
				if _, err := e.CalculateCriticalPath(sid); err != nil {
					return err
				}
				if _, err := e.CalculateProgress(sid); err != nil {
					return err
				}
			}
			if err := saveWorkspace(ws, e); err != nil {
				return err
			}
			printOK("%s reverted to baseline %s", ui.Bold(s.Name), ui.Dim("(previous workspace archived)"))
			return nil
		},
	}
	revert.Flags().BoolVar(&flagNoRecompute, "no-recompute", false, "Leave critical path and progress as they were")
	cmd.AddCommand(revert)

	return cmd
}

func varianceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variance",
		Short: "Compare current dates with the baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}
			s, err := currentSchedule(e)
			if err != nil {
				return err
			}
			rep, err := e.Variance(s.ID)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(rep)
			}
			reporter.PrintVariance(cmd.OutOrStdout(), s, rep)
			return nil
		},
	}
}

func deadlinesCmd() *cobra.Command {
	var flagDays int

	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "List tasks due soon across all schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}
			days := cfg.Engine.UpcomingDays
			if cmd.Flags().Changed("days") {
				days = flagDays
			}
			deadlines := e.UpcomingDeadlines(days)
			if flagJSON {
				if deadlines == nil {
					deadlines = []engine.Deadline{}
				}
				return outputJSON(deadlines)
			}
			reporter.PrintDeadlines(cmd.OutOrStdout(), deadlines, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagDays, "days", 0, "Lookahead in days (default engine.upcoming_days)")
	return cmd
}

func vizCmd() *cobra.Command {
	var flagFormat, flagFilter string

	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the dependency graph as Graphviz DOT or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}
			s, err := currentSchedule(e)
			if err != nil {
				return err
			}
			result, err := e.CriticalPathAnalysis(s.ID)
			if err != nil {
				return err
			}
			g, err := graph.Build(s.Tasks)
			if err != nil {
				return err
			}
			if flagFilter != "" {
				g, err = applyFilter(g, flagFilter)
				if err != nil {
					return fmt.Errorf("apply filter: %w", err)
				}
			}

			switch flagFormat {
			case "dot":
				reporter.PrintDOT(cmd.OutOrStdout(), g, result)
				return nil
			case "json":
				return reporter.WriteGraphJSON(cmd.OutOrStdout(), s, g, result)
			default:
				return fmt.Errorf("unsupported format %q (use dot or json)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "dot", "Output format (dot, json)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks: status=X, resource=ID or critical")
	return cmd
}

// applyFilter parses simple filter expressions and returns a filtered graph.
// Analysis values still come from the full schedule.
func applyFilter(g *graph.TaskGraph, filter string) (*graph.TaskGraph, error) {
	switch {
	case filter == "critical":
		return g.Filter(func(t *model.Task) bool { return t.IsCritical }), nil
	case strings.HasPrefix(filter, "status="):
		status := model.TaskStatus(strings.TrimPrefix(filter, "status="))
		if !status.Valid() {
			return nil, model.NewValidationError("status", string(status), "expected new, in_progress, completed or blocked")
		}
		return g.Filter(func(t *model.Task) bool { return t.Status == status }), nil
	case strings.HasPrefix(filter, "resource="):
		rid := strings.TrimPrefix(filter, "resource=")
		return g.Filter(func(t *model.Task) bool {
			for _, a := range t.Resources {
				if a.ResourceID == rid {
					return true
				}
			}
			return false
		}), nil
	}
	return nil, fmt.Errorf("unsupported filter: %s (use status=X, resource=ID or critical)", filter)
}
