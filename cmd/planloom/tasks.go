package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/engine"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/ui"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks of a schedule",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskUpdateCmd())
	cmd.AddCommand(taskRmCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var (
		flagStart   string
		flagEnd     string
		flagStatus  string
		flagPercent int
		flagAfter   []string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := model.ParseDate(flagStart)
			if err != nil {
				return err
			}
			end, err := model.ParseDate(flagEnd)
			if err != nil {
				return err
			}
			in := engine.TaskInput{
				Name:      args[0],
				StartDate: start,
				EndDate:   end,
				Status:    model.TaskStatus(flagStatus),
			}
			if cmd.Flags().Changed("percent") {
				in.PercentComplete = &flagPercent
			}

			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				var preds []string
				for _, ref := range flagAfter {
					id, err := resolveTask(cur, ref)
					if err != nil {
						return err
					}
					preds = append(preds, id)
				}

				s, taskID, err := e.AddTask(cur.ID, in)
				if err != nil {
					return err
				}
				for _, pred := range preds {
					s, _, err = e.AddDependency(cur.ID, engine.DependencyInput{PredecessorID: pred, SuccessorID: taskID})
					if err != nil {
						return err
					}
				}

				if flagJSON {
					return outputJSON(s.Task(taskID))
				}
				t := s.Task(taskID)
				printOK("task %s added %s %s", ui.Bold(t.Name), ui.Dim("("+taskID+")"), ui.CriticalMark(t.IsCritical))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagStart, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagEnd, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagStatus, "status", "", "new, in_progress, completed or blocked")
	cmd.Flags().IntVar(&flagPercent, "percent", 0, "Percent complete for in_progress tasks")
	cmd.Flags().StringArrayVar(&flagAfter, "after", nil, "Predecessor task id or name (repeatable)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var (
		flagName    string
		flagStart   string
		flagEnd     string
		flagStatus  string
		flagPercent int
	)

	cmd := &cobra.Command{
		Use:   "update TASK",
		Short: "Change task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p engine.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &flagName
			}
			if flags.Changed("start") {
				d, err := model.ParseDate(flagStart)
				if err != nil {
					return err
				}
				p.StartDate = &d
			}
			if flags.Changed("end") {
				d, err := model.ParseDate(flagEnd)
				if err != nil {
					return err
				}
				p.EndDate = &d
			}
			if flags.Changed("status") {
				st := model.TaskStatus(flagStatus)
				p.Status = &st
			}
			if flags.Changed("percent") {
				p.PercentComplete = &flagPercent
			}

			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				taskID, err := resolveTask(cur, args[0])
				if err != nil {
					return err
				}
				s, err := e.UpdateTask(cur.ID, taskID, p)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(s.Task(taskID))
				}
				printOK("task %s updated, schedule progress %.1f%%", ui.Bold(s.Task(taskID).Name), s.Progress)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagName, "name", "", "New name")
	cmd.Flags().StringVar(&flagStart, "start", "", "Start date")
	cmd.Flags().StringVar(&flagEnd, "end", "", "End date")
	cmd.Flags().StringVar(&flagStatus, "status", "", "new, in_progress, completed or blocked")
	cmd.Flags().IntVar(&flagPercent, "percent", 0, "Percent complete")
	return cmd
}

func taskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm TASK",
		Short: "Remove a task and its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				taskID, err := resolveTask(cur, args[0])
				if err != nil {
					return err
				}
				if _, err := e.RemoveTask(cur.ID, taskID); err != nil {
					return err
				}
				printOK("task %s removed", taskID)
				return nil
			})
		},
	}
}

func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage finish-to-start dependencies",
	}
	cmd.AddCommand(depAddCmd())
	cmd.AddCommand(depRmCmd())
	return cmd
}

func depAddCmd() *cobra.Command {
	var flagLag int
	var flagType string

	cmd := &cobra.Command{
		Use:   "add PREDECESSOR SUCCESSOR",
		Short: "Make SUCCESSOR wait for PREDECESSOR to finish",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				pred, err := resolveTask(cur, args[0])
				if err != nil {
					return err
				}
				succ, err := resolveTask(cur, args[1])
				if err != nil {
					return err
				}
				s, depID, err := e.AddDependency(cur.ID, engine.DependencyInput{
					PredecessorID: pred,
					SuccessorID:   succ,
					Type:          model.DependencyType(flagType),
					Lag:           flagLag,
				})
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(map[string]interface{}{"dependency_id": depID, "critical_path": s.CriticalPath})
				}
				printOK("%s → %s %s", pred, succ, ui.Dim("("+depID+")"))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&flagLag, "lag", 0, "Days between predecessor finish and successor start (may be negative)")
	cmd.Flags().StringVar(&flagType, "type", string(model.FinishToStart), "Dependency type")
	return cmd
}

func depRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm DEPENDENCY_ID",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				if _, err := e.RemoveDependency(cur.ID, args[0]); err != nil {
					return err
				}
				printOK("dependency %s removed", args[0])
				return nil
			})
		},
	}
}

func resourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"resources"},
		Short:   "Manage resources and their availability windows",
	}
	cmd.AddCommand(resourceAddCmd())
	cmd.AddCommand(resourceWindowCmd())
	cmd.AddCommand(resourceRmCmd())
	return cmd
}

func resourceAddCmd() *cobra.Command {
	var flagWindows []string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := parseWindows(flagWindows)
			if err != nil {
				return err
			}
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				_, rid, err := e.AddResource(cur.ID, engine.ResourceInput{Name: args[0], Availability: windows})
				if err != nil {
					return err
				}
				printOK("resource %s added %s", ui.Bold(args[0]), ui.Dim("("+rid+")"))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&flagWindows, "window", nil, "Availability START/END[=QTY] (repeatable)")
	return cmd
}

func resourceWindowCmd() *cobra.Command {
	var flagWindows []string
	var flagClear bool

	cmd := &cobra.Command{
		Use:   "window RESOURCE",
		Short: "Add availability windows to a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := parseWindows(flagWindows)
			if err != nil {
				return err
			}
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				rid, err := resolveResource(cur, args[0])
				if err != nil {
					return err
				}
				all := windows
				if !flagClear {
					all = append(slices.Clone(cur.Resource(rid).Availability), windows...)
				}
				if _, err := e.UpdateResource(cur.ID, rid, engine.ResourcePatch{Availability: &all}); err != nil {
					return err
				}
				printOK("resource %s has %d availability windows", rid, len(all))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&flagWindows, "window", nil, "Availability START/END[=QTY] (repeatable)")
	cmd.Flags().BoolVar(&flagClear, "replace", false, "Replace existing windows instead of adding")
	return cmd
}

func resourceRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm RESOURCE",
		Short: "Remove a resource (assignments to it become conflicts)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				rid, err := resolveResource(cur, args[0])
				if err != nil {
					return err
				}
				if _, err := e.RemoveResource(cur.ID, rid); err != nil {
					return err
				}
				printOK("resource %s removed", rid)
				return nil
			})
		},
	}
}

func assignCmd() *cobra.Command {
	var flagQty int
	var flagRemove bool

	cmd := &cobra.Command{
		Use:   "assign TASK RESOURCE",
		Short: "Set how many units of a resource a task needs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateWorkspace(func(e *engine.Engine) error {
				cur, err := currentSchedule(e)
				if err != nil {
					return err
				}
				taskID, err := resolveTask(cur, args[0])
				if err != nil {
					return err
				}
				rid, err := resolveResource(cur, args[1])
				if err != nil {
					return err
				}

				assignments := slices.DeleteFunc(slices.Clone(cur.Task(taskID).Resources), func(a model.Assignment) bool {
					return a.ResourceID == rid
				})
				if !flagRemove {
					assignments = append(assignments, model.Assignment{ResourceID: rid, Quantity: flagQty})
				}
				if _, err := e.UpdateTask(cur.ID, taskID, engine.TaskPatch{Resources: &assignments}); err != nil {
					return err
				}

				if flagRemove {
					printOK("%s no longer uses %s", taskID, rid)
					return nil
				}
				conflicts, err := e.DetectResourceConflicts(cur.ID)
				if err != nil {
					return err
				}
				printOK("%s needs %d × %s", taskID, flagQty, rid)
				for _, c := range conflicts {
					if c.TaskID == taskID && c.ResourceID == rid {
						fmt.Printf("  %s %s\n", ui.BoldYellow("⚠"), ui.ConflictLabel(string(c.Type)))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&flagQty, "qty", 1, "Units required")
	cmd.Flags().BoolVar(&flagRemove, "remove", false, "Drop the assignment")
	return cmd
}
