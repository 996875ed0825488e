package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/engine"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/reporter"
	"github.com/joshharrison/planloom/internal/store"
	"github.com/joshharrison/planloom/internal/ui"
)

func initCmd() *cobra.Command {
	var flagForce bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty workspace file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Workspace.Path
			if store.Exists(path) {
				if !flagForce {
					return fmt.Errorf("workspace %s already exists (use --force to start over)", path)
				}
				old, err := store.Load(path)
				if err != nil {
					return err
				}
				id, err := old.Archive()
				if err != nil {
					return err
				}
				fmt.Printf("%s previous workspace archived as %s\n", ui.Dim("↳"), ui.Bold(id))
			}
			if err := store.New(path).Save(); err != nil {
				return err
			}
			if !flagJSON {
				ui.PrintBanner(cmd.OutOrStdout())
			}
			printOK("workspace created at %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagForce, "force", false, "Archive and replace an existing workspace")
	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"schedules"},
		Short:   "Manage schedules",
	}
	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleUpdateCmd())
	cmd.AddCommand(scheduleRmCmd())
	return cmd
}

func scheduleAddCmd() *cobra.Command {
	var (
		flagDescription string
		flagProject     string
		flagStatus      string
		flagStart       string
		flagEnd         string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseOptionalDate(flagStart)
			if err != nil {
				return err
			}
			end, err := parseOptionalDate(flagEnd)
			if err != nil {
				return err
			}

			return mutateWorkspace(func(e *engine.Engine) error {
				s, err := e.AddSchedule(engine.ScheduleInput{
					Name:        args[0],
					Description: flagDescription,
					ProjectID:   flagProject,
					Status:      flagStatus,
					StartDate:   start,
					EndDate:     end,
				})
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(s)
				}
				printOK("schedule %s created %s", ui.Bold(s.Name), ui.Dim("("+s.ID+")"))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagDescription, "description", "", "Description")
	cmd.Flags().StringVar(&flagProject, "project", "", "Project id")
	cmd.Flags().StringVar(&flagStatus, "status", "", "Free-form schedule status (e.g. draft, active)")
	cmd.Flags().StringVar(&flagStart, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagEnd, "end", "", "Declared end date (YYYY-MM-DD)")
	return cmd
}

func scheduleListCmd() *cobra.Command {
	var flagProject, flagStatus string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}

			var schedules []*model.Schedule
			switch {
			case flagProject != "" && flagStatus != "":
				for _, s := range e.SchedulesByProject(flagProject) {
					if s.Status == flagStatus {
						schedules = append(schedules, s)
					}
				}
			case flagProject != "":
				schedules = e.SchedulesByProject(flagProject)
			case flagStatus != "":
				schedules = e.SchedulesByStatus(flagStatus)
			default:
				schedules = e.Schedules()
			}

			if flagJSON {
				if schedules == nil {
					schedules = []*model.Schedule{}
				}
				return outputJSON(schedules)
			}
			reporter.PrintSchedules(cmd.OutOrStdout(), schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagProject, "project", "", "Only schedules of this project")
	cmd.Flags().StringVar(&flagStatus, "status", "", "Only schedules with this status")
	return cmd
}

func scheduleUpdateCmd() *cobra.Command {
	var (
		flagName        string
		flagDescription string
		flagProject     string
		flagStatus      string
		flagStart       string
		flagEnd         string
	)

	cmd := &cobra.Command{
		Use:   "update [SCHEDULE]",
		Short: "Change schedule fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := flagSchedule
			if len(args) == 1 {
				ref = args[0]
			}

			var p engine.SchedulePatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &flagName
			}
			if flags.Changed("description") {
				p.Description = &flagDescription
			}
			if flags.Changed("project") {
				p.ProjectID = &flagProject
			}
			if flags.Changed("status") {
				p.Status = &flagStatus
			}
			if flags.Changed("start") {
				d, err := parseOptionalDate(flagStart)
				if err != nil {
					return err
				}
				p.StartDate = &d
			}
			if flags.Changed("end") {
				d, err := parseOptionalDate(flagEnd)
				if err != nil {
					return err
				}
				p.EndDate = &d
			}

			return mutateWorkspace(func(e *engine.Engine) error {
				sid, err := resolveSchedule(e, ref)
				if err != nil {
					return err
				}
				s, err := e.UpdateSchedule(sid, p)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(s)
				}
				printOK("schedule %s updated", ui.Bold(s.Name))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagName, "name", "", "New name")
	cmd.Flags().StringVar(&flagDescription, "description", "", "Description")
	cmd.Flags().StringVar(&flagProject, "project", "", "Project id")
	cmd.Flags().StringVar(&flagStatus, "status", "", "Schedule status")
	cmd.Flags().StringVar(&flagStart, "start", "", "Start date (empty clears)")
	cmd.Flags().StringVar(&flagEnd, "end", "", "Declared end date (empty clears)")
	return cmd
}

func scheduleRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm SCHEDULE",
		Short: "Delete a schedule and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, e, err := openWorkspace()
			if err != nil {
				return err
			}
			sid, err := resolveSchedule(e, args[0])
			if err != nil {
				return err
			}
			if store.Exists(ws.Path()) {
				if _, err := ws.Archive(); err != nil {
					return err
				}
			}
			if err := e.RemoveSchedule(sid); err != nil {
				return err
			}
			if err := saveWorkspace(ws, e); err != nil {
				return err
			}
			printOK("schedule %s removed %s", sid, ui.Dim("(previous workspace archived)"))
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find schedules by name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := openWorkspace()
			if err != nil {
				return err
			}
			found := e.SearchSchedules(args[0])
			if flagJSON {
				if found == nil {
					found = []*model.Schedule{}
				}
				return outputJSON(found)
			}
			reporter.PrintSchedules(cmd.OutOrStdout(), found)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var flagRestore string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or restore archived copies of the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Workspace.Path

			if flagRestore != "" {
				archived, err := store.LoadArchived(path, flagRestore)
				if err != nil {
					return err
				}
				// Validate before overwriting anything.
				if err := newEngine(logger).Load(archived.Schedules); err != nil {
					return fmt.Errorf("archive %s: %w", flagRestore, err)
				}
				if store.Exists(path) {
					cur, err := store.Load(path)
					if err != nil {
						return err
					}
					if _, err := cur.Archive(); err != nil {
						return err
					}
				}
				if err := archived.Save(); err != nil {
					return err
				}
				printOK("workspace restored from %s", flagRestore)
				return nil
			}

			ids, err := store.ListHistory(path)
			if err != nil {
				return err
			}
			if flagJSON {
				if ids == nil {
					ids = []string{}
				}
				return outputJSON(ids)
			}
			if len(ids) == 0 {
				fmt.Println(ui.Dim("no archived workspaces"))
				return nil
			}
			for _, id := range ids {
				fmt.Printf("  %s\n", ui.Bold(id))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagRestore, "restore", "", "Restore the archive with this id")
	return cmd
}
