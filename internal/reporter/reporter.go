package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshharrison/planloom/internal/baseline"
	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/engine"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/ui"
)

const titleWidth = 32

// Reporter renders an analysed schedule.
type Reporter struct {
	Schedule  *model.Schedule
	Analysis  *cpm.Result
	Conflicts []model.Conflict
}

// New creates a new Reporter.
func New(s *model.Schedule, analysis *cpm.Result, conflicts []model.Conflict) *Reporter {
	return &Reporter{Schedule: s, Analysis: analysis, Conflicts: conflicts}
}

// date converts a day offset from the analysis origin to a calendar date.
func (r *Reporter) date(offset int) string {
	if r.Analysis.Origin.IsZero() {
		return "-"
	}
	return model.AddDays(r.Analysis.Origin, offset).Format(time.DateOnly)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// PrintStatus writes a terminal-friendly overview: progress, span, critical
// path and the tasks grouped into parallel waves.
func (r *Reporter) PrintStatus(w io.Writer) {
	s := r.Schedule
	fmt.Fprintf(w, "📅 %s %s\n", ui.BoldCyan(s.Name), ui.Dim("("+s.ID+")"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))

	fmt.Fprintf(w, "Progress:  %s %s\n", ui.ProgressBar(s.Progress, 20), ui.Bold(fmt.Sprintf("%.1f%%", s.Progress)))
	fmt.Fprintf(w, "Tasks:     %s\n", ui.Bold(len(s.Tasks)))
	if len(s.Tasks) > 0 {
		fmt.Fprintf(w, "Span:      %s days (%s → %s)\n",
			ui.Bold(r.Analysis.TotalDuration), r.date(0), r.date(r.Analysis.TotalDuration))
	}
	if len(r.Analysis.CriticalPath) > 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s (%d tasks)\n",
			ui.BoldYellow(strings.Join(r.Analysis.CriticalPath, " → ")), len(r.Analysis.CriticalPath))
	} else if len(s.Tasks) > 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s\n", ui.Dim("none (every chain has slack)"))
	}
	if n := len(r.Conflicts); n > 0 {
		fmt.Fprintf(w, "Conflicts: %s\n", ui.BoldRed(fmt.Sprintf("%d resource conflicts", n)))
	}
	fmt.Fprintln(w)

	for _, wave := range r.Analysis.Waves {
		fmt.Fprintf(w, "  🌊 %s %d %s (%d tasks)\n",
			ui.BoldWhite("WAVE"), wave.Index+1, ui.Dim("from "+r.date(wave.Start)), len(wave.TaskIDs))
		for _, id := range wave.TaskIDs {
			r.printTask(w, id)
		}
		fmt.Fprintln(w)
	}
}

func (r *Reporter) printTask(w io.Writer, id string) {
	t := r.Schedule.Task(id)
	ts := r.Analysis.Tasks[id]
	if t == nil || ts == nil {
		return
	}
	title := truncate(t.Name, titleWidth)
	fmt.Fprintf(w, "    %s %s %-*s %s  %s %s\n",
		ui.StatusIcon(string(t.Status)),
		ui.BoldMagenta(fmt.Sprintf("%-10s", id)),
		titleWidth, title,
		ui.CriticalMark(ts.IsCritical),
		ui.Dim(fmt.Sprintf("%dd", ts.Duration)),
		ui.Dim("slack ")+ui.Slack(ts.Slack))
}

// PrintTable writes one row per task with the computed CPM times.
func (r *Reporter) PrintTable(w io.Writer) {
	fmt.Fprintf(w, "  %-10s %-*s %-10s %-10s %4s %4s %4s %4s %4s %6s\n",
		"ID", titleWidth, "TASK", "START", "END", "DUR", "ES", "EF", "LS", "LF", "SLACK")
	for _, id := range r.Analysis.TopoOrder {
		t := r.Schedule.Task(id)
		ts := r.Analysis.Tasks[id]
		if t == nil || ts == nil {
			continue
		}
		slack := fmt.Sprintf("%6d", ts.Slack)
		if ts.IsCritical {
			slack = ui.BoldYellow(slack)
		}
		fmt.Fprintf(w, "%s %-10s %-*s %-10s %-10s %4d %4d %4d %4d %4d %s\n",
			ui.CriticalMark(ts.IsCritical), id, titleWidth, truncate(t.Name, titleWidth),
			t.StartDate.Format(time.DateOnly), t.EndDate.Format(time.DateOnly),
			ts.Duration, ts.ES, ts.EF, ts.LS, ts.LF, slack)
	}
}

// PrintConflicts lists resource conflicts, or a reassuring line if none.
func (r *Reporter) PrintConflicts(w io.Writer) {
	if len(r.Conflicts) == 0 {
		fmt.Fprintf(w, "%s no resource conflicts\n", ui.Green("✓"))
		return
	}
	fmt.Fprintf(w, "%s\n", ui.BoldRed(fmt.Sprintf("%d resource conflicts:", len(r.Conflicts))))
	for _, c := range r.Conflicts {
		name := c.ResourceID
		if res := r.Schedule.Resource(c.ResourceID); res != nil && res.Name != "" {
			name = res.Name
		}
		fmt.Fprintf(w, "  %s %s needs %d × %s %s, %s\n",
			ui.Red("✗"), ui.BoldMagenta(c.TaskID), c.Requested, name,
			ui.Dim(c.StartDate.Format(time.DateOnly)+" → "+c.EndDate.Format(time.DateOnly)),
			conflictDetail(c))
	}
}

func conflictDetail(c model.Conflict) string {
	if c.Type == model.ConflictOverallocation {
		return ui.ConflictLabel(string(c.Type)) + fmt.Sprintf(" (only %d available)", c.Available)
	}
	return ui.ConflictLabel(string(c.Type)) + " (no window covers the task)"
}

// JSON returns machine-readable analysis output.
func (r *Reporter) JSON() ([]byte, error) {
	type taskStatus struct {
		TaskID     string `json:"task_id"`
		Name       string `json:"name"`
		Status     string `json:"status"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		Duration   int    `json:"duration"`
		ES         int    `json:"earliest_start"`
		EF         int    `json:"earliest_finish"`
		LS         int    `json:"latest_start"`
		LF         int    `json:"latest_finish"`
		Slack      int    `json:"slack"`
		IsCritical bool   `json:"is_critical"`
		Wave       int    `json:"wave"`
	}

	type output struct {
		ScheduleID    string           `json:"schedule_id"`
		Name          string           `json:"name"`
		Progress      float64          `json:"progress"`
		Origin        string           `json:"origin,omitempty"`
		TotalDuration int              `json:"total_duration"`
		PathLength    int              `json:"path_length"`
		CriticalPath  []string         `json:"critical_path"`
		Tasks         []taskStatus     `json:"tasks"`
		Conflicts     []model.Conflict `json:"conflicts"`
	}

	o := output{
		ScheduleID:    r.Schedule.ID,
		Name:          r.Schedule.Name,
		Progress:      r.Schedule.Progress,
		TotalDuration: r.Analysis.TotalDuration,
		PathLength:    r.Analysis.PathLength,
		CriticalPath:  r.Analysis.CriticalPath,
		Tasks:         []taskStatus{},
		Conflicts:     r.Conflicts,
	}
	if !r.Analysis.Origin.IsZero() {
		o.Origin = r.Analysis.Origin.Format(time.DateOnly)
	}
	if o.CriticalPath == nil {
		o.CriticalPath = []string{}
	}
	if o.Conflicts == nil {
		o.Conflicts = []model.Conflict{}
	}

	for _, id := range r.Analysis.TopoOrder {
		t := r.Schedule.Task(id)
		ts := r.Analysis.Tasks[id]
		if t == nil || ts == nil {
			continue
		}
		o.Tasks = append(o.Tasks, taskStatus{
			TaskID:     id,
			Name:       t.Name,
			Status:     string(t.Status),
			StartDate:  t.StartDate.Format(time.DateOnly),
			EndDate:    t.EndDate.Format(time.DateOnly),
			Duration:   ts.Duration,
			ES:         ts.ES,
			EF:         ts.EF,
			LS:         ts.LS,
			LF:         ts.LF,
			Slack:      ts.Slack,
			IsCritical: ts.IsCritical,
			Wave:       ts.Wave,
		})
	}

	return json.MarshalIndent(o, "", "  ")
}

// Summary returns a short plain summary, suitable for logs or notifications.
func (r *Reporter) Summary() string {
	var b strings.Builder
	critical := 0
	for _, ts := range r.Analysis.Tasks {
		if ts.IsCritical {
			critical++
		}
	}

	statusEmoji := "✅"
	if len(r.Conflicts) > 0 {
		statusEmoji = "⚠️"
	}

	fmt.Fprintf(&b, "\n%s %s\n", statusEmoji, ui.BoldCyan("Schedule Analysis"))
	fmt.Fprintf(&b, "%s\n", ui.Cyan("═════════════════"))
	fmt.Fprintf(&b, "Schedule:  %s\n", ui.Dim(r.Schedule.Name+" ("+r.Schedule.ID+")"))
	fmt.Fprintf(&b, "Progress:  %s\n", ui.Bold(fmt.Sprintf("%.1f%%", r.Schedule.Progress)))
	fmt.Fprintf(&b, "Span:      %d days\n", r.Analysis.TotalDuration)
	fmt.Fprintf(&b, "Tasks:     %d total, %s, %d waves\n",
		len(r.Schedule.Tasks), ui.Yellow(fmt.Sprintf("%d critical", critical)), len(r.Analysis.Waves))
	if len(r.Analysis.CriticalPath) > 0 {
		fmt.Fprintf(&b, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(r.Analysis.CriticalPath, " → ")))
	}
	if len(r.Conflicts) > 0 {
		fmt.Fprintf(&b, "Conflicts: %s\n", ui.Red(fmt.Sprintf("%d", len(r.Conflicts))))
	}
	return b.String()
}

// PrintVariance writes baseline drift for every baselined task.
func PrintVariance(w io.Writer, s *model.Schedule, rep baseline.Report) {
	if !rep.HasBaseline {
		fmt.Fprintf(w, "%s no baseline saved for %s\n", ui.Yellow("⊘"), s.Name)
		return
	}
	fmt.Fprintf(w, "📏 %s %s\n", ui.BoldCyan("Baseline variance"), ui.Dim(s.Name))
	fmt.Fprintf(w, "Schedule:  start %s, finish %s\n", signed(rep.StartVariance), signed(rep.FinishVariance))
	fmt.Fprintln(w)
	for _, tv := range rep.Tasks {
		name := tv.TaskID
		if t := s.Task(tv.TaskID); t != nil {
			name = t.Name
		}
		fmt.Fprintf(w, "  %s %-*s start %s  finish %s  duration %s\n",
			ui.BoldMagenta(fmt.Sprintf("%-10s", tv.TaskID)), titleWidth, truncate(name, titleWidth),
			signed(tv.StartVariance), signed(tv.FinishVariance), signed(tv.DurationDelta))
	}
	if len(rep.Unbaselined) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("added since baseline:"), strings.Join(rep.Unbaselined, ", "))
	}
	if len(rep.Removed) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("removed since baseline:"), strings.Join(rep.Removed, ", "))
	}
}

// signed colors a day delta: late is red, early is green.
func signed(days int) string {
	switch {
	case days > 0:
		return ui.Red(fmt.Sprintf("+%dd", days))
	case days < 0:
		return ui.Green(fmt.Sprintf("%dd", days))
	default:
		return ui.Dim("0d")
	}
}

// PrintDeadlines lists upcoming task deadlines.
func PrintDeadlines(w io.Writer, deadlines []engine.Deadline, days int) {
	fmt.Fprintf(w, "⏰ %s %s\n", ui.BoldCyan("Upcoming deadlines"), ui.Dim(fmt.Sprintf("(next %d days)", days)))
	if len(deadlines) == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Dim("nothing due"))
		return
	}
	for _, d := range deadlines {
		left := fmt.Sprintf("in %dd", d.DaysLeft)
		switch d.DaysLeft {
		case 0:
			left = ui.BoldRed("today")
		case 1:
			left = ui.Yellow("tomorrow")
		}
		fmt.Fprintf(w, "  %s %s %-*s %s  %s\n",
			ui.Prefix(d.ScheduleName), ui.BoldMagenta(d.TaskID), titleWidth, truncate(d.TaskName, titleWidth),
			d.Deadline.Format(time.DateOnly), left)
	}
}

// PrintSchedules lists schedules one per line.
func PrintSchedules(w io.Writer, schedules []*model.Schedule) {
	if len(schedules) == 0 {
		fmt.Fprintln(w, ui.Dim("no schedules"))
		return
	}
	for _, s := range schedules {
		meta := []string{fmt.Sprintf("%d tasks", len(s.Tasks))}
		if s.ProjectID != "" {
			meta = append(meta, "project "+s.ProjectID)
		}
		if s.Status != "" {
			meta = append(meta, s.Status)
		}
		fmt.Fprintf(w, "  %s %-*s %s %s\n",
			ui.BoldMagenta(fmt.Sprintf("%-12s", s.ID)), titleWidth, truncate(s.Name, titleWidth),
			ui.ProgressBar(s.Progress, 10), ui.Dim(strings.Join(meta, ", ")))
	}
}
