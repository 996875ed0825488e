package model

import "time"

// TaskStatus is the execution state of a task.
type TaskStatus string

const (
	StatusNew        TaskStatus = "new"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// DependencyType is the temporal relation between two tasks.
type DependencyType string

// FinishToStart means the successor cannot start before the predecessor finishes.
// It is the only type the calculator understands.
const FinishToStart DependencyType = "finish_to_start"

// ConflictType classifies a resource conflict.
type ConflictType string

const (
	ConflictUnavailable    ConflictType = "unavailable"
	ConflictOverallocation ConflictType = "overallocation"
)

// Schedule is a named container of tasks and resources.
type Schedule struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	ProjectID   string    `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"`
	StartDate   time.Time `json:"start_date" yaml:"start_date"`
	EndDate     time.Time `json:"end_date" yaml:"end_date"`

	Tasks     []*Task     `json:"tasks" yaml:"tasks"`
	Resources []*Resource `json:"resources" yaml:"resources"`
	Baseline  *Baseline   `json:"baseline,omitempty" yaml:"baseline,omitempty"`

	// Computed by the engine's recompute step.
	CriticalPath []string `json:"critical_path" yaml:"critical_path"`
	Progress     float64  `json:"progress" yaml:"progress"`
}

// Task is a unit of work inside exactly one schedule.
type Task struct {
	ID         string     `json:"id" yaml:"id"`
	ScheduleID string     `json:"schedule_id" yaml:"schedule_id"`
	Name       string     `json:"name" yaml:"name"`
	StartDate  time.Time  `json:"start_date" yaml:"start_date"`
	EndDate    time.Time  `json:"end_date" yaml:"end_date"`
	Status     TaskStatus `json:"status" yaml:"status"`
	// PercentComplete overrides the in-progress default when set.
	PercentComplete *int `json:"percent_complete,omitempty" yaml:"percent_complete,omitempty"`

	Resources    []Assignment `json:"resources" yaml:"resources"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"` // edges where this task is the successor

	EarliestStart  int  `json:"earliest_start" yaml:"earliest_start"`
	EarliestFinish int  `json:"earliest_finish" yaml:"earliest_finish"`
	LatestStart    int  `json:"latest_start" yaml:"latest_start"`
	LatestFinish   int  `json:"latest_finish" yaml:"latest_finish"`
	Slack          int  `json:"slack" yaml:"slack"`
	IsCritical     bool `json:"is_critical" yaml:"is_critical"`
}

// Duration returns the task length in whole days.
func (t *Task) Duration() int {
	return DaysBetween(t.StartDate, t.EndDate)
}

// Dependency is a directed edge predecessor -> successor.
type Dependency struct {
	ID            string         `json:"id" yaml:"id"`
	PredecessorID string         `json:"predecessor_id" yaml:"predecessor_id"`
	SuccessorID   string         `json:"successor_id" yaml:"successor_id"`
	Type          DependencyType `json:"type" yaml:"type"`
	Lag           int            `json:"lag,omitempty" yaml:"lag,omitempty"` // days
}

// Assignment is a task's demand on a resource.
type Assignment struct {
	ResourceID string `json:"resource_id" yaml:"resource_id"`
	Quantity   int    `json:"quantity" yaml:"quantity"`
}

// Resource is something tasks consume, available in dated windows.
type Resource struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Availability []Availability `json:"availability" yaml:"availability"`
}

// Availability is a window during which Quantity units of a resource exist.
type Availability struct {
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
	Quantity  int       `json:"quantity" yaml:"quantity"`
}

// Contains reports whether the window fully covers [start, end].
func (a Availability) Contains(start, end time.Time) bool {
	return !a.StartDate.After(start) && !a.EndDate.Before(end)
}

// Baseline is a frozen copy of schedule and task dates.
type Baseline struct {
	StartDate time.Time      `json:"start_date" yaml:"start_date"`
	EndDate   time.Time      `json:"end_date" yaml:"end_date"`
	Tasks     []BaselineTask `json:"tasks" yaml:"tasks"`
}

// BaselineTask holds the saved dates of one task.
type BaselineTask struct {
	ID        string    `json:"id" yaml:"id"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
}

// Conflict reports a problem with one (task, resource) assignment.
type Conflict struct {
	TaskID     string       `json:"task_id"`
	ResourceID string       `json:"resource_id"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	Type       ConflictType `json:"type"`
	Requested  int          `json:"requested"`
	Available  int          `json:"available"`
}

// Task returns the task with the given id, or nil.
func (s *Schedule) Task(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Resource returns the resource with the given id, or nil.
func (s *Schedule) Resource(id string) *Resource {
	for _, r := range s.Resources {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// TaskIDs returns task identifiers in schedule order.
func (s *Schedule) TaskIDs() []string {
	ids := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		ids[i] = t.ID
	}
	return ids
}
