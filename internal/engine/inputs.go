package engine

import (
	"time"

	"github.com/joshharrison/planloom/internal/model"
)

// ScheduleInput describes a new schedule.
type ScheduleInput struct {
	Name        string
	Description string
	ProjectID   string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
}

// SchedulePatch changes the non-nil fields of a schedule.
type SchedulePatch struct {
	Name        *string
	Description *string
	ProjectID   *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// TaskInput describes a new task. Status defaults to new.
type TaskInput struct {
	Name            string
	StartDate       time.Time
	EndDate         time.Time
	Status          model.TaskStatus
	PercentComplete *int
	Resources       []model.Assignment
}

// TaskPatch changes the non-nil fields of a task. Dependencies are changed
// only through AddDependency and RemoveDependency.
type TaskPatch struct {
	Name            *string
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *model.TaskStatus
	PercentComplete *int
	Resources       *[]model.Assignment
}

// DependencyInput describes a new edge. Type defaults to finish-to-start.
type DependencyInput struct {
	PredecessorID string
	SuccessorID   string
	Type          model.DependencyType
	Lag           int
}

// ResourceInput describes a new resource.
type ResourceInput struct {
	Name         string
	Availability []model.Availability
}

// ResourcePatch changes the non-nil fields of a resource.
type ResourcePatch struct {
	Name         *string
	Availability *[]model.Availability
}

// Deadline is a task finishing within a lookahead window.
type Deadline struct {
	ScheduleID   string    `json:"schedule_id"`
	ScheduleName string    `json:"schedule_name"`
	TaskID       string    `json:"task_id"`
	TaskName     string    `json:"task_name"`
	Deadline     time.Time `json:"deadline"`
	DaysLeft     int       `json:"days_left"`
}
