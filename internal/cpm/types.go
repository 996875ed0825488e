package cpm

import "time"

// Result holds the complete critical path analysis.
type Result struct {
	Tasks         map[string]*TaskSchedule
	CriticalPath  []string  // ordered task IDs from source to sink
	TotalDuration int       // days from Origin to the target end
	PathLength    int       // days from the first critical task's start to the target end
	Origin        time.Time // earliest declared start; day 0
	Waves         []Wave    // parallelizable groups
	TopoOrder     []string
}

// TaskSchedule holds the scheduling info for a single task, in day offsets from Origin.
type TaskSchedule struct {
	TaskID     string
	Duration   int
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Wave       int // which parallel wave this belongs to
}

// Wave represents a group of tasks that share an earliest start.
type Wave struct {
	Index      int
	Start      int
	TaskIDs    []string
	IsCritical bool // true if wave contains critical path tasks
}

// Options tune the backward pass.
type Options struct {
	// TargetEnd, when set and not earlier than the computed finish, is used as
	// the latest finish of sink tasks. Zero means the computed finish.
	TargetEnd time.Time
}
