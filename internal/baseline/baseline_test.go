package baseline

import (
	"reflect"
	"testing"
	"time"

	"github.com/joshharrison/planloom/internal/model"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func d(n int) time.Time { return model.AddDays(day0, n) }

func sample() *model.Schedule {
	return &model.Schedule{
		ID:        "s1",
		Name:      "Fit-out",
		StartDate: d(0),
		EndDate:   d(10),
		Tasks: []*model.Task{
			{ID: "a", StartDate: d(0), EndDate: d(3)},
			{ID: "b", StartDate: d(3), EndDate: d(5)},
		},
	}
}

func TestSaveRevert_RestoresDates(t *testing.T) {
	s := sample()
	Save(s)

	s.StartDate = d(1)
	s.EndDate = d(12)
	s.Tasks[0].EndDate = d(4)
	s.Tasks[1].StartDate = d(4)
	s.Tasks[1].EndDate = d(7)

	if !Revert(s) {
		t.Fatal("expected Revert to report an existing baseline")
	}
	want := sample()
	want.Baseline = s.Baseline
	if !reflect.DeepEqual(s, want) {
		t.Errorf("revert did not restore dates:\n got %+v\nwant %+v", s, want)
	}
}

func TestRevert_WithoutBaselineIsNoop(t *testing.T) {
	s := sample()
	s.Tasks[0].EndDate = d(5)
	before := s.Clone()

	if Revert(s) {
		t.Error("expected Revert to report no baseline")
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("schedule changed on revert without baseline")
	}
}

func TestRevert_LeavesNewTasksUntouched(t *testing.T) {
	s := sample()
	Save(s)
	s.Tasks = append(s.Tasks, &model.Task{ID: "c", StartDate: d(6), EndDate: d(8)})
	s.Tasks[0].EndDate = d(2)

	Revert(s)

	if !s.Tasks[0].EndDate.Equal(d(3)) {
		t.Errorf("task a end = %v, want %v", s.Tasks[0].EndDate, d(3))
	}
	if c := s.Task("c"); !c.StartDate.Equal(d(6)) || !c.EndDate.Equal(d(8)) {
		t.Errorf("task c dates changed: %v - %v", c.StartDate, c.EndDate)
	}
}

func TestSave_Overwrites(t *testing.T) {
	s := sample()
	Save(s)
	s.Tasks[0].EndDate = d(4)
	Save(s)
	s.Tasks[0].EndDate = d(9)

	Revert(s)
	if !s.Tasks[0].EndDate.Equal(d(4)) {
		t.Errorf("expected second baseline to win, got end %v", s.Tasks[0].EndDate)
	}
}

func TestVariance(t *testing.T) {
	s := sample()
	if Variance(s).HasBaseline {
		t.Fatal("expected no baseline")
	}

	Save(s)
	s.EndDate = d(12)
	s.Tasks[1].StartDate = d(4)
	s.Tasks[1].EndDate = d(8)
	s.Tasks = append(s.Tasks[1:], &model.Task{ID: "c", StartDate: d(8), EndDate: d(9)})

	r := Variance(s)
	if !r.HasBaseline || r.FinishVariance != 2 || r.StartVariance != 0 {
		t.Errorf("unexpected schedule variance: %+v", r)
	}
	want := []TaskVariance{{TaskID: "b", StartVariance: 1, FinishVariance: 3, DurationDelta: 2}}
	if !reflect.DeepEqual(r.Tasks, want) {
		t.Errorf("tasks = %+v, want %+v", r.Tasks, want)
	}
	if !reflect.DeepEqual(r.Unbaselined, []string{"c"}) {
		t.Errorf("unbaselined = %v, want [c]", r.Unbaselined)
	}
	if !reflect.DeepEqual(r.Removed, []string{"a"}) {
		t.Errorf("removed = %v, want [a]", r.Removed)
	}
}
