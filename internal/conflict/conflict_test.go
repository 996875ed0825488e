package conflict

import (
	"testing"
	"time"

	"github.com/joshharrison/planloom/internal/model"
)

var day0 = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

func d(n int) time.Time { return model.AddDays(day0, n) }

func schedule(windows []model.Availability, tasks ...*model.Task) *model.Schedule {
	return &model.Schedule{
		ID:        "s",
		Tasks:     tasks,
		Resources: []*model.Resource{{ID: "crane", Name: "Crane", Availability: windows}},
	}
}

func demand(id string, start, end, qty int, resourceIDs ...string) *model.Task {
	t := &model.Task{ID: id, StartDate: d(start), EndDate: d(end)}
	if len(resourceIDs) == 0 {
		resourceIDs = []string{"crane"}
	}
	for _, r := range resourceIDs {
		t.Resources = append(t.Resources, model.Assignment{ResourceID: r, Quantity: qty})
	}
	return t
}

func TestDetect_Overallocation(t *testing.T) {
	s := schedule([]model.Availability{{StartDate: d(0), EndDate: d(10), Quantity: 2}},
		demand("t1", 1, 5, 3))

	got := Detect(s)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %+v", len(got), got)
	}
	if got[0].Type != model.ConflictOverallocation {
		t.Errorf("expected overallocation, got %s", got[0].Type)
	}
	if got[0].Requested != 3 || got[0].Available != 2 {
		t.Errorf("expected requested=3 available=2, got %d/%d", got[0].Requested, got[0].Available)
	}
}

func TestDetect_ExactCoverFlips(t *testing.T) {
	task := demand("t1", 2, 6, 2)

	if got := Detect(schedule([]model.Availability{{StartDate: d(2), EndDate: d(6), Quantity: 2}}, task)); len(got) != 0 {
		t.Errorf("exact cover with enough quantity: expected no conflict, got %+v", got)
	}

	got := Detect(schedule([]model.Availability{{StartDate: d(2), EndDate: d(6), Quantity: 1}}, task))
	if len(got) != 1 || got[0].Type != model.ConflictOverallocation {
		t.Errorf("shrunk quantity: expected overallocation, got %+v", got)
	}

	got = Detect(schedule(nil, task))
	if len(got) != 1 || got[0].Type != model.ConflictUnavailable {
		t.Errorf("no window: expected unavailable, got %+v", got)
	}
}

func TestDetect_PartialWindowIsUnavailable(t *testing.T) {
	s := schedule([]model.Availability{
		{StartDate: d(0), EndDate: d(3), Quantity: 5},
		{StartDate: d(4), EndDate: d(9), Quantity: 5},
	}, demand("t1", 2, 5, 1))

	got := Detect(s)
	if len(got) != 1 || got[0].Type != model.ConflictUnavailable {
		t.Errorf("expected one unavailable conflict, got %+v", got)
	}
}

func TestDetect_DanglingResource(t *testing.T) {
	s := schedule([]model.Availability{{StartDate: d(0), EndDate: d(10), Quantity: 9}},
		demand("t1", 1, 2, 1, "crane", "removed"))

	got := Detect(s)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", got)
	}
	if got[0].ResourceID != "removed" || got[0].Type != model.ConflictUnavailable {
		t.Errorf("expected unavailable on removed resource, got %+v", got[0])
	}
}

func TestDetect_StableOrder(t *testing.T) {
	s := schedule(nil,
		demand("b", 0, 1, 1, "x", "crane"),
		demand("a", 0, 1, 1, "y"),
	)

	got := Detect(s)
	want := [][2]string{{"b", "x"}, {"b", "crane"}, {"a", "y"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d conflicts, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].TaskID != w[0] || got[i].ResourceID != w[1] {
			t.Errorf("conflict %d = (%s, %s), want (%s, %s)", i, got[i].TaskID, got[i].ResourceID, w[0], w[1])
		}
	}
}
