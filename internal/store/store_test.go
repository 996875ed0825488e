package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshharrison/planloom/internal/model"
)

func testSchedules() []*model.Schedule {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	pct := 40
	return []*model.Schedule{{
		ID:        "s1",
		Name:      "Fit-out",
		ProjectID: "P-7",
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 10),
		Tasks: []*model.Task{
			{ID: "a", ScheduleID: "s1", Name: "Strip out", StartDate: day, EndDate: day.AddDate(0, 0, 3), Status: model.StatusCompleted},
			{
				ID: "b", ScheduleID: "s1", Name: "Partitions", StartDate: day, EndDate: day.AddDate(0, 0, 2),
				Status: model.StatusInProgress, PercentComplete: &pct,
				Dependencies: []model.Dependency{{ID: "d1", PredecessorID: "a", SuccessorID: "b", Type: model.FinishToStart}},
				Resources:    []model.Assignment{{ResourceID: "r1", Quantity: 2}},
			},
		},
		Resources: []*model.Resource{{
			ID: "r1", Name: "Joiners",
			Availability: []model.Availability{{StartDate: day, EndDate: day.AddDate(0, 0, 10), Quantity: 3}},
		}},
	}}
}

func checkRoundTrip(t *testing.T, path string) {
	t.Helper()

	w := New(path)
	w.SetSchedules(testSchedules())
	if err := w.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(path) {
		t.Fatal("expected workspace file after Save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(loaded.Schedules))
	}
	s := loaded.Schedules[0]
	if s.Name != "Fit-out" || s.ProjectID != "P-7" {
		t.Errorf("schedule fields mismatch: %+v", s)
	}
	b := s.Task("b")
	if b == nil {
		t.Fatal("task b missing")
	}
	if b.PercentComplete == nil || *b.PercentComplete != 40 {
		t.Errorf("expected percent 40, got %v", b.PercentComplete)
	}
	if len(b.Dependencies) != 1 || b.Dependencies[0].PredecessorID != "a" {
		t.Errorf("dependency mismatch: %+v", b.Dependencies)
	}
	if !b.EndDate.Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end date mismatch: %v", b.EndDate)
	}
	r := s.Resource("r1")
	if r == nil || len(r.Availability) != 1 || r.Availability[0].Quantity != 3 {
		t.Errorf("resource mismatch: %+v", r)
	}
	if loaded.Path() != path {
		t.Errorf("expected path %s, got %s", path, loaded.Path())
	}
}

func TestSaveAndLoadJSON(t *testing.T) {
	checkRoundTrip(t, filepath.Join(t.TempDir(), ".planloom", "workspace.json"))
}

func TestSaveAndLoadYAML(t *testing.T) {
	checkRoundTrip(t, filepath.Join(t.TempDir(), "workspace.yaml"))
}

func TestOpenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(w.Schedules) != 0 {
		t.Errorf("expected empty workspace, got %d schedules", len(w.Schedules))
	}
	if Exists(path) {
		t.Error("Open must not create the file")
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "schedules": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestArchiveAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")

	ids, err := ListHistory(path)
	if err != nil {
		t.Fatalf("ListHistory (empty): %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected 0 history entries, got %d", len(ids))
	}

	w := New(path)
	w.SetSchedules(testSchedules())
	for _, at := range []time.Time{
		time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
	} {
		if err := w.Save(); err != nil {
			t.Fatalf("Save: %v", err)
		}
		w.SavedAt = at
		if _, err := w.Archive(); err != nil {
			t.Fatalf("Archive: %v", err)
		}
	}

	ids, err = ListHistory(path)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(ids))
	}
	// Newest first
	if ids[0] != "20240304-110000.000" || ids[1] != "20240304-090000.000" {
		t.Errorf("unexpected history order: %v", ids)
	}

	old, err := LoadArchived(path, ids[1])
	if err != nil {
		t.Fatalf("LoadArchived: %v", err)
	}
	if len(old.Schedules) != 1 || old.Path() != path {
		t.Errorf("archived workspace mismatch: %d schedules, path %s", len(old.Schedules), old.Path())
	}
}

func TestArchive_SameSecondKeepsBoth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	w := New(path)
	if err := w.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got []string
	for _, at := range []time.Time{
		time.Date(2024, 3, 4, 9, 0, 0, 250e6, time.UTC),
		time.Date(2024, 3, 4, 9, 0, 0, 750e6, time.UTC),
		time.Date(2024, 3, 4, 9, 0, 0, 750e6, time.UTC),
	} {
		w.SavedAt = at
		id, err := w.Archive()
		if err != nil {
			t.Fatalf("Archive: %v", err)
		}
		got = append(got, id)
	}

	want := []string{"20240304-090000.250", "20240304-090000.750", "20240304-090000.750-002"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("archive %d: id = %q, want %q", i, got[i], want[i])
		}
	}

	ids, err := ListHistory(path)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(ids) != 3 || ids[0] != "20240304-090000.750-002" || ids[2] != "20240304-090000.250" {
		t.Errorf("unexpected history: %v", ids)
	}
	for _, id := range ids {
		if _, err := LoadArchived(path, id); err != nil {
			t.Errorf("LoadArchived(%s): %v", id, err)
		}
	}
}

func TestClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.json")
	w := New(path)
	if err := w.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := w.Archive(); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if err := Clean(path); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if Exists(path) {
		t.Error("expected workspace removed")
	}
	ids, _ := ListHistory(path)
	if len(ids) != 0 {
		t.Errorf("expected history removed, got %v", ids)
	}

	if err := Clean(path); err != nil {
		t.Errorf("Clean on missing workspace: %v", err)
	}
}
