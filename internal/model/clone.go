package model

// Clone returns a deep copy of the schedule. Engine snapshots are built from
// clones so that a returned *Schedule never aliases stored state.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	c := *s
	c.Tasks = make([]*Task, len(s.Tasks))
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Resources = make([]*Resource, len(s.Resources))
	for i, r := range s.Resources {
		c.Resources[i] = r.Clone()
	}
	if s.Baseline != nil {
		b := *s.Baseline
		b.Tasks = append([]BaselineTask(nil), s.Baseline.Tasks...)
		c.Baseline = &b
	}
	c.CriticalPath = append([]string(nil), s.CriticalPath...)
	return &c
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.PercentComplete != nil {
		p := *t.PercentComplete
		c.PercentComplete = &p
	}
	c.Resources = append([]Assignment(nil), t.Resources...)
	c.Dependencies = append([]Dependency(nil), t.Dependencies...)
	return &c
}

// Clone returns a deep copy of the resource.
func (r *Resource) Clone() *Resource {
	c := *r
	c.Availability = append([]Availability(nil), r.Availability...)
	return &c
}
