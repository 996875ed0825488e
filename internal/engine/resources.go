package engine

import (
	"slices"
	"strconv"

	"github.com/joshharrison/planloom/internal/model"
)

func validateWindows(windows []model.Availability) error {
	for _, w := range windows {
		if err := model.CheckInterval("availability window", w.StartDate, w.EndDate); err != nil {
			return err
		}
		if w.Quantity < 0 {
			return model.NewValidationError("availability quantity", strconv.Itoa(w.Quantity), "must not be negative")
		}
	}
	return nil
}

// AddResource adds a resource to a schedule. Resource changes never move
// dates, so nothing is recomputed.
func (e *Engine) AddResource(scheduleID string, in ResourceInput) (*model.Schedule, string, error) {
	var resourceID string
	s, err := e.mutate(scheduleID, "add_resource", recomputeNone, func(s *model.Schedule) error {
		if err := validateWindows(in.Availability); err != nil {
			return err
		}
		r := &model.Resource{
			ID:           e.ids.NewID("resource"),
			Name:         in.Name,
			Availability: slices.Clone(in.Availability),
		}
		s.Resources = append(s.Resources, r)
		resourceID = r.ID
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return s, resourceID, nil
}

// UpdateResource patches a resource.
func (e *Engine) UpdateResource(scheduleID, resourceID string, p ResourcePatch) (*model.Schedule, error) {
	return e.mutate(scheduleID, "update_resource", recomputeNone, func(s *model.Schedule) error {
		r := s.Resource(resourceID)
		if r == nil {
			return model.NewNotFoundError("resource", resourceID)
		}
		if p.Availability != nil {
			if err := validateWindows(*p.Availability); err != nil {
				return err
			}
			r.Availability = slices.Clone(*p.Availability)
		}
		if p.Name != nil {
			r.Name = *p.Name
		}
		return nil
	})
}

// RemoveResource deletes a resource. Assignments that reference it are kept
// and will be reported as unavailable by DetectResourceConflicts.
func (e *Engine) RemoveResource(scheduleID, resourceID string) (*model.Schedule, error) {
	return e.mutate(scheduleID, "remove_resource", recomputeNone, func(s *model.Schedule) error {
		if s.Resource(resourceID) == nil {
			return model.NewNotFoundError("resource", resourceID)
		}
		s.Resources = slices.DeleteFunc(s.Resources, func(r *model.Resource) bool { return r.ID == resourceID })
		return nil
	})
}
