package auth

import (
	"context"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
)

// validateManager checks that making managerID the manager of userID keeps
// the hierarchy a forest no deeper than MaxHierarchyDepth.
func (s *Service) validateManager(ctx context.Context, userID id.ID, managerID *id.ID) error {
	if managerID == nil {
		return nil
	}
	if *managerID == userID {
		return apperror.NewValidation("a user can not be their own manager").WithDetail("field", "managerId")
	}

	mgr, err := s.userRepo.GetByID(ctx, *managerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("manager does not exist").WithDetail("managerId", managerID.String())
		}
		return err
	}
	if !mgr.IsActive {
		return apperror.NewValidation("manager is not active").WithDetail("managerId", managerID.String())
	}

	limit := s.config.MaxHierarchyDepth
	if limit <= 0 {
		limit = 2
	}

	// managers above userID once the edge exists
	above := 1
	cur := mgr
	for cur.ManagerID != nil {
		if *cur.ManagerID == userID {
			return apperror.NewValidation("manager assignment would create a cycle").
				WithDetail("managerId", managerID.String())
		}
		above++
		if above > limit {
			return depthError(limit)
		}
		cur, err = s.userRepo.GetByID(ctx, *cur.ManagerID)
		if err != nil {
			return err
		}
	}

	below, err := s.heightBelow(ctx, userID, limit-above+1)
	if err != nil {
		return err
	}
	if above+below > limit {
		return depthError(limit)
	}
	return nil
}

// heightBelow returns the number of report levels under userID, stopping
// once it exceeds max.
func (s *Service) heightBelow(ctx context.Context, userID id.ID, max int) (int, error) {
	level := []id.ID{userID}
	height := 0
	seen := map[id.ID]bool{userID: true}
	for height <= max {
		var next []id.ID
		for _, u := range level {
			reports, err := s.userRepo.DirectReports(ctx, u)
			if err != nil {
				return 0, err
			}
			for _, r := range reports {
				if !seen[r] {
					seen[r] = true
					next = append(next, r)
				}
			}
		}
		if len(next) == 0 {
			return height, nil
		}
		height++
		level = next
	}
	return height, nil
}

func depthError(limit int) error {
	return apperror.NewValidation("manager hierarchy would exceed the maximum depth").
		WithDetail("maxDepth", limit)
}
