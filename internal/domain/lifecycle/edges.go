package lifecycle

import "github.com/abbakari/works/internal/core/entity"

var edges = map[entity.Status][]entity.Status{
	entity.StatusDraft:     {entity.StatusSubmitted},
	entity.StatusSubmitted: {entity.StatusInReview, entity.StatusApproved, entity.StatusRejected},
	entity.StatusInReview:  {entity.StatusApproved, entity.StatusRejected},
	entity.StatusApproved:  {entity.StatusForwarded},
}

// CanMove reports whether from -> to is an edge of the graph for kind.
func CanMove(kind KindSpec, from, to entity.Status) bool {
	if to == entity.StatusForwarded && !kind.AllowForward {
		return false
	}
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Targets lists the states reachable from `from` in one step.
func Targets(kind KindSpec, from entity.Status) []entity.Status {
	var out []entity.Status
	for _, s := range edges[from] {
		if CanMove(kind, from, s) {
			out = append(out, s)
		}
	}
	return out
}
