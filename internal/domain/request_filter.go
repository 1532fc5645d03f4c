package domain

import (
	"sort"
	"strings"
)

// SortOrder selects the ordering of a listing.
type SortOrder string

const (
	SortCreatedDesc  SortOrder = "created_desc"
	SortCreatedAsc   SortOrder = "created_asc"
	SortUpdatedDesc  SortOrder = "updated_desc"
	SortPriorityDesc SortOrder = "priority_desc"
)

// Valid reports whether o is a supported order; empty means the default.
func (o SortOrder) Valid() bool {
	switch o {
	case "", SortCreatedDesc, SortCreatedAsc, SortUpdatedDesc, SortPriorityDesc:
		return true
	}
	return false
}

// RequestFilter narrows a set of requests. Every non-empty field is an equality
// predicate; fields combine with AND.
type RequestFilter struct {
	RequesterID string
	Category    Category
	Status      RequestStatus
	RoomNumber  string
	AssigneeID  string
}

// Empty reports whether the filter matches everything.
func (f RequestFilter) Empty() bool {
	return f == RequestFilter{}
}

// Matches evaluates the filter against a single request.
func (f RequestFilter) Matches(r *ServiceRequest) bool {
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.RoomNumber != "" && !strings.EqualFold(r.RoomNumber, f.RoomNumber) {
		return false
	}
	if f.AssigneeID != "" && r.AssigneeID != f.AssigneeID {
		return false
	}
	return true
}

// Apply returns the requests matching the filter without modifying the input.
func (f RequestFilter) Apply(requests []ServiceRequest) []ServiceRequest {
	out := make([]ServiceRequest, 0, len(requests))
	for i := range requests {
		if f.Matches(&requests[i]) {
			out = append(out, requests[i])
		}
	}
	return out
}

// SortRequests orders requests in place. Ties fall back to ID ascending so the
// result is stable for identical input.
func SortRequests(requests []ServiceRequest, order SortOrder) {
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := &requests[i], &requests[j]
		switch order {
		case SortCreatedAsc:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case SortUpdatedDesc:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
		case SortPriorityDesc:
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}
