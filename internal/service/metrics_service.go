package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/repository"
	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

// VolumeBucket is the request count for one day or ISO week.
type VolumeBucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// StaffCompletion is one row of the staff leaderboard.
type StaffCompletion struct {
	StaffID   string `json:"staff_id"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
}

// MetricsSnapshot aggregates every request at the time of the call.
type MetricsSnapshot struct {
	GeneratedAt       time.Time                    `json:"generated_at"`
	Timezone          string                       `json:"timezone"`
	Total             int                          `json:"total"`
	Today             int                          `json:"today"`
	ThisWeek          int                          `json:"this_week"`
	DailyVolume       []VolumeBucket               `json:"daily_volume"`
	WeeklyVolume      []VolumeBucket               `json:"weekly_volume"`
	AverageResolution time.Duration                `json:"average_resolution_ns"`
	StatusCounts      map[domain.RequestStatus]int `json:"status_counts"`
	TopStaff          []StaffCompletion            `json:"top_staff"`
}

// MetricsService computes the admin dashboard metrics.
type MetricsService struct {
	requests repository.RequestStore
	staff    repository.StaffRepository
	location *time.Location
	now      func() time.Time
}

// MetricsDependencies bundles collaborators for the metrics service.
type MetricsDependencies struct {
	RequestStore repository.RequestStore
	StaffRepo    repository.StaffRepository
	Location     *time.Location
	Clock        func() time.Time
}

// NewMetricsService constructs the service.
func NewMetricsService(deps MetricsDependencies) *MetricsService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MetricsService{requests: deps.RequestStore, staff: deps.StaffRepo, location: loc, now: clock}
}

// ComputeMetrics returns the snapshot. Admin only.
func (s *MetricsService) ComputeMetrics(ctx context.Context, p *domain.Principal) (*MetricsSnapshot, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !p.IsAdmin() {
		return nil, apperrors.NewForbidden("metrics are restricted to admins")
	}

	requests, err := s.requests.List(ctx, domain.RequestFilter{})
	if err != nil {
		return nil, mapStoreError(err, "")
	}

	names := map[string]string{}
	if s.staff != nil {
		members, err := s.staff.List(ctx, repository.StaffFilter{})
		if err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		for _, m := range members {
			names[m.ID] = m.Name
		}
	}

	return AggregateMetrics(requests, s.now(), s.location, names), nil
}

// AggregateMetrics is the pure aggregation behind ComputeMetrics. names maps
// staff ids to display names; unknown ids keep an empty name.
func AggregateMetrics(requests []domain.ServiceRequest, now time.Time, loc *time.Location, names map[string]string) *MetricsSnapshot {
	if loc == nil {
		loc = time.UTC
	}
	snapshot := &MetricsSnapshot{
		GeneratedAt:  now.In(loc),
		Timezone:     loc.String(),
		Total:        len(requests),
		DailyVolume:  []VolumeBucket{},
		WeeklyVolume: []VolumeBucket{},
		StatusCounts: map[domain.RequestStatus]int{
			domain.StatusPending:    0,
			domain.StatusInProgress: 0,
			domain.StatusCompleted:  0,
			domain.StatusCancelled:  0,
		},
		TopStaff: []StaffCompletion{},
	}

	today := startOfDay(now, loc)
	thisWeek := startOfWeek(now, loc)

	daily := map[time.Time]int{}
	weekly := map[time.Time]int{}
	completedBy := map[string]int{}
	var (
		resolutionTotal time.Duration
		resolved        int
	)

	for i := range requests {
		r := &requests[i]
		day := startOfDay(r.CreatedAt, loc)
		week := startOfWeek(r.CreatedAt, loc)
		daily[day]++
		weekly[week]++
		if day.Equal(today) {
			snapshot.Today++
		}
		if week.Equal(thisWeek) {
			snapshot.ThisWeek++
		}
		snapshot.StatusCounts[r.Status]++

		if r.Status != domain.StatusCompleted {
			continue
		}
		end := r.UpdatedAt
		if r.CompletedAt != nil {
			end = *r.CompletedAt
		}
		if d := end.Sub(r.CreatedAt); d >= 0 {
			resolutionTotal += d
			resolved++
		}
		if r.AssigneeID != "" {
			completedBy[r.AssigneeID]++
		}
	}

	if resolved > 0 {
		snapshot.AverageResolution = resolutionTotal / time.Duration(resolved)
	}
	snapshot.DailyVolume = buckets(daily, func(t time.Time) string { return t.Format("2006-01-02") })
	snapshot.WeeklyVolume = buckets(weekly, func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	})
	snapshot.TopStaff = topStaff(completedBy, names)
	return snapshot
}

func buckets(counts map[time.Time]int, label func(time.Time) string) []VolumeBucket {
	out := make([]VolumeBucket, 0, len(counts))
	for start, count := range counts {
		out = append(out, VolumeBucket{Label: label(start), Start: start, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func topStaff(completedBy map[string]int, names map[string]string) []StaffCompletion {
	out := make([]StaffCompletion, 0, len(completedBy))
	for id, count := range completedBy {
		out = append(out, StaffCompletion{StaffID: id, Name: names[id], Completed: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return out[i].Completed > out[j].Completed
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// startOfWeek returns local midnight of the Monday on or before t.
func startOfWeek(t time.Time, loc *time.Location) time.Time {
	day := startOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
