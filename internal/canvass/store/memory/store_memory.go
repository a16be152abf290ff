// Package memory is an in-process Store for tests and single-node demos.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"fieldsync/internal/canvass/models"
	"fieldsync/pkg/platform/sentinel"
)

// InMemory keeps members and events in maps guarded by one RWMutex, which
// makes every write an atomic upsert by key.
type InMemory struct {
	mu      sync.RWMutex
	members map[string]*models.Member
	bySeq   []string
	nextSeq int64
	events  map[string]models.VisitEvent
}

func NewInMemory() *InMemory {
	return &InMemory{
		members: make(map[string]*models.Member),
		events:  make(map[string]models.VisitEvent),
	}
}

func (s *InMemory) UpsertMember(_ context.Context, m *models.Member) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.members[m.ID]; ok {
		if existing.SameRoster(m) {
			return false, nil
		}
		next := *m
		next.Seq = existing.Seq
		next.CreatedAt = existing.CreatedAt
		next.LastStatus = existing.LastStatus
		next.LastUpdatedAt = existing.LastUpdatedAt
		s.members[m.ID] = &next
		return false, nil
	}

	s.nextSeq++
	next := *m
	next.Seq = s.nextSeq
	if next.LastStatus == "" {
		next.LastStatus = models.StatusUnvisited
	}
	next.LastUpdatedAt = nil
	s.members[m.ID] = &next
	s.bySeq = append(s.bySeq, m.ID)
	return true, nil
}

func (s *InMemory) FindMember(_ context.Context, id string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, sentinel.ErrNotFound)
	}
	out := *m
	return &out, nil
}

func (s *InMemory) FindMembers(_ context.Context, ids []string) (map[string]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Member, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			out[id] = *m
		}
	}
	return out, nil
}

func (s *InMemory) ListHousehold(_ context.Context, householdID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Member
	for _, id := range s.bySeq {
		if m := s.members[id]; m.HouseholdID == householdID {
			out = append(out, *m)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Member) int {
		return cmp.Or(
			strings.Compare(a.LastName, b.LastName),
			strings.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.Seq, b.Seq),
		)
	})
	return out, nil
}

func (s *InMemory) ListMembers(_ context.Context, q models.MemberQuery) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	start := sort.Search(len(s.bySeq), func(i int) bool {
		return s.members[s.bySeq[i]].Seq > q.AfterSeq
	})

	var out []models.Member
	for _, id := range s.bySeq[start:] {
		m := s.members[id]
		if !m.Matches(needle) {
			continue
		}
		out = append(out, *m)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) FindEvent(_ context.Context, memberID string) (*models.VisitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[memberID]
	if !ok {
		return nil, fmt.Errorf("event for member %s: %w", memberID, sentinel.ErrNotFound)
	}
	out := cloneEvent(ev)
	return &out, nil
}

func (s *InMemory) ApplyVisit(_ context.Context, ev *models.VisitEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[ev.MemberID]
	if !ok {
		return false, fmt.Errorf("member %s: %w", ev.MemberID, sentinel.ErrNotFound)
	}
	if current, ok := s.events[ev.MemberID]; ok && current.ClientTime.After(ev.ClientTime) {
		return false, nil
	}

	s.events[ev.MemberID] = cloneEvent(*ev)

	next := *m
	next.LastStatus = ev.Status
	at := ev.ReceivedAt
	next.LastUpdatedAt = &at
	next.UpdatedAt = ev.ReceivedAt
	s.members[ev.MemberID] = &next
	return true, nil
}

func (s *InMemory) ListEvents(_ context.Context, q models.EventQuery) ([]models.VisitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.VisitEvent, 0)
	for _, ev := range s.events {
		if q.From != nil && ev.ReceivedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && ev.ReceivedAt.After(*q.To) {
			continue
		}
		if q.After != nil && compareEventKey(ev, *q.After) <= 0 {
			continue
		}
		out = append(out, cloneEvent(ev))
	}
	slices.SortFunc(out, func(a, b models.VisitEvent) int {
		return compareEventKey(a, models.EventCursor{ReceivedAt: b.ReceivedAt, MemberID: b.MemberID})
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) Close() error { return nil }

func compareEventKey(ev models.VisitEvent, key models.EventCursor) int {
	return cmp.Or(
		ev.ReceivedAt.Compare(key.ReceivedAt),
		strings.Compare(ev.MemberID, key.MemberID),
	)
}

func cloneEvent(ev models.VisitEvent) models.VisitEvent {
	ev.SurveyAnswers = bytes.Clone(ev.SurveyAnswers)
	return ev
}
