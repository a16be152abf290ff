// Package storetest holds the behaviour every Store engine must share.
// Engine packages run it from an external test package.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/canvass/store"
	"fieldsync/pkg/platform/sentinel"
)

// StoreSuite exercises a Store built by NewStore for each test.
type StoreSuite struct {
	suite.Suite
	NewStore func() store.Store

	store store.Store
	ctx   context.Context
	now   time.Time
}

func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func ptr[T any](v T) *T { return &v }

func (s *StoreSuite) member(id, household, last, line1 string) *models.Member {
	return &models.Member{
		ID:          id,
		HouseholdID: household,
		FirstName:   "Pat",
		LastName:    last,
		Address:     models.Address{Line1: line1, City: "Springfield", State: "IL", Zip: "62701"},
		Latitude:    ptr(39.7817),
		Longitude:   ptr(-89.6501),
		Age:         ptr(42),
		LastStatus:  models.StatusUnvisited,
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
}

func (s *StoreSuite) event(memberID string, client time.Time, status models.Status) *models.VisitEvent {
	return &models.VisitEvent{
		MemberID:       memberID,
		HouseholdID:    "hh-1",
		Status:         status,
		SurveyAnswers:  json.RawMessage(`{"q1":"yes"}`),
		Notes:          "porch light on",
		ClientTime:     client,
		ReceivedAt:     s.now.Add(time.Minute),
		DeviceID:       "tablet-7",
		Geo:            models.Geo{Lat: 39.7818, Lng: -89.6502},
		DistanceMeters: 14,
	}
}

func (s *StoreSuite) TestMemberUpsert() {
	s.Run("insert assigns seq and Unvisited", func() {
		inserted, err := s.store.UpsertMember(s.ctx, s.member("m-1", "hh-1", "Ng", "1 Elm St"))
		s.Require().NoError(err)
		s.True(inserted)

		found, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusUnvisited, found.LastStatus)
		s.Positive(found.Seq)
		s.Nil(found.LastUpdatedAt)
		s.Require().NotNil(found.Latitude)
		s.InDelta(39.7817, *found.Latitude, 1e-9)
		s.Equal(42, *found.Age)
		s.True(s.now.Equal(found.CreatedAt))
	})

	s.Run("update overwrites roster fields but keeps visit progress", func() {
		applied, err := s.store.ApplyVisit(s.ctx, s.event("m-1", s.now, models.StatusSurveyed))
		s.Require().NoError(err)
		s.Require().True(applied)
		before, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)

		update := s.member("m-1", "hh-9", "Nguyen", "3 Oak Ave")
		update.Latitude = nil
		update.Age = nil
		update.LastStatus = models.StatusUnvisited
		update.UpdatedAt = s.now.Add(time.Hour)
		inserted, err := s.store.UpsertMember(s.ctx, update)
		s.Require().NoError(err)
		s.False(inserted)

		after, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal("Nguyen", after.LastName)
		s.Equal("hh-9", after.HouseholdID)
		s.Equal("3 Oak Ave", after.Address.Line1)
		s.Nil(after.Latitude)
		s.Nil(after.Age)
		s.Equal(models.StatusSurveyed, after.LastStatus)
		s.Require().NotNil(after.LastUpdatedAt)
		s.True(before.LastUpdatedAt.Equal(*after.LastUpdatedAt))
		s.Equal(before.Seq, after.Seq)
		s.True(s.now.Equal(after.CreatedAt))
	})

	s.Run("identical roster leaves the record untouched", func() {
		before, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)

		again := s.member("m-1", "hh-9", "Nguyen", "3 Oak Ave")
		again.Latitude = nil
		again.Age = nil
		again.CreatedAt = s.now.Add(48 * time.Hour)
		again.UpdatedAt = s.now.Add(48 * time.Hour)
		inserted, err := s.store.UpsertMember(s.ctx, again)
		s.Require().NoError(err)
		s.False(inserted)

		after, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("unknown member is ErrNotFound", func() {
		_, err := s.store.FindMember(s.ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestListMembers() {
	for i, last := range []string{"Adams", "Baker", "Clark", "Diaz"} {
		_, err := s.store.UpsertMember(s.ctx, s.member(fmt.Sprintf("m-%d", i), fmt.Sprintf("hh-%d", i%2), last, fmt.Sprintf("%d Main St", 10+i)))
		s.Require().NoError(err)
	}

	s.Run("ordered by seq with keyset and limit", func() {
		page, err := s.store.ListMembers(s.ctx, models.MemberQuery{Limit: 3})
		s.Require().NoError(err)
		s.Require().Len(page, 3)
		s.Equal([]string{"Adams", "Baker", "Clark"}, lastNames(page))

		rest, err := s.store.ListMembers(s.ctx, models.MemberQuery{AfterSeq: page[2].Seq, Limit: 3})
		s.Require().NoError(err)
		s.Equal([]string{"Diaz"}, lastNames(rest))
	})

	s.Run("search is a case-insensitive substring", func() {
		found, err := s.store.ListMembers(s.ctx, models.MemberQuery{Search: "AK"})
		s.Require().NoError(err)
		s.Equal([]string{"Baker"}, lastNames(found))

		byHousehold, err := s.store.ListMembers(s.ctx, models.MemberQuery{Search: "hh-1"})
		s.Require().NoError(err)
		s.Equal([]string{"Baker", "Diaz"}, lastNames(byHousehold))
	})

	s.Run("search folds non-ASCII letters", func() {
		_, err := s.store.UpsertMember(s.ctx, s.member("m-9", "hh-9", "Ñúñez", "9 Calle Mayor"))
		s.Require().NoError(err)

		for _, search := range []string{"ñúñez", "ÑÚÑEZ", "úñ"} {
			found, err := s.store.ListMembers(s.ctx, models.MemberQuery{Search: search})
			s.Require().NoError(err)
			s.Equal([]string{"Ñúñez"}, lastNames(found), search)
		}
	})

	s.Run("search treats LIKE wildcards literally", func() {
		found, err := s.store.ListMembers(s.ctx, models.MemberQuery{Search: "%"})
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("household members sorted by last then first name", func() {
		members, err := s.store.ListHousehold(s.ctx, "hh-1")
		s.Require().NoError(err)
		s.Equal([]string{"Baker", "Diaz"}, lastNames(members))

		none, err := s.store.ListHousehold(s.ctx, "hh-404")
		s.Require().NoError(err)
		s.Empty(none)
	})

	s.Run("batch lookup skips unknown ids", func() {
		found, err := s.store.FindMembers(s.ctx, []string{"m-0", "m-3", "ghost"})
		s.Require().NoError(err)
		s.Len(found, 2)
		s.Equal("Diaz", found["m-3"].LastName)
	})
}

func (s *StoreSuite) TestApplyVisit() {
	_, err := s.store.UpsertMember(s.ctx, s.member("m-1", "hh-1", "Ng", "1 Elm St"))
	s.Require().NoError(err)
	t2 := s.now.Add(-time.Hour)
	t1 := t2.Add(-time.Hour)

	s.Run("first event is stored and propagated to the member", func() {
		applied, err := s.store.ApplyVisit(s.ctx, s.event("m-1", t2, models.StatusNotHome))
		s.Require().NoError(err)
		s.True(applied)

		ev, err := s.store.FindEvent(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusNotHome, ev.Status)
		s.True(t2.Equal(ev.ClientTime))
		s.JSONEq(`{"q1":"yes"}`, string(ev.SurveyAnswers))
		s.Equal(int64(14), ev.DistanceMeters)

		m, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusNotHome, m.LastStatus)
		s.Require().NotNil(m.LastUpdatedAt)
		s.True(s.now.Add(time.Minute).Equal(*m.LastUpdatedAt))
	})

	s.Run("older client timestamp is ignored without writing", func() {
		older := s.event("m-1", t1, models.StatusRefused)
		older.Notes = "should not persist"
		applied, err := s.store.ApplyVisit(s.ctx, older)
		s.Require().NoError(err)
		s.False(applied)

		ev, err := s.store.FindEvent(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusNotHome, ev.Status)
		s.Equal("porch light on", ev.Notes)

		m, err := s.store.FindMember(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusNotHome, m.LastStatus)
	})

	s.Run("equal client timestamp replaces", func() {
		same := s.event("m-1", t2, models.StatusSurveyed)
		same.Suspect = true
		applied, err := s.store.ApplyVisit(s.ctx, same)
		s.Require().NoError(err)
		s.True(applied)

		ev, err := s.store.FindEvent(s.ctx, "m-1")
		s.Require().NoError(err)
		s.Equal(models.StatusSurveyed, ev.Status)
		s.True(ev.Suspect)
	})

	s.Run("unknown member is ErrNotFound", func() {
		_, err := s.store.ApplyVisit(s.ctx, s.event("ghost", t2, models.StatusMoved))
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindEvent(s.ctx, "ghost")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestConcurrentVisitsKeepNewest() {
	_, err := s.store.UpsertMember(s.ctx, s.member("m-1", "hh-1", "Ng", "1 Elm St"))
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.store.ApplyVisit(s.ctx, s.event("m-1", s.now.Add(time.Duration(i)*time.Second), models.StatusNotHome))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	ev, err := s.store.FindEvent(s.ctx, "m-1")
	s.Require().NoError(err)
	s.True(s.now.Add(7 * time.Second).Equal(ev.ClientTime))
}

func (s *StoreSuite) TestListEvents() {
	for i, id := range []string{"m-c", "m-a", "m-b"} {
		_, err := s.store.UpsertMember(s.ctx, s.member(id, "hh-1", "Ng", "1 Elm St"))
		s.Require().NoError(err)
		ev := s.event(id, s.now, models.StatusSurveyed)
		ev.ReceivedAt = s.now.Add(time.Duration(i%2) * time.Hour)
		_, err = s.store.ApplyVisit(s.ctx, ev)
		s.Require().NoError(err)
	}

	s.Run("ordered by receivedAt then member id", func() {
		events, err := s.store.ListEvents(s.ctx, models.EventQuery{})
		s.Require().NoError(err)
		s.Equal([]string{"m-b", "m-c", "m-a"}, memberIDs(events))
	})

	s.Run("keyset continues after cursor", func() {
		first, err := s.store.ListEvents(s.ctx, models.EventQuery{Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(first, 1)
		rest, err := s.store.ListEvents(s.ctx, models.EventQuery{
			After: &models.EventCursor{ReceivedAt: first[0].ReceivedAt, MemberID: first[0].MemberID},
		})
		s.Require().NoError(err)
		s.Equal([]string{"m-c", "m-a"}, memberIDs(rest))
	})

	s.Run("range bounds are inclusive", func() {
		from := s.now.Add(time.Hour)
		events, err := s.store.ListEvents(s.ctx, models.EventQuery{From: &from})
		s.Require().NoError(err)
		s.Equal([]string{"m-a"}, memberIDs(events))

		to := s.now
		events, err = s.store.ListEvents(s.ctx, models.EventQuery{To: &to})
		s.Require().NoError(err)
		s.Equal([]string{"m-b", "m-c"}, memberIDs(events))
	})
}

func lastNames(ms []models.Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.LastName
	}
	return out
}

func memberIDs(evs []models.VisitEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.MemberID
	}
	return out
}
