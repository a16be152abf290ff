// Package store defines the member and visit event collections shared by
// import, visit reconciliation, rollup and export, and opens the configured
// engine.
package store

import (
	"context"
	"time"

	"fieldsync/internal/canvass/models"
)

// Store is implemented by memory.InMemory and sqlstore.Store.
//
// Implementations return sentinel.ErrNotFound (possibly wrapped) for absent
// keys and provide two atomic primitives: UpsertMember by id and ApplyVisit,
// which replaces a member's event only when the stored client timestamp is
// not after the incoming one.
type Store interface {
	// UpsertMember inserts m or overwrites its roster fields, never touching
	// LastStatus or LastUpdatedAt of an existing member.
	UpsertMember(ctx context.Context, m *models.Member) (inserted bool, err error)
	FindMember(ctx context.Context, id string) (*models.Member, error)
	FindMembers(ctx context.Context, ids []string) (map[string]models.Member, error)
	ListHousehold(ctx context.Context, householdID string) ([]models.Member, error)
	ListMembers(ctx context.Context, q models.MemberQuery) ([]models.Member, error)

	FindEvent(ctx context.Context, memberID string) (*models.VisitEvent, error)
	// ApplyVisit stores ev and stamps the member's LastStatus and
	// LastUpdatedAt (= ev.ReceivedAt). applied is false when the stored event
	// has a later client timestamp; nothing is written then.
	ApplyVisit(ctx context.Context, ev *models.VisitEvent) (applied bool, err error)
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.VisitEvent, error)

	Ping(ctx context.Context) error
	Close() error
}

// Millis truncates t to the persisted precision.
func Millis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
