package calendar

import (
	"context"
	"errors"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/justdad/internal/models"
)

// AuthorizationStatus mirrors the permission states a device calendar reports.
type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Denied
	Authorized
)

func (s AuthorizationStatus) String() string {
	switch s {
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "not determined"
	}
}

// ErrEventNotFound is returned by API lookups for unknown identifiers.
var ErrEventNotFound = errors.New("calendar event not found")

// API is the device calendar collaborator. Events are golang-ical VEVENTs.
type API interface {
	RequestAccess(ctx context.Context) (bool, error)
	AuthorizationStatus() AuthorizationStatus
	EventsMatching(ctx context.Context, r models.DateRange) ([]*ical.VEvent, error)
	EventWithIdentifier(ctx context.Context, id string) (*ical.VEvent, error)
	// Save inserts or replaces the event by UID, assigning one when empty.
	Save(ctx context.Context, ev *ical.VEvent) error
	Remove(ctx context.Context, ev *ical.VEvent) error
}

// AccessPrompter asks the user whether the calendar may be used.
type AccessPrompter interface {
	PromptAccess(ctx context.Context) (bool, error)
}

// PrompterFunc adapts a function to AccessPrompter.
type PrompterFunc func(ctx context.Context) (bool, error)

func (f PrompterFunc) PromptAccess(ctx context.Context) (bool, error) {
	return f(ctx)
}

// AlwaysGrant and AlwaysDeny are fixed prompters for non-interactive use.
var (
	AlwaysGrant = PrompterFunc(func(context.Context) (bool, error) { return true, nil })
	AlwaysDeny  = PrompterFunc(func(context.Context) (bool, error) { return false, nil })
)
