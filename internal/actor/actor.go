// Package actor resolves raw caller identities into the canonical member
// references consumed by the domain services.
package actor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
)

const appUserPrefix = "app_user"

// MemberRef identifies an event member: either an app user or an identity on
// an external platform. Exactly one of the two forms is ever populated.
type MemberRef struct {
	Source models.MemberSource
	ID     string
}

func AppUser(id uuid.UUID) MemberRef {
	return MemberRef{Source: models.SourceAppUser, ID: id.String()}
}

func External(source models.MemberSource, id string) MemberRef {
	return MemberRef{Source: source, ID: id}
}

func (m MemberRef) IsAppUser() bool {
	return m.Source == models.SourceAppUser
}

// UserID returns the app user id, or false for external members.
func (m MemberRef) UserID() (uuid.UUID, bool) {
	if !m.IsAppUser() {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Key is the canonical string used for uniqueness of (event, member).
func (m MemberRef) Key() string {
	return sourcePrefix(m.Source) + ":" + m.ID
}

func (m MemberRef) String() string {
	return m.Key()
}

// ParseKey reverses Key.
func ParseKey(key string) (MemberRef, error) {
	prefix, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return MemberRef{}, apperr.Validation(fmt.Sprintf("malformed member key %q", key))
	}
	if prefix == appUserPrefix {
		uid, err := uuid.Parse(id)
		if err != nil {
			return MemberRef{}, apperr.Validation(fmt.Sprintf("malformed member key %q", key))
		}
		return AppUser(uid), nil
	}
	source, err := ParsePlatform(prefix)
	if err != nil {
		return MemberRef{}, err
	}
	return External(source, id), nil
}

func sourcePrefix(source models.MemberSource) string {
	if source == models.SourceAppUser {
		return appUserPrefix
	}
	return strings.ToLower(string(source))
}

// ParsePlatform maps an integration platform name ("discord") to its source.
func ParsePlatform(name string) (models.MemberSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discord":
		return models.SourceDiscord, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown platform %q", name))
	}
}

// Scope selects the visibility regime of a request. The zero value is the
// personal scope.
type Scope struct {
	ChannelID string
	Platform  models.MemberSource
	// MemberAllowlist holds the external ids present in the channel. A nil
	// list places no restriction on invitees.
	MemberAllowlist []string
	// Labels maps external ids to display names supplied by the integration.
	Labels map[string]string
}

func Personal() Scope {
	return Scope{}
}

func Channel(channelID string, platform models.MemberSource, members []string) Scope {
	return Scope{ChannelID: channelID, Platform: platform, MemberAllowlist: members}
}

func (s Scope) IsChannel() bool {
	return s.ChannelID != ""
}

// WithLabels returns a copy of s carrying display labels for external ids.
func (s Scope) WithLabels(labels map[string]string) Scope {
	s.Labels = labels
	return s
}

// Label returns the display name the integration supplied for ref, if any.
func (s Scope) Label(ref MemberRef) string {
	if ref.IsAppUser() {
		return ""
	}
	return s.Labels[ref.ID]
}

// Allows reports whether ref may be invited from this scope.
func (s Scope) Allows(ref MemberRef) bool {
	if !s.IsChannel() || ref.IsAppUser() || s.MemberAllowlist == nil {
		return true
	}
	for _, id := range s.MemberAllowlist {
		if id == ref.ID {
			return true
		}
	}
	return false
}

// Resolve turns a raw actor token into a MemberRef.
//
// In personal scope only app user UUIDs are accepted. In channel scope the
// token may also be "<platform>:<id>" or a bare numeric platform id, which is
// attributed to the scope's platform.
func Resolve(token string, scope Scope) (MemberRef, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return MemberRef{}, apperr.InvalidActor("actor is required")
	}
	if id, err := uuid.Parse(token); err == nil && !strings.Contains(token, ":") {
		return AppUser(id), nil
	}
	if !scope.IsChannel() {
		return MemberRef{}, apperr.InvalidActor(fmt.Sprintf("actor %q is not a user id", token))
	}

	if prefix, id, ok := strings.Cut(token, ":"); ok {
		source, err := ParsePlatform(prefix)
		if err != nil || !isPlatformID(id) {
			return MemberRef{}, apperr.InvalidActor(fmt.Sprintf("actor %q is not a recognised platform id", token))
		}
		return External(source, id), nil
	}
	if isPlatformID(token) && scope.Platform != "" {
		return External(scope.Platform, token), nil
	}
	return MemberRef{}, apperr.InvalidActor(fmt.Sprintf("actor %q is not a recognised platform id", token))
}

func isPlatformID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseRole parses a membership role, case-insensitively.
func ParseRole(s string) (models.MembershipRole, error) {
	switch models.MembershipRole(strings.ToUpper(strings.TrimSpace(s))) {
	case models.RoleHost:
		return models.RoleHost, nil
	case models.RoleAttendee:
		return models.RoleAttendee, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("role must be HOST or ATTENDEE, got %q", s))
	}
}

// ParseEventStatus parses an event status, case-insensitively.
func ParseEventStatus(s string) (models.EventStatus, error) {
	switch models.EventStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case models.EventStatusPlanning:
		return models.EventStatusPlanning, nil
	case models.EventStatusConfirmed:
		return models.EventStatusConfirmed, nil
	case models.EventStatusCancelled:
		return models.EventStatusCancelled, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("status must be PLANNING, CONFIRMED or CANCELLED, got %q", s))
	}
}
