package models

type EventStatus string

const (
	EventStatusPlanning  EventStatus = "PLANNING"
	EventStatusConfirmed EventStatus = "CONFIRMED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

type MembershipRole string

const (
	RoleHost     MembershipRole = "HOST"
	RoleAttendee MembershipRole = "ATTENDEE"
)

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipAccepted MembershipStatus = "ACCEPTED"
)

// MemberSource says where a member identity lives: in our users table or on
// an external chat platform.
type MemberSource string

const (
	SourceAppUser MemberSource = "APP_USER"
	SourceDiscord MemberSource = "DISCORD"
)

type MessageType string

const (
	MessageUser   MessageType = "USER"
	MessageSystem MessageType = "SYSTEM"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)
