package agenttools

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/models"
)

func (ts *toolset) registerEventTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_event",
		Description: "Creates a game event with the actor as host",
	}, handle(ts, "create_event", func(ctx context.Context, in CreateEventInput) (any, error) {
		who, err := ts.resolveActor(in.Actor)
		if err != nil {
			return nil, err
		}
		gameID, err := parseOptionalID("game_id", in.GameID)
		if err != nil {
			return nil, err
		}
		when, err := parseTime("event_datetime", in.EventDatetime)
		if err != nil {
			return nil, err
		}
		return ts.Events.Create(ctx, ts.scope, who, events.CreateInput{
			GameID:         gameID,
			GameName:       in.GameName,
			EventName:      in.EventName,
			EventDatetime:  when,
			LocationOrLink: optional(in.LocationOrLink),
		})
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_event",
		Description: "Shows an event with its hosts, attendees and the actor's membership",
	}, handle(ts, "get_event", func(ctx context.Context, in EventInput) (any, error) {
		who, id, err := ts.eventRef(in)
		if err != nil {
			return nil, err
		}
		return ts.Events.Get(ctx, ts.scope, who, id)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_events",
		Description: "Lists events visible to the actor, including events friends attend",
	}, handle(ts, "list_events", func(ctx context.Context, in ListEventsInput) (any, error) {
		return ts.listEvents(ctx, in, false)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_user_events",
		Description: "Lists only the events the actor is invited to or attending",
	}, handle(ts, "get_user_events", func(ctx context.Context, in ListEventsInput) (any, error) {
		return ts.listEvents(ctx, in, true)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_event_plan",
		Description: "Changes the name, time or location of an event; hosts only",
	}, handle(ts, "update_event_plan", func(ctx context.Context, in UpdatePlanInput) (any, error) {
		who, id, err := ts.eventRef(EventInput{Actor: in.Actor, EventID: in.EventID})
		if err != nil {
			return nil, err
		}
		upd := events.PlanUpdate{EventName: in.EventName, LocationOrLink: in.LocationOrLink}
		if in.EventDatetime != nil {
			if upd.EventDatetime, err = parseTime("event_datetime", *in.EventDatetime); err != nil {
				return nil, err
			}
		}
		return ts.Events.UpdatePlan(ctx, ts.scope, who, id, upd)
	}))

	for _, st := range []struct {
		name, desc string
		status     models.EventStatus
	}{
		{"confirm_event", "Marks an event as confirmed; hosts only", models.EventStatusConfirmed},
		{"cancel_event", "Cancels an event; hosts only", models.EventStatusCancelled},
	} {
		mcp.AddTool(srv, &mcp.Tool{Name: st.name, Description: st.desc},
			handle(ts, st.name, func(ctx context.Context, in EventInput) (any, error) {
				who, id, err := ts.eventRef(in)
				if err != nil {
					return nil, err
				}
				return ts.Events.SetStatus(ctx, ts.scope, who, id, st.status)
			}))
	}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_event",
		Description: "Deletes an event with its members and messages; hosts only",
	}, handle(ts, "delete_event", func(ctx context.Context, in EventInput) (any, error) {
		who, id, err := ts.eventRef(in)
		if err != nil {
			return nil, err
		}
		if err := ts.Events.Delete(ctx, ts.scope, who, id); err != nil {
			return nil, err
		}
		return map[string]string{"deleted_event_id": id.String()}, nil
	}))
}

func (ts *toolset) registerMembershipTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "invite_member",
		Description: "Invites someone to an event as HOST or ATTENDEE",
	}, handle(ts, "invite_member", func(ctx context.Context, in InviteInput) (any, error) {
		who, id, err := ts.eventRef(EventInput{Actor: in.Actor, EventID: in.EventID})
		if err != nil {
			return nil, err
		}
		invitee, err := ts.resolve(in.Invitee)
		if err != nil {
			return nil, err
		}
		role := models.RoleAttendee
		if in.Role != "" {
			if role, err = actor.ParseRole(in.Role); err != nil {
				return nil, err
			}
		}
		return ts.Events.Invite(ctx, ts.scope, who, id, invitee, role)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "accept_invite",
		Description: "Accepts the actor's pending invitation to an event",
	}, handle(ts, "accept_invite", func(ctx context.Context, in EventInput) (any, error) {
		who, id, err := ts.eventRef(in)
		if err != nil {
			return nil, err
		}
		return ts.Events.Accept(ctx, ts.scope, who, id)
	}))

	for _, op := range []struct {
		name, desc string
		fn         func(context.Context, actor.Scope, actor.MemberRef, uuid.UUID) error
	}{
		{"decline_invite", "Declines the actor's pending invitation to an event", ts.Events.Decline},
		{"leave_event", "Leaves an event; the last accepted host cannot leave", ts.Events.Leave},
	} {
		mcp.AddTool(srv, &mcp.Tool{Name: op.name, Description: op.desc},
			handle(ts, op.name, func(ctx context.Context, in EventInput) (any, error) {
				who, id, err := ts.eventRef(in)
				if err != nil {
					return nil, err
				}
				if err := op.fn(ctx, ts.scope, who, id); err != nil {
					return nil, err
				}
				return map[string]string{"event_id": id.String(), "member_key": who.Key()}, nil
			}))
	}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "confirm_plan",
		Description: "Acknowledges the current plan of an event",
	}, handle(ts, "confirm_plan", func(ctx context.Context, in EventInput) (any, error) {
		who, id, err := ts.eventRef(in)
		if err != nil {
			return nil, err
		}
		return ts.Events.ConfirmPlan(ctx, ts.scope, who, id)
	}))
}

func (ts *toolset) registerMessageTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "post_message",
		Description: "Posts a chat message on an event",
	}, handle(ts, "post_message", func(ctx context.Context, in PostMessageInput) (any, error) {
		who, id, err := ts.eventRef(EventInput{Actor: in.Actor, EventID: in.EventID})
		if err != nil {
			return nil, err
		}
		return ts.Events.PostMessage(ctx, ts.scope, who, id, in.Content)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_messages",
		Description: "Lists event chat messages, newest first",
	}, handle(ts, "list_messages", func(ctx context.Context, in ListMessagesInput) (any, error) {
		who, id, err := ts.eventRef(EventInput{Actor: in.Actor, EventID: in.EventID})
		if err != nil {
			return nil, err
		}
		before, err := parseOptionalID("before", in.Before)
		if err != nil {
			return nil, err
		}
		return ts.Events.ListMessages(ctx, ts.scope, who, id, before, in.Limit)
	}))
}

func (ts *toolset) registerDirectoryTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_games",
		Description: "Searches the game catalogue by name",
	}, handle(ts, "list_games", func(ctx context.Context, in ListGamesInput) (any, error) {
		return ts.Games.List(ctx, in.Query, in.Limit, in.Offset)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "find_users",
		Description: "Finds app users by partial username or email",
	}, handle(ts, "find_users", func(ctx context.Context, in FindUsersInput) (any, error) {
		found, err := ts.Users.Find(ctx, in.Username, in.Email, in.Limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]string, len(found))
		for i, u := range found {
			out[i] = map[string]string{"id": u.ID.String(), "username": u.Username}
		}
		return out, nil
	}))
}

func (ts *toolset) eventRef(in EventInput) (actor.MemberRef, uuid.UUID, error) {
	who, err := ts.resolveActor(in.Actor)
	if err != nil {
		return actor.MemberRef{}, uuid.Nil, err
	}
	id, err := parseID("event_id", in.EventID)
	if err != nil {
		return actor.MemberRef{}, uuid.Nil, err
	}
	return who, id, nil
}

func (ts *toolset) listEvents(ctx context.Context, in ListEventsInput, membersOnly bool) (any, error) {
	who, err := ts.resolveActor(in.Actor)
	if err != nil {
		return nil, err
	}
	f := events.ListFilter{
		IncludeCancelled: in.IncludeCancelled,
		MembersOnly:      membersOnly,
		Limit:            in.Limit,
		Offset:           in.Offset,
	}
	if in.Status != "" {
		st, err := actor.ParseEventStatus(in.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}
	return ts.Events.List(ctx, ts.scope, who, f)
}
