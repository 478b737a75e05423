// Package agenttools exposes the event operations as MCP tools for the
// conversational agent. Tools never fail at the protocol level: every domain
// failure comes back as {success: false, error, error_kind}.
package agenttools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/games"
	"gamenight-backend/internal/users"
)

const serverName = "gamenight"

// Deps are the services the tools call into.
type Deps struct {
	Events *events.Service
	Games  *games.Service
	Users  *users.Service
	Logger *slog.Logger
}

// Result is the output of every tool.
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type toolset struct {
	Deps
	scope actor.Scope
	// pinned, when set, is the only actor the tools accept.
	pinned *actor.MemberRef
}

// Option configures a server built by NewServer.
type Option func(*toolset)

// ActingAs binds the toolset to one member: every actor argument must
// resolve to who, otherwise the call fails with InvalidActor.
func ActingAs(who actor.MemberRef) Option {
	return func(ts *toolset) { ts.pinned = &who }
}

// NewServer builds an MCP server whose tools act within scope. A channel
// scope gives the channel toolset: actors may be platform ids and events are
// stamped with and filtered by the channel.
func NewServer(d Deps, scope actor.Scope, version string, opts ...Option) *mcp.Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	ts := &toolset{Deps: d, scope: scope}
	for _, opt := range opts {
		opt(ts)
	}
	ts.registerEventTools(srv)
	ts.registerMembershipTools(srv)
	ts.registerMessageTools(srv)
	ts.registerDirectoryTools(srv)
	return srv
}

// resolveActor turns the acting member argument into a member ref for this
// scope, holding it to the pinned member if there is one.
func (ts *toolset) resolveActor(token string) (actor.MemberRef, error) {
	who, err := ts.resolve(token)
	if err != nil {
		return actor.MemberRef{}, err
	}
	if ts.pinned != nil && who.Key() != ts.pinned.Key() {
		return actor.MemberRef{}, apperr.InvalidActor(fmt.Sprintf("this session acts as %s, not %s", ts.pinned, who))
	}
	return who, nil
}

// resolve turns a raw member argument into a member ref for this scope.
func (ts *toolset) resolve(token string) (actor.MemberRef, error) {
	return actor.Resolve(token, ts.scope)
}

// handle adapts fn into a tool handler that folds errors into the result.
func handle[In any](ts *toolset, name string, fn func(context.Context, In) (any, error)) mcp.ToolHandlerFor[In, Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Result, error) {
		data, err := fn(ctx, in)
		if err != nil {
			return nil, ts.failure(ctx, name, err), nil
		}
		return nil, Result{Success: true, Data: data}, nil
	}
}

func (ts *toolset) failure(ctx context.Context, tool string, err error) Result {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		ts.Logger.ErrorContext(ctx, "tool failed", "tool", tool, "error", err)
		return Result{Error: "internal error", ErrorKind: string(kind)}
	}
	return Result{Error: err.Error(), ErrorKind: string(kind)}
}
