// Package backfill rebuilds a guild's analytics schema from Discord-side
// history. The guild's stat keys are deleted up front and every structure is
// re-created from the message, audit-log and member sources.
package backfill

import (
	"context"
	"errors"
	"time"
)

// ErrPermission marks a channel or log the bot may not read. The phase
// skips the resource and continues.
var ErrPermission = errors.New("missing read permission")

// Message is one historical guild message.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
	Reply     bool
	Timestamp time.Time
}

// Channel is one readable text channel.
type Channel struct {
	ID   string
	Name string
}

// AuditEntry is one historical moderation action, already mapped to the
// internal action type.
type AuditEntry struct {
	ActorID   string
	TargetID  string
	Action    string
	Timestamp time.Time
}

// Member is one cached guild member.
type Member struct {
	UserID   string
	Bot      bool
	JoinedAt time.Time
}

// HistorySource abstracts the Discord read APIs the orchestrator walks.
// Messages pages newest-first: beforeID "" starts at the newest message and
// each page returns up to limit messages older than beforeID.
type HistorySource interface {
	Channels(ctx context.Context, guildID string) ([]Channel, error)
	Messages(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error)
	AuditLog(ctx context.Context, guildID string) ([]AuditEntry, error)
	Members(ctx context.Context, guildID string) ([]Member, error)
}
