package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatweb/chatweb-server/internal/store"
)

// Hub serializes all registry access and dispatches client commands to
// the message relay, typing relay and read-receipt handlers. A single
// goroutine runs the loop; everything that touches the registry happens
// on that goroutine.
type Hub struct {
	store store.Store
	log   *zerolog.Logger

	registry   *Registry
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub backed by the given store.
func NewHub(st store.Store, logger *zerolog.Logger) *Hub {
	return &Hub{
		store:      st,
		log:        logger,
		registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
	}
}

// RegisterClient adds a validated connection to the hub and starts
// pumping its commands into the run loop. Commands stay FIFO per
// connection because each connection has exactly one pump.
func (h *Hub) RegisterClient(c *Client) {
	go h.pump(c)
	h.register <- c
}

// UnregisterClient removes a connection from the hub. Safe to call for
// a connection that was already replaced by a reconnect.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		h.commands <- clientCommand{client: c, cmd: cmd}
	}
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(ctx, c)
		case cc := <-h.commands:
			h.dispatch(ctx, cc.client, cc.cmd)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	replaced := h.registry.Register(c)
	if replaced != nil {
		// Last writer wins; the displaced connection keeps its socket
		// but no longer receives anything addressed to this identity.
		h.log.Info().
			Int64("user_id", c.Identity.ID).
			Str("conn_id", c.ConnID).
			Str("replaced_conn_id", replaced.ConnID).
			Msg("connection replaced")
	} else {
		h.log.Info().
			Int64("user_id", c.Identity.ID).
			Str("conn_id", c.ConnID).
			Msg("user connected")
	}

	if err := h.store.SetOnline(ctx, c.Identity.ID, true); err != nil {
		h.log.Warn().Err(err).Int64("user_id", c.Identity.ID).Msg("persist online flag")
	}

	h.broadcastPresence()
}

func (h *Hub) handleUnregister(ctx context.Context, c *Client) {
	if !h.registry.Unregister(c) {
		// Stale connection of an identity that reconnected; the fresh
		// entry stays and presence is unchanged.
		return
	}

	h.log.Info().
		Int64("user_id", c.Identity.ID).
		Str("conn_id", c.ConnID).
		Msg("user disconnected")

	if err := h.store.SetOnline(ctx, c.Identity.ID, false); err != nil {
		h.log.Warn().Err(err).Int64("user_id", c.Identity.ID).Msg("persist online flag")
	}

	h.broadcastPresence()
}

// broadcastPresence recomputes the online view for every connected
// identity and pushes it, excluding the recipient from their own list.
// Full recompute per mutation is O(n) and fine at this scale.
func (h *Hub) broadcastPresence() {
	snapshot := h.registry.Snapshot()
	for _, recipient := range snapshot {
		view := make([]Identity, 0, len(snapshot)-1)
		for _, other := range snapshot {
			if other.Identity.ID == recipient.Identity.ID {
				continue
			}
			view = append(view, other.Identity)
		}
		recipient.send(&Event{Kind: EventUsersOnline, Users: view})
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandSendMessage:
		h.relayMessage(ctx, c, cmd)
	case CommandTyping:
		h.relayTyping(c, cmd)
	case CommandMarkRead:
		h.markRead(ctx, c, cmd)
	default:
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

// relayMessage validates, persists and delivers a message. Persistence
// happens strictly before delivery, so a message visible to the receiver
// is always durable. The sender gets message_sent regardless of whether
// the receiver is online.
func (h *Hub) relayMessage(ctx context.Context, sender *Client, cmd *Command) {
	if cmd.ReceiverID == 0 || cmd.Content == "" {
		sender.send(&Event{Kind: EventError, Error: coreError(ErrCodeValidation, "receiver and content are required")})
		return
	}

	receiver, err := h.store.GetUserByID(ctx, cmd.ReceiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sender.send(&Event{Kind: EventError, Error: coreError(ErrCodeRecipientNotFound, "recipient not found")})
			return
		}
		h.log.Error().Err(err).Int64("receiver_id", cmd.ReceiverID).Msg("resolve recipient")
		sender.send(&Event{Kind: EventError, Error: coreError(ErrCodePersistence, "failed to send message")})
		return
	}

	msg, err := h.store.CreateMessage(ctx, &store.Message{
		SenderID:   sender.Identity.ID,
		ReceiverID: receiver.ID,
		Content:    cmd.Content,
		Type:       cmd.MessageType,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("sender_id", sender.Identity.ID).Msg("persist message")
		sender.send(&Event{Kind: EventError, Error: coreError(ErrCodePersistence, "failed to send message")})
		return
	}

	receiverIdentity := Identity{ID: receiver.ID, Name: receiver.Name, Avatar: receiver.Avatar}

	if conn, ok := h.registry.Lookup(receiver.ID); ok {
		conn.send(&Event{
			Kind:    EventNewMessage,
			Message: msg,
			From:    sender.Identity,
			To:      receiverIdentity,
		})
	}

	sender.send(&Event{
		Kind:    EventMessageSent,
		Message: msg,
		From:    sender.Identity,
		To:      receiverIdentity,
	})
}

// relayTyping forwards a typing signal to the target if online. Offline
// targets are a silent drop; typing is best-effort and ephemeral.
func (h *Hub) relayTyping(sender *Client, cmd *Command) {
	target, ok := h.registry.Lookup(cmd.ReceiverID)
	if !ok {
		return
	}
	target.send(&Event{
		Kind:     EventUserTyping,
		From:     sender.Identity,
		IsTyping: cmd.IsTyping,
	})
}

// markRead flips unread messages from cmd.SenderID to the reader and
// notifies the original sender if they are online. Re-marking an
// already-read conversation is a no-op that still succeeds.
func (h *Hub) markRead(ctx context.Context, reader *Client, cmd *Command) {
	readAt := time.Now().UTC()
	count, err := h.store.MarkConversationRead(ctx, cmd.SenderID, reader.Identity.ID, readAt)
	if err != nil {
		h.log.Error().Err(err).
			Int64("reader_id", reader.Identity.ID).
			Int64("sender_id", cmd.SenderID).
			Msg("mark messages read")
		reader.send(&Event{Kind: EventError, Error: coreError(ErrCodePersistence, "failed to mark messages read")})
		return
	}

	h.log.Debug().
		Int64("reader_id", reader.Identity.ID).
		Int64("sender_id", cmd.SenderID).
		Int64("count", count).
		Msg("messages marked read")

	if conn, ok := h.registry.Lookup(cmd.SenderID); ok {
		conn.send(&Event{
			Kind:   EventMessagesRead,
			ReadBy: reader.Identity.ID,
			ReadAt: readAt,
		})
	}
}
