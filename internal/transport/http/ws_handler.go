package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/chatweb/chatweb-server/internal/auth"
	"github.com/chatweb/chatweb-server/internal/core"
	"github.com/chatweb/chatweb-server/internal/proto"
	"github.com/chatweb/chatweb-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
// Authentication happens before anything touches the hub: a rejected
// credential terminates the socket with no registry state created.
type WSHandler struct {
	hub           *core.Hub
	authService   *auth.Service
	allowedOrigin string
	log           *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. An empty allowedOrigin
// disables the origin check.
func NewWSHandler(hub *core.Hub, authService *auth.Service, allowedOrigin string, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, authService: authService, allowedOrigin: allowedOrigin, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	opts := &websocket.AcceptOptions{InsecureSkipVerify: true}
	if h.allowedOrigin != "" {
		opts = &websocket.AcceptOptions{OriginPatterns: []string{originHost(h.allowedOrigin)}}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	user, err := h.authService.Authenticate(ctx, bearerToken(r))
	if err != nil {
		h.log.Warn().Err(err).Msg("ws authentication failed")
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	client := core.NewClient(utils.NewConnID(), core.Identity{
		ID:     user.ID,
		Name:   user.Name,
		Avatar: user.Avatar,
	})
	h.hub.RegisterClient(client)
	defer func() {
		h.hub.UnregisterClient(client)
		close(client.Commands)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ConnID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// originHost strips the scheme so a configured origin like
// "http://localhost:3000" matches websocket's host-based patterns.
func originHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}

// bearerToken pulls the credential from the token query parameter or the
// Authorization header.
func bearerToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ConnID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			client.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ConnID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
