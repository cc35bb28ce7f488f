package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgNext           = "next"
	msgError          = "error"

	initTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// wsMessage follows the graphql-ws envelope so existing clients can keep
// their connection handshake.
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type connectionParams struct {
	Authorization string `json:"Authorization"`
}

// subscribe streams the updates of one domain or client. The socket's
// own credential is taken from connection_init, falling back to the
// upgrade request.
func (h *Handler) subscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		initCtx, cancel := context.WithTimeout(r.Context(), initTimeout)
		var init wsMessage
		err = wsjson.Read(initCtx, conn, &init)
		cancel()
		if err != nil || init.Type != msgConnectionInit {
			conn.Close(websocket.StatusPolicyViolation, "expected connection_init")
			return
		}

		cred := credential(r)
		var params connectionParams
		if len(init.Payload) > 0 && json.Unmarshal(init.Payload, &params) == nil && params.Authorization != "" {
			cred = params.Authorization
		}

		ctx := conn.CloseRead(r.Context())
		updates, err := h.svc.Notifier.Subscribe(ctx, cred, topic, chi.URLParam(r, "id"))
		if err != nil {
			h.rejectSubscription(ctx, conn, err)
			return
		}
		p, err := h.svc.Auth.Principal(ctx, cred)
		if err != nil {
			h.rejectSubscription(ctx, conn, err)
			return
		}

		if err := wsjson.Write(ctx, conn, wsMessage{Type: msgConnectionAck}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "closed")
				return
			case update, ok := <-updates:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "closed")
					return
				}
				payload, err := json.Marshal(h.presentUpdate(p, update))
				if err != nil {
					h.log.WithError(err).Warn("failed to encode update")
					continue
				}
				writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
				err = wsjson.Write(writeCtx, conn, wsMessage{Type: msgNext, Payload: payload})
				cancelWrite()
				if err != nil {
					conn.Close(websocket.StatusNormalClosure, "write_failed")
					return
				}
			}
		}
	}
}

func (h *Handler) rejectSubscription(ctx context.Context, conn *websocket.Conn, err error) {
	msg := "Internal server error."
	var derr *domain.Error
	if errors.As(err, &derr) {
		msg = derr.Msg
	} else {
		h.log.WithError(err).Error("subscription failed")
	}
	payload, _ := json.Marshal([]errorMessage{{Message: msg}})

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	wsjson.Write(writeCtx, conn, wsMessage{Type: msgError, Payload: payload})
	conn.Close(websocket.StatusPolicyViolation, "subscription rejected")
}
