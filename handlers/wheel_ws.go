// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/wheel"
)

const (
	wsWriteWait    = 5 * time.Second
	wsPongWait     = 30 * time.Second
	wsPingPeriod   = 20 * time.Second
	wsMaxMsgBytes  = 1024
	wsEventBacklog = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WheelHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewWheelHandler(db *sql.DB, cfg cliparse.Config) *WheelHandler {
	return &WheelHandler{db: db, cfg: cfg}
}

// Serve handles GET /buckets/{id}/wheel
// Upgrades to a websocket and drives one wheel session over the bucket's
// cards. The session lives only as long as the connection.
func (h *WheelHandler) Serve(w http.ResponseWriter, r *http.Request) {
	bucketID := r.PathValue("id")
	if _, err := loadBucketByID(r.Context(), h.db, bucketID); err != nil {
		if errors.Is(err, errBucketNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Bucket not found")
			return
		}
		logError(r, "failed to load bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	cards, err := loadCards(r.Context(), h.db, bucketID)
	if err != nil {
		logError(r, "failed to load cards", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sess, err := wheel.NewSession(cards, h.cfg.Policy.WheelConfig())
	if errors.Is(err, wheel.ErrEmptyCollection) {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logError(r, "failed to create wheel session", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start wheel")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		slog.Warn("ws upgrade failed", "error", err, "bucket_id", bucketID)
		return
	}
	defer conn.Close()

	rid := middleware.RequestID(r.Context())
	slog.Info("wheel connected", "bucket_id", bucketID, "cards", len(cards), "request_id", rid)

	ws := &wheelConn{
		conn:     conn,
		sess:     sess,
		bucketID: bucketID,
		frameHz:  h.cfg.Policy.Wheel.FrameHz,
		cfg:      h.cfg.Policy.WheelConfig(),
	}
	reason := ws.run(r.Context())

	slog.Info("wheel disconnected", "bucket_id", bucketID, "reason", reason, "request_id", rid)
}

// wheelConn owns one session. Only run touches sess or writes to conn; the
// read pump hands client messages over a channel.
type wheelConn struct {
	conn     *websocket.Conn
	sess     *wheel.Session[models.Card]
	bucketID string
	frameHz  int
	cfg      wheel.Config
}

func (c *wheelConn) run(ctx context.Context) string {
	events := make(chan models.WheelClientMessage, wsEventBacklog)
	done := make(chan struct{})
	defer close(done)
	go c.readPump(events, done)

	if err := c.send(models.WheelMsgStateInit, c.initPayload()); err != nil {
		return "write failed"
	}

	frames := time.NewTicker(time.Second / time.Duration(c.frameHz))
	defer frames.Stop()
	pings := time.NewTicker(wsPingPeriod)
	defer pings.Stop()

	var (
		settleTimer *time.Timer
		settleC     <-chan time.Time
	)
	stopSettle := func() {
		if settleTimer != nil {
			settleTimer.Stop()
			settleTimer, settleC = nil, nil
		}
	}
	defer stopSettle()

	for {
		select {
		case <-ctx.Done():
			return "context done"

		case msg, ok := <-events:
			if !ok {
				return "client closed"
			}
			now := time.Now()
			// Bring physics up to the event time before toggling flags.
			if c.sess.Tick(now) {
				stopSettle()
				if err := c.sendSettled(); err != nil {
					return "write failed"
				}
			}

			switch msg.Type {
			case models.WheelMsgPress:
				c.sess.Press(now)

			case models.WheelMsgRelease:
				if deadline, ok := c.sess.Release(now); ok {
					stopSettle()
					settleTimer = time.NewTimer(time.Until(deadline))
					settleC = settleTimer.C
				}

			case models.WheelMsgStopTime:
				if err := c.sess.SetStopDuration(secondsToDuration(msg.StopTime)); err != nil {
					if err := c.send(models.WheelMsgError, models.WheelError{Message: err.Error()}); err != nil {
						return "write failed"
					}
				}

			default:
				if err := c.send(models.WheelMsgError, models.WheelError{Message: "unknown message type " + msg.Type}); err != nil {
					return "write failed"
				}
			}

		case now := <-settleC:
			settleTimer, settleC = nil, nil
			if c.sess.Tick(now) {
				if err := c.sendSettled(); err != nil {
					return "write failed"
				}
			}

		case now := <-frames.C:
			phase := c.sess.Phase()
			if phase != wheel.PhaseAccelerating && phase != wheel.PhaseDecelerating {
				continue
			}
			settled := c.sess.Tick(now)
			if err := c.send(models.WheelMsgFrame, c.framePayload()); err != nil {
				return "write failed"
			}
			if settled {
				stopSettle()
				if err := c.sendSettled(); err != nil {
					return "write failed"
				}
			}

		case <-pings.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return "ping failed"
			}
		}
	}
}

// readPump decodes client messages until the connection fails or done is
// closed, then closes events.
func (c *wheelConn) readPump(events chan<- models.WheelClientMessage, done <-chan struct{}) {
	defer close(events)

	c.conn.SetReadLimit(wsMaxMsgBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				slog.Debug("wheel read failed", "bucket_id", c.bucketID, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg models.WheelClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = models.WheelClientMessage{Type: "invalid json"}
		}
		select {
		case events <- msg:
		case <-done:
			return
		}
	}
}

func (c *wheelConn) send(typ string, data any) error {
	now := time.Now().UTC()
	_ = c.conn.SetWriteDeadline(now.Add(wsWriteWait))
	return c.conn.WriteJSON(models.WheelEnvelope{Type: typ, Ts: &now, Data: data})
}

func (c *wheelConn) sendSettled() error {
	card, idx, ok := c.sess.Result()
	if !ok {
		return nil
	}
	slog.Info("wheel settled", "bucket_id", c.bucketID, "index", idx, "position", card.Position)
	return c.send(models.WheelMsgSettled, models.WheelSettled{
		Index: idx,
		Angle: c.sess.State().Angle,
		Card:  card,
	})
}

func (c *wheelConn) initPayload() models.WheelInit {
	n := c.sess.Len()
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = wheel.CabinAngle(i, n)
	}
	return models.WheelInit{
		BucketID:    c.bucketID,
		CardCount:   n,
		StopTime:    c.sess.StopDuration().Seconds(),
		MinStopTime: c.cfg.MinStopDuration.Seconds(),
		MaxStopTime: c.cfg.MaxStopDuration.Seconds(),
		FrameHz:     c.frameHz,
		CabinAngles: angles,
		Angle:       c.sess.State().Angle,
	}
}

func (c *wheelConn) framePayload() models.WheelFrame {
	st := c.sess.State()
	return models.WheelFrame{
		Angle:    st.Angle,
		Velocity: st.Velocity,
		Phase:    c.sess.Phase().String(),
		Pointer:  c.sess.Pointer(),
	}
}
