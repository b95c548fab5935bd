package server

import (
	"context"
	"log/slog"

	"github.com/javajack/sheetsync"
)

// Hub is the synchronization relay. A single goroutine (Run) owns the
// document and the session registry; every mutation, websocket events and
// REST operations alike, is funneled through its channels, which preserves
// per-event atomicity without locks.
//
// Conflict policy is last-write-wins: an incoming cell update overwrites
// the stored cell unconditionally and is rebroadcast to all other joined
// sessions. There is no merge, no rejection, and no client-side rebase.
type Hub struct {
	doc      *sheetsync.Document
	registry *Registry

	clients map[*Client]string // connected client → user id, "" until joined

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	commands   chan func()

	logger  *slog.Logger
	metrics *Metrics
}

type inboundMessage struct {
	client *Client
	raw    []byte
}

// NewHub creates a relay over the given document. logger and metrics must
// be non-nil.
func NewHub(doc *sheetsync.Document, logger *slog.Logger, metrics *Metrics) *Hub {
	return &Hub{
		doc:        doc,
		registry:   NewRegistry(),
		clients:    make(map[*Client]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 64),
		commands:   make(chan func()),
		logger:     logger,
		metrics:    metrics,
	}
}

// Run processes relay traffic until ctx is cancelled. It must be running
// before any client connects or REST handler is served.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			return

		case c := <-h.register:
			h.clients[c] = ""
			h.logger.Info("client connected", "remote", c.remoteAddr())

		case c := <-h.unregister:
			h.dropClient(c)

		case msg := <-h.inbound:
			h.handleEvent(msg.client, msg.raw)

		case fn := <-h.commands:
			fn()
		}
	}
}

// do runs fn on the hub goroutine and waits for it to finish. REST
// handlers use it to read or mutate state with the same atomicity as
// websocket events.
func (h *Hub) do(fn func()) {
	done := make(chan struct{})
	h.commands <- func() {
		fn()
		close(done)
	}
	<-done
}

// dropClient removes a connection and, if it had joined, its session.
// Remaining sessions are told the user left so they clear its selection
// highlight within one broadcast cycle.
func (h *Hub) dropClient(c *Client) {
	userID, ok := h.clients[c]
	if !ok {
		return
	}
	delete(h.clients, c)
	c.close()

	if userID == "" {
		h.logger.Info("client disconnected before joining", "remote", c.remoteAddr())
		return
	}

	if s := h.registry.Remove(userID); s != nil {
		h.logger.Info("user left", "user_id", userID, "name", s.Name)
	}
	h.metrics.ActiveSessions.Set(float64(h.registry.Len()))
	h.broadcast(EventUserLeft, UserLeftPayload{UserID: userID}, c)
}

// handleEvent decodes one inbound frame and applies it. Malformed frames
// and out-of-state events are dropped with a log line and a metrics
// increment; the relay has no error channel back to the sender beyond
// re-sending corrected truth state.
func (h *Hub) handleEvent(c *Client, raw []byte) {
	event, err := DecodeClientEvent(raw)
	if err != nil {
		h.metrics.MalformedEvents.Inc()
		h.logger.Warn("dropping malformed event", "error", err, "remote", c.remoteAddr())
		return
	}

	switch ev := event.(type) {
	case *JoinEvent:
		h.metrics.Events.WithLabelValues(EventJoinSpreadsheet).Inc()
		h.handleJoin(c, ev)

	case *CellUpdateEvent:
		h.metrics.Events.WithLabelValues(EventCellUpdate).Inc()
		h.handleCellUpdate(c, ev)

	case *CellSelectionEvent:
		h.metrics.Events.WithLabelValues(EventCellSelection).Inc()
		h.handleCellSelection(c, ev)

	case *RowOperationEvent:
		h.metrics.Events.WithLabelValues(EventRowOperation).Inc()
		h.handleStructuralOp(c, EventRowOperationApplied, ev.Type, ev.Index, true)

	case *ColumnOperationEvent:
		h.metrics.Events.WithLabelValues(EventColumnOperation).Inc()
		h.handleStructuralOp(c, EventColumnOperationApplied, ev.Type, ev.Index, false)
	}
}

func (h *Hub) handleJoin(c *Client, ev *JoinEvent) {
	session := h.registry.Add(ev.UserID, ev.UserName)
	h.clients[c] = session.UserID
	h.metrics.ActiveSessions.Set(float64(h.registry.Len()))
	h.logger.Info("user joined", "user_id", session.UserID, "name", session.Name, "color", session.Color)

	// The joiner gets the full document and the user list; everyone else
	// just hears about the new user.
	h.sendTo(c, EventSpreadsheetData, h.doc.Snapshot())
	h.sendTo(c, EventActiveUsers, h.registry.List())
	h.broadcast(EventUserJoined, UserJoinedPayload{
		UserID: session.UserID,
		Name:   session.Name,
		Color:  session.Color,
	}, c)
}

func (h *Hub) handleCellUpdate(c *Client, ev *CellUpdateEvent) {
	userID := h.clients[c]
	if userID == "" {
		h.logger.Warn("cell_update before join", "remote", c.remoteAddr())
		return
	}

	cell, err := h.doc.SetCell(ev.CellID, ev.Value, userID)
	if err != nil {
		h.metrics.MalformedEvents.Inc()
		h.logger.Warn("dropping cell update", "cell_id", ev.CellID, "error", err)
		return
	}

	h.broadcast(EventCellUpdated, CellUpdatedPayload{
		CellID:           ev.CellID,
		Value:            cell.Value,
		OriginalValue:    cell.RawValue,
		DataType:         cell.DataType,
		IsValid:          cell.IsValid,
		ValidationErrors: cell.ValidationErrors,
		Revision:         cell.Revision,
		UserID:           userID,
		Timestamp:        cell.LastModifiedAt,
	}, c)
}

func (h *Hub) handleCellSelection(c *Client, ev *CellSelectionEvent) {
	userID := h.clients[c]
	if userID == "" {
		return
	}
	session := h.registry.Get(userID)
	if session == nil {
		return
	}

	h.registry.SetSelection(userID, ev.CellID)
	h.broadcast(EventCellSelected, CellSelectedPayload{
		CellID:    ev.CellID,
		UserID:    userID,
		UserName:  session.Name,
		UserColor: session.Color,
	}, c)
}

// handleStructuralOp applies a row or column insert/delete and broadcasts
// the entire resulting cell map to every joined session, the sender
// included.
func (h *Hub) handleStructuralOp(c *Client, appliedEvent, opType string, index int, isRow bool) {
	if h.clients[c] == "" {
		return
	}

	var err error
	if isRow {
		_, err = h.doc.RowOperation(opType, index)
	} else {
		_, err = h.doc.ColumnOperation(opType, index)
	}
	if err != nil {
		h.metrics.MalformedEvents.Inc()
		h.logger.Warn("dropping structural operation", "type", opType, "index", index, "error", err)
		return
	}

	h.broadcast(appliedEvent, OperationAppliedPayload{
		Type:  opType,
		Index: index,
		Cells: h.doc.Cells,
	}, nil)
}

// broadcast sends an event to every joined session except the given one.
// A nil except reaches everyone.
func (h *Hub) broadcast(event string, data any, except *Client) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		h.logger.Error("encode broadcast", "event", event, "error", err)
		return
	}
	for c, userID := range h.clients {
		if c == except || userID == "" {
			continue
		}
		h.enqueue(c, frame)
	}
}

func (h *Hub) sendTo(c *Client, event string, data any) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		h.logger.Error("encode event", "event", event, "error", err)
		return
	}
	h.enqueue(c, frame)
}

// enqueue hands a frame to the client's write pump. A client whose send
// buffer is full is disconnected rather than allowed to stall the hub.
func (h *Hub) enqueue(c *Client, frame []byte) {
	if !c.trySend(frame) {
		h.logger.Warn("client send buffer full, dropping connection", "remote", c.remoteAddr())
		h.dropClient(c)
	}
}

// ---------------------------------------------------------------------------
// REST-facing operations. Each runs on the hub goroutine via do().
// ---------------------------------------------------------------------------

// Snapshot returns a deep copy of the current document.
func (h *Hub) Snapshot() *sheetsync.Document {
	var snap *sheetsync.Document
	h.do(func() { snap = h.doc.Snapshot() })
	return snap
}

// Users returns the active sessions.
func (h *Hub) Users() []*Session {
	var users []*Session
	h.do(func() { users = h.registry.List() })
	return users
}

// Reset discards all cells and broadcasts the blank document to every
// joined session.
func (h *Hub) Reset() *sheetsync.Document {
	var snap *sheetsync.Document
	h.do(func() {
		h.doc.Reset()
		snap = h.doc.Snapshot()
		h.broadcast(EventSpreadsheetReset, snap, nil)
	})
	return snap
}

// ImportCSV replaces the document with the parsed CSV content and
// broadcasts the new state to every joined session.
func (h *Hub) ImportCSV(content, userID string) error {
	var err error
	h.do(func() {
		if err = sheetsync.ImportCSV(h.doc, content, userID); err != nil {
			return
		}
		h.broadcast(EventSpreadsheetData, h.doc.Snapshot(), nil)
	})
	return err
}

// ExportCSV renders the current document as CSV, returning the content and
// a suggested filename.
func (h *Hub) ExportCSV() (content, filename string, err error) {
	h.do(func() {
		content, err = sheetsync.ExportCSV(h.doc)
		filename = sheetsync.ExportFilename(h.doc, "csv")
	})
	return content, filename, err
}
