// Package server exposes the collaborative spreadsheet over HTTP: a
// websocket relay that synchronizes cell edits, selections and structural
// operations across sessions, plus REST endpoints for snapshots and
// CSV/XLSX import/export.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/javajack/sheetsync"
)

// Client-to-server event names.
const (
	EventJoinSpreadsheet = "join_spreadsheet"
	EventCellUpdate      = "cell_update"
	EventCellSelection   = "cell_selection"
	EventRowOperation    = "row_operation"
	EventColumnOperation = "column_operation"
)

// Server-to-client event names.
const (
	EventSpreadsheetData        = "spreadsheet_data"
	EventActiveUsers            = "active_users"
	EventUserJoined             = "user_joined"
	EventUserLeft               = "user_left"
	EventCellUpdated            = "cell_updated"
	EventCellSelected           = "cell_selected"
	EventRowOperationApplied    = "row_operation_applied"
	EventColumnOperationApplied = "column_operation_applied"
	EventSpreadsheetReset       = "spreadsheet_reset"
)

// ErrUnknownEvent is returned for event names outside the protocol, so
// unrecognized traffic is surfaced instead of silently swallowed.
var ErrUnknownEvent = errors.New("unknown event")

// Envelope is the wire frame for every websocket message in both
// directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ClientEvent is the tagged union of all inbound protocol variants. The
// relay matches exhaustively over the concrete types.
type ClientEvent interface {
	clientEvent()
}

// JoinEvent registers a session with the document.
type JoinEvent struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// CellUpdateEvent overwrites a single cell (last write wins).
type CellUpdateEvent struct {
	CellID string `json:"cell_id"`
	Value  string `json:"value"`
}

// CellSelectionEvent moves the session's selection highlight.
type CellSelectionEvent struct {
	CellID string `json:"cell_id"`
}

// RowOperationEvent inserts or deletes a row at a pivot index.
type RowOperationEvent struct {
	Type  string `json:"type"` // "insert" or "delete"
	Index int    `json:"index"`
}

// ColumnOperationEvent inserts or deletes a column at a pivot index.
type ColumnOperationEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

func (JoinEvent) clientEvent()            {}
func (CellUpdateEvent) clientEvent()      {}
func (CellSelectionEvent) clientEvent()   {}
func (RowOperationEvent) clientEvent()    {}
func (ColumnOperationEvent) clientEvent() {}

// DecodeClientEvent parses a raw websocket frame into its protocol
// variant. Unknown event names return ErrUnknownEvent.
func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	unmarshal := func(v ClientEvent) (ClientEvent, error) {
		if len(env.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
		}
		return v, nil
	}

	switch env.Event {
	case EventJoinSpreadsheet:
		return unmarshal(&JoinEvent{})
	case EventCellUpdate:
		return unmarshal(&CellUpdateEvent{})
	case EventCellSelection:
		return unmarshal(&CellSelectionEvent{})
	case EventRowOperation:
		return unmarshal(&RowOperationEvent{})
	case EventColumnOperation:
		return unmarshal(&ColumnOperationEvent{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// EncodeEvent frames an outbound event for the wire.
func EncodeEvent(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// UserJoinedPayload announces a new session to existing ones.
type UserJoinedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// UserLeftPayload announces a departed session.
type UserLeftPayload struct {
	UserID string `json:"user_id"`
}

// CellUpdatedPayload carries the full post-write state of a cell.
type CellUpdatedPayload struct {
	CellID           string              `json:"cell_id"`
	Value            string              `json:"value"`
	OriginalValue    string              `json:"original_value"`
	DataType         sheetsync.DataType  `json:"data_type"`
	IsValid          bool                `json:"is_valid"`
	ValidationErrors []string            `json:"validation_errors,omitempty"`
	Revision         uint64              `json:"revision"`
	UserID           string              `json:"user_id"`
	Timestamp        time.Time           `json:"timestamp"`
}

// CellSelectedPayload broadcasts a session's new selection highlight.
type CellSelectedPayload struct {
	CellID    string `json:"cell_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserColor string `json:"user_color"`
}

// OperationAppliedPayload carries the full resulting cell map after a row
// or column structural operation. The full map, not a diff, keeps every
// client trivially consistent.
type OperationAppliedPayload struct {
	Type  string                     `json:"type"`
	Index int                        `json:"index"`
	Cells map[string]*sheetsync.Cell `json:"cells"`
}
