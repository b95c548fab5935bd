package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent_Variants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ClientEvent
	}{
		{
			name: "join",
			raw:  `{"event":"join_spreadsheet","data":{"user_id":"u1","user_name":"Ada"}}`,
			want: &JoinEvent{UserID: "u1", UserName: "Ada"},
		},
		{
			name: "cell update",
			raw:  `{"event":"cell_update","data":{"cell_id":"B2","value":"42"}}`,
			want: &CellUpdateEvent{CellID: "B2", Value: "42"},
		},
		{
			name: "cell selection",
			raw:  `{"event":"cell_selection","data":{"cell_id":"C3"}}`,
			want: &CellSelectionEvent{CellID: "C3"},
		},
		{
			name: "row operation",
			raw:  `{"event":"row_operation","data":{"type":"insert","index":4}}`,
			want: &RowOperationEvent{Type: "insert", Index: 4},
		},
		{
			name: "column operation",
			raw:  `{"event":"column_operation","data":{"type":"delete","index":0}}`,
			want: &ColumnOperationEvent{Type: "delete", Index: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeClientEvent_UnknownEvent(t *testing.T) {
	_, err := DecodeClientEvent([]byte(`{"event":"format_cell","data":{}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeClientEvent_Malformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"event":"cell_update","data":"not an object"}`,
		`{"event":"row_operation","data":{"index":"four"}}`,
	}
	for _, raw := range cases {
		_, err := DecodeClientEvent([]byte(raw))
		assert.Error(t, err, "input: %s", raw)
	}
}

func TestDecodeClientEvent_MissingData(t *testing.T) {
	// An envelope with no data decodes to the zero payload; the hub then
	// drops it on semantic grounds (no user, bad coordinate).
	got, err := DecodeClientEvent([]byte(`{"event":"join_spreadsheet"}`))
	require.NoError(t, err)
	assert.Equal(t, &JoinEvent{}, got)
}

func TestEncodeEvent(t *testing.T) {
	frame, err := EncodeEvent(EventUserLeft, UserLeftPayload{UserID: "u9"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserLeft, env.Event)

	var payload UserLeftPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "u9", payload.UserID)
}
