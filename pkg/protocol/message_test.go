package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "position message",
			msgType: TypeFocusPosition,
			data:    PositionData{X: 500, Y: 400},
			wantErr: false,
		},
		{
			name:    "state message",
			msgType: TypeState,
			data:    StateData{State: "focusing", Previous: "idle"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypeFocusCleared,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeFocusRatio,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
			if _, err := uuid.Parse(msg.ID); err != nil {
				t.Errorf("NewMessage() id %q is not a uuid: %v", msg.ID, err)
			}
		})
	}
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	a, _ := NewFocusClearedMessage()
	b, _ := NewFocusClearedMessage()
	if a.ID == b.ID {
		t.Error("two messages share an id")
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MessageType
		wantErr bool
	}{
		{"touch", `{"type":"touch","data":{"x":10,"y":20}}`, TypeTouch, false},
		{"shutter", `{"id":"abc","type":"shutter","data":{"action":"down"}}`, TypeShutter, false},
		{"missing type", `{"data":{}}`, "", true},
		{"invalid json", `{not json`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && msg.Type != tt.want {
				t.Errorf("type = %s, want %s", msg.Type, tt.want)
			}
		})
	}
}

func TestParseData_Touch(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"touch","data":{"x":10,"y":20}}`))
	if err != nil {
		t.Fatal(err)
	}
	var td TouchData
	if err := msg.ParseData(&td); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if td.X != 10 || td.Y != 20 {
		t.Errorf("touch = %+v", td)
	}

	empty := &Message{Type: TypeFocusCleared}
	if err := empty.ParseData(&td); err != nil {
		t.Errorf("ParseData on empty data: %v", err)
	}
}

func TestHelpers(t *testing.T) {
	before := time.Now().UnixMilli()

	msg, err := NewStateMessage("success", "focusing", true)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Timestamp < before {
		t.Error("timestamp in the past")
	}
	data, err := msg.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "type", "ts", "data"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("encoded message missing %q", key)
		}
	}

	var sd StateData
	if err := msg.ParseData(&sd); err != nil {
		t.Fatal(err)
	}
	if sd.State != "success" || sd.Previous != "focusing" || !sd.FocusComplete {
		t.Errorf("state data = %+v", sd)
	}

	ratio, _ := NewRatioMessage(0.25)
	var rd RatioData
	_ = ratio.ParseData(&rd)
	if rd.Ratio != 0.25 {
		t.Errorf("ratio = %v", rd.Ratio)
	}

	errMsg, _ := NewErrorMessage("req-1", "bad")
	if errMsg.Type != TypeError {
		t.Errorf("error type = %s", errMsg.Type)
	}
}
