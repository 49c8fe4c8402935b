package amiws

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeEvent(t *testing.T) {
	raw := []byte(`{
		"type": 3,
		"server_id": "srv-1",
		"data": {
			"Event": "QueueParams",
			"Queue": "support",
			"Holdtime": "10",
			"ServiceLevel": "3.43"
		}
	}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Type != TypeEvent {
		t.Errorf("expected type %d, got %d", TypeEvent, msg.Type)
	}
	if msg.ServerID != "srv-1" {
		t.Errorf("expected server_id srv-1, got %s", msg.ServerID)
	}
	if msg.Data.Event() != "QueueParams" {
		t.Errorf("expected QueueParams event, got %s", msg.Data.Event())
	}
}

func TestDecodeResponse(t *testing.T) {
	raw := []byte(`{
		"type": 4,
		"server_id": "srv-1",
		"server_name": "pbx-east",
		"ssl": true,
		"data": {
			"CoreStartupDate": "2024-03-01",
			"CoreStartupTime": "08:00:00"
		}
	}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Type != TypeResponse {
		t.Errorf("expected type %d, got %d", TypeResponse, msg.Type)
	}
	if msg.ServerName != "pbx-east" || !msg.SSL {
		t.Errorf("unexpected envelope fields: %+v", msg)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid JSON", `{"type": 3,`},
		{"missing data", `{"type": 3, "server_id": "srv-1"}`},
		{"wrong data shape", `{"type": 3, "data": "not-a-map"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("expected DecodeError, got %T", err)
			}
		})
	}
}

func TestFieldCoercions(t *testing.T) {
	f := Fields{
		"Holdtime":     "10",
		"ServiceLevel": "3.43",
		"Paused":       "1",
		"InCall":       "0",
		"LastCall":     "1709280000",
		"Strategy":     "ringall",
	}

	if got := f.Int("Holdtime"); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := f.Float("ServiceLevel"); got != 3.43 {
		t.Errorf("expected 3.43, got %v", got)
	}
	if !f.Flag("Paused") {
		t.Error("expected Paused flag true")
	}
	if f.Flag("InCall") {
		t.Error("expected InCall flag false")
	}
	if f.Flag("Missing") {
		t.Error("expected missing flag false")
	}
	if got := f.Int64("LastCall"); got != 1709280000 {
		t.Errorf("expected 1709280000, got %d", got)
	}
	if got := f.Get("Strategy"); got != "ringall" {
		t.Errorf("expected ringall, got %s", got)
	}

	// Unparsable numerics coerce to zero.
	if got := f.Int("Strategy"); got != 0 {
		t.Errorf("expected 0 for non-numeric field, got %d", got)
	}
}

func TestFieldDateTime(t *testing.T) {
	f := Fields{
		"CoreStartupDate": "2024-03-01",
		"CoreStartupTime": "08:15:30",
	}

	want := time.Date(2024, 3, 1, 8, 15, 30, 0, time.UTC)
	if got := f.DateTime("CoreStartupDate", "CoreStartupTime"); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := f.DateTime("CoreReloadDate", "CoreReloadTime"); !got.IsZero() {
		t.Errorf("expected zero time for missing fields, got %v", got)
	}
}
