// Package amiws implements the client side of the amiws websocket
// contract: JSON envelopes wrapping AMI events and action responses
// relayed from one or more Asterisk servers.
package amiws

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Envelope discriminants. Other type values exist in the amiws protocol
// but are ignored by this consumer.
const (
	TypeEvent    = 3
	TypeResponse = 4
)

// Message is a decoded amiws envelope. Data holds the raw AMI headers of
// the wrapped event or response; every value arrives as a string and is
// coerced through the Fields accessors before reaching the store.
type Message struct {
	Type       int    `json:"type"`
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name"`
	SSL        bool   `json:"ssl"`
	Data       Fields `json:"data"`
}

// Fields is the set of AMI headers carried by a message.
type Fields map[string]string

// DecodeError reports an envelope that does not satisfy the amiws
// contract. The transport drops the message and continues; a decode
// failure never corrupts state built from earlier messages.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding amiws message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding amiws message: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a raw websocket payload into a Message.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if msg.Data == nil {
		return Message{}, &DecodeError{Reason: "missing data payload"}
	}
	return msg, nil
}

// Event returns the AMI event name, or empty string for responses.
func (f Fields) Event() string {
	return f["Event"]
}

// Get returns the raw value for the given header, or empty string.
func (f Fields) Get(key string) string {
	return f[key]
}

// Int returns the header coerced to an integer, or 0 if absent or
// unparsable.
func (f Fields) Int(key string) int {
	v, _ := strconv.Atoi(f[key])
	return v
}

// Int64 returns the header coerced to a 64-bit integer, or 0.
func (f Fields) Int64(key string) int64 {
	v, _ := strconv.ParseInt(f[key], 10, 64)
	return v
}

// Float returns the header coerced to a float, or 0.
func (f Fields) Float(key string) float64 {
	v, _ := strconv.ParseFloat(f[key], 64)
	return v
}

// Flag returns true when the header holds the AMI truth value "1".
func (f Fields) Flag(key string) bool {
	v, _ := strconv.Atoi(f[key])
	return v == 1
}

// DateTime combines a pair of AMI date and time headers (for example
// CoreStartupDate + CoreStartupTime) into a timestamp, or zero time when
// either is absent or unparsable.
func (f Fields) DateTime(dateKey, timeKey string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04:05", f[dateKey]+" "+f[timeKey])
	return t
}
