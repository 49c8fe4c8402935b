package types

import "time"

// CallerStatus represents the lifecycle state of a queued call.
type CallerStatus string

const (
	// CallerJoined means the call is waiting in the queue.
	CallerJoined CallerStatus = "joined"

	// CallerAnswered means the call is connected to a member.
	CallerAnswered CallerStatus = "answered"
)

// Server is one monitored AMI endpoint, created from a CoreStatus response.
type Server struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SSL        bool      `json:"ssl"`
	Reloaded   time.Time `json:"reloaded"`
	Started    time.Time `json:"started"`
	QueueCount int       `json:"queuesNum"`
}

// Queue is a call-distribution queue belonging to exactly one server.
// (ServerID, Name) is the composite key; Name alone is not globally unique.
type Queue struct {
	ServerID         string    `json:"sid"`
	Name             string    `json:"name"`
	Max              int       `json:"max"`
	Strategy         string    `json:"strategy"`
	Holdtime         int       `json:"holdtime"`
	Talktime         int       `json:"talktime"`
	Completed        int       `json:"completed"`
	Abandoned        int       `json:"abandoned"`
	ServiceLevel     float64   `json:"serviceLevel"`
	ServiceLevelPerf float64   `json:"serviceLevelPerf"`
	Weight           int       `json:"weight"`
	Members          []*Member `json:"members"`
	Callers          []*Caller `json:"callers"`
}

// Member is an agent attached to a queue, keyed by Name within the queue.
type Member struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Interface    string `json:"interface"`
	Membership   string `json:"membership"`
	Penalty      int    `json:"penalty"`
	CallsTaken   int    `json:"callsTaken"`
	LastCall     int64  `json:"lastCall"`
	InCall       bool   `json:"inCall"`
	Status       int    `json:"status"`
	Paused       bool   `json:"paused"`
	PausedReason string `json:"pausedReason"`
}

// Caller is a call currently queued or connected, keyed by
// (Channel, UniqueID) within the queue.
type Caller struct {
	Position          int          `json:"position"`
	Status            CallerStatus `json:"status"`
	Channel           string       `json:"channel"`
	UniqueID          string       `json:"uniqueId"`
	CallerIDNum       string       `json:"callerIdNum"`
	CallerIDName      string       `json:"callerIdName"`
	ConnectedLineNum  string       `json:"connectedLineNum"`
	ConnectedLineName string       `json:"connectedLineName"`
	Wait              int          `json:"wait"`
}
