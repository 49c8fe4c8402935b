package types

import "time"

// ServerStatus carries the fields of a CoreStatus response after boundary
// coercion. Applied via Store.UpsertServer.
type ServerStatus struct {
	ID       string
	Name     string
	SSL      bool
	Reloaded time.Time
	Started  time.Time
}

// QueueParams carries a QueueParams event. Max and Strategy are only used
// when the queue is first created; repeat events update the rolling metrics.
type QueueParams struct {
	ServerID         string
	Name             string
	Max              int
	Strategy         string
	Holdtime         int
	Talktime         int
	Completed        int
	Abandoned        int
	ServiceLevel     float64
	ServiceLevelPerf float64
	Weight           int
}

// MemberUpdate carries a QueueMember / QueueMemberAdded event.
type MemberUpdate struct {
	Name         string
	Location     string
	Interface    string
	Membership   string
	Penalty      int
	CallsTaken   int
	LastCall     int64
	InCall       bool
	Status       int
	Paused       bool
	PausedReason string
}

// CallerEntry carries a QueueEntry / Join / QueueCallerJoin event.
// Status is decided at the classifier: fresh joins arrive as CallerJoined,
// snapshot listings of already-connected calls as CallerAnswered.
type CallerEntry struct {
	Position          int
	Status            CallerStatus
	Channel           string
	UniqueID          string
	CallerIDNum       string
	CallerIDName      string
	ConnectedLineNum  string
	ConnectedLineName string
	Wait              int
}
