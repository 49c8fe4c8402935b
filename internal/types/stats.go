package types

// Stats is the cross-queue aggregate snapshot served to consumers.
type Stats struct {
	Servers         int `json:"servers"`
	Queues          int `json:"queues"`
	ActiveCalls     int `json:"activeCalls"`
	WaitingCalls    int `json:"waitingCalls"`
	CompletedCalls  int `json:"completedCalls"`
	AbandonedCalls  int `json:"abandonedCalls"`
	PausedMembers   int `json:"pausedMembers"`
	UnpausedMembers int `json:"unpausedMembers"`
}
