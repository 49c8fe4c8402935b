package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingestion metrics
	MessagesReceivedTotal int64
	MessagesDroppedTotal  int64
	EventsProcessedTotal  int64
	EventsIgnoredTotal    int64
	EntityNotFoundTotal   int64
	eventsByName          map[string]int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// Upstream connection metrics
	UpstreamConnectsTotal    int64
	UpstreamDisconnectsTotal int64

	// Broadcast metrics
	BroadcastCyclesTotal  int64
	BroadcastErrorsTotal  int64
	StatsPublishedTotal   int64
	PublishErrorsTotal    int64
	lastBroadcastDuration time.Duration

	// HTTP metrics
	httpRequestsTotal map[string]map[int]int64 // endpoint -> status -> count

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			eventsByName:      make(map[string]int64),
			httpRequestsTotal: make(map[string]map[int]int64),
			startTime:         time.Now(),
		}
	})
	return instance
}

// RecordMessageReceived increments the messages received counter
func (m *Metrics) RecordMessageReceived() {
	m.mu.Lock()
	m.MessagesReceivedTotal++
	m.mu.Unlock()
}

// RecordMessageDropped increments the dropped message counter
func (m *Metrics) RecordMessageDropped() {
	m.mu.Lock()
	m.MessagesDroppedTotal++
	m.mu.Unlock()
}

// RecordEventProcessed counts a routed event by its AMI event name
func (m *Metrics) RecordEventProcessed(event string) {
	m.mu.Lock()
	m.EventsProcessedTotal++
	m.eventsByName[event]++
	m.mu.Unlock()
}

// RecordEventIgnored counts an unrecognized event or message type
func (m *Metrics) RecordEventIgnored() {
	m.mu.Lock()
	m.EventsIgnoredTotal++
	m.mu.Unlock()
}

// RecordEntityNotFound counts an update that referenced an unknown
// queue or server (protocol desync signal)
func (m *Metrics) RecordEntityNotFound() {
	m.mu.Lock()
	m.EntityNotFoundTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordUpstreamConnect counts a successful amiws connection
func (m *Metrics) RecordUpstreamConnect() {
	m.mu.Lock()
	m.UpstreamConnectsTotal++
	m.mu.Unlock()
}

// RecordUpstreamDisconnect counts a lost amiws connection
func (m *Metrics) RecordUpstreamDisconnect() {
	m.mu.Lock()
	m.UpstreamDisconnectsTotal++
	m.mu.Unlock()
}

// RecordBroadcastCycle records a completed broadcast cycle
func (m *Metrics) RecordBroadcastCycle(duration time.Duration) {
	m.mu.Lock()
	m.BroadcastCyclesTotal++
	m.lastBroadcastDuration = duration
	m.mu.Unlock()
}

// RecordBroadcastError increments the broadcast error counter
func (m *Metrics) RecordBroadcastError() {
	m.mu.Lock()
	m.BroadcastErrorsTotal++
	m.mu.Unlock()
}

// RecordStatsPublished counts a stats snapshot handed to the publisher
func (m *Metrics) RecordStatsPublished() {
	m.mu.Lock()
	m.StatsPublishedTotal++
	m.mu.Unlock()
}

// RecordPublishError increments the publish error counter
func (m *Metrics) RecordPublishError() {
	m.mu.Lock()
	m.PublishErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("amiwsq_uptime_seconds", time.Since(m.startTime).Seconds())

		// Ingestion metrics
		write("amiwsq_messages_received_total", m.MessagesReceivedTotal)
		write("amiwsq_messages_dropped_total", m.MessagesDroppedTotal)
		write("amiwsq_events_processed_total", m.EventsProcessedTotal)
		write("amiwsq_events_ignored_total", m.EventsIgnoredTotal)
		write("amiwsq_entity_not_found_total", m.EntityNotFoundTotal)

		// Calculate messages per second
		uptimeSeconds := time.Since(m.startTime).Seconds()
		if uptimeSeconds > 0 {
			write("amiwsq_messages_per_second", float64(m.MessagesReceivedTotal)/uptimeSeconds)
		}

		// Events by AMI event name
		for event, count := range m.eventsByName {
			write("amiwsq_events_by_name", count, "event", event)
		}

		// Upstream metrics
		write("amiwsq_upstream_connects_total", m.UpstreamConnectsTotal)
		write("amiwsq_upstream_disconnects_total", m.UpstreamDisconnectsTotal)

		// WebSocket metrics
		write("amiwsq_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("amiwsq_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("amiwsq_websocket_active_connections", m.activeConnections)
		write("amiwsq_websocket_errors_total", m.WebSocketErrorsTotal)

		// Broadcast metrics
		write("amiwsq_broadcast_cycles_total", m.BroadcastCyclesTotal)
		write("amiwsq_broadcast_errors_total", m.BroadcastErrorsTotal)
		write("amiwsq_broadcast_duration_seconds", m.lastBroadcastDuration.Seconds())
		write("amiwsq_stats_published_total", m.StatsPublishedTotal)
		write("amiwsq_publish_errors_total", m.PublishErrorsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("amiwsq_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
