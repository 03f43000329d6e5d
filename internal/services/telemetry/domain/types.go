// Package domain defines the telemetry event variants and read shapes
package domain

import "time"

// Kind tags the event variant
type Kind string

// event variants
const (
	KindToolCall    Kind = "tool_call"
	KindRouterEvent Kind = "router_event"
	KindPrediction  Kind = "prediction"
)

// Event is one append-only telemetry record
// unused fields stay zero; the log schema carries every variant in one table
type Event struct {
	TS           time.Time
	Kind         Kind
	Tool         string
	OK           bool
	Ms           float64
	Error        string
	Raw          string
	Town         string
	FlatType     string
	Month        string
	Intent       string
	ModelVersion string
	Payload      string
}

// ToolCall builds a tool_call event
func ToolCall(tool string, elapsed time.Duration, err error) Event {
	e := Event{
		TS:   time.Now().UTC(),
		Kind: KindToolCall,
		Tool: tool,
		OK:   err == nil,
		Ms:   float64(elapsed.Microseconds()) / 1000,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// RouterEvent builds a router_event record
func RouterEvent(raw, town, flatType, month, intent string, parseOK bool) Event {
	return Event{
		TS:       time.Now().UTC(),
		Kind:     KindRouterEvent,
		Raw:      raw,
		Town:     town,
		FlatType: flatType,
		Month:    month,
		Intent:   intent,
		OK:       parseOK,
	}
}

// Prediction builds a prediction event; payload carries inputs and outputs JSON
func Prediction(modelVersion, payload string) Event {
	return Event{
		TS:           time.Now().UTC(),
		Kind:         KindPrediction,
		OK:           true,
		ModelVersion: modelVersion,
		Payload:      payload,
	}
}

// Aggregate is the dashboard read shape over tool_call events
type Aggregate struct {
	LatencyAvg float64 `json:"latency_avg"`
	LatencyP95 float64 `json:"latency_p95"`
	ErrorCount int64   `json:"error_count"`
}
