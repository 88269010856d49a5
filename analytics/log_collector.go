package analytics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

type record struct {
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Flow   string    `json:"flow"`
	RunId  string    `json:"runId"`
	State  string    `json:"state,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// LogFileDataCollector appends one JSON line per outcome to a local file.
type LogFileDataCollector struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

var _ RunDataCollector = new(LogFileDataCollector)

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &LogFileDataCollector{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (c *LogFileDataCollector) write(r record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r.Time = time.Now()
	_ = c.encoder.Encode(r)
}

func (c *LogFileDataCollector) RecordTaskSuccess(flowName string, runId string, state string) {
	c.write(record{Kind: "task_success", Flow: flowName, RunId: runId, State: state})
}

func (c *LogFileDataCollector) RecordTaskFailure(flowName string, runId string, state string, reason string) {
	c.write(record{Kind: "task_failure", Flow: flowName, RunId: runId, State: state, Reason: reason})
}

func (c *LogFileDataCollector) RecordPublishFailure(flowName string, runId string, reason string) {
	c.write(record{Kind: "publish_failure", Flow: flowName, RunId: runId, Reason: reason})
}

func (c *LogFileDataCollector) Close() error {
	return c.file.Close()
}
