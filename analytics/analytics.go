package analytics

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"

// RunDataCollector receives task and publish outcomes for observability.
// Publish failures matter most: a lost completion event silently skips every
// downstream flow for that cycle, and this is the only place that surfaces it.
type RunDataCollector interface {
	RecordTaskSuccess(flowName string, runId string, state string)
	RecordTaskFailure(flowName string, runId string, state string, reason string)
	RecordPublishFailure(flowName string, runId string, reason string)
}

var runCollector RunDataCollector = noopCollector{}

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		runCollector = c
	case NOOP_DATA_COLLECTOR:
		runCollector = noopCollector{}
	}
	return nil
}

func RecordTaskSuccess(flowName string, runId string, state string) {
	runCollector.RecordTaskSuccess(flowName, runId, state)
}

func RecordTaskFailure(flowName string, runId string, state string, reason string) {
	runCollector.RecordTaskFailure(flowName, runId, state, reason)
}

func RecordPublishFailure(flowName string, runId string, reason string) {
	runCollector.RecordPublishFailure(flowName, runId, reason)
}

type noopCollector struct{}

func (noopCollector) RecordTaskSuccess(string, string, string)         {}
func (noopCollector) RecordTaskFailure(string, string, string, string) {}
func (noopCollector) RecordPublishFailure(string, string, string)      {}
