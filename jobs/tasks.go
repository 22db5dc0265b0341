package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskConnectivityProbe re-runs the database and service connectivity probes.
	TaskConnectivityProbe = "connectivity:probe"
)

// ConnectivityProbePayload describes why a probe run was requested.
type ConnectivityProbePayload struct {
	Reason string `json:"reason"`
}

// NewConnectivityProbeTask constructs an Asynq task. Probe runs are never
// retried; the next scheduled run supersedes a failed one.
func NewConnectivityProbeTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ConnectivityProbePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConnectivityProbe, data, asynq.MaxRetry(0), asynq.Queue(QueueDefault)), nil
}
