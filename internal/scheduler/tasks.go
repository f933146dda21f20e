package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskJobNotification = "notification.job_email"

// JobNotificationPayload carries one job event to the worker. Fields beyond
// Event and JobID are only set for the events that produce them.
type JobNotificationPayload struct {
	EventID      string `json:"eventId,omitempty"`
	Event        string `json:"event"`
	JobID        string `json:"jobId"`
	ClientID     string `json:"clientId"`
	Amount       string `json:"amount,omitempty"`
	Information  string `json:"information,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	DriverName   string `json:"driverName,omitempty"`
	ItemCount    int    `json:"itemCount,omitempty"`
}

func NewJobNotificationTask(payload JobNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskJobNotification, data), nil
}

func ParseJobNotificationPayload(task *asynq.Task) (JobNotificationPayload, error) {
	var payload JobNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return JobNotificationPayload{}, err
	}
	if payload.Event == "" || payload.JobID == "" {
		return JobNotificationPayload{}, fmt.Errorf("job notification payload missing event or job id")
	}
	return payload, nil
}
