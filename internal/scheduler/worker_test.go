package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type recordingNotifier struct {
	got []JobNotificationPayload
	err error
}

func (n *recordingNotifier) DeliverJobNotification(_ context.Context, payload JobNotificationPayload) error {
	n.got = append(n.got, payload)
	return n.err
}

func TestHandleJobNotificationDelivers(t *testing.T) {
	notifier := &recordingNotifier{}
	task, err := NewJobNotificationTask(JobNotificationPayload{
		Event:     "job.completed",
		JobID:     "9b2e4c1a-6f0d-4a53-9d52-3f1f7d2a0c11",
		ItemCount: 4,
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := handleJobNotification(notifier)(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(notifier.got) != 1 || notifier.got[0].ItemCount != 4 || notifier.got[0].Event != "job.completed" {
		t.Fatalf("unexpected deliveries %+v", notifier.got)
	}
}

func TestHandleJobNotificationSkipsRetryOnBadPayload(t *testing.T) {
	notifier := &recordingNotifier{}
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "not json", payload: []byte("{")},
		{name: "missing job", payload: []byte(`{"event":"job.collected"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleJobNotification(notifier)(context.Background(), asynq.NewTask(TaskJobNotification, tt.payload))
			if !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("expected SkipRetry, got %v", err)
			}
		})
	}
	if len(notifier.got) != 0 {
		t.Fatalf("notifier called for bad payload")
	}
}

func TestHandleJobNotificationPropagatesDeliveryError(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	task, _ := NewJobNotificationTask(JobNotificationPayload{Event: "job.collected", JobID: "x"})

	err := handleJobNotification(notifier)(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
