// Package scheduler provides the asynq task client and worker for deferred
// booking jobs.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskServiceReminder fires the day before a scheduled booking's service date.
const TaskServiceReminder = "bookings.service_reminder"

// ServiceReminderPayload identifies the booking a reminder task is for.
type ServiceReminderPayload struct {
	BookingID string `json:"bookingId"`
}

// NewServiceReminderTask builds the asynq task for a service reminder.
func NewServiceReminderTask(payload ServiceReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskServiceReminder, data), nil
}

// ParseServiceReminderPayload decodes a service reminder task payload.
func ParseServiceReminderPayload(task *asynq.Task) (ServiceReminderPayload, error) {
	var payload ServiceReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ServiceReminderPayload{}, err
	}
	return payload, nil
}
