package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Notify every student enrolled in a course about a course event
	TypeNotificationDispatch = "notification:dispatch"

	// Index an uploaded knowledge document through the RAG service
	TypeKnowledgeIndex = "knowledge:index"

	// Send the periodic unread-notification digest
	TypeDigestSend = "digest:send"
)

// NotificationPayload carries a course event to fan out to enrolled students
type NotificationPayload struct {
	CourseID    string `json:"course_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// KnowledgeIndexPayload identifies a knowledge document to index
type KnowledgeIndexPayload struct {
	DocumentID string `json:"document_id"`
}

// NewNotificationDispatchTask creates a task to fan out a course notification
func NewNotificationDispatchTask(courseID, code, description string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationPayload{
		CourseID:    courseID,
		Code:        code,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationDispatch, payload), nil
}

// NewKnowledgeIndexTask creates a task to index an uploaded document
func NewKnowledgeIndexTask(documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(KnowledgeIndexPayload{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeKnowledgeIndex, payload), nil
}

// NewDigestSendTask creates a task to send the unread-notification digest
func NewDigestSendTask() *asynq.Task {
	return asynq.NewTask(TypeDigestSend, nil)
}

// ParseNotificationPayload parses a notification task payload
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseKnowledgeIndexPayload parses a knowledge-index task payload
func ParseKnowledgeIndexPayload(task *asynq.Task) (KnowledgeIndexPayload, error) {
	var payload KnowledgeIndexPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
