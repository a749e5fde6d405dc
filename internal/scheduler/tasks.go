package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskIntakeSubmitted = "intake.submitted"

const TaskCoordinatorNotify = "trials.coordinator_notify"

type IntakeSubmittedPayload struct {
	SessionID           string                       `json:"sessionId"`
	Answers             map[string]map[string]string `json:"answers"`
	CompletedCategories []string                     `json:"completedCategories"`
}

type CoordinatorNotifyPayload struct {
	SessionID        string `json:"sessionId"`
	TrialID          string `json:"trialId"`
	TrialTitle       string `json:"trialTitle"`
	CoordinatorEmail string `json:"coordinatorEmail"`
	ApplicantName    string `json:"applicantName,omitempty"`
	ApplicantEmail   string `json:"applicantEmail,omitempty"`
	ApplicantPhone   string `json:"applicantPhone,omitempty"`
	Note             string `json:"note,omitempty"`
}

func NewIntakeSubmittedTask(payload IntakeSubmittedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntakeSubmitted, data), nil
}

func ParseIntakeSubmittedPayload(task *asynq.Task) (IntakeSubmittedPayload, error) {
	var payload IntakeSubmittedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IntakeSubmittedPayload{}, err
	}
	return payload, nil
}

func NewCoordinatorNotifyTask(payload CoordinatorNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCoordinatorNotify, data), nil
}

func ParseCoordinatorNotifyPayload(task *asynq.Task) (CoordinatorNotifyPayload, error) {
	var payload CoordinatorNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CoordinatorNotifyPayload{}, err
	}
	return payload, nil
}
