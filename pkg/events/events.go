// Package events defines the notifications the engine publishes so the
// surrounding systems (schedulers, notification dispatch, reporting) can
// react to workflow progress.
package events

import (
	"time"

	"github.com/hireflow/hireflow/pkg/models"
)

type EventType string

// Topic is the bus topic every engine event is published on.
const Topic = "hireflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow definition lifecycle.
	WorkflowActivatedEvent   EventType = "workflow.activated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"
	WorkflowArchivedEvent    EventType = "workflow.archived"

	// Candidate traversal lifecycle.
	CandidateStartedEvent   EventType = "candidate.started"
	CandidateAdvancedEvent  EventType = "candidate.advanced"
	CandidateFinishedEvent  EventType = "candidate.finished"
	CandidateOnHoldEvent    EventType = "candidate.on_hold"
	CandidateWithdrawnEvent EventType = "candidate.withdrawn"

	// Node execution lifecycle.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionStaleEvent     EventType = "execution.stale"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowActivated struct {
	BaseEvent

	Version int `json:"version"`
}

func (e WorkflowActivated) GetType() EventType { return WorkflowActivatedEvent }

type WorkflowDeactivated struct {
	BaseEvent
}

func (e WorkflowDeactivated) GetType() EventType { return WorkflowDeactivatedEvent }

type WorkflowArchived struct {
	BaseEvent
}

func (e WorkflowArchived) GetType() EventType { return WorkflowArchivedEvent }

type CandidateStarted struct {
	BaseEvent

	CandidateWorkflowID string `json:"candidate_workflow_id"`
	CandidateID         string `json:"candidate_id"`
	EntryNodeID         string `json:"entry_node_id"`
}

func (e CandidateStarted) GetType() EventType { return CandidateStartedEvent }

type CandidateAdvanced struct {
	BaseEvent

	CandidateWorkflowID string                 `json:"candidate_workflow_id"`
	FromNodeID          string                 `json:"from_node_id"`
	ToNodeID            string                 `json:"to_node_id"`
	Result              models.ExecutionResult `json:"result"`
}

func (e CandidateAdvanced) GetType() EventType { return CandidateAdvancedEvent }

type CandidateFinished struct {
	BaseEvent

	CandidateWorkflowID string                         `json:"candidate_workflow_id"`
	Status              models.CandidateWorkflowStatus `json:"status"`
	FinalResult         models.FinalResult             `json:"final_result"`
}

func (e CandidateFinished) GetType() EventType { return CandidateFinishedEvent }

type CandidateOnHold struct {
	BaseEvent

	CandidateWorkflowID string `json:"candidate_workflow_id"`
	NodeID              string `json:"node_id"`
	Reason              string `json:"reason"`
}

func (e CandidateOnHold) GetType() EventType { return CandidateOnHoldEvent }

type CandidateWithdrawn struct {
	BaseEvent

	CandidateWorkflowID string `json:"candidate_workflow_id"`
}

func (e CandidateWithdrawn) GetType() EventType { return CandidateWithdrawnEvent }

type ExecutionStarted struct {
	BaseEvent

	CandidateWorkflowID string          `json:"candidate_workflow_id"`
	ExecutionID         string          `json:"execution_id"`
	NodeID              string          `json:"node_id"`
	NodeType            models.NodeType `json:"node_type"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	CandidateWorkflowID string                 `json:"candidate_workflow_id"`
	ExecutionID         string                 `json:"execution_id"`
	NodeID              string                 `json:"node_id"`
	Status              models.ExecutionStatus `json:"status"`
	Result              models.ExecutionResult `json:"result"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionStale struct {
	BaseEvent

	CandidateWorkflowID string        `json:"candidate_workflow_id"`
	ExecutionID         string        `json:"execution_id"`
	NodeID              string        `json:"node_id"`
	Age                 time.Duration `json:"age"`
}

func (e ExecutionStale) GetType() EventType { return ExecutionStaleEvent }
