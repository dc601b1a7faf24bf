package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowEditable(t *testing.T) {
	cases := []struct {
		status   WorkflowStatus
		editable bool
	}{
		{WorkflowStatusDraft, true},
		{WorkflowStatusInactive, true},
		{WorkflowStatusActive, false},
		{WorkflowStatusArchived, false},
	}

	for _, tc := range cases {
		w := &Workflow{Status: tc.status}
		assert.Equal(t, tc.editable, w.Editable(), "status %q", tc.status)
	}
}

func TestWorkflowNodeByID(t *testing.T) {
	w := &Workflow{Nodes: []*WorkflowNode{
		{ID: "a"},
		{ID: "b"},
	}}

	assert.Equal(t, "b", w.NodeByID("b").ID)
	assert.Nil(t, w.NodeByID("c"))
}

func TestCandidateWorkflowTerminal(t *testing.T) {
	cases := []struct {
		status   CandidateWorkflowStatus
		terminal bool
	}{
		{CandidateWorkflowStatusCompleted, true},
		{CandidateWorkflowStatusFailed, true},
		{CandidateWorkflowStatusWithdrawn, true},
		{CandidateWorkflowStatusNotStarted, false},
		{CandidateWorkflowStatusInProgress, false},
		// On hold is recoverable; it must never count as terminal.
		{CandidateWorkflowStatusOnHold, false},
	}

	for _, tc := range cases {
		cw := &CandidateWorkflow{Status: tc.status}
		assert.Equal(t, tc.terminal, cw.Terminal(), "status %q", tc.status)
	}
}

func TestCandidateWorkflowLive(t *testing.T) {
	cases := []struct {
		status CandidateWorkflowStatus
		live   bool
	}{
		{CandidateWorkflowStatusNotStarted, true},
		{CandidateWorkflowStatusInProgress, true},
		{CandidateWorkflowStatusOnHold, false},
		{CandidateWorkflowStatusCompleted, false},
		{CandidateWorkflowStatusFailed, false},
		{CandidateWorkflowStatusWithdrawn, false},
	}

	for _, tc := range cases {
		cw := &CandidateWorkflow{Status: tc.status}
		assert.Equal(t, tc.live, cw.Live(), "status %q", tc.status)
	}
}

func TestNodeExecutionTerminal(t *testing.T) {
	terminal := []ExecutionStatus{ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusSkipped}
	for _, status := range terminal {
		e := &NodeExecution{Status: status}
		assert.True(t, e.Terminal(), "status %q", status)
	}

	live := []ExecutionStatus{
		ExecutionStatusPending,
		ExecutionStatusScheduled,
		ExecutionStatusInProgress,
		ExecutionStatusAwaitingInput,
	}
	for _, status := range live {
		e := &NodeExecution{Status: status}
		assert.False(t, e.Terminal(), "status %q", status)
	}
}

func TestScoreFromData(t *testing.T) {
	score, ok := ScoreFromData(map[string]any{"score": 87.5})
	assert.True(t, ok)
	assert.InDelta(t, 87.5, score, 0.0001)

	score, ok = ScoreFromData(map[string]any{"score": 90})
	assert.True(t, ok)
	assert.InDelta(t, 90.0, score, 0.0001)

	_, ok = ScoreFromData(nil)
	assert.False(t, ok)

	_, ok = ScoreFromData(map[string]any{"score": "high"})
	assert.False(t, ok)

	_, ok = ScoreFromData(map[string]any{"points": 50.0})
	assert.False(t, ok)
}

func TestExecutionResultClassification(t *testing.T) {
	assert.True(t, ExecutionResultPass.SuccessResult())
	assert.True(t, ExecutionResultCompleted.SuccessResult())
	assert.True(t, ExecutionResultApproved.SuccessResult())
	assert.False(t, ExecutionResultPendingReview.SuccessResult())
	assert.False(t, ExecutionResultSkipped.SuccessResult())

	assert.True(t, ExecutionResultFail.FailureResult())
	assert.True(t, ExecutionResultFailed.FailureResult())
	assert.True(t, ExecutionResultRejected.FailureResult())
	assert.False(t, ExecutionResultPass.FailureResult())
	assert.False(t, ExecutionResultPendingReview.FailureResult())
	assert.False(t, ExecutionResultSkipped.FailureResult())
}

func TestConditionConfigEmpty(t *testing.T) {
	var nilConfig *ConditionConfig

	assert.True(t, nilConfig.Empty())
	assert.True(t, (&ConditionConfig{}).Empty())

	pass := ExecutionResultPass
	assert.False(t, (&ConditionConfig{RequiredResult: &pass}).Empty())

	minScore := 50.0
	assert.False(t, (&ConditionConfig{MinScore: &minScore}).Empty())
}

func TestIsKnownNodeType(t *testing.T) {
	for _, nodeType := range KnownNodeTypes {
		assert.True(t, IsKnownNodeType(nodeType))
	}

	assert.False(t, IsKnownNodeType(NodeType("phone-screen")))
}

func TestIsKnownConditionType(t *testing.T) {
	for _, conditionType := range KnownConditionTypes {
		assert.True(t, IsKnownConditionType(conditionType))
	}

	assert.False(t, IsKnownConditionType(ConditionType("sometimes")))
}
