package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hireflow/hireflow/pkg/events"
	"github.com/hireflow/hireflow/pkg/eventbus"
	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/otelhelper"
	"github.com/hireflow/hireflow/pkg/persistence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator advances candidate workflows. On every node execution
// completion it consults the graph's outgoing connections, evaluates them in
// order, and either moves the candidate to the next node or resolves the
// instance to a terminal state.
//
// The CandidateWorkflow row is the unit of mutual exclusion: every mutation
// goes through the repository's versioned update, so of two racing
// completions exactly one commits and the other gets a retryable
// persistence.ErrStaleCandidateWorkflow.
type Orchestrator struct {
	persistence persistence.Persistence
	tracker     *ExecutionTracker
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewOrchestrator wires an orchestrator over the given storage and event bus.
func NewOrchestrator(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		persistence: p,
		tracker:     NewExecutionTracker(p.NodeExecutionRepository(), logger),
		publisher:   publisher,
		logger:      logger.With("module", "orchestrator"),
		tracer:      otel.Tracer("hireflow/workflow"),
	}
}

// Tracker exposes the execution tracker. External actors that schedule or
// progress a node attempt go through it.
func (o *Orchestrator) Tracker() *ExecutionTracker {
	return o.tracker
}

// StartCandidateWorkflow creates a traversal instance for a candidate against
// an active workflow and activates its entry node. It fails if the workflow
// is not active or a live instance already exists for the pair.
func (o *Orchestrator) StartCandidateWorkflow(ctx context.Context, workflowID, candidateID string) (*models.CandidateWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "candidate_workflow.start",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.CandidateIDKey, candidateID),
	)
	defer span.End()

	w, err := o.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if w.Status != models.WorkflowStatusActive {
		err := fmt.Errorf("workflow %s is %s: %w", workflowID, w.Status, ErrWorkflowNotActive)
		otelhelper.SetError(span, err)

		return nil, err
	}

	live, err := o.persistence.CandidateWorkflowRepository().LiveByWorkflowAndCandidate(ctx, workflowID, candidateID)
	if err != nil && !persistence.IsCandidateWorkflowNotFound(err) {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if live != nil {
		err := fmt.Errorf("candidate %s on workflow %s: %w", candidateID, workflowID, persistence.ErrDuplicateCandidateWorkflow)
		otelhelper.SetError(span, err)

		return nil, err
	}

	graph := NewGraph(w)

	entries := graph.EntryNodes()
	if len(entries) == 0 {
		// Activation validation rejects such graphs; reaching this means the
		// definition was corrupted after activation.
		err := fmt.Errorf("workflow %s: %w", workflowID, ErrNoEntryNodes)
		otelhelper.SetError(span, err)

		return nil, err
	}

	entry := entries[0]
	now := time.Now().UTC()
	instance := &models.CandidateWorkflow{
		ID:            uuid.New().String(),
		WorkflowID:    workflowID,
		CandidateID:   candidateID,
		Status:        models.CandidateWorkflowStatusInProgress,
		CurrentNodeID: &entry.ID,
		StartedAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := o.persistence.CandidateWorkflowRepository().Create(ctx, instance); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	execution, err := o.tracker.Start(ctx, instance.ID, entry.ID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	o.logger.InfoContext(ctx, "Started candidate workflow",
		"candidate_workflow_id", instance.ID,
		"workflow_id", workflowID,
		"candidate_id", candidateID,
		"entry_node_id", entry.ID,
	)

	o.publish(ctx, instance.ID, events.CandidateStarted{
		BaseEvent:           o.baseEvent(events.CandidateStartedEvent, workflowID),
		CandidateWorkflowID: instance.ID,
		CandidateID:         candidateID,
		EntryNodeID:         entry.ID,
	})
	o.publishExecutionStarted(ctx, instance, execution, entry)

	return instance, nil
}

// ReportNodeResult is the single entry point by which external actors feed a
// node outcome into the engine. It finalizes the execution, then runs the
// transition algorithm against the owning candidate workflow.
func (o *Orchestrator) ReportNodeResult(
	ctx context.Context,
	executionID string,
	result models.ExecutionResult,
	executionData map[string]any,
) (*models.CandidateWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "candidate_workflow.report_result",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.ResultKey, string(result)),
	)
	defer span.End()

	execution, err := o.persistence.NodeExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	instance, err := o.persistence.CandidateWorkflowRepository().GetByID(ctx, execution.CandidateWorkflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if execution.Terminal() {
		err := fmt.Errorf("execution %s: %w", execution.ID, ErrExecutionFinished)
		otelhelper.SetError(span, err)

		return nil, err
	}

	if instance.Terminal() {
		err := fmt.Errorf("candidate workflow %s is %s: %w", instance.ID, instance.Status, ErrInstanceFinished)
		otelhelper.SetError(span, err)

		return nil, err
	}

	// Re-validate position before committing anything: the instance must
	// still be in progress at the node whose execution just concluded.
	if instance.Status != models.CandidateWorkflowStatusInProgress ||
		instance.CurrentNodeID == nil || *instance.CurrentNodeID != execution.NodeID {
		err := fmt.Errorf("candidate workflow %s moved past node %s: %w",
			instance.ID, execution.NodeID, persistence.ErrStaleCandidateWorkflow)
		otelhelper.SetError(span, err)

		return nil, err
	}

	execution, err = o.tracker.Complete(ctx, executionID, result, executionData)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	w, err := o.persistence.WorkflowRepository().GetByID(ctx, instance.WorkflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	o.publish(ctx, instance.ID, events.ExecutionCompleted{
		BaseEvent:           o.baseEvent(events.ExecutionCompletedEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
		ExecutionID:         execution.ID,
		NodeID:              execution.NodeID,
		Status:              execution.Status,
		Result:              execution.Result,
	})

	instance, err = o.advance(ctx, NewGraph(w), instance, execution)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return instance, nil
}

// advance runs the transition algorithm after execution concluded: evaluate
// the node's outgoing connections in order, move to the first firing target,
// or resolve the instance when nothing fires.
func (o *Orchestrator) advance(
	ctx context.Context,
	graph *Graph,
	instance *models.CandidateWorkflow,
	execution *models.NodeExecution,
) (*models.CandidateWorkflow, error) {
	outgoing := graph.Outgoing(execution.NodeID)

	var fired *models.Connection

	for _, conn := range outgoing {
		if Evaluate(conn, execution.Result, execution.ExecutionData) {
			fired = conn

			break
		}
	}

	switch {
	case fired != nil:
		return o.advanceTo(ctx, graph, instance, execution, fired)

	case len(outgoing) == 0:
		// Natural dead end: the node is terminal, resolve from its result.
		return o.resolve(ctx, instance, resolutionFor(execution.Result))

	default:
		// Outgoing connections exist but none matched: a configuration gap.
		// Park the instance for operator follow-up instead of getting stuck.
		reason := fmt.Sprintf("no outgoing connection of node %s matched result %q", execution.NodeID, execution.Result)

		return o.hold(ctx, instance, execution.NodeID, reason)
	}
}

// advanceTo moves the instance onto the fired connection's target node.
func (o *Orchestrator) advanceTo(
	ctx context.Context,
	graph *Graph,
	instance *models.CandidateWorkflow,
	execution *models.NodeExecution,
	fired *models.Connection,
) (*models.CandidateWorkflow, error) {
	target := graph.Node(fired.TargetNodeID)
	if target == nil {
		return o.hold(ctx, instance, execution.NodeID,
			fmt.Sprintf("connection %s targets unknown node %s", fired.ID, fired.TargetNodeID))
	}

	// Cycle guard: never re-enter a node this instance already completed.
	revisit, err := o.persistence.NodeExecutionRepository().TerminalExists(ctx, instance.ID, target.ID)
	if err != nil {
		return nil, err
	}

	if revisit {
		return o.hold(ctx, instance, execution.NodeID,
			fmt.Sprintf("connection %s would re-enter already completed node %s", fired.ID, target.ID))
	}

	// A decision node with no outgoing connections is a terminal sink: its
	// verdict is fixed by its configuration, so the engine concludes it
	// without waiting for a human to restate the obvious.
	if target.Type == models.NodeTypeDecision && len(graph.Outgoing(target.ID)) == 0 {
		if res, ok := sinkResolution(target); ok {
			return o.concludeSink(ctx, instance, target, res)
		}
	}

	fromNodeID := *instance.CurrentNodeID
	instance.CurrentNodeID = &target.ID
	instance.UpdatedAt = time.Now().UTC()

	if err := o.persistence.CandidateWorkflowRepository().UpdateVersioned(ctx, instance); err != nil {
		return nil, err
	}

	nextExecution, err := o.tracker.Start(ctx, instance.ID, target.ID)
	if err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "Advanced candidate workflow",
		"candidate_workflow_id", instance.ID,
		"from_node_id", fromNodeID,
		"to_node_id", target.ID,
		"result", execution.Result,
	)

	o.publish(ctx, instance.ID, events.CandidateAdvanced{
		BaseEvent:           o.baseEvent(events.CandidateAdvancedEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
		FromNodeID:          fromNodeID,
		ToNodeID:            target.ID,
		Result:              execution.Result,
	})
	o.publishExecutionStarted(ctx, instance, nextExecution, target)

	return instance, nil
}

// resolution is a terminal outcome for a candidate workflow.
type resolution struct {
	status models.CandidateWorkflowStatus
	result models.FinalResult
	reason string
}

// resolutionFor maps a concluding execution result onto the instance's
// terminal state when the node had no outgoing connections.
func resolutionFor(result models.ExecutionResult) resolution {
	switch {
	case result.SuccessResult():
		return resolution{status: models.CandidateWorkflowStatusCompleted, result: models.FinalResultHired}
	case result.FailureResult():
		return resolution{status: models.CandidateWorkflowStatusFailed, result: models.FinalResultRejected}
	default:
		return resolution{
			status: models.CandidateWorkflowStatusOnHold,
			result: models.FinalResultOnHold,
			reason: fmt.Sprintf("terminal node concluded with unclassified result %q", result),
		}
	}
}

// sinkResolution derives the terminal outcome a decision sink node encodes.
func sinkResolution(node *models.WorkflowNode) (resolution, bool) {
	kind, _ := node.Config["decision_kind"].(string)

	switch kind {
	case "hire":
		return resolution{status: models.CandidateWorkflowStatusCompleted, result: models.FinalResultHired}, true
	case "reject":
		return resolution{status: models.CandidateWorkflowStatusFailed, result: models.FinalResultRejected}, true
	default:
		// A review sink still needs a human verdict.
		return resolution{}, false
	}
}

// concludeSink records the sink decision node's execution and resolves the
// instance in one transition.
func (o *Orchestrator) concludeSink(
	ctx context.Context,
	instance *models.CandidateWorkflow,
	sink *models.WorkflowNode,
	res resolution,
) (*models.CandidateWorkflow, error) {
	sinkResult := models.ExecutionResultApproved
	if res.status == models.CandidateWorkflowStatusFailed {
		sinkResult = models.ExecutionResultRejected
	}

	execution, err := o.tracker.Start(ctx, instance.ID, sink.ID)
	if err != nil {
		return nil, err
	}

	if _, err := o.tracker.Complete(ctx, execution.ID, sinkResult, nil); err != nil {
		return nil, err
	}

	instance.CurrentNodeID = &sink.ID

	return o.resolve(ctx, instance, res)
}

// resolve commits a terminal outcome on the instance.
func (o *Orchestrator) resolve(
	ctx context.Context,
	instance *models.CandidateWorkflow,
	res resolution,
) (*models.CandidateWorkflow, error) {
	if res.status == models.CandidateWorkflowStatusOnHold {
		nodeID := ""
		if instance.CurrentNodeID != nil {
			nodeID = *instance.CurrentNodeID
		}

		return o.hold(ctx, instance, nodeID, res.reason)
	}

	now := time.Now().UTC()
	instance.Status = res.status
	instance.FinalResult = &res.result
	instance.FinishedAt = &now
	instance.UpdatedAt = now

	if err := o.persistence.CandidateWorkflowRepository().UpdateVersioned(ctx, instance); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "Resolved candidate workflow",
		"candidate_workflow_id", instance.ID,
		"status", instance.Status,
		"final_result", res.result,
	)

	o.publish(ctx, instance.ID, events.CandidateFinished{
		BaseEvent:           o.baseEvent(events.CandidateFinishedEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
		Status:              instance.Status,
		FinalResult:         res.result,
	})

	return instance, nil
}

// hold parks the instance for operator follow-up. Holding is not an error:
// the report call that led here still succeeds.
func (o *Orchestrator) hold(
	ctx context.Context,
	instance *models.CandidateWorkflow,
	nodeID, reason string,
) (*models.CandidateWorkflow, error) {
	onHold := models.FinalResultOnHold
	instance.Status = models.CandidateWorkflowStatusOnHold
	instance.FinalResult = &onHold
	instance.HoldReason = reason
	instance.UpdatedAt = time.Now().UTC()

	if err := o.persistence.CandidateWorkflowRepository().UpdateVersioned(ctx, instance); err != nil {
		return nil, err
	}

	o.logger.WarnContext(ctx, "Candidate workflow put on hold",
		"candidate_workflow_id", instance.ID,
		"node_id", nodeID,
		"reason", reason,
	)

	o.publish(ctx, instance.ID, events.CandidateOnHold{
		BaseEvent:           o.baseEvent(events.CandidateOnHoldEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
		NodeID:              nodeID,
		Reason:              reason,
	})

	return instance, nil
}

// Withdraw moves a non-terminal instance to withdrawn. This is an explicit
// out-of-band operation, independent of the orchestration path.
func (o *Orchestrator) Withdraw(ctx context.Context, candidateWorkflowID string) (*models.CandidateWorkflow, error) {
	instance, err := o.persistence.CandidateWorkflowRepository().GetByID(ctx, candidateWorkflowID)
	if err != nil {
		return nil, err
	}

	if instance.Terminal() {
		return nil, fmt.Errorf("candidate workflow %s is %s: %w", instance.ID, instance.Status, ErrInstanceFinished)
	}

	now := time.Now().UTC()
	withdrawn := models.FinalResultWithdrawn
	instance.Status = models.CandidateWorkflowStatusWithdrawn
	instance.FinalResult = &withdrawn
	instance.FinishedAt = &now
	instance.UpdatedAt = now

	if err := o.persistence.CandidateWorkflowRepository().UpdateVersioned(ctx, instance); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "Withdrew candidate workflow", "candidate_workflow_id", instance.ID)

	o.publish(ctx, instance.ID, events.CandidateWithdrawn{
		BaseEvent:           o.baseEvent(events.CandidateWithdrawnEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
	})

	return instance, nil
}

// CandidateWorkflowState is the read model for one candidate's traversal.
type CandidateWorkflowState struct {
	Instance     *models.CandidateWorkflow `json:"instance"`
	CurrentNodes []*models.WorkflowNode    `json:"current_nodes"`
	History      []*models.NodeExecution   `json:"history"`
}

// State returns the instance, its currently active node(s) and the full
// execution history ordered by creation.
func (o *Orchestrator) State(ctx context.Context, candidateWorkflowID string) (*CandidateWorkflowState, error) {
	instance, err := o.persistence.CandidateWorkflowRepository().GetByID(ctx, candidateWorkflowID)
	if err != nil {
		return nil, err
	}

	history, err := o.persistence.NodeExecutionRepository().ListByInstance(ctx, candidateWorkflowID)
	if err != nil {
		return nil, err
	}

	state := &CandidateWorkflowState{
		Instance:     instance,
		CurrentNodes: []*models.WorkflowNode{},
		History:      history,
	}

	if instance.CurrentNodeID != nil && !instance.Terminal() {
		w, err := o.persistence.WorkflowRepository().GetByID(ctx, instance.WorkflowID)
		if err != nil {
			return nil, err
		}

		if node := w.NodeByID(*instance.CurrentNodeID); node != nil {
			state.CurrentNodes = append(state.CurrentNodes, node)
		}
	}

	return state, nil
}

func (o *Orchestrator) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (o *Orchestrator) publishExecutionStarted(
	ctx context.Context,
	instance *models.CandidateWorkflow,
	execution *models.NodeExecution,
	node *models.WorkflowNode,
) {
	o.publish(ctx, instance.ID, events.ExecutionStarted{
		BaseEvent:           o.baseEvent(events.ExecutionStartedEvent, instance.WorkflowID),
		CandidateWorkflowID: instance.ID,
		ExecutionID:         execution.ID,
		NodeID:              node.ID,
		NodeType:            node.Type,
	})
}

// publish sends an event, logging failures. Notification delivery is best
// effort and never rolls back an orchestration step.
func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.Publish(ctx, key, event); err != nil {
		o.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
