package models

// ConditionType is the rule category governing whether a connection fires
// once its source node's execution concludes.
type ConditionType string

const (
	ConditionTypeSuccess     ConditionType = "success"
	ConditionTypeFailure     ConditionType = "failure"
	ConditionTypeConditional ConditionType = "conditional"
	ConditionTypeAlways      ConditionType = "always"
)

// KnownConditionTypes lists every condition type the engine accepts. Anything
// else is rejected when the connection is created.
var KnownConditionTypes = []ConditionType{
	ConditionTypeSuccess,
	ConditionTypeFailure,
	ConditionTypeConditional,
	ConditionTypeAlways,
}

// ConditionConfig is the structured payload of a conditional connection. A
// conditional edge fires when the execution result equals RequiredResult or
// the execution's score reaches MinScore. A conditional edge with neither set
// never fires and is rejected at activation time.
type ConditionConfig struct {
	RequiredResult *ExecutionResult `json:"required_result,omitempty"`
	MinScore       *float64         `json:"min_score,omitempty"`
}

// Empty reports whether no sub-condition is configured.
func (c *ConditionConfig) Empty() bool {
	return c == nil || (c.RequiredResult == nil && c.MinScore == nil)
}

// Connection is a directed edge between two nodes of the same workflow. Seq
// records creation order; connections of a source node are evaluated in
// ascending Seq so traversal is reproducible.
type Connection struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	SourceNodeID  string           `json:"source_node_id" validate:"required"`
	TargetNodeID  string           `json:"target_node_id" validate:"required"`
	ConditionType ConditionType    `json:"condition_type" validate:"required"`
	Condition     *ConditionConfig `json:"condition_config,omitempty"`
}

// IsKnownConditionType reports whether t is one of the supported condition types.
func IsKnownConditionType(t ConditionType) bool {
	for _, known := range KnownConditionTypes {
		if t == known {
			return true
		}
	}

	return false
}
