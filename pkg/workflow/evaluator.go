package workflow

import "github.com/hireflow/hireflow/pkg/models"

// Evaluate decides whether a connection fires given the source node's
// concluded result and execution data payload.
//
// It is pure and total: no state, no I/O, never an error. An unrecognized
// condition type evaluates false; those are rejected when the connection is
// created, so hitting one here means a validation gap upstream, not a runtime
// failure. A conditional connection with an empty config likewise never fires
// and is caught by activation validation.
func Evaluate(conn *models.Connection, result models.ExecutionResult, executionData map[string]any) bool {
	switch conn.ConditionType {
	case models.ConditionTypeAlways:
		return true

	case models.ConditionTypeSuccess:
		return result.SuccessResult()

	case models.ConditionTypeFailure:
		return result.FailureResult()

	case models.ConditionTypeConditional:
		if conn.Condition.Empty() {
			return false
		}

		if conn.Condition.RequiredResult != nil && *conn.Condition.RequiredResult == result {
			return true
		}

		if conn.Condition.MinScore != nil {
			if score, ok := models.ScoreFromData(executionData); ok {
				return score >= *conn.Condition.MinScore
			}
		}

		return false

	default:
		return false
	}
}
