package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hireflow/hireflow/pkg/models"
)

func conditional(condition *models.ConditionConfig) *models.Connection {
	return &models.Connection{
		ID:            "conn",
		SourceNodeID:  "a",
		TargetNodeID:  "b",
		ConditionType: models.ConditionTypeConditional,
		Condition:     condition,
	}
}

func edge(conditionType models.ConditionType) *models.Connection {
	return &models.Connection{
		ID:            "conn",
		SourceNodeID:  "a",
		TargetNodeID:  "b",
		ConditionType: conditionType,
	}
}

func TestEvaluate_Success(t *testing.T) {
	conn := edge(models.ConditionTypeSuccess)

	assert.True(t, Evaluate(conn, models.ExecutionResultPass, nil))
	assert.True(t, Evaluate(conn, models.ExecutionResultCompleted, nil))
	assert.True(t, Evaluate(conn, models.ExecutionResultApproved, nil))

	assert.False(t, Evaluate(conn, models.ExecutionResultFail, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultRejected, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultPendingReview, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultSkipped, nil))
}

func TestEvaluate_Failure(t *testing.T) {
	conn := edge(models.ConditionTypeFailure)

	assert.True(t, Evaluate(conn, models.ExecutionResultFail, nil))
	assert.True(t, Evaluate(conn, models.ExecutionResultFailed, nil))
	assert.True(t, Evaluate(conn, models.ExecutionResultRejected, nil))

	assert.False(t, Evaluate(conn, models.ExecutionResultPass, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultPendingReview, nil))
}

func TestEvaluate_AlwaysFiresOnAnyResult(t *testing.T) {
	conn := edge(models.ConditionTypeAlways)

	results := []models.ExecutionResult{
		models.ExecutionResultPass,
		models.ExecutionResultFail,
		models.ExecutionResultPendingReview,
		models.ExecutionResultApproved,
		models.ExecutionResultRejected,
		models.ExecutionResultSkipped,
		models.ExecutionResultCompleted,
		models.ExecutionResultFailed,
	}

	for _, result := range results {
		assert.True(t, Evaluate(conn, result, nil), "always edge must fire on %q", result)
	}
}

func TestEvaluate_ConditionalRequiredResult(t *testing.T) {
	approved := models.ExecutionResultApproved
	conn := conditional(&models.ConditionConfig{RequiredResult: &approved})

	assert.True(t, Evaluate(conn, models.ExecutionResultApproved, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultPass, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultRejected, nil))
}

func TestEvaluate_ConditionalMinScore(t *testing.T) {
	minScore := 75.0
	conn := conditional(&models.ConditionConfig{MinScore: &minScore})

	assert.True(t, Evaluate(conn, models.ExecutionResultPass, map[string]any{"score": 80.0}))
	assert.True(t, Evaluate(conn, models.ExecutionResultFail, map[string]any{"score": 75.0}), "threshold is inclusive")
	assert.False(t, Evaluate(conn, models.ExecutionResultPass, map[string]any{"score": 74.9}))
}

func TestEvaluate_ConditionalMinScoreMissingOrMalformedScore(t *testing.T) {
	minScore := 50.0
	conn := conditional(&models.ConditionConfig{MinScore: &minScore})

	assert.False(t, Evaluate(conn, models.ExecutionResultPass, nil))
	assert.False(t, Evaluate(conn, models.ExecutionResultPass, map[string]any{}))
	assert.False(t, Evaluate(conn, models.ExecutionResultPass, map[string]any{"score": "eighty"}))
}

func TestEvaluate_ConditionalEitherSubConditionSuffices(t *testing.T) {
	pass := models.ExecutionResultPass
	minScore := 90.0
	conn := conditional(&models.ConditionConfig{RequiredResult: &pass, MinScore: &minScore})

	// Result matches, score does not.
	assert.True(t, Evaluate(conn, models.ExecutionResultPass, map[string]any{"score": 10.0}))
	// Score matches, result does not.
	assert.True(t, Evaluate(conn, models.ExecutionResultFail, map[string]any{"score": 95.0}))
	// Neither matches.
	assert.False(t, Evaluate(conn, models.ExecutionResultFail, map[string]any{"score": 10.0}))
}

func TestEvaluate_ConditionalEmptyConfigNeverFires(t *testing.T) {
	assert.False(t, Evaluate(conditional(nil), models.ExecutionResultPass, map[string]any{"score": 100.0}))
	assert.False(t, Evaluate(conditional(&models.ConditionConfig{}), models.ExecutionResultPass, nil))
}

func TestEvaluate_UnknownConditionTypeNeverFires(t *testing.T) {
	conn := edge(models.ConditionType("sometimes"))

	assert.False(t, Evaluate(conn, models.ExecutionResultPass, nil))
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	minScore := 60.0
	conn := conditional(&models.ConditionConfig{MinScore: &minScore})
	data := map[string]any{"score": 60.0}

	first := Evaluate(conn, models.ExecutionResultPass, data)
	for range 100 {
		assert.Equal(t, first, Evaluate(conn, models.ExecutionResultPass, data))
	}
}
