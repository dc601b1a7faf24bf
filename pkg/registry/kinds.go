package registry

import "github.com/hireflow/hireflow/pkg/models"

// Default builds a registry with every built-in node kind.
func Default() *Registry {
	r := New()

	for _, spec := range builtinKinds() {
		// Built-in schemas are compile-time constants; a failure here is a
		// programming error.
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}

	return r
}

func builtinKinds() []KindSpec {
	return []KindSpec{
		{
			Type:        models.NodeTypeInterview,
			Description: "A scheduled interview; the calendar system reports the outcome.",
			ConfigSchema: `{
				"type": "object",
				"required": ["interview_template_id"],
				"properties": {
					"interview_template_id": {"type": "string", "minLength": 1},
					"interviewer_ids": {"type": "array", "items": {"type": "string"}},
					"duration_minutes": {"type": "integer", "minimum": 5}
				}
			}`,
		},
		{
			Type:        models.NodeTypeTodo,
			Description: "A task assigned to the candidate or a recruiter.",
			ConfigSchema: `{
				"type": "object",
				"required": ["title"],
				"properties": {
					"title": {"type": "string", "minLength": 1},
					"assignee_id": {"type": "string"},
					"due_days": {"type": "integer", "minimum": 0}
				}
			}`,
		},
		{
			Type:        models.NodeTypeAssessment,
			Description: "An exam or take-home assignment graded out of band.",
			ConfigSchema: `{
				"type": "object",
				"required": ["assessment_id"],
				"properties": {
					"assessment_id": {"type": "string", "minLength": 1},
					"passing_score": {"type": "number", "minimum": 0},
					"time_limit_minutes": {"type": "integer", "minimum": 1}
				}
			}`,
		},
		{
			Type:        models.NodeTypeDecision,
			Description: "A human decision point (hire, reject, escalate).",
			ConfigSchema: `{
				"type": "object",
				"required": ["decision_kind"],
				"properties": {
					"decision_kind": {"type": "string", "enum": ["hire", "reject", "review"]},
					"decider_role": {"type": "string"}
				}
			}`,
		},
	}
}
