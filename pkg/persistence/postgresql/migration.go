package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				company_id VARCHAR(255) NOT NULL,
				position_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'archived', 'inactive')),
				version INT NOT NULL DEFAULT 1,
				is_template BOOLEAN NOT NULL DEFAULT FALSE,
				activated_at TIMESTAMP WITH TIME ZONE,
				archived_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_company_id ON workflows(company_id);
			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE workflow_nodes (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				node_status VARCHAR(50) NOT NULL DEFAULT 'draft',
				name VARCHAR(255) NOT NULL,
				config JSONB DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_nodes_workflow_id ON workflow_nodes(workflow_id);
			CREATE INDEX idx_workflow_nodes_type ON workflow_nodes(node_type);

			CREATE TABLE workflow_connections (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				seq BIGINT NOT NULL,
				source_node_id VARCHAR(255) NOT NULL,
				target_node_id VARCHAR(255) NOT NULL,
				condition_type VARCHAR(50) NOT NULL,
				condition_config JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_connections_workflow_id ON workflow_connections(workflow_id);
			CREATE INDEX idx_workflow_connections_source ON workflow_connections(workflow_id, source_node_id, seq);
			CREATE UNIQUE INDEX idx_workflow_connections_seq ON workflow_connections(workflow_id, seq);

			CREATE TABLE workflow_viewers (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				user_id VARCHAR(255) NOT NULL,
				granted_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (workflow_id, user_id)
			);

			CREATE TABLE candidate_workflows (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				candidate_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				final_result VARCHAR(50),
				current_node_id VARCHAR(255),
				hold_reason TEXT NOT NULL DEFAULT '',
				lock_version BIGINT NOT NULL DEFAULT 0,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_candidate_workflows_workflow_id ON candidate_workflows(workflow_id);
			CREATE INDEX idx_candidate_workflows_candidate_id ON candidate_workflows(candidate_id);
			CREATE INDEX idx_candidate_workflows_status ON candidate_workflows(status);

			-- One live traversal per candidate per workflow.
			CREATE UNIQUE INDEX idx_candidate_workflows_live
				ON candidate_workflows(workflow_id, candidate_id)
				WHERE status IN ('not_started', 'in_progress');

			CREATE TABLE node_executions (
				id UUID PRIMARY KEY,
				candidate_workflow_id UUID NOT NULL REFERENCES candidate_workflows(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				result VARCHAR(50),
				execution_data JSONB DEFAULT '{}',
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_node_executions_candidate_workflow_id ON node_executions(candidate_workflow_id);
			CREATE INDEX idx_node_executions_node_id ON node_executions(node_id);
			CREATE INDEX idx_node_executions_status ON node_executions(status);

			-- One live attempt per node per traversal.
			CREATE UNIQUE INDEX idx_node_executions_live
				ON node_executions(candidate_workflow_id, node_id)
				WHERE status NOT IN ('completed', 'failed', 'skipped');
		`,
	}
}
