package metadata

// schema creates the relational system of record: cases, evidence,
// segments, research runs, findings, citations, knowledge-graph
// nodes/relationships, timeline events, and dossiers. Structured sub-fields
// (segments, citations, tags, entities, properties, metadata maps) are
// stored as JSON text columns rather than normalized further, the same
// trade the teacher makes for File.Metadata in internal/store.
const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	case_number TEXT NOT NULL UNIQUE,
	client TEXT,
	matter_type TEXT,
	status TEXT NOT NULL,
	team_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	filename TEXT,
	size INTEGER NOT NULL,
	status TEXT NOT NULL,
	segments_json TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evidence_case ON evidence(case_id);

CREATE TABLE IF NOT EXISTS research_runs (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	query TEXT,
	defense_theory TEXT,
	status TEXT NOT NULL,
	phase TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	errors_json TEXT NOT NULL DEFAULT '[]',
	metadata_json TEXT NOT NULL DEFAULT '{}',
	workflow_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_case ON research_runs(case_id);

CREATE TABLE IF NOT EXISTS findings (
	id TEXT PRIMARY KEY,
	research_run_id TEXT NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
	finding_type TEXT NOT NULL,
	text TEXT,
	entities_json TEXT NOT NULL DEFAULT '[]',
	citations_json TEXT NOT NULL DEFAULT '[]',
	confidence REAL NOT NULL,
	relevance REAL NOT NULL,
	tags_json TEXT NOT NULL DEFAULT '[]',
	event_timestamp DATETIME,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(research_run_id);

CREATE TABLE IF NOT EXISTS graph_nodes (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	type TEXT NOT NULL,
	label TEXT NOT NULL,
	properties_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_nodes_case ON graph_nodes(case_id);
CREATE INDEX IF NOT EXISTS idx_nodes_label ON graph_nodes(case_id, label);

CREATE TABLE IF NOT EXISTS graph_relationships (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	type TEXT NOT NULL,
	properties_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_rel_case ON graph_relationships(case_id);
CREATE INDEX IF NOT EXISTS idx_rel_source ON graph_relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_rel_target ON graph_relationships(target_id);

CREATE TABLE IF NOT EXISTS timeline_events (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	event_type TEXT,
	description TEXT,
	participants_json TEXT NOT NULL DEFAULT '[]',
	citations_json TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_timeline_case ON timeline_events(case_id, timestamp);

CREATE TABLE IF NOT EXISTS dossiers (
	id TEXT PRIMARY KEY,
	research_run_id TEXT NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
	executive_summary TEXT,
	sections_json TEXT NOT NULL DEFAULT '[]',
	citations_json TEXT NOT NULL DEFAULT '[]',
	file_paths_json TEXT NOT NULL DEFAULT '[]',
	generated_at DATETIME NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0
);
`
