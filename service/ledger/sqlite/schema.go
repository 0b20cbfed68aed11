package sqlite

var schema = []string{
	`CREATE TABLE IF NOT EXISTS calendar (
		id TEXT PRIMARY KEY,
		scheduled_date TEXT NOT NULL,
		pillar TEXT,
		platform TEXT NOT NULL,
		content_draft TEXT,
		status TEXT NOT NULL DEFAULT 'planned'
	)`,
	`CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		source_url TEXT NOT NULL UNIQUE,
		source_user TEXT,
		content TEXT,
		relevance_score REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'queued',
		found_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS curation_candidates (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		description TEXT,
		author TEXT,
		published_at TEXT,
		metadata TEXT,
		keyword_score REAL NOT NULL DEFAULT 0,
		evaluation TEXT,
		share INTEGER NOT NULL DEFAULT 0,
		reasoning TEXT,
		drafts TEXT,
		final_score REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TEXT NOT NULL,
		evaluated_at TEXT,
		posted_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS engagements (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		post_id TEXT NOT NULL,
		post_url TEXT,
		author TEXT,
		text TEXT,
		opportunity_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		acted_at TEXT,
		UNIQUE(platform, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		platform TEXT NOT NULL,
		content TEXT,
		status TEXT NOT NULL,
		source TEXT,
		source_id TEXT,
		variants TEXT,
		post_url TEXT,
		acted_at TEXT NOT NULL,
		approval_decision TEXT,
		approval_timestamp TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_status_acted ON actions(status, acted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_status ON curation_candidates(status)`,
}
