// Package sqlite implements ledger.Ledger on a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/idgen"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
)

// Memory is the DSN of a private in-memory database.
const Memory = ":memory:"

// Ledger is a SQLite backed ledger.
type Ledger struct {
	db *sql.DB
}

var _ ledger.Ledger = (*Ledger)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Ledger, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" shared and serialises writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error { return l.db.Close() }

// -- calendar --

func (l *Ledger) AddCalendarEntry(ctx context.Context, entry *model.CalendarEntry) error {
	if entry == nil {
		return errors.New("calendar entry was nil")
	}
	if entry.ID == "" {
		entry.ID = idgen.New()
	}
	if entry.Status == "" {
		entry.Status = model.CalendarStatusPlanned
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO calendar (id, scheduled_date, pillar, platform, content_draft, status) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ScheduledDate, entry.Pillar, string(entry.Platform), entry.ContentDraft, string(entry.Status))
	if err != nil {
		return fmt.Errorf("failed to add calendar entry: %w", err)
	}
	return nil
}

func (l *Ledger) CalendarEntries(ctx context.Context, day string) ([]*model.CalendarEntry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, scheduled_date, pillar, platform, content_draft, status FROM calendar WHERE scheduled_date = ? ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}
	defer rows.Close()
	var ret []*model.CalendarEntry
	for rows.Next() {
		entry := &model.CalendarEntry{}
		var pillar, draft sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ScheduledDate, &pillar, &entry.Platform, &draft, &entry.Status); err != nil {
			return nil, err
		}
		entry.Pillar, entry.ContentDraft = pillar.String, draft.String
		ret = append(ret, entry)
	}
	return ret, rows.Err()
}

func (l *Ledger) UpdateCalendarStatus(ctx context.Context, id string, status model.CalendarStatus) error {
	return l.update(ctx, `UPDATE calendar SET status = ? WHERE id = ?`, string(status), id)
}

// -- findings --

func (l *Ledger) InsertFinding(ctx context.Context, finding *model.Finding) (ledger.InsertResult, error) {
	if finding == nil {
		return ledger.Inserted, errors.New("finding was nil")
	}
	id := finding.ID
	if id == "" {
		id = idgen.New()
	}
	status := finding.Status
	if status == "" {
		status = model.FindingStatusQueued
	}
	foundAt := finding.FoundAt
	if foundAt.IsZero() {
		foundAt = clock.Now()
	}
	result, err := l.insertOrIgnore(ctx, `INSERT OR IGNORE INTO findings (id, platform, source_url, source_user, content, relevance_score, status, found_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(finding.Platform), finding.SourceURL, finding.SourceUser, finding.Content, finding.RelevanceScore, string(status), formatTime(foundAt))
	if err == nil && result == ledger.Inserted {
		finding.ID, finding.Status, finding.FoundAt = id, status, foundAt
	}
	return result, err
}

const findingColumns = `id, platform, source_url, source_user, content, relevance_score, status, found_at`

func (l *Ledger) Finding(ctx context.Context, id string) (*model.Finding, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+findingColumns+` FROM findings WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	findings, err := scanFindings(rows)
	if err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return nil, ledger.ErrNotFound
	}
	return findings[0], nil
}

func (l *Ledger) QueuedFindings(ctx context.Context, limit int) ([]*model.Finding, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+findingColumns+` FROM findings WHERE status = ? ORDER BY relevance_score DESC, found_at ASC LIMIT ?`,
		string(model.FindingStatusQueued), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	return scanFindings(rows)
}

func scanFindings(rows *sql.Rows) ([]*model.Finding, error) {
	defer rows.Close()
	var ret []*model.Finding
	for rows.Next() {
		f := &model.Finding{}
		var user, content sql.NullString
		var foundAt string
		if err := rows.Scan(&f.ID, &f.Platform, &f.SourceURL, &user, &content, &f.RelevanceScore, &f.Status, &foundAt); err != nil {
			return nil, err
		}
		f.SourceUser, f.Content = user.String, content.String
		f.FoundAt = parseTime(foundAt)
		ret = append(ret, f)
	}
	return ret, rows.Err()
}

func (l *Ledger) UpdateFindingStatus(ctx context.Context, id string, status model.FindingStatus) error {
	return l.update(ctx, `UPDATE findings SET status = ? WHERE id = ?`, string(status), id)
}

// -- candidates --

const candidateColumns = `id, source, url, title, description, author, published_at, metadata, keyword_score, evaluation, share, reasoning, drafts, final_score, status, created_at, evaluated_at, posted_at`

func (l *Ledger) InsertCandidate(ctx context.Context, c *model.CurationCandidate) (ledger.InsertResult, error) {
	if c == nil {
		return ledger.Inserted, errors.New("candidate was nil")
	}
	id := c.ID
	if id == "" {
		id = idgen.New()
	}
	status := c.Status
	if status == "" {
		status = model.CandidateStatusNew
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = clock.Now()
	}
	metadata, err := marshalOptional(c.Metadata)
	if err != nil {
		return ledger.Inserted, err
	}
	result, err := l.insertOrIgnore(ctx, `INSERT OR IGNORE INTO curation_candidates (id, source, url, title, description, author, published_at, metadata, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Source, c.URL, c.Title, c.Description, c.Author, formatOptionalTime(c.PublishedAt), metadata, string(status), formatTime(createdAt))
	if err == nil && result == ledger.Inserted {
		c.ID, c.Status, c.CreatedAt = id, status, createdAt
	}
	return result, err
}

func (l *Ledger) Candidate(ctx context.Context, id string) (*model.CurationCandidate, error) {
	candidates, err := l.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM curation_candidates WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ledger.ErrNotFound
	}
	return candidates[0], nil
}

func (l *Ledger) NewCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error) {
	return l.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM curation_candidates WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		string(model.CandidateStatusNew), sqlLimit(limit))
}

func (l *Ledger) ApprovedCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error) {
	return l.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM curation_candidates WHERE status = ? ORDER BY final_score DESC LIMIT ?`,
		string(model.CandidateStatusApproved), sqlLimit(limit))
}

func (l *Ledger) queryCandidates(ctx context.Context, query string, args ...interface{}) ([]*model.CurationCandidate, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()
	var ret []*model.CurationCandidate
	for rows.Next() {
		c := &model.CurationCandidate{}
		var title, description, author, publishedAt, metadata, evaluation, reasoning, drafts, evaluatedAt, postedAt sql.NullString
		var createdAt string
		var share int
		if err := rows.Scan(&c.ID, &c.Source, &c.URL, &title, &description, &author, &publishedAt, &metadata,
			&c.KeywordScore, &evaluation, &share, &reasoning, &drafts, &c.FinalScore, &c.Status, &createdAt, &evaluatedAt, &postedAt); err != nil {
			return nil, err
		}
		c.Title, c.Description, c.Author, c.Reasoning = title.String, description.String, author.String, reasoning.String
		c.Share = share != 0
		c.CreatedAt = parseTime(createdAt)
		c.PublishedAt = parseOptionalTime(publishedAt)
		c.EvaluatedAt = parseOptionalTime(evaluatedAt)
		c.PostedAt = parseOptionalTime(postedAt)
		if err := unmarshalOptional(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		if err := unmarshalOptional(drafts, &c.Drafts); err != nil {
			return nil, err
		}
		if evaluation.Valid && evaluation.String != "" {
			c.Evaluation = &model.Evaluation{}
			if err := json.Unmarshal([]byte(evaluation.String), c.Evaluation); err != nil {
				return nil, fmt.Errorf("invalid evaluation for candidate %s: %w", c.ID, err)
			}
		}
		ret = append(ret, c)
	}
	return ret, rows.Err()
}

func (l *Ledger) SaveEvaluation(ctx context.Context, c *model.CurationCandidate) error {
	if c == nil {
		return errors.New("candidate was nil")
	}
	evaluation, err := marshalOptional(c.Evaluation)
	if err != nil {
		return err
	}
	drafts, err := marshalOptional(c.Drafts)
	if err != nil {
		return err
	}
	share := 0
	if c.Share {
		share = 1
	}
	return l.update(ctx, `UPDATE curation_candidates SET keyword_score = ?, evaluation = ?, share = ?, reasoning = ?, drafts = ?, final_score = ?, status = ?, evaluated_at = ? WHERE id = ?`,
		c.KeywordScore, evaluation, share, c.Reasoning, drafts, c.FinalScore, string(c.Status), formatTime(clock.Now()), c.ID)
}

func (l *Ledger) UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error {
	if status == model.CandidateStatusPosted {
		return l.update(ctx, `UPDATE curation_candidates SET status = ?, posted_at = ? WHERE id = ?`, string(status), formatTime(clock.Now()), id)
	}
	return l.update(ctx, `UPDATE curation_candidates SET status = ? WHERE id = ?`, string(status), id)
}

func (l *Ledger) CountPostedCurationsToday(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM curation_candidates WHERE status = ? AND substr(posted_at, 1, 10) = ?`,
		string(model.CandidateStatusPosted), clock.Today()).Scan(&count)
	return count, err
}

// -- engagement --

func (l *Ledger) InsertEngagement(ctx context.Context, e *model.EngagementOpportunity) (ledger.InsertResult, error) {
	if e == nil {
		return ledger.Inserted, errors.New("engagement was nil")
	}
	id := e.ID
	if id == "" {
		id = idgen.New()
	}
	status := e.Status
	if status == "" {
		status = model.EngagementStatusPending
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = clock.Now()
	}
	result, err := l.insertOrIgnore(ctx, `INSERT OR IGNORE INTO engagements (id, platform, post_id, post_url, author, text, opportunity_type, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(e.Platform), e.PostID, e.PostURL, e.Author, e.Text, string(e.OpportunityType), string(status), formatTime(createdAt))
	if err == nil && result == ledger.Inserted {
		e.ID, e.Status, e.CreatedAt = id, status, createdAt
	}
	return result, err
}

func (l *Ledger) PendingEngagements(ctx context.Context, limit int) ([]*model.EngagementOpportunity, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, platform, post_id, post_url, author, text, opportunity_type, status, created_at, acted_at FROM engagements WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		string(model.EngagementStatusPending), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query engagements: %w", err)
	}
	defer rows.Close()
	var ret []*model.EngagementOpportunity
	for rows.Next() {
		e := &model.EngagementOpportunity{}
		var postURL, author, text, actedAt sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Platform, &e.PostID, &postURL, &author, &text, &e.OpportunityType, &e.Status, &createdAt, &actedAt); err != nil {
			return nil, err
		}
		e.PostURL, e.Author, e.Text = postURL.String, author.String, text.String
		e.CreatedAt = parseTime(createdAt)
		e.ActedAt = parseOptionalTime(actedAt)
		ret = append(ret, e)
	}
	return ret, rows.Err()
}

func (l *Ledger) UpdateEngagementStatus(ctx context.Context, id string, status model.EngagementStatus) error {
	return l.update(ctx, `UPDATE engagements SET status = ?, acted_at = ? WHERE id = ?`, string(status), formatTime(clock.Now()), id)
}

// -- actions --

func (l *Ledger) CreateAction(ctx context.Context, a *model.Action) error {
	if a == nil {
		return errors.New("action was nil")
	}
	if !a.Status.IsValid() {
		return ledger.ErrUnknownStatus
	}
	if a.ID == "" {
		a.ID = idgen.New()
	}
	if a.ActedAt.IsZero() {
		a.ActedAt = clock.Now()
	}
	variants, err := marshalOptional(a.Variants)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `INSERT INTO actions (id, action_type, platform, content, status, source, source_id, variants, post_url, acted_at, approval_decision, approval_timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), string(a.Platform), a.Content, string(a.Status), string(a.Source), a.SourceID, variants, a.PostURL,
		formatTime(a.ActedAt), a.ApprovalDecision, formatOptionalTime(a.ApprovalTimestamp))
	if err != nil {
		return fmt.Errorf("failed to create action %s: %w", a.ID, err)
	}
	return nil
}

func (l *Ledger) Action(ctx context.Context, id string) (*model.Action, error) {
	a := &model.Action{}
	var content, source, sourceID, variants, postURL, decision, decidedAt sql.NullString
	var actedAt string
	err := l.db.QueryRowContext(ctx, `SELECT id, action_type, platform, content, status, source, source_id, variants, post_url, acted_at, approval_decision, approval_timestamp FROM actions WHERE id = ?`, id).
		Scan(&a.ID, &a.Type, &a.Platform, &content, &a.Status, &source, &sourceID, &variants, &postURL, &actedAt, &decision, &decidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Content, a.SourceID, a.PostURL, a.ApprovalDecision = content.String, sourceID.String, postURL.String, decision.String
	a.Source = model.Source(source.String)
	a.ActedAt = parseTime(actedAt)
	a.ApprovalTimestamp = parseOptionalTime(decidedAt)
	if err := unmarshalOptional(variants, &a.Variants); err != nil {
		return nil, err
	}
	return a, nil
}

func (l *Ledger) ApplyDecision(ctx context.Context, id string, status model.ActionStatus, decision string, at time.Time, content *string) error {
	return l.transition(ctx, id, status, func(tx *sql.Tx) error {
		if content != nil {
			_, err := tx.ExecContext(ctx, `UPDATE actions SET status = ?, approval_decision = ?, approval_timestamp = ?, content = ? WHERE id = ?`,
				string(status), decision, formatTime(at), *content, id)
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE actions SET status = ?, approval_decision = ?, approval_timestamp = ? WHERE id = ?`,
			string(status), decision, formatTime(at), id)
		return err
	})
}

func (l *Ledger) ExpireApproval(ctx context.Context, id string, reason string, at time.Time) error {
	result, err := l.db.ExecContext(ctx, `UPDATE actions SET status = ?, approval_decision = ?, approval_timestamp = ? WHERE id = ? AND status = ?`,
		string(model.ActionStatusBacklogged), reason, formatTime(at), id, string(model.ActionStatusPendingApproval))
	if err != nil {
		return fmt.Errorf("failed to expire action %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil || n > 0 {
		return err
	}
	var current string
	err = l.db.QueryRowContext(ctx, `SELECT status FROM actions WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ledger.ErrStatusRegression
}

func (l *Ledger) UpdateActionResult(ctx context.Context, id string, status model.ActionStatus, postURL string) error {
	return l.transition(ctx, id, status, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE actions SET status = ?, post_url = ?, acted_at = ? WHERE id = ?`,
			string(status), postURL, formatTime(clock.Now()), id)
		return err
	})
}

func (l *Ledger) transition(ctx context.Context, id string, status model.ActionStatus, apply func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM actions WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := ledger.CheckTransition(model.ActionStatus(current), status); err != nil {
		return err
	}
	if err := apply(tx); err != nil {
		return fmt.Errorf("failed to update action %s: %w", id, err)
	}
	return tx.Commit()
}

func (l *Ledger) CountPostedToday(ctx context.Context, platform model.Platform) (int, error) {
	query := `SELECT COUNT(*) FROM actions WHERE status = ? AND substr(acted_at, 1, 10) = ?`
	args := []interface{}{string(model.ActionStatusPosted), clock.Today()}
	if platform != "" {
		query += ` AND platform = ?`
		args = append(args, string(platform))
	}
	var count int
	err := l.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (l *Ledger) update(ctx context.Context, query string, args ...interface{}) error {
	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (l *Ledger) insertOrIgnore(ctx context.Context, query string, args ...interface{}) (ledger.InsertResult, error) {
	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ledger.Inserted, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return ledger.Inserted, err
	}
	if affected == 0 {
		return ledger.Duplicate, nil
	}
	return ledger.Inserted, nil
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
