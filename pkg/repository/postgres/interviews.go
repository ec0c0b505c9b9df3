package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InterviewRepository is the pgx-backed ports.InterviewRepository.
type InterviewRepository struct {
	pool *pgxpool.Pool
}

// NewInterviewRepository constructs a repository over the given pool.
func NewInterviewRepository(pool *pgxpool.Pool) *InterviewRepository {
	return &InterviewRepository{pool: pool}
}

const interviewColumns = `id, candidate_id, plan, current_index, follow_up_ids,
	current_parent_question_id, current_followup_count, status, plan_metadata,
	created_at, updated_at, started_at, completed_at`

func (r *InterviewRepository) Get(ctx context.Context, tx ports.Tx, id string) (*interview.Interview, error) {
	row := q(r.pool, tx).QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: interview %s: %w", id, err)
		}
		return nil, fmt.Errorf("postgres: get interview %s: %w", id, err)
	}
	return iv, nil
}

func (r *InterviewRepository) Create(ctx context.Context, tx ports.Tx, iv *interview.Interview) error {
	plan, err := json.Marshal(iv.Plan)
	if err != nil {
		return fmt.Errorf("postgres: marshal plan: %w", err)
	}
	followUpIDs, err := json.Marshal(iv.FollowUpIDs)
	if err != nil {
		return fmt.Errorf("postgres: marshal follow_up_ids: %w", err)
	}
	metadata, err := json.Marshal(iv.PlanMetadata)
	if err != nil {
		return fmt.Errorf("postgres: marshal plan_metadata: %w", err)
	}

	_, err = q(r.pool, tx).Exec(ctx, `
		INSERT INTO interviews (id, candidate_id, plan, current_index, follow_up_ids,
			current_parent_question_id, current_followup_count, status, plan_metadata,
			created_at, updated_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		iv.ID, iv.CandidateID, plan, iv.CurrentIndex, followUpIDs,
		iv.CurrentParentQuestionID, iv.CurrentFollowupCount, string(iv.Status), metadata,
		iv.CreatedAt, iv.UpdatedAt, iv.StartedAt, iv.CompletedAt)
	if err != nil {
		return fmt.Errorf("postgres: create interview %s: %w", iv.ID, err)
	}
	return nil
}

// Update writes the full aggregate state, rejecting the write with
// *interview.StaleConcurrencyTokenError if the stored updated_at has
// moved since previousUpdatedAtUnixNano was captured (spec §6.3).
func (r *InterviewRepository) Update(ctx context.Context, tx ports.Tx, iv *interview.Interview, previousUpdatedAtUnixNano int64) error {
	plan, err := json.Marshal(iv.Plan)
	if err != nil {
		return fmt.Errorf("postgres: marshal plan: %w", err)
	}
	followUpIDs, err := json.Marshal(iv.FollowUpIDs)
	if err != nil {
		return fmt.Errorf("postgres: marshal follow_up_ids: %w", err)
	}
	metadata, err := json.Marshal(iv.PlanMetadata)
	if err != nil {
		return fmt.Errorf("postgres: marshal plan_metadata: %w", err)
	}
	previousUpdatedAt := time.Unix(0, previousUpdatedAtUnixNano).UTC()

	tag, err := q(r.pool, tx).Exec(ctx, `
		UPDATE interviews SET
			plan = $1, current_index = $2, follow_up_ids = $3,
			current_parent_question_id = $4, current_followup_count = $5,
			status = $6, plan_metadata = $7, updated_at = $8,
			started_at = $9, completed_at = $10
		WHERE id = $11 AND updated_at = $12`,
		plan, iv.CurrentIndex, followUpIDs,
		iv.CurrentParentQuestionID, iv.CurrentFollowupCount,
		string(iv.Status), metadata, iv.UpdatedAt,
		iv.StartedAt, iv.CompletedAt,
		iv.ID, previousUpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update interview %s: %w", iv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &interview.StaleConcurrencyTokenError{InterviewID: iv.ID}
	}
	return nil
}

// PurgeTerminalBefore deletes COMPLETE/CANCELLED interviews whose
// updated_at is older than cutoff, along with their dependent answers,
// evaluations, and follow-up questions (ON DELETE CASCADE). Used by
// pkg/cleanup's retention loop; not part of ports.InterviewRepository
// because no orchestrator/pipeline path needs it.
func (r *InterviewRepository) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM interviews
		WHERE status IN ($1, $2) AND updated_at < $3`,
		string(interview.StatusComplete), string(interview.StatusCancelled), cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge terminal interviews: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanInterview(row pgx.Row) (*interview.Interview, error) {
	var iv interview.Interview
	var status string
	var plan, followUpIDs, metadata []byte

	err := row.Scan(
		&iv.ID, &iv.CandidateID, &plan, &iv.CurrentIndex, &followUpIDs,
		&iv.CurrentParentQuestionID, &iv.CurrentFollowupCount, &status, &metadata,
		&iv.CreatedAt, &iv.UpdatedAt, &iv.StartedAt, &iv.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	iv.Status = interview.Status(status)

	if err := json.Unmarshal(plan, &iv.Plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	if err := json.Unmarshal(followUpIDs, &iv.FollowUpIDs); err != nil {
		return nil, fmt.Errorf("unmarshal follow_up_ids: %w", err)
	}
	if err := json.Unmarshal(metadata, &iv.PlanMetadata); err != nil {
		return nil, fmt.Errorf("unmarshal plan_metadata: %w", err)
	}
	if err := rehydrateCompletionSummary(iv.PlanMetadata); err != nil {
		return nil, fmt.Errorf("unmarshal completion_summary: %w", err)
	}
	return &iv, nil
}

// rehydrateCompletionSummary re-decodes plan_metadata's "completion_summary"
// entry into *interview.CompletionSummary. A generic map[string]any
// unmarshal leaves it as map[string]interface{}; the aggregate's
// CompletionSummaryValue type-asserts the concrete type, so the
// persistence layer restores it here rather than widening that contract.
func rehydrateCompletionSummary(metadata map[string]any) error {
	raw, ok := metadata["completion_summary"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var summary interview.CompletionSummary
	if err := json.Unmarshal(encoded, &summary); err != nil {
		return err
	}
	metadata["completion_summary"] = &summary
	return nil
}
