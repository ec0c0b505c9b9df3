package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowUpRepository stores immutable FollowUpQuestions.
type FollowUpRepository struct {
	pool *pgxpool.Pool
}

// NewFollowUpRepository constructs a repository over the given pool.
func NewFollowUpRepository(pool *pgxpool.Pool) *FollowUpRepository {
	return &FollowUpRepository{pool: pool}
}

func (r *FollowUpRepository) Create(ctx context.Context, tx ports.Tx, fu *interview.FollowUpQuestion) error {
	reason, err := json.Marshal(fu.GeneratingReason)
	if err != nil {
		return fmt.Errorf("postgres: marshal generating_reason: %w", err)
	}

	_, err = q(r.pool, tx).Exec(ctx, `
		INSERT INTO follow_up_questions (id, interview_id, parent_question_id, prompt,
			order_in_sequence, generating_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		fu.ID, fu.InterviewID, fu.ParentQuestionID, fu.Prompt,
		fu.OrderInSequence, reason, fu.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create follow-up %s: %w", fu.ID, err)
	}
	return nil
}

func (r *FollowUpRepository) FindByParentQuestion(ctx context.Context, tx ports.Tx, parentQuestionID string) ([]*interview.FollowUpQuestion, error) {
	rows, err := q(r.pool, tx).Query(ctx, `
		SELECT id, interview_id, parent_question_id, prompt, order_in_sequence, generating_reason, created_at
		FROM follow_up_questions WHERE parent_question_id = $1 ORDER BY order_in_sequence ASC`, parentQuestionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find follow-ups for %s: %w", parentQuestionID, err)
	}
	defer rows.Close()

	var result []*interview.FollowUpQuestion
	for rows.Next() {
		var fu interview.FollowUpQuestion
		var reason []byte
		if err := rows.Scan(&fu.ID, &fu.InterviewID, &fu.ParentQuestionID, &fu.Prompt,
			&fu.OrderInSequence, &reason, &fu.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan follow-up: %w", err)
		}
		if err := json.Unmarshal(reason, &fu.GeneratingReason); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal generating_reason: %w", err)
		}
		result = append(result, &fu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate follow-ups: %w", err)
	}
	return result, nil
}
