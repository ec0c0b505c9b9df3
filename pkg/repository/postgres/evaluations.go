package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EvaluationRepository stores immutable Evaluations.
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository constructs a repository over the given pool.
func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

func (r *EvaluationRepository) Create(ctx context.Context, tx ports.Tx, e *interview.Evaluation) error {
	strengths, err := json.Marshal(e.Strengths)
	if err != nil {
		return fmt.Errorf("postgres: marshal strengths: %w", err)
	}
	weaknesses, err := json.Marshal(e.Weaknesses)
	if err != nil {
		return fmt.Errorf("postgres: marshal weaknesses: %w", err)
	}
	voiceMetrics, err := marshalVoiceMetrics(e.VoiceMetrics)
	if err != nil {
		return fmt.Errorf("postgres: marshal voice_metrics: %w", err)
	}

	_, err = q(r.pool, tx).Exec(ctx, `
		INSERT INTO evaluations (id, answer_id, question_id, interview_id, raw_score,
			final_score, completeness, relevance, sentiment, reasoning, strengths,
			weaknesses, voice_metrics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.AnswerID, e.QuestionID, e.InterviewID, e.RawScore,
		e.FinalScore, e.Completeness, e.Relevance, e.Sentiment, e.Reasoning,
		strengths, weaknesses, voiceMetrics, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create evaluation %s: %w", e.ID, err)
	}
	return nil
}

func (r *EvaluationRepository) FindByInterview(ctx context.Context, tx ports.Tx, interviewID string) ([]*interview.Evaluation, error) {
	rows, err := q(r.pool, tx).Query(ctx, `
		SELECT id, answer_id, question_id, interview_id, raw_score, final_score,
			completeness, relevance, sentiment, reasoning, strengths, weaknesses,
			voice_metrics, created_at
		FROM evaluations WHERE interview_id = $1`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find evaluations for %s: %w", interviewID, err)
	}
	defer rows.Close()

	var result []*interview.Evaluation
	for rows.Next() {
		var e interview.Evaluation
		var strengths, weaknesses, voiceMetrics []byte
		if err := rows.Scan(&e.ID, &e.AnswerID, &e.QuestionID, &e.InterviewID, &e.RawScore,
			&e.FinalScore, &e.Completeness, &e.Relevance, &e.Sentiment, &e.Reasoning,
			&strengths, &weaknesses, &voiceMetrics, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan evaluation: %w", err)
		}
		if err := json.Unmarshal(strengths, &e.Strengths); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal strengths: %w", err)
		}
		if err := json.Unmarshal(weaknesses, &e.Weaknesses); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal weaknesses: %w", err)
		}
		vm, err := unmarshalVoiceMetrics(voiceMetrics)
		if err != nil {
			return nil, fmt.Errorf("postgres: unmarshal voice_metrics: %w", err)
		}
		e.VoiceMetrics = vm
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate evaluations: %w", err)
	}
	return result, nil
}
