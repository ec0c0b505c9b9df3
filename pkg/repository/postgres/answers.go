package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository stores Answers, upserting by question id so a late
// retry for the same question never creates an orphan row (spec §8).
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository constructs a repository over the given pool.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

func (r *AnswerRepository) Upsert(ctx context.Context, tx ports.Tx, a *interview.Answer) error {
	gapConcepts, err := json.Marshal(a.Gaps.Concepts)
	if err != nil {
		return fmt.Errorf("postgres: marshal gap_concepts: %w", err)
	}
	voiceMetrics, err := marshalVoiceMetrics(a.VoiceMetrics)
	if err != nil {
		return fmt.Errorf("postgres: marshal voice_metrics: %w", err)
	}

	_, err = q(r.pool, tx).Exec(ctx, `
		INSERT INTO answers (id, interview_id, question_id, transcript, voice_metrics,
			similarity, gap_concepts, gap_confirmed, evaluation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (question_id) DO UPDATE SET
			id = EXCLUDED.id,
			transcript = EXCLUDED.transcript,
			voice_metrics = EXCLUDED.voice_metrics,
			similarity = EXCLUDED.similarity,
			gap_concepts = EXCLUDED.gap_concepts,
			gap_confirmed = EXCLUDED.gap_confirmed,
			evaluation_id = EXCLUDED.evaluation_id`,
		a.ID, a.InterviewID, a.QuestionID, a.Transcript, voiceMetrics,
		a.Similarity, gapConcepts, a.Gaps.Confirmed, a.EvaluationID)
	if err != nil {
		return fmt.Errorf("postgres: upsert answer %s: %w", a.ID, err)
	}
	return nil
}

func (r *AnswerRepository) FindByInterview(ctx context.Context, tx ports.Tx, interviewID string) ([]*interview.Answer, error) {
	rows, err := q(r.pool, tx).Query(ctx, `
		SELECT id, interview_id, question_id, transcript, voice_metrics, similarity,
			gap_concepts, gap_confirmed, evaluation_id
		FROM answers WHERE interview_id = $1`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find answers for %s: %w", interviewID, err)
	}
	defer rows.Close()

	var result []*interview.Answer
	for rows.Next() {
		var a interview.Answer
		var voiceMetrics []byte
		var gapConcepts []byte
		if err := rows.Scan(&a.ID, &a.InterviewID, &a.QuestionID, &a.Transcript, &voiceMetrics,
			&a.Similarity, &gapConcepts, &a.Gaps.Confirmed, &a.EvaluationID); err != nil {
			return nil, fmt.Errorf("postgres: scan answer: %w", err)
		}
		if err := json.Unmarshal(gapConcepts, &a.Gaps.Concepts); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal gap_concepts: %w", err)
		}
		vm, err := unmarshalVoiceMetrics(voiceMetrics)
		if err != nil {
			return nil, fmt.Errorf("postgres: unmarshal voice_metrics: %w", err)
		}
		a.VoiceMetrics = vm
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate answers: %w", err)
	}
	return result, nil
}

func marshalVoiceMetrics(v *interview.VoiceMetrics) ([]byte, error) {
	if v == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(v)
}

func unmarshalVoiceMetrics(data []byte) (*interview.VoiceMetrics, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var v interview.VoiceMetrics
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
