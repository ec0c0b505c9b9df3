package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository is a read-only view over the externally-produced
// plan (spec §1: the core never writes Questions).
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository constructs a repository over the given pool.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Upsert writes a question fetched from the upstream planning
// collaborator (ports.QuestionPlanPort) into storage so later Gets can
// resolve it by id. Not part of ports.QuestionRepository — the core
// never writes Questions; only the API bootstrap handler calls this,
// against the concrete type.
func (r *QuestionRepository) Upsert(ctx context.Context, tx ports.Tx, question *interview.Question) error {
	skillTags, err := json.Marshal(question.SkillTags)
	if err != nil {
		return fmt.Errorf("postgres: marshal skill_tags: %w", err)
	}

	_, err = q(r.pool, tx).Exec(ctx, `
		INSERT INTO questions (id, prompt, ideal_answer, difficulty, skill_tags, rationale, tts_ready)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			prompt = EXCLUDED.prompt,
			ideal_answer = EXCLUDED.ideal_answer,
			difficulty = EXCLUDED.difficulty,
			skill_tags = EXCLUDED.skill_tags,
			rationale = EXCLUDED.rationale,
			tts_ready = EXCLUDED.tts_ready`,
		question.ID, question.Prompt, question.IdealAnswer, question.Difficulty,
		skillTags, question.Rationale, question.TTSReady)
	if err != nil {
		return fmt.Errorf("postgres: upsert question %s: %w", question.ID, err)
	}
	return nil
}

func (r *QuestionRepository) Get(ctx context.Context, tx ports.Tx, id string) (*interview.Question, error) {
	row := q(r.pool, tx).QueryRow(ctx,
		`SELECT id, prompt, ideal_answer, difficulty, skill_tags, rationale, tts_ready
		 FROM questions WHERE id = $1`, id)

	var question interview.Question
	var skillTags []byte
	if err := row.Scan(&question.ID, &question.Prompt, &question.IdealAnswer,
		&question.Difficulty, &skillTags, &question.Rationale, &question.TTSReady); err != nil {
		return nil, fmt.Errorf("postgres: get question %s: %w", id, err)
	}
	if err := json.Unmarshal(skillTags, &question.SkillTags); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal skill_tags: %w", err)
	}
	return &question, nil
}
