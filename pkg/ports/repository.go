// Package ports declares the repository and external-adapter contracts
// the core depends on (C8, C9 of the design). Concrete implementations
// live under pkg/repository and pkg/adapters; the core never imports
// those packages directly.
package ports

import (
	"context"

	"github.com/candidflow/interviewer/pkg/interview"
)

// Tx is an opaque transaction handle passed between a repository's
// BeginTx and the repository calls that must run within it. C3/C6 pass
// the same Tx to every repository call inside one turn or one
// completion so that Answer+Evaluation, or aggregate+summary, commit
// atomically together.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor begins a transaction. All repositories below accept an
// optional Tx; passing nil runs the call in its own implicit transaction.
type Transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// InterviewRepository is the canonical writer of aggregate state.
// Update must be rejected with *interview.StaleConcurrencyTokenError if
// the row's updated_at no longer matches previousUpdatedAtUnixNano, the
// aggregate's UpdatedAt as it was loaded (optimistic concurrency, per
// spec §6.3).
type InterviewRepository interface {
	Get(ctx context.Context, tx Tx, id string) (*interview.Interview, error)
	Create(ctx context.Context, tx Tx, iv *interview.Interview) error
	Update(ctx context.Context, tx Tx, iv *interview.Interview, previousUpdatedAtUnixNano int64) error
}

// QuestionRepository is a read-only view over the externally-produced
// plan. The core never writes Questions.
type QuestionRepository interface {
	Get(ctx context.Context, tx Tx, id string) (*interview.Question, error)
}

// FollowUpRepository stores FollowUpQuestions, immutable once created.
type FollowUpRepository interface {
	Create(ctx context.Context, tx Tx, fu *interview.FollowUpQuestion) error
	FindByParentQuestion(ctx context.Context, tx Tx, parentQuestionID string) ([]*interview.FollowUpQuestion, error)
}

// AnswerRepository stores Answers. Upsert overwrites a pending answer
// for the same question id (last write wins, per spec §8's round-trip
// property) without creating an orphan Evaluation.
type AnswerRepository interface {
	Upsert(ctx context.Context, tx Tx, a *interview.Answer) error
	FindByInterview(ctx context.Context, tx Tx, interviewID string) ([]*interview.Answer, error)
}

// EvaluationRepository stores Evaluations. Never mutated once created.
type EvaluationRepository interface {
	Create(ctx context.Context, tx Tx, e *interview.Evaluation) error
	FindByInterview(ctx context.Context, tx Tx, interviewID string) ([]*interview.Evaluation, error)
}
