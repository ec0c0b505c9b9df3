// Package vector adapts OpenAI embeddings plus PostgreSQL's pgvector
// extension to ports.VectorPort: text is embedded via OpenAI, and the
// cosine distance between the two embeddings is computed by Postgres
// itself (the <=> operator) rather than re-implemented in Go, so the
// same extension that would back a similarity-search index is
// exercised for this single-pair comparison too.
package vector

import (
	"context"
	"fmt"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pgvector/pgvector-go"
)

// Config configures the embeddings model and the database used to
// evaluate the pgvector cosine-distance operator.
type Config struct {
	APIKey string
	Model  string
}

// Adapter implements ports.VectorPort.
type Adapter struct {
	sdk   openai.Client
	model string
	pool  *pgxpool.Pool
}

// New constructs an Adapter. Model defaults to text-embedding-3-small.
func New(cfg Config, pool *pgxpool.Pool) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vector: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Adapter{
		sdk:   openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model: model,
		pool:  pool,
	}, nil
}

// CosineSimilarity embeds reference and candidate, then asks Postgres
// for their cosine similarity via pgvector's <=> distance operator.
// The interview package's SimilarityFloor is the caller's job to apply;
// this adapter returns the raw [0,1] measurement.
func (a *Adapter) CosineSimilarity(ctx context.Context, reference, candidate string) (float64, error) {
	vectors, err := a.embed(ctx, []string{reference, candidate})
	if err != nil {
		return 0, fmt.Errorf("vector: embed: %w", err)
	}

	ref := pgvector.NewVector(vectors[0])
	cand := pgvector.NewVector(vectors[1])

	var cosineDistance float64
	err = adapters.WithRetry(ctx, func() error {
		row := a.pool.QueryRow(ctx, `SELECT $1::vector <=> $2::vector`, ref, cand)
		if err := row.Scan(&cosineDistance); err != nil {
			return &ports.TransientError{Adapter: "vector", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("vector: cosine distance query: %w", err)
	}

	similarity := 1.0 - cosineDistance
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return similarity, nil
}

func (a *Adapter) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: a.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}

	var vectors [][]float32
	err := adapters.WithRetry(ctx, func() error {
		resp, err := a.sdk.Embeddings.New(ctx, params)
		if err != nil {
			return &ports.TransientError{Adapter: "vector", Err: err}
		}
		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = make([]float32, len(d.Embedding))
			for j, v := range d.Embedding {
				vectors[i][j] = float32(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
