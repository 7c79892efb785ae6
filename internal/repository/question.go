package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quizleague/match-server-go/internal/model"
)

// QuestionRepository is the read-only view of the question catalog. Content
// authoring happens elsewhere; the core only snapshots from it.
type QuestionRepository interface {
	FetchAll(ctx context.Context) ([]model.Question, error)
}

type questionRepo struct {
	db sessionDB
}

func NewQuestionRepository(db *sqlx.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) FetchAll(ctx context.Context) ([]model.Question, error) {
	questions := []model.Question{}
	err := r.db.SelectContext(ctx, &questions, `
		SELECT * FROM questions
	`)
	if err != nil {
		return nil, err
	}
	return questions, nil
}
