package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

func insertMessages(ctx context.Context, tx pgx.Tx, interviewID int64, msgs []*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const q = `
INSERT INTO messages (
	interview_id, role, content, question_number, difficulty_level,
	answer_quality_score, cheat_certainty, telemetry
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING message_id, created_at
`
	for _, m := range msgs {
		telemetry, err := jsonArg(m.Telemetry)
		if err != nil {
			return fmt.Errorf("encode telemetry: %w", err)
		}
		batch.Queue(q,
			interviewID, m.Role, m.Content, m.QuestionNumber, m.DifficultyLevel,
			m.AnswerQualityScore, m.CheatCertainty, telemetry,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i, m := range msgs {
		if err := br.QueryRow().Scan(&m.MessageID, &m.CreatedAt); err != nil {
			return fmt.Errorf("batch insert message %d: %w", i, err)
		}
		m.InterviewID = interviewID
	}
	return br.Close()
}

func (r *Repository) ListMessages(ctx context.Context, interviewID int64) ([]model.Message, error) {
	const q = `
SELECT message_id, interview_id, role, content, created_at, question_number,
	difficulty_level, answer_quality_score, cheat_certainty, telemetry
FROM messages
WHERE interview_id = $1
ORDER BY created_at ASC, message_id ASC
`
	rows, err := r.db.Query(ctx, q, interviewID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var (
			m         model.Message
			telemetry []byte
		)
		if err := rows.Scan(
			&m.MessageID, &m.InterviewID, &m.Role, &m.Content, &m.CreatedAt, &m.QuestionNumber,
			&m.DifficultyLevel, &m.AnswerQualityScore, &m.CheatCertainty, &telemetry,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.Telemetry, err = jsonScan[model.Telemetry](telemetry); err != nil {
			return nil, fmt.Errorf("decode telemetry: %w", err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}
