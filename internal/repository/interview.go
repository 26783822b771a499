package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const interviewColumns = `
	interview_id, status, target_questions, difficulty_level, match_analysis,
	candidate_link_token, token_expires_at, report, resume_enc, role_enc,
	job_offering_enc, version, created_at, updated_at`

func (r *Repository) CreateInterview(ctx context.Context, iv *model.Interview) error {
	const q = `
INSERT INTO interviews (status, target_questions, difficulty_level)
VALUES ($1, $2, $3)
RETURNING interview_id, version, created_at, updated_at
`
	row := r.db.QueryRow(ctx, q, iv.Status, iv.TargetQuestions, iv.DifficultyLevel)
	if err := row.Scan(&iv.InterviewID, &iv.Version, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (r *Repository) GetInterview(ctx context.Context, interviewID int64) (*model.Interview, error) {
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE interview_id = $1`
	return r.getInterview(ctx, q, interviewID)
}

func (r *Repository) GetInterviewByToken(ctx context.Context, token string) (*model.Interview, error) {
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE candidate_link_token = $1`
	return r.getInterview(ctx, q, token)
}

func (r *Repository) getInterview(ctx context.Context, q string, arg any) (*model.Interview, error) {
	iv, err := r.scanInterview(r.db.QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interview.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan interview: %w", err)
	}
	return iv, nil
}

func (r *Repository) scanInterview(row pgx.Row) (*model.Interview, error) {
	var (
		iv                        model.Interview
		analysis, report          []byte
		resume, role, jobOffering *string
	)
	err := row.Scan(
		&iv.InterviewID, &iv.Status, &iv.TargetQuestions, &iv.DifficultyLevel, &analysis,
		&iv.CandidateLinkToken, &iv.TokenExpiresAt, &report, &resume, &role,
		&jobOffering, &iv.Version, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if iv.MatchAnalysis, err = jsonScan[model.MatchAnalysis](analysis); err != nil {
		return nil, fmt.Errorf("decode match analysis: %w", err)
	}
	if iv.Report, err = jsonScan[model.FinalReport](report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if iv.Documents.Resume, err = r.decrypt(resume); err != nil {
		return nil, fmt.Errorf("decrypt resume: %w", err)
	}
	if iv.Documents.Role, err = r.decrypt(role); err != nil {
		return nil, fmt.Errorf("decrypt role: %w", err)
	}
	if iv.Documents.JobOffering, err = r.decrypt(jobOffering); err != nil {
		return nil, fmt.Errorf("decrypt job offering: %w", err)
	}
	return &iv, nil
}

func (r *Repository) ListInterviews(ctx context.Context, limit, offset int) ([]model.Interview, int, error) {
	var total int
	const countQ = `SELECT COUNT(1) FROM interviews`
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count interviews: %w", err)
	}

	q := `SELECT ` + interviewColumns + ` FROM interviews ORDER BY created_at DESC, interview_id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query interviews: %w", err)
	}
	defer rows.Close()

	out := make([]model.Interview, 0, limit)
	for rows.Next() {
		iv, err := r.scanInterview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan interview row: %w", err)
		}
		out = append(out, *iv)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, total, nil
}

// DeleteInterview removes the interview; messages and usage rows cascade.
func (r *Repository) DeleteInterview(ctx context.Context, interviewID int64) error {
	const q = `DELETE FROM interviews WHERE interview_id = $1`
	tag, err := r.db.Exec(ctx, q, interviewID)
	if err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return interview.ErrNotFound
	}
	return nil
}

// Save updates the interview row under an optimistic version check and
// appends msgs in the same transaction.
func (r *Repository) Save(ctx context.Context, iv *model.Interview, msgs ...*model.Message) error {
	analysis, err := jsonArg(iv.MatchAnalysis)
	if err != nil {
		return fmt.Errorf("encode match analysis: %w", err)
	}
	report, err := jsonArg(iv.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	resume, err := r.encrypt(iv.Documents.Resume)
	if err != nil {
		return fmt.Errorf("encrypt resume: %w", err)
	}
	role, err := r.encrypt(iv.Documents.Role)
	if err != nil {
		return fmt.Errorf("encrypt role: %w", err)
	}
	jobOffering, err := r.encrypt(iv.Documents.JobOffering)
	if err != nil {
		return fmt.Errorf("encrypt job offering: %w", err)
	}

	return r.execTx(ctx, func(tx pgx.Tx) error {
		const q = `
UPDATE interviews SET
	status = $1, match_analysis = $2, candidate_link_token = $3, token_expires_at = $4,
	report = $5, resume_enc = $6, role_enc = $7, job_offering_enc = $8,
	version = version + 1, updated_at = now()
WHERE interview_id = $9 AND version = $10
RETURNING version, updated_at
`
		err := tx.QueryRow(ctx, q,
			iv.Status, analysis, iv.CandidateLinkToken, iv.TokenExpiresAt,
			report, resume, role, jobOffering,
			iv.InterviewID, iv.Version,
		).Scan(&iv.Version, &iv.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrConflict(ctx, tx, iv.InterviewID)
		}
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return interview.ErrDuplicateToken
			}
			return fmt.Errorf("update interview: %w", err)
		}

		return insertMessages(ctx, tx, iv.InterviewID, msgs)
	})
}

func (r *Repository) missingOrConflict(ctx context.Context, tx pgx.Tx, interviewID int64) error {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM interviews WHERE interview_id = $1)`
	if err := tx.QueryRow(ctx, q, interviewID).Scan(&exists); err != nil {
		return fmt.Errorf("check interview exists: %w", err)
	}
	if !exists {
		return interview.ErrNotFound
	}
	return interview.ErrConflict
}
