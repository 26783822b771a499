package repository

import (
	"context"
	"fmt"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

func (r *Repository) RecordUsage(ctx context.Context, u *model.LLMUsage) error {
	const q = `
INSERT INTO llm_usage (
	interview_id, agent_name, model, prompt_tokens, completion_tokens,
	total_tokens, estimated_cost, cached
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING usage_id, created_at
`
	row := r.db.QueryRow(ctx, q,
		u.InterviewID, u.AgentName, u.Model, u.PromptTokens, u.CompletionTokens,
		u.TotalTokens, u.EstimatedCost, u.Cached,
	)
	if err := row.Scan(&u.UsageID, &u.CreatedAt); err != nil {
		return fmt.Errorf("insert llm usage: %w", err)
	}
	return nil
}

func (r *Repository) CostBreakdown(ctx context.Context, interviewID int64) (*model.CostBreakdown, error) {
	const q = `
SELECT agent_name, COUNT(1), COALESCE(SUM(total_tokens), 0),
	COALESCE(SUM(estimated_cost), 0), COUNT(1) FILTER (WHERE cached)
FROM llm_usage
WHERE interview_id = $1
GROUP BY agent_name
`
	rows, err := r.db.Query(ctx, q, interviewID)
	if err != nil {
		return nil, fmt.Errorf("query cost breakdown: %w", err)
	}
	defer rows.Close()

	out := &model.CostBreakdown{InterviewID: interviewID, ByAgent: map[string]model.AgentCost{}}
	var calls int
	for rows.Next() {
		var (
			agent string
			c     model.AgentCost
		)
		if err := rows.Scan(&agent, &c.Calls, &c.Tokens, &c.Cost, &c.Cached); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		out.ByAgent[agent] = c
		out.TotalCost += c.Cost
		out.TotalTokens += c.Tokens
		out.CacheHits += c.Cached
		calls += c.Calls
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	out.CacheMisses = calls - out.CacheHits
	out.CacheHitRate = model.HitRate(int64(out.CacheHits), int64(out.CacheMisses))
	return out, nil
}

func (r *Repository) CostStats(ctx context.Context) (*model.CostStats, error) {
	const q = `
SELECT COUNT(1), COALESCE(SUM(total_tokens), 0), COALESCE(SUM(estimated_cost), 0),
	COUNT(1) FILTER (WHERE cached)
FROM llm_usage
`
	var s model.CostStats
	if err := r.db.QueryRow(ctx, q).Scan(&s.TotalCalls, &s.TotalTokens, &s.TotalCost, &s.CacheHits); err != nil {
		return nil, fmt.Errorf("query cost stats: %w", err)
	}
	s.CacheMisses = s.TotalCalls - s.CacheHits
	s.CacheHitRate = model.HitRate(int64(s.CacheHits), int64(s.CacheMisses))
	return &s, nil
}
