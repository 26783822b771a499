package model

import "time"

type LLMUsage struct {
	UsageID          int64     `json:"usage_id" db:"usage_id"`
	InterviewID      *int64    `json:"interview_id,omitempty" db:"interview_id"`
	AgentName        string    `json:"agent_name" db:"agent_name"`
	Model            string    `json:"model" db:"model"`
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	EstimatedCost    float64   `json:"estimated_cost" db:"estimated_cost"`
	Cached           bool      `json:"cached" db:"cached"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type AgentCost struct {
	Calls  int     `json:"calls"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
	Cached int     `json:"cached"`
}

type CostBreakdown struct {
	InterviewID  int64                `json:"interview_id"`
	TotalCost    float64              `json:"total_cost"`
	TotalTokens  int                  `json:"total_tokens"`
	CacheHits    int                  `json:"cache_hits"`
	CacheMisses  int                  `json:"cache_misses"`
	CacheHitRate float64              `json:"cache_hit_rate"`
	ByAgent      map[string]AgentCost `json:"by_agent"`
}

type CostStats struct {
	TotalCost    float64 `json:"total_cost"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCalls   int     `json:"total_calls"`
	CacheHits    int     `json:"cache_hits"`
	CacheMisses  int     `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

type CacheStats struct {
	Size    int64   `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// HitRate returns hits as a percentage of lookups, rounded to two decimals.
func HitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(int64(float64(hits)/float64(total)*10000+0.5)) / 100
}
