package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

// MemoryStore keeps interviews, messages and usage in process memory. It
// honours the same version and token-uniqueness rules as Repository and is
// used by tests and by the server when no database URL is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	interviews map[int64]*model.Interview
	messages   map[int64][]model.Message
	usage      []model.LLMUsage
	nextID     int64
	nextMsgID  int64
	nextUseID  int64
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		interviews: make(map[int64]*model.Interview),
		messages:   make(map[int64][]model.Message),
		now:        time.Now,
	}
}

func (s *MemoryStore) CreateInterview(_ context.Context, iv *model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now()
	iv.InterviewID = s.nextID
	iv.Version = 1
	iv.CreatedAt = now
	iv.UpdatedAt = now
	s.interviews[iv.InterviewID] = iv.Clone()
	return nil
}

func (s *MemoryStore) GetInterview(_ context.Context, interviewID int64) (*model.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iv, ok := s.interviews[interviewID]
	if !ok {
		return nil, interview.ErrNotFound
	}
	return iv.Clone(), nil
}

func (s *MemoryStore) GetInterviewByToken(_ context.Context, token string) (*model.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, iv := range s.interviews {
		if iv.CandidateLinkToken != nil && *iv.CandidateLinkToken == token {
			return iv.Clone(), nil
		}
	}
	return nil, interview.ErrNotFound
}

func (s *MemoryStore) ListInterviews(_ context.Context, limit, offset int) ([]model.Interview, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*model.Interview, 0, len(s.interviews))
	for _, iv := range s.interviews {
		all = append(all, iv)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].InterviewID > all[j].InterviewID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	out := []model.Interview{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, *all[i].Clone())
	}
	return out, len(all), nil
}

func (s *MemoryStore) DeleteInterview(_ context.Context, interviewID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.interviews[interviewID]; !ok {
		return interview.ErrNotFound
	}
	delete(s.interviews, interviewID)
	delete(s.messages, interviewID)

	kept := s.usage[:0]
	for _, u := range s.usage {
		if u.InterviewID == nil || *u.InterviewID != interviewID {
			kept = append(kept, u)
		}
	}
	s.usage = kept
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, interviewID int64) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Message{}, s.messages[interviewID]...), nil
}

func (s *MemoryStore) Save(_ context.Context, iv *model.Interview, msgs ...*model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.interviews[iv.InterviewID]
	if !ok {
		return interview.ErrNotFound
	}
	if cur.Version != iv.Version {
		return interview.ErrConflict
	}
	if iv.CandidateLinkToken != nil {
		for id, other := range s.interviews {
			if id != iv.InterviewID && other.CandidateLinkToken != nil &&
				*other.CandidateLinkToken == *iv.CandidateLinkToken {
				return interview.ErrDuplicateToken
			}
		}
	}

	now := s.now()
	iv.Version++
	iv.UpdatedAt = now
	s.interviews[iv.InterviewID] = iv.Clone()

	for _, m := range msgs {
		s.nextMsgID++
		m.MessageID = s.nextMsgID
		m.InterviewID = iv.InterviewID
		m.CreatedAt = now
		s.messages[iv.InterviewID] = append(s.messages[iv.InterviewID], *m)
	}
	return nil
}

func (s *MemoryStore) RecordUsage(_ context.Context, u *model.LLMUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUseID++
	u.UsageID = s.nextUseID
	u.CreatedAt = s.now()
	s.usage = append(s.usage, *u)
	return nil
}

func (s *MemoryStore) CostBreakdown(_ context.Context, interviewID int64) (*model.CostBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &model.CostBreakdown{InterviewID: interviewID, ByAgent: map[string]model.AgentCost{}}
	var calls int
	for _, u := range s.usage {
		if u.InterviewID == nil || *u.InterviewID != interviewID {
			continue
		}
		c := out.ByAgent[u.AgentName]
		c.Calls++
		c.Tokens += u.TotalTokens
		c.Cost += u.EstimatedCost
		if u.Cached {
			c.Cached++
			out.CacheHits++
		}
		out.ByAgent[u.AgentName] = c
		out.TotalCost += u.EstimatedCost
		out.TotalTokens += u.TotalTokens
		calls++
	}
	out.CacheMisses = calls - out.CacheHits
	out.CacheHitRate = model.HitRate(int64(out.CacheHits), int64(out.CacheMisses))
	return out, nil
}

func (s *MemoryStore) CostStats(_ context.Context) (*model.CostStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st model.CostStats
	for _, u := range s.usage {
		st.TotalCalls++
		st.TotalTokens += u.TotalTokens
		st.TotalCost += u.EstimatedCost
		if u.Cached {
			st.CacheHits++
		}
	}
	st.CacheMisses = st.TotalCalls - st.CacheHits
	st.CacheHitRate = model.HitRate(int64(st.CacheHits), int64(st.CacheMisses))
	return &st, nil
}
