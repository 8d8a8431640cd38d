package repository

import (
	"sort"
	"sync"

	"urgency-engine/internal/domain"
)

// ScoreRepository is the user score table. Apply runs a mutation and the
// rank recomputation under one lock so observers never see a half-ranked
// table.
type ScoreRepository interface {
	Apply(userID, displayName string, mutate func(*domain.UserScore)) domain.UserScore
	Get(userID string) (*domain.UserScore, error)
	All() []domain.UserScore
}

type MemoryScoreRepo struct {
	mu     sync.Mutex
	scores map[string]*domain.UserScore
}

func NewMemoryScoreRepo() *MemoryScoreRepo {
	return &MemoryScoreRepo{scores: make(map[string]*domain.UserScore)}
}

// Apply creates the record lazily, runs the mutation, then reassigns dense
// ranks across the whole table. Returns a copy of the mutated record.
func (r *MemoryScoreRepo) Apply(userID, displayName string, mutate func(*domain.UserScore)) domain.UserScore {
	r.mu.Lock()
	defer r.mu.Unlock()

	score, ok := r.scores[userID]
	if !ok {
		score = &domain.UserScore{UserID: userID, DisplayName: displayName}
		r.scores[userID] = score
	}
	if score.DisplayName == "" && displayName != "" {
		score.DisplayName = displayName
	}

	mutate(score)

	ranked := make([]*domain.UserScore, 0, len(r.scores))
	for _, s := range r.scores {
		ranked = append(ranked, s)
	}
	domain.RankScores(ranked)

	return *score
}

func (r *MemoryScoreRepo) Get(userID string) (*domain.UserScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	score, ok := r.scores[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *score
	return &copied, nil
}

// All returns a rank-ordered snapshot of the table.
func (r *MemoryScoreRepo) All() []domain.UserScore {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.UserScore, 0, len(r.scores))
	for _, score := range r.scores {
		all = append(all, *score)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Rank < all[j].Rank })
	return all
}
