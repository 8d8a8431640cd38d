package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"urgency-engine/internal/domain"
)

const defaultLeaderboardLimit = 10

// LeaderboardService is the ranking surface the HTTP layer consumes.
type LeaderboardService interface {
	GetLeaderboard(limit int) []domain.LeaderboardEntry
	GetStreakLeaders(limit int) []domain.UserScore
	GetResponseTimeLeaders(limit int) []domain.UserScore
	GetGlobalStats() domain.GlobalStats
	GetUserScore(userID string) (domain.UserScore, error)
	SaveSnapshot(ctx context.Context)
}

type LeaderboardHandler struct {
	service LeaderboardService
}

func NewLeaderboardHandler(service LeaderboardService) (*LeaderboardHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("leaderboard service is required")
	}
	return &LeaderboardHandler{service: service}, nil
}

func RegisterLeaderboardRoutes(router fiber.Router, service LeaderboardService) error {
	h, err := NewLeaderboardHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/leaderboard", h.GetLeaderboard)
	v1.Get("/leaderboard/streaks", h.GetStreakLeaders)
	v1.Get("/leaderboard/speed", h.GetResponseTimeLeaders)
	v1.Get("/leaderboard/stats", h.GetGlobalStats)
	v1.Post("/leaderboard/snapshot", h.SaveSnapshot)
	v1.Get("/users/:userId/score", h.GetUserScore)

	return nil
}

type userScoreResponse struct {
	UserID                 string    `json:"userId"`
	DisplayName            string    `json:"displayName"`
	TotalNotifications     int       `json:"totalNotifications"`
	RespondedNotifications int       `json:"respondedNotifications"`
	AverageResponseTimeMs  float64   `json:"averageResponseTimeMs"`
	Score                  int       `json:"score"`
	Streak                 int       `json:"streak"`
	Rank                   int       `json:"rank"`
	LastActiveAt           time.Time `json:"lastActiveAt"`
}

type leaderboardEntryResponse struct {
	Rank   int               `json:"rank"`
	User   userScoreResponse `json:"user"`
	Trend  string            `json:"trend"`
	Change int               `json:"change"`
}

type globalStatsResponse struct {
	TotalUsers            int     `json:"totalUsers"`
	TotalNotifications    int     `json:"totalNotifications"`
	TotalResponded        int     `json:"totalResponded"`
	ResponseRate          float64 `json:"responseRate"`
	AverageResponseTimeMs float64 `json:"averageResponseTimeMs"`
	HighestScore          int     `json:"highestScore"`
	LongestStreak         int     `json:"longestStreak"`
}

func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	entries := h.service.GetLeaderboard(parseLimit(c))
	responses := make([]leaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, leaderboardEntryResponse{
			Rank:   entry.Rank,
			User:   toUserScoreResponse(entry.User),
			Trend:  entry.Trend.String(),
			Change: entry.Change,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *LeaderboardHandler) GetStreakLeaders(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": toUserScoreResponses(h.service.GetStreakLeaders(parseLimit(c)))})
}

func (h *LeaderboardHandler) GetResponseTimeLeaders(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": toUserScoreResponses(h.service.GetResponseTimeLeaders(parseLimit(c)))})
}

func (h *LeaderboardHandler) GetGlobalStats(c *fiber.Ctx) error {
	stats := h.service.GetGlobalStats()
	return c.Status(fiber.StatusOK).JSON(globalStatsResponse{
		TotalUsers:            stats.TotalUsers,
		TotalNotifications:    stats.TotalNotifications,
		TotalResponded:        stats.TotalResponded,
		ResponseRate:          stats.ResponseRate,
		AverageResponseTimeMs: stats.AverageResponseTimeMs,
		HighestScore:          stats.HighestScore,
		LongestStreak:         stats.LongestStreak,
	})
}

func (h *LeaderboardHandler) SaveSnapshot(c *fiber.Ctx) error {
	h.service.SaveSnapshot(c.Context())
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LeaderboardHandler) GetUserScore(c *fiber.Ctx) error {
	score, err := h.service.GetUserScore(strings.TrimSpace(c.Params("userId")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toUserScoreResponse(score))
}

func parseLimit(c *fiber.Ctx) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLeaderboardLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLeaderboardLimit
	}
	return limit
}

func toUserScoreResponses(scores []domain.UserScore) []userScoreResponse {
	responses := make([]userScoreResponse, 0, len(scores))
	for _, score := range scores {
		responses = append(responses, toUserScoreResponse(score))
	}
	return responses
}

func toUserScoreResponse(s domain.UserScore) userScoreResponse {
	return userScoreResponse{
		UserID:                 s.UserID,
		DisplayName:            s.DisplayName,
		TotalNotifications:     s.TotalNotifications,
		RespondedNotifications: s.RespondedNotifications,
		AverageResponseTimeMs:  s.AverageResponseTimeMs,
		Score:                  s.Score,
		Streak:                 s.Streak,
		Rank:                   s.Rank,
		LastActiveAt:           s.LastActiveAt,
	}
}
