package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

// StatsController provides platform wide counts for the dashboard.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// PlatformStats is the response of GetStats.
type PlatformStats struct {
	UserCount   int64 `json:"user_count"`
	UnionCount  int64 `json:"union_count"`
	PostCount   int64 `json:"post_count"`
	PollCount   int64 `json:"poll_count"`
	EventCount  int64 `json:"event_count"`
	MemberCount int64 `json:"membership_count"`
}

// GetStats returns aggregate counts. A failing count reports 0 rather than failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var stats PlatformStats
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &stats.UserCount},
		{&models.Union{}, &stats.UnionCount},
		{&models.Post{}, &stats.PostCount},
		{&models.Poll{}, &stats.PollCount},
		{&models.Event{}, &stats.EventCount},
		{&models.UnionMembership{}, &stats.MemberCount},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dest).Error; err != nil {
			utils.Sugar.Warnw("stats count failed", "model", c.model, "err", err)
			*c.dest = 0
		}
	}
	utils.Success(ctx, stats)
}
