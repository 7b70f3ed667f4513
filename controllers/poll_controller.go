package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

const (
	pollResultsCachePrefix = "cache:polls:results:"
	pollVersionCachePrefix = "cache:polls:version:"
)

var (
	errPollNotFound   = errors.New("poll not found")
	errOptionNotFound = errors.New("option not found for poll")
	errAlreadyVoted   = errors.New("user already voted in poll")
)

// PollController manages polls, their options and votes.
type PollController struct {
	db    *gorm.DB
	cache *utils.Cache
}

// NewPollController creates a new PollController instance.
func NewPollController(db *gorm.DB, cache *utils.Cache) *PollController {
	return &PollController{db: db, cache: cache}
}

// pollOptionInput accepts either {"text": "..."} or a bare string.
type pollOptionInput struct {
	Text string `json:"text"`
}

func (o *pollOptionInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Text = s
		return nil
	}
	type plain pollOptionInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = pollOptionInput(p)
	return nil
}

// CreatePoll creates a poll with at least two options.
func (p *PollController) CreatePoll(ctx *gin.Context) {
	var req struct {
		Question string            `json:"question" binding:"required"`
		UnionID  *uint             `json:"union_id"`
		Options  []pollOptionInput `json:"options"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	question := utils.Sanitize(req.Question)
	if question == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "question cannot be empty")
		return
	}
	if len(req.Options) < models.MinPollOptions {
		utils.Error(ctx, http.StatusBadRequest, 40052, "A poll requires at least two options")
		return
	}
	options := make([]models.PollOption, 0, len(req.Options))
	for _, o := range req.Options {
		text := utils.Sanitize(o.Text)
		if text == "" {
			utils.Error(ctx, http.StatusBadRequest, 40053, "option text cannot be empty")
			return
		}
		options = append(options, models.PollOption{Text: text})
	}

	poll := models.Poll{Question: question, UnionID: req.UnionID}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if poll.UnionID != nil {
			var union models.Union
			if err := lockShared(tx, &union, *poll.UnionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errUnionNotFound
				}
				return err
			}
		}
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].PollID = poll.ID
			if err := tx.Create(&options[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errUnionNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	if err != nil {
		internalError(ctx, 50050, "create poll failed", err)
		return
	}

	poll.Options = options
	utils.Success(ctx, poll)
}

// ListPolls returns polls newest first, with their options.
func (p *PollController) ListPolls(ctx *gin.Context) {
	skip, limit := parsePagination(ctx, 50)
	var polls []models.Poll
	err := p.db.Order("created_at DESC").Order("id DESC").Offset(skip).Limit(limit).Find(&polls).Error
	if err != nil {
		internalError(ctx, 50051, "list polls failed", err)
		return
	}
	if err := p.attachOptions(polls); err != nil {
		internalError(ctx, 50052, "load poll options failed", err)
		return
	}
	if polls == nil {
		polls = []models.Poll{}
	}
	utils.Success(ctx, polls)
}

// GetPoll returns a poll with its options.
func (p *PollController) GetPoll(ctx *gin.Context) {
	poll, ok := p.loadPoll(ctx)
	if !ok {
		return
	}
	polls := []models.Poll{poll}
	if err := p.attachOptions(polls); err != nil {
		internalError(ctx, 50052, "load poll options failed", err)
		return
	}
	utils.Success(ctx, polls[0])
}

// DeletePoll removes a poll with its options and votes.
func (p *PollController) DeletePoll(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
		return
	}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var poll models.Poll
		if err := tx.First(&poll, id).Error; err != nil {
			return err
		}
		return deletePolls(tx, []uint{id})
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
		return
	}
	if err != nil {
		internalError(ctx, 50053, "delete poll failed", err)
		return
	}
	p.cache.Delete(ctx.Request.Context(), versionCacheKey(id))
	p.cache.InvalidateByPrefix(ctx.Request.Context(), fmt.Sprintf("%s%d:", pollResultsCachePrefix, id))
	utils.Message(ctx, "Poll deleted")
}

// Vote records the caller's single vote in a poll and returns the updated tally.
func (p *PollController) Vote(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
		return
	}
	var req struct {
		OptionID uint `json:"option_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40054, "invalid request payload")
		return
	}

	var poll models.Poll
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := lockShared(tx, &poll, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errPollNotFound
			}
			return err
		}
		var option models.PollOption
		if err := tx.Where("id = ? AND poll_id = ?", req.OptionID, id).First(&option).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errOptionNotFound
			}
			return err
		}
		vote := models.PollVote{PollID: id, OptionID: option.ID, UserID: user.ID}
		return insertUnique(tx, &vote, errAlreadyVoted, "poll_id = ? AND user_id = ?", id, user.ID)
	})
	switch {
	case errors.Is(err, errPollNotFound):
		utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
		return
	case errors.Is(err, errOptionNotFound):
		utils.Error(ctx, http.StatusNotFound, 40451, "Option not found for this poll")
		return
	case errors.Is(err, errAlreadyVoted):
		utils.Error(ctx, http.StatusBadRequest, 40055, "User already voted in this poll")
		return
	case err != nil:
		internalError(ctx, 50054, "vote failed", err)
		return
	}

	p.cache.BumpVersion(ctx.Request.Context(), versionCacheKey(id))
	results, err := p.results(ctx.Request.Context(), poll)
	if err != nil {
		internalError(ctx, 50055, "tally poll failed", err)
		return
	}
	utils.Success(ctx, results)
}

// Results returns the per-option tally of a poll.
// Snapshots are keyed by the poll's vote version, which Vote bumps after commit,
// so a tally computed before a vote is never served once the vote is visible.
func (p *PollController) Results(ctx *gin.Context) {
	poll, ok := p.loadPoll(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()
	version, cacheable := p.cache.Version(reqCtx, versionCacheKey(poll.ID))
	key := resultsCacheKey(poll.ID, version)
	var cached models.PollResults
	if cacheable && p.cache.GetJSON(reqCtx, key, &cached) {
		utils.Success(ctx, cached)
		return
	}

	results, err := p.results(reqCtx, poll)
	if err != nil {
		internalError(ctx, 50055, "tally poll failed", err)
		return
	}
	if cacheable {
		p.cache.SetJSON(reqCtx, key, results)
	}
	utils.Success(ctx, results)
}

func (p *PollController) results(ctx context.Context, poll models.Poll) (models.PollResults, error) {
	db := p.db.WithContext(ctx)
	var options []models.PollOption
	if err := db.Where("poll_id = ?", poll.ID).Order("id ASC").Find(&options).Error; err != nil {
		return models.PollResults{}, err
	}
	ids := make([]uint, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	counts, err := countBy(db, &models.PollVote{}, "option_id", ids)
	if err != nil {
		return models.PollResults{}, err
	}
	results, total := tally(options, counts)
	return models.PollResults{
		PollID:     poll.ID,
		Question:   poll.Question,
		Results:    results,
		TotalVotes: total,
	}, nil
}

// tally pairs options (already in creation order) with their counts; options without votes count zero.
func tally(options []models.PollOption, counts map[uint]int64) ([]models.OptionResult, int64) {
	results := make([]models.OptionResult, 0, len(options))
	var total int64
	for _, o := range options {
		n := counts[o.ID]
		total += n
		results = append(results, models.OptionResult{OptionID: o.ID, Text: o.Text, Votes: n})
	}
	return results, total
}

func (p *PollController) attachOptions(polls []models.Poll) error {
	if len(polls) == 0 {
		return nil
	}
	ids := make([]uint, len(polls))
	for i, poll := range polls {
		ids[i] = poll.ID
	}
	var options []models.PollOption
	if err := p.db.Where("poll_id IN ?", ids).Order("id ASC").Find(&options).Error; err != nil {
		return err
	}
	byPoll := make(map[uint][]models.PollOption, len(polls))
	for _, o := range options {
		byPoll[o.PollID] = append(byPoll[o.PollID], o)
	}
	for i := range polls {
		polls[i].Options = byPoll[polls[i].ID]
		if polls[i].Options == nil {
			polls[i].Options = []models.PollOption{}
		}
	}
	return nil
}

func (p *PollController) loadPoll(ctx *gin.Context) (models.Poll, bool) {
	var poll models.Poll
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
		return poll, false
	}
	if err := p.db.First(&poll, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "Poll not found")
			return poll, false
		}
		internalError(ctx, 50056, "load poll failed", err)
		return poll, false
	}
	return poll, true
}

func resultsCacheKey(pollID uint, version int64) string {
	return fmt.Sprintf("%s%d:v%d", pollResultsCachePrefix, pollID, version)
}

func versionCacheKey(pollID uint) string {
	return fmt.Sprintf("%s%d", pollVersionCachePrefix, pollID)
}
