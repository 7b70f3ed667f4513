package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

var (
	errUnionNotFound    = errors.New("union not found")
	errAlreadyVotedPost = errors.New("already voted on post")
	errInvalidVoteType  = errors.New("invalid vote type")
)

// PostController manages posts published in unions and their votes.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost publishes a post in the union named by the path.
func (p *PostController) CreatePost(ctx *gin.Context) {
	unionID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	post := models.Post{Title: title, Content: content, UnionID: unionID}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var union models.Union
		if err := lockShared(tx, &union, unionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUnionNotFound
			}
			return err
		}
		return tx.Create(&post).Error
	})
	if errors.Is(err, errUnionNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	if err != nil {
		internalError(ctx, 50020, "create post failed", err)
		return
	}

	utils.Success(ctx, models.PostView{Post: post})
}

// ListUnionPosts returns the posts of a union in publication order.
func (p *PostController) ListUnionPosts(ctx *gin.Context) {
	unionID, ok := parseID(ctx, "id")
	if !ok {
		utils.Success(ctx, []models.PostView{})
		return
	}
	skip, limit := parsePagination(ctx, 100)

	var posts []models.Post
	err := p.db.Where("union_id = ?", unionID).Order("id ASC").Offset(skip).Limit(limit).Find(&posts).Error
	if err != nil {
		internalError(ctx, 50021, "list posts failed", err)
		return
	}
	views, err := p.postViews(posts)
	if err != nil {
		internalError(ctx, 50022, "load post aggregates failed", err)
		return
	}
	utils.Success(ctx, views)
}

// GetPost returns a post with its vote counts and feedback.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	views, err := p.postViews([]models.Post{post})
	if err != nil {
		internalError(ctx, 50022, "load post aggregates failed", err)
		return
	}
	view := views[0]
	view.Feedbacks = []models.Feedback{}
	if err := p.db.Where("post_id = ?", post.ID).Order("id ASC").Find(&view.Feedbacks).Error; err != nil {
		internalError(ctx, 50023, "load feedbacks failed", err)
		return
	}
	utils.Success(ctx, view)
}

// DeletePost removes a post with its comments, feedback and votes.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		return deletePosts(tx, []uint{id})
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	if err != nil {
		internalError(ctx, 50024, "delete post failed", err)
		return
	}
	utils.Message(ctx, "Post deleted")
}

// VotePost records the caller's up or down vote. A vote cannot be changed.
func (p *PostController) VotePost(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	var req struct {
		VoteType string `json:"vote_type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	voteType, err := normalizeVoteType(req.VoteType)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "vote_type must be 'up' or 'down'")
		return
	}

	var post models.Post
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := lockShared(tx, &post, id); err != nil {
			return err
		}
		vote := models.PostVote{PostID: id, UserID: user.ID, VoteType: voteType}
		return insertUnique(tx, &vote, errAlreadyVotedPost, "post_id = ? AND user_id = ?", id, user.ID)
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	case errors.Is(err, errAlreadyVotedPost):
		utils.Error(ctx, http.StatusBadRequest, 40025, "Already voted on this post")
		return
	case err != nil:
		internalError(ctx, 50025, "vote post failed", err)
		return
	}

	views, err := p.postViews([]models.Post{post})
	if err != nil {
		internalError(ctx, 50022, "load post aggregates failed", err)
		return
	}
	utils.Success(ctx, views[0])
}

func normalizeVoteType(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case models.VoteUp, "upvote":
		return models.VoteUp, nil
	case models.VoteDown, "downvote":
		return models.VoteDown, nil
	}
	return "", errInvalidVoteType
}

// loadPost resolves the :id path parameter, answering 404 itself when absent.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	var post models.Post
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return post, false
	}
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
			return post, false
		}
		internalError(ctx, 50026, "load post failed", err)
		return post, false
	}
	return post, true
}

type postVoteTotal struct {
	ID       uint
	VoteType string
	Total    int64
}

// postViews attaches vote and comment counts.
func (p *PostController) postViews(posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}
	ids := make([]uint, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	var votes []postVoteTotal
	err := p.db.Model(&models.PostVote{}).
		Select("post_id AS id, vote_type, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id, vote_type").
		Scan(&votes).Error
	if err != nil {
		return nil, err
	}
	up := map[uint]int64{}
	down := map[uint]int64{}
	for _, v := range votes {
		switch v.VoteType {
		case models.VoteUp:
			up[v.ID] = v.Total
		case models.VoteDown:
			down[v.ID] = v.Total
		}
	}

	comments, err := countBy(p.db, &models.Comment{}, "post_id", ids)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		views = append(views, models.PostView{
			Post:         post,
			Upvotes:      up[post.ID],
			Downvotes:    down[post.ID],
			CommentCount: comments[post.ID],
		})
	}
	return views, nil
}
