package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

var errPostNotFound = errors.New("post not found")

// FeedbackController collects feedback. Submitters are authenticated but never recorded.
type FeedbackController struct {
	db    *gorm.DB
	posts *PostController
}

// NewFeedbackController creates a new FeedbackController instance.
func NewFeedbackController(db *gorm.DB) *FeedbackController {
	return &FeedbackController{db: db, posts: NewPostController(db)}
}

type feedbackRequest struct {
	Message   string `json:"message" binding:"required"`
	Anonymous bool   `json:"anonymous"`
	PostID    *uint  `json:"post_id"`
}

// CreatePostFeedback stores feedback about the post in the path.
func (f *FeedbackController) CreatePostFeedback(ctx *gin.Context) {
	if _, ok := requireUser(ctx); !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	req.PostID = &postID
	f.create(ctx, req)
}

// CreateFeedback stores general feedback, optionally tied to a post via post_id.
func (f *FeedbackController) CreateFeedback(ctx *gin.Context) {
	if _, ok := requireUser(ctx); !ok {
		return
	}
	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	f.create(ctx, req)
}

func (f *FeedbackController) create(ctx *gin.Context, req feedbackRequest) {
	message := utils.Sanitize(req.Message)
	if message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "message cannot be empty")
		return
	}

	feedback := models.Feedback{PostID: req.PostID, Anonymous: req.Anonymous, Message: message}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if feedback.PostID != nil {
			var post models.Post
			if err := lockShared(tx, &post, *feedback.PostID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errPostNotFound
				}
				return err
			}
		}
		return tx.Create(&feedback).Error
	})
	if errors.Is(err, errPostNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	if err != nil {
		internalError(ctx, 50040, "create feedback failed", err)
		return
	}
	utils.Success(ctx, feedback)
}

// ListPostFeedback returns the feedback left on a post.
func (f *FeedbackController) ListPostFeedback(ctx *gin.Context) {
	post, ok := f.posts.loadPost(ctx)
	if !ok {
		return
	}
	skip, limit := parsePagination(ctx, 100)
	feedbacks := []models.Feedback{}
	err := f.db.Where("post_id = ?", post.ID).Order("id ASC").Offset(skip).Limit(limit).Find(&feedbacks).Error
	if err != nil {
		internalError(ctx, 50041, "list feedback failed", err)
		return
	}
	utils.Success(ctx, feedbacks)
}

// GetFeedback returns one feedback entry.
func (f *FeedbackController) GetFeedback(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40440, "Feedback not found")
		return
	}
	var feedback models.Feedback
	if err := f.db.First(&feedback, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "Feedback not found")
			return
		}
		internalError(ctx, 50042, "load feedback failed", err)
		return
	}
	utils.Success(ctx, feedback)
}
