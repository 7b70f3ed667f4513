package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

// CommentController manages comments on posts.
type CommentController struct {
	db    *gorm.DB
	posts *PostController
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db, posts: NewPostController(db)}
}

// ListComments returns a post's comments, oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	post, ok := c.posts.loadPost(ctx)
	if !ok {
		return
	}
	skip, limit := parsePagination(ctx, 100)

	var comments []models.Comment
	err := c.db.Where("post_id = ?", post.ID).
		Order("created_at ASC").Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&comments).Error
	if err != nil {
		internalError(ctx, 50030, "list comments failed", err)
		return
	}

	userIDs := make([]uint, 0, len(comments))
	for _, cm := range comments {
		userIDs = append(userIDs, cm.UserID)
	}
	users, err := loadUsers(c.db, userIDs)
	if err != nil {
		internalError(ctx, 50031, "load comment authors failed", err)
		return
	}
	for i := range comments {
		comments[i].User = users[comments[i].UserID].Summary()
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	utils.Success(ctx, comments)
}

// CreateComment adds a comment by the caller.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	post, ok := c.posts.loadPost(ctx)
	if !ok {
		return
	}
	content, ok := bindCommentContent(ctx)
	if !ok {
		return
	}

	comment := models.Comment{PostID: post.ID, UserID: user.ID, Content: content}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := lockShared(tx, &models.Post{}, post.ID); err != nil {
			return err
		}
		return tx.Create(&comment).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40420, "Post not found")
		return
	}
	if err != nil {
		internalError(ctx, 50032, "create comment failed", err)
		return
	}
	comment.User = user.Summary()
	utils.Success(ctx, comment)
}

// UpdateComment edits a comment. Only its author or an admin may do so.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	comment, ok := c.loadComment(ctx)
	if !ok {
		return
	}
	if comment.UserID != user.ID && !user.HasRole(models.RoleAdmin) {
		utils.Error(ctx, http.StatusForbidden, 40330, "Not allowed to edit this comment")
		return
	}
	content, ok := bindCommentContent(ctx)
	if !ok {
		return
	}

	comment.Content = content
	if err := c.db.Save(&comment).Error; err != nil {
		internalError(ctx, 50033, "update comment failed", err)
		return
	}

	users, err := loadUsers(c.db, []uint{comment.UserID})
	if err != nil {
		internalError(ctx, 50031, "load comment authors failed", err)
		return
	}
	comment.User = users[comment.UserID].Summary()
	utils.Success(ctx, comment)
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	comment, ok := c.loadComment(ctx)
	if !ok {
		return
	}
	if comment.UserID != user.ID && !user.HasRole(models.RoleAdmin) {
		utils.Error(ctx, http.StatusForbidden, 40331, "Not allowed to delete this comment")
		return
	}
	if err := c.db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		internalError(ctx, 50034, "delete comment failed", err)
		return
	}
	utils.Message(ctx, "Comment deleted")
}

func (c *CommentController) loadComment(ctx *gin.Context) (models.Comment, bool) {
	var comment models.Comment
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, "Comment not found")
		return comment, false
	}
	if err := c.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "Comment not found")
			return comment, false
		}
		internalError(ctx, 50035, "load comment failed", err)
		return comment, false
	}
	return comment, true
}

func bindCommentContent(ctx *gin.Context) (string, bool) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return "", false
	}
	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content cannot be empty")
		return "", false
	}
	return content, true
}
