package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

var errUsernameTaken = errors.New("username already taken")

// AuthController handles registration, token issuance and identity lookups.
type AuthController struct {
	db     *gorm.DB
	tokens *utils.TokenService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB, tokens *utils.TokenService) *AuthController {
	return &AuthController{db: db, tokens: tokens}
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a new account. Role defaults to member.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || utf8.RuneCountInString(username) > 64 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be between 1 and 64 characters")
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		utils.Error(ctx, http.StatusBadRequest, 40004, "role must be one of member, organizer, admin")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		internalError(ctx, 50001, "hash password failed", err)
		return
	}

	user := models.User{Username: username, PasswordHash: hash, Role: role}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		return insertUnique(tx, &user, errUsernameTaken, "username = ?", username)
	})
	if errors.Is(err, errUsernameTaken) {
		utils.Error(ctx, http.StatusBadRequest, 40005, "Username already taken")
		return
	}
	if err != nil {
		internalError(ctx, 50002, "create user failed", err)
		return
	}

	utils.Sugar.Infow("user registered", "user_id", user.ID, "role", user.Role)
	utils.Success(ctx, user)
}

// Token exchanges username/password (form or JSON) for a bearer token.
func (a *AuthController) Token(ctx *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(ctx, 50003, "load user failed", err)
		return
	}
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		ctx.Header("WWW-Authenticate", "Bearer")
		utils.Error(ctx, http.StatusUnauthorized, 40103, "Incorrect username or password")
		return
	}

	token, _, err := a.tokens.Issue(user.Username, 0)
	if err != nil {
		internalError(ctx, 50004, "issue token failed", err)
		return
	}
	utils.Success(ctx, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, user)
}
