package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

// ContextUserKey is the key used to store the authenticated models.User in Gin context.
const ContextUserKey = "current_user"

var (
	// ErrUnauthorized covers invalid tokens and tokens naming an unknown user alike.
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrForbidden is returned when the user's role is outside the allowed set.
	ErrForbidden = errors.New("insufficient permissions")
)

// Gate resolves bearer tokens to users.
type Gate struct {
	db     *gorm.DB
	tokens *utils.TokenService
}

// NewGate creates a Gate backed by db and tokens.
func NewGate(db *gorm.DB, tokens *utils.TokenService) *Gate {
	return &Gate{db: db, tokens: tokens}
}

// CurrentUser returns the user named by token's subject.
func (g *Gate) CurrentUser(ctx context.Context, token string) (models.User, error) {
	username, err := g.tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}
	var user models.User
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorw("load token subject failed", "username", username, "err", err)
		}
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

// OptionalUser is CurrentUser for routes where authentication is optional.
// It never fails; ok is false for a missing or unusable token.
func (g *Gate) OptionalUser(ctx context.Context, token string) (models.User, bool) {
	if token == "" {
		return models.User{}, false
	}
	user, err := g.CurrentUser(ctx, token)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

// CheckRole fails with ErrForbidden unless user holds one of allowed.
func CheckRole(user models.User, allowed ...string) error {
	if !user.HasRole(allowed...) {
		return ErrForbidden
	}
	return nil
}

// AuthRequired rejects requests without a valid bearer token and stores the user in the context.
func (g *Gate) AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, present := bearerToken(ctx)
		if !present {
			unauthorized(ctx, 40101, "Not authenticated")
			return
		}
		user, err := g.CurrentUser(ctx.Request.Context(), token)
		if err != nil {
			unauthorized(ctx, 40102, "Could not validate credentials")
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// AuthOptional stores the user in the context when a valid token is supplied and never rejects.
func (g *Gate) AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, _ := bearerToken(ctx)
		if user, ok := g.OptionalUser(ctx.Request.Context(), token); ok {
			ctx.Set(ContextUserKey, user)
		}
		ctx.Next()
	}
}

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			unauthorized(ctx, 40101, "Not authenticated")
			return
		}
		if err := CheckRole(user, roles...); err != nil {
			utils.Abort(ctx, http.StatusForbidden, 40301, "Insufficient permissions")
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired or AuthOptional.
func CurrentUser(ctx *gin.Context) (models.User, bool) {
	v, exists := ctx.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// bearerToken extracts the token from the Authorization header.
// present is false only when the header is absent.
func bearerToken(ctx *gin.Context) (token string, present bool) {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(ctx *gin.Context, code int, detail string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	utils.Abort(ctx, http.StatusUnauthorized, code, detail)
}
