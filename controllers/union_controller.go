package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/middleware"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

const industriesCacheKey = "cache:unions:industries"

var (
	errUnionExists   = errors.New("union already exists")
	errAlreadyMember = errors.New("already a member")
	errNotMember     = errors.New("not a member")
)

// UnionController manages unions and their memberships.
type UnionController struct {
	db    *gorm.DB
	cache *utils.Cache
}

// NewUnionController creates a new UnionController instance.
func NewUnionController(db *gorm.DB, cache *utils.Cache) *UnionController {
	return &UnionController{db: db, cache: cache}
}

// CreateUnion registers a new union. Names are unique.
func (u *UnionController) CreateUnion(ctx *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		Industry    *string `json:"industry"`
		Tags        *string `json:"tags"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > 150 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "name must be between 1 and 150 characters")
		return
	}

	union := models.Union{
		Name:        name,
		Description: utils.SanitizeOptional(req.Description),
		Industry:    trimOptional(req.Industry),
		Tags:        trimOptional(req.Tags),
	}
	err := u.db.Transaction(func(tx *gorm.DB) error {
		return insertUnique(tx, &union, errUnionExists, "name = ?", name)
	})
	if errors.Is(err, errUnionExists) {
		utils.Error(ctx, http.StatusBadRequest, 40012, "Union already exists")
		return
	}
	if err != nil {
		internalError(ctx, 50010, "create union failed", err)
		return
	}

	u.cache.Delete(ctx.Request.Context(), industriesCacheKey)
	utils.Success(ctx, models.UnionView{Union: union})
}

// ListUnions supports industry (exact) and search (name, description, tags) filters.
func (u *UnionController) ListUnions(ctx *gin.Context) {
	skip, limit := parsePagination(ctx, 100)

	query := u.db.Model(&models.Union{})
	if industry := strings.TrimSpace(ctx.Query("industry")); industry != "" {
		query = query.Where("industry = ?", industry)
	}
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)", like, like, like)
	}

	var unions []models.Union
	if err := query.Order("id ASC").Offset(skip).Limit(limit).Find(&unions).Error; err != nil {
		internalError(ctx, 50011, "list unions failed", err)
		return
	}

	views, err := u.unionViews(ctx, unions)
	if err != nil {
		internalError(ctx, 50012, "load union aggregates failed", err)
		return
	}
	utils.Success(ctx, views)
}

// ListIndustries returns the distinct industries in use, sorted.
func (u *UnionController) ListIndustries(ctx *gin.Context) {
	industries := []string{}
	if u.cache.GetJSON(ctx.Request.Context(), industriesCacheKey, &industries) {
		utils.Success(ctx, industries)
		return
	}
	err := u.db.Model(&models.Union{}).
		Where("industry IS NOT NULL AND industry <> ''").
		Distinct().
		Order("industry ASC").
		Pluck("industry", &industries).Error
	if err != nil {
		internalError(ctx, 50013, "list industries failed", err)
		return
	}
	if industries == nil {
		industries = []string{}
	}
	u.cache.SetJSON(ctx.Request.Context(), industriesCacheKey, industries)
	utils.Success(ctx, industries)
}

// GetUnion returns a single union with its member count.
func (u *UnionController) GetUnion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	var union models.Union
	if err := u.db.First(&union, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
			return
		}
		internalError(ctx, 50014, "load union failed", err)
		return
	}
	views, err := u.unionViews(ctx, []models.Union{union})
	if err != nil {
		internalError(ctx, 50012, "load union aggregates failed", err)
		return
	}
	utils.Success(ctx, views[0])
}

// DeleteUnion removes a union and everything it owns.
func (u *UnionController) DeleteUnion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	err := u.db.Transaction(func(tx *gorm.DB) error {
		var union models.Union
		if err := tx.First(&union, id).Error; err != nil {
			return err
		}
		return deleteUnion(tx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	if err != nil {
		internalError(ctx, 50015, "delete union failed", err)
		return
	}

	u.cache.Delete(ctx.Request.Context(), industriesCacheKey)
	u.cache.InvalidateByPrefix(ctx.Request.Context(), pollResultsCachePrefix)
	utils.Message(ctx, "Union deleted")
}

// JoinUnion adds the caller to the union.
func (u *UnionController) JoinUnion(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}

	var union models.Union
	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := lockShared(tx, &union, id); err != nil {
			return err
		}
		membership := models.UnionMembership{UnionID: id, UserID: user.ID}
		return insertUnique(tx, &membership, errAlreadyMember, "union_id = ? AND user_id = ?", id, user.ID)
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	case errors.Is(err, errAlreadyMember):
		utils.Error(ctx, http.StatusBadRequest, 40013, "Already a member of this union")
		return
	case err != nil:
		internalError(ctx, 50016, "join union failed", err)
		return
	}
	utils.Message(ctx, fmt.Sprintf("Successfully joined %s", union.Name))
}

// LeaveUnion removes the caller's membership.
func (u *UnionController) LeaveUnion(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}

	var union models.Union
	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&union, id).Error; err != nil {
			return err
		}
		res := tx.Where("union_id = ? AND user_id = ?", id, user.ID).Delete(&models.UnionMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotMember
		}
		return nil
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	case errors.Is(err, errNotMember):
		utils.Error(ctx, http.StatusBadRequest, 40014, "Not a member of this union")
		return
	case err != nil:
		internalError(ctx, 50017, "leave union failed", err)
		return
	}
	utils.Message(ctx, fmt.Sprintf("Successfully left %s", union.Name))
}

// ListMembers returns the members of a union in join order.
func (u *UnionController) ListMembers(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
		return
	}
	var union models.Union
	if err := u.db.First(&union, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "Union not found")
			return
		}
		internalError(ctx, 50014, "load union failed", err)
		return
	}

	skip, limit := parsePagination(ctx, 100)
	members := []models.MemberView{}
	err := u.db.Table("union_members").
		Select("users.id, users.username, users.role").
		Joins("JOIN users ON users.id = union_members.user_id").
		Where("union_members.union_id = ?", id).
		Order("union_members.id ASC").
		Offset(skip).Limit(limit).
		Scan(&members).Error
	if err != nil {
		internalError(ctx, 50018, "list members failed", err)
		return
	}
	utils.Success(ctx, members)
}

// unionViews attaches member counts and, for an authenticated caller, membership flags.
func (u *UnionController) unionViews(ctx *gin.Context, unions []models.Union) ([]models.UnionView, error) {
	views := make([]models.UnionView, 0, len(unions))
	if len(unions) == 0 {
		return views, nil
	}
	ids := make([]uint, len(unions))
	for i, un := range unions {
		ids[i] = un.ID
	}

	counts, err := countBy(u.db, &models.UnionMembership{}, "union_id", ids)
	if err != nil {
		return nil, err
	}

	joined := map[uint]bool{}
	if user, ok := middleware.CurrentUser(ctx); ok {
		var mine []uint
		err := u.db.Model(&models.UnionMembership{}).
			Where("user_id = ? AND union_id IN ?", user.ID, ids).
			Pluck("union_id", &mine).Error
		if err != nil {
			return nil, err
		}
		for _, id := range mine {
			joined[id] = true
		}
	}

	for _, un := range unions {
		views = append(views, models.UnionView{
			Union:       un,
			MemberCount: counts[un.ID],
			IsMember:    joined[un.ID],
		})
	}
	return views, nil
}
