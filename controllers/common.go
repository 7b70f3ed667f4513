package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/middleware"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

const maxPageSize = 500

// parsePagination reads skip/limit query parameters. Invalid values fall back to defaults.
func parsePagination(ctx *gin.Context, defaultLimit int) (skip, limit int) {
	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err = strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit
}

// parseID reads a numeric path parameter. ok is false for anything that cannot be an id.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// requireUser returns the user set by AuthRequired, answering 401 when it is missing.
func requireUser(ctx *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		ctx.Header("WWW-Authenticate", "Bearer")
		utils.Error(ctx, http.StatusUnauthorized, 40101, "Not authenticated")
		return models.User{}, false
	}
	return user, true
}

// internalError logs err and answers 500 without leaking details.
func internalError(ctx *gin.Context, code int, msg string, err error) {
	utils.Sugar.Errorw(msg, "err", err, "path", ctx.Request.URL.Path, "request_id", ctx.GetString(utils.RequestIDKey))
	utils.Error(ctx, http.StatusInternalServerError, code, "Internal server error")
}

// insertUnique inserts row unless a row matching query already exists. Both the
// lookup and a unique index violation on insert report dup.
func insertUnique(tx *gorm.DB, row interface{}, dup error, query string, args ...interface{}) error {
	var n int64
	if err := tx.Model(row).Where(query, args...).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return dup
	}
	if err := tx.Create(row).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			return dup
		}
		return err
	}
	return nil
}

type idTotal struct {
	ID    uint
	Total int64
}

// countBy counts rows of model grouped by column for the given ids.
func countBy(db *gorm.DB, model interface{}, column string, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []idTotal
	err := db.Model(model).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ID] = r.Total
	}
	return counts, nil
}

// loadUsers fetches users by id, keyed by id.
func loadUsers(db *gorm.DB, ids []uint) (map[uint]models.User, error) {
	users := map[uint]models.User{}
	ids = utils.Unique(ids)
	if len(ids) == 0 {
		return users, nil
	}
	var list []models.User
	if err := db.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
