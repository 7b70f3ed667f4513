package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/config"
	"github.com/sandarika/labubananas/controllers"
	"github.com/sandarika/labubananas/middleware"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, tokens *utils.TokenService, cache *utils.Cache) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))
	r.Use(cors.New(corsConfig(cfg)))

	r.GET("/", func(ctx *gin.Context) {
		utils.Message(ctx, "Labubananas backend is running")
	})
	r.GET("/health", healthHandler(db))

	gate := middleware.NewGate(db, tokens)
	authRequired := gate.AuthRequired()
	authOptional := gate.AuthOptional()
	organizers := middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	authController := controllers.NewAuthController(db, tokens)
	unionController := controllers.NewUnionController(db, cache)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	feedbackController := controllers.NewFeedbackController(db)
	pollController := controllers.NewPollController(db, cache)
	eventController := controllers.NewEventController(db)
	statsController := controllers.NewStatsController(db)
	assistantController := controllers.NewAssistantController()

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/token", authController.Token)
	authGroup.GET("/me", authRequired, authController.Me)

	unions := api.Group("/unions")
	unions.POST("/", authRequired, organizers, unionController.CreateUnion)
	unions.GET("/", authOptional, unionController.ListUnions)
	unions.GET("/industries", unionController.ListIndustries)
	unions.GET("/:id", authOptional, unionController.GetUnion)
	unions.DELETE("/:id", authRequired, admins, unionController.DeleteUnion)
	unions.POST("/:id/join", authRequired, unionController.JoinUnion)
	unions.DELETE("/:id/leave", authRequired, unionController.LeaveUnion)
	unions.GET("/:id/members", unionController.ListMembers)

	postCreators := []gin.HandlerFunc{authRequired}
	if !cfg.PostsOpenToMembers {
		postCreators = append(postCreators, organizers)
	}
	posts := api.Group("/posts")
	posts.POST("/union/:id", append(postCreators, postController.CreatePost)...)
	posts.GET("/union/:id", postController.ListUnionPosts)
	posts.GET("/:id", postController.GetPost)
	posts.DELETE("/:id", authRequired, organizers, postController.DeletePost)
	posts.POST("/:id/vote", authRequired, postController.VotePost)
	posts.GET("/:id/comments", commentController.ListComments)
	posts.POST("/:id/comments", authRequired, commentController.CreateComment)
	posts.PUT("/comments/:id", authRequired, commentController.UpdateComment)
	posts.DELETE("/comments/:id", authRequired, commentController.DeleteComment)

	feedbacks := api.Group("/feedbacks")
	feedbacks.POST("/", authRequired, feedbackController.CreateFeedback)
	feedbacks.POST("/post/:id", authRequired, feedbackController.CreatePostFeedback)
	feedbacks.GET("/post/:id", feedbackController.ListPostFeedback)
	feedbacks.GET("/:id", feedbackController.GetFeedback)

	polls := api.Group("/polls")
	polls.POST("/", authRequired, organizers, pollController.CreatePoll)
	polls.GET("/", pollController.ListPolls)
	polls.GET("/:id", pollController.GetPoll)
	polls.DELETE("/:id", authRequired, organizers, pollController.DeletePoll)
	polls.POST("/:id/vote", authRequired, pollController.Vote)
	polls.GET("/:id/results", pollController.Results)

	events := api.Group("/events")
	events.POST("/", authRequired, organizers, eventController.CreateEvent)
	events.GET("/", eventController.ListEvents)
	events.GET("/:id", authOptional, eventController.GetEvent)
	events.PUT("/:id", authRequired, eventController.UpdateEvent)
	events.DELETE("/:id", authRequired, eventController.DeleteEvent)
	events.POST("/:id/rsvp", authRequired, eventController.RSVP)
	events.DELETE("/:id/rsvp", authRequired, eventController.CancelRSVP)
	events.GET("/:id/attendees", eventController.ListAttendees)

	api.POST("/chatbot/ask", assistantController.Ask)
	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "Not Found")
	})

	return r
}

func corsConfig(cfg config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			utils.Logger.Warn("health check failed", zap.Error(err))
			utils.Error(ctx, http.StatusServiceUnavailable, 50300, "database unavailable")
			return
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	}
}
