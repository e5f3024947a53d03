package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/chat"
	"jobboard/internal/database"
	"jobboard/internal/files"
	"jobboard/internal/notify"
	"jobboard/internal/workflow"
)

// Dependencies bundles everything route registration needs.
type Dependencies struct {
	DB            *gorm.DB
	AuthService   *auth.AuthService
	RedisClient   *redis.Client
	Logger        *slog.Logger
	Applications  *workflow.ApplicationService
	Interviews    *workflow.InterviewService
	Files         *files.Service
	Chat          *chat.Service
	Notifications *notify.Service
	Advisor       Advisor
	ClamdAddr     string
}

// RegisterRoutes wires every handler under /v1.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.DB, deps.AuthService, deps.RedisClient, deps.Logger)
	jobHandler := NewJobHandler(deps.DB, deps.Logger)
	applicationHandler := NewApplicationHandler(deps.Applications, deps.Logger)
	interviewHandler := NewInterviewHandler(deps.Interviews)
	fileHandler := NewFileHandler(deps.Files, deps.Logger, deps.ClamdAddr)
	messageHandler := NewMessageHandler(deps.Chat)
	notificationHandler := NewNotificationHandler(deps.Notifications)
	reviewHandler := NewReviewHandler(deps.DB, deps.Logger)
	aiHandler := NewAIHandler(deps.DB, deps.Advisor, deps.Files, deps.Logger)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, nil)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	employerOnly := middleware.RequireRole(database.RoleEmployer)
	candidateOnly := middleware.RequireRole(database.RoleCandidate)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		usersGroup := v1.Group("/users")
		usersGroup.Use(authMiddleware)
		{
			usersGroup.GET("/me", authHandler.Me)
		}

		jobsGroup := v1.Group("/jobs")
		jobsGroup.Use(authMiddleware)
		{
			jobsGroup.POST("", employerOnly, jobHandler.Create)
			jobsGroup.GET("", jobHandler.List)
			jobsGroup.GET("/my", employerOnly, jobHandler.ListMine)
			jobsGroup.GET("/:id", jobHandler.Get)
			jobsGroup.PUT("/:id", employerOnly, jobHandler.Update)
			jobsGroup.DELETE("/:id", employerOnly, jobHandler.Delete)
		}

		filesGroup := v1.Group("/files/cv")
		filesGroup.Use(authMiddleware)
		{
			filesGroup.POST("/upload", fileHandler.Upload)
			filesGroup.GET("/my-cvs", fileHandler.ListMine)
			filesGroup.GET("/:id/status", fileHandler.Status)
			filesGroup.GET("/:id/parsed", fileHandler.Parsed)
			filesGroup.DELETE("/:id", fileHandler.Delete)
			filesGroup.POST("/generate-cover-letter", fileHandler.GenerateCoverLetter)
		}

		applicationsGroup := v1.Group("/applications")
		applicationsGroup.Use(authMiddleware)
		{
			applicationsGroup.POST("", candidateOnly, applicationHandler.Create)
			applicationsGroup.GET("", applicationHandler.List)
			applicationsGroup.GET("/:id", applicationHandler.Get)
			applicationsGroup.PUT("/:id/status", employerOnly, applicationHandler.UpdateStatus)
			applicationsGroup.PUT("/:id/withdraw", candidateOnly, applicationHandler.Withdraw)
			applicationsGroup.DELETE("/:id", applicationHandler.Delete)
		}

		interviewsGroup := v1.Group("/interviews")
		interviewsGroup.Use(authMiddleware)
		{
			interviewsGroup.POST("", employerOnly, interviewHandler.Create)
			interviewsGroup.GET("", interviewHandler.List)
			interviewsGroup.PUT("/:id", employerOnly, interviewHandler.Update)
			interviewsGroup.PUT("/:id/reschedule", employerOnly, interviewHandler.Reschedule)
			interviewsGroup.PUT("/:id/cancel", employerOnly, interviewHandler.Cancel)
			interviewsGroup.PUT("/:id/complete", employerOnly, interviewHandler.Complete)
			interviewsGroup.PUT("/:id/confirm", candidateOnly, interviewHandler.Confirm)
			interviewsGroup.DELETE("/:id", employerOnly, interviewHandler.Delete)
		}

		messagesGroup := v1.Group("/messages")
		messagesGroup.Use(authMiddleware)
		{
			messagesGroup.GET("/conversations", messageHandler.ListConversations)
			messagesGroup.POST("/conversations", messageHandler.OpenConversation)
			messagesGroup.GET("/conversations/:id", messageHandler.Messages)
			messagesGroup.POST("/conversations/:id", messageHandler.Send)
			messagesGroup.PUT("/conversations/:id/read", messageHandler.MarkRead)
			messagesGroup.DELETE("/conversations/:id", messageHandler.Deactivate)
		}

		notificationsGroup := v1.Group("/notifications")
		notificationsGroup.Use(authMiddleware)
		{
			notificationsGroup.GET("", notificationHandler.List)
			notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
			notificationsGroup.PUT("/:id/read", notificationHandler.MarkRead)
			notificationsGroup.PUT("/read-all", notificationHandler.MarkAllRead)
			notificationsGroup.DELETE("/:id", notificationHandler.Delete)
			notificationsGroup.DELETE("", notificationHandler.Clear)
		}

		reviewsGroup := v1.Group("/reviews")
		reviewsGroup.Use(authMiddleware)
		{
			reviewsGroup.POST("", reviewHandler.Create)
			reviewsGroup.GET("/user/:id", reviewHandler.ListForUser)
			reviewsGroup.DELETE("/:id", reviewHandler.Delete)
		}

		aiGroup := v1.Group("/ai")
		aiGroup.Use(authMiddleware)
		{
			aiGroup.GET("/cv-suggestions", aiHandler.CVSuggestions)
			aiGroup.GET("/interview-questions", aiHandler.InterviewQuestions)
			aiGroup.GET("/job-trends", aiHandler.JobTrends)
		}
	}
}
