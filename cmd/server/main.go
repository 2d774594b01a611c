package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fellowsabroad/backend/internal/api"
	"github.com/fellowsabroad/backend/internal/auth"
	"github.com/fellowsabroad/backend/internal/config"
	"github.com/fellowsabroad/backend/internal/db"
	"github.com/fellowsabroad/backend/internal/mailer"
	"github.com/fellowsabroad/backend/internal/middleware"
	"github.com/fellowsabroad/backend/internal/observ"
	"github.com/fellowsabroad/backend/internal/repository/postgres"
	"github.com/fellowsabroad/backend/internal/storage"
	"github.com/fellowsabroad/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	store, err := storage.New(context.Background(), storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		return fmt.Errorf("create object storage: %w", err)
	}

	var mail mailer.Mailer
	if cfg.Env == "development" {
		mail = mailer.NewConsoleMailer(logger)
	} else {
		smtpPort, err := strconv.Atoi(cfg.SMTPPort)
		if err != nil {
			return fmt.Errorf("parse SMTP_PORT: %w", err)
		}
		mail = mailer.NewSMTPMailer(mailer.Config{
			SMTPHost:     cfg.SMTPHost,
			SMTPPort:     smtpPort,
			SMTPUsername: cfg.SMTPUsername,
			SMTPPassword: cfg.SMTPPassword,
			FromEmail:    cfg.MailFrom,
			FromName:     cfg.MailFromName,
		})
	}

	hub := ws.NewHub()
	go hub.Run()

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	profileRepo := postgres.NewProfileStore(pool)
	workspaceRepo := postgres.NewWorkspaceStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	channelRepo := postgres.NewChannelStore(pool)
	channelMemberRepo := postgres.NewChannelMemberStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	reactionRepo := postgres.NewReactionStore(pool)
	fileRepo := postgres.NewFileStore(pool)
	presenceRepo := postgres.NewPresenceStore(pool)
	programRepo := postgres.NewProgramStore(pool)
	applicationRepo := postgres.NewApplicationStore(pool)
	notificationRepo := postgres.NewNotificationStore(pool)
	blogRepo := postgres.NewBlogStore(pool)
	commentRepo := postgres.NewCommentStore(pool)

	otpStore := auth.NewOTPStore(rdb)

	authHandler := api.NewAuthHandler(userRepo, otpStore, mail, cfg.JWTSecret, logger)
	userHandler := api.NewUserHandler(userRepo, profileRepo, notificationRepo, logger)
	workspaceHandler := api.NewWorkspaceHandler(workspaceRepo, membershipRepo, channelRepo, channelMemberRepo, logger)
	channelHandler := api.NewChannelHandler(channelRepo, channelMemberRepo, membershipRepo, logger)
	messageHandler := api.NewMessageHandler(messageRepo, channelRepo, channelMemberRepo, fileRepo, userRepo, hub, logger)
	reactionHandler := api.NewReactionHandler(reactionRepo, messageRepo, logger)
	presenceHandler := api.NewPresenceHandler(presenceRepo, userRepo, logger)
	programHandler := api.NewProgramHandler(programRepo, profileRepo, logger)
	applicationHandler := api.NewApplicationHandler(applicationRepo, programRepo, profileRepo, userRepo, logger)
	blogHandler := api.NewBlogHandler(blogRepo, userRepo, profileRepo, logger)
	commentHandler := api.NewCommentHandler(commentRepo, blogRepo, userRepo, profileRepo, logger)
	uploadHandler := api.NewUploadHandler(store, logger)
	wsHandler := api.NewWSHandler(hub, channelRepo, channelMemberRepo, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public surface: sign-in and read-only catalog/blog browsing.
	public := srv.Group("/v1")
	{
		public.POST("/auth/otp/request", authHandler.RequestCode)
		public.POST("/auth/otp/verify", authHandler.VerifyCode)

		public.GET("/programs", programHandler.List)
		public.GET("/programs/countries", programHandler.Countries)
		public.GET("/programs/:id", programHandler.Get)

		public.GET("/blogs", blogHandler.List)
		public.GET("/blogs/tags", blogHandler.Tags)
		public.GET("/blogs/:id", blogHandler.Get)
		public.GET("/blogs/:id/comments", commentHandler.List)
	}

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		v1.GET("/users/me", userHandler.GetMe)
		v1.PUT("/users/me/profile", userHandler.UpdateProfile)
		v1.GET("/notifications", userHandler.ListNotifications)
		v1.POST("/notifications/:id/read", userHandler.MarkNotificationRead)

		v1.POST("/programs", programHandler.Create)

		v1.GET("/applications", applicationHandler.ListMine)
		v1.POST("/applications", applicationHandler.Create)
		v1.GET("/applications/:id", applicationHandler.Get)
		v1.PUT("/applications/:id/personal-info", applicationHandler.UpdatePersonalInfo)
		v1.PUT("/applications/:id/academic-info", applicationHandler.UpdateAcademicInfo)
		v1.PUT("/applications/:id/essays", applicationHandler.UpdateEssays)
		v1.PUT("/applications/:id/documents", applicationHandler.UpdateDocuments)
		v1.POST("/applications/:id/submit", applicationHandler.Submit)

		v1.GET("/admin/applications", applicationHandler.AdminList)
		v1.PUT("/admin/applications/:id/status", applicationHandler.AdminUpdateStatus)

		v1.GET("/blogs/mine", blogHandler.Mine)
		v1.POST("/blogs", blogHandler.Create)
		v1.PUT("/blogs/:id", blogHandler.Update)
		v1.DELETE("/blogs/:id", blogHandler.Delete)
		v1.POST("/blogs/:id/comments", commentHandler.Create)
		v1.PUT("/comments/:id", commentHandler.Update)
		v1.DELETE("/comments/:id", commentHandler.Delete)

		v1.POST("/workspaces", workspaceHandler.Create)
		v1.GET("/workspaces", workspaceHandler.List)
		v1.POST("/workspaces/:id/join", workspaceHandler.Join)
		v1.POST("/chat/bootstrap", workspaceHandler.Bootstrap)

		v1.POST("/workspaces/:id/channels", channelHandler.Create)
		v1.GET("/workspaces/:id/channels", channelHandler.List)
		v1.POST("/workspaces/:id/dms", channelHandler.CreateDM)
		v1.POST("/channels/:id/join", channelHandler.Join)

		v1.POST("/channels/:id/messages", messageHandler.Create)
		v1.GET("/channels/:id/messages", messageHandler.List)
		v1.GET("/channels/:id/users", messageHandler.ChannelUsers)
		v1.PUT("/messages/:id", messageHandler.Update)
		v1.DELETE("/messages/:id", messageHandler.Delete)
		v1.GET("/messages/:id/files", messageHandler.ListFiles)

		v1.POST("/messages/:id/reactions", reactionHandler.Toggle)
		v1.DELETE("/messages/:id/reactions", reactionHandler.Remove)
		v1.GET("/messages/:id/reactions", reactionHandler.List)

		v1.POST("/chat/presence", presenceHandler.Heartbeat)
		v1.GET("/chat/presence", presenceHandler.Online)

		v1.POST("/uploads", uploadHandler.PresignPut)
		v1.GET("/uploads/url", uploadHandler.PresignGet)

		v1.GET("/ws", wsHandler.Subscribe)
	}

	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
