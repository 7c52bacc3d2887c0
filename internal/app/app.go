package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shiftascent/shiftascent/internal/config"
	"github.com/shiftascent/shiftascent/internal/db"
	"github.com/shiftascent/shiftascent/internal/markdown"
	"github.com/shiftascent/shiftascent/internal/repository"
	"github.com/shiftascent/shiftascent/internal/service"
	"github.com/shiftascent/shiftascent/internal/storage"
	"github.com/shiftascent/shiftascent/internal/sweep"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	AuthService      *service.AuthService
	UserService      *service.UserService
	EmailService     *service.EmailService
	FileService      *service.FileService
	GoalService      *service.GoalService
	MilestoneService *service.MilestoneService
	ShareService     *service.ShareService
	StatsService     *service.StatsService
	Sweeper          *sweep.Sweeper
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)
	reflectionRepository := repository.NewReflectionRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage
	proofStorage, err := storage.NewS3Storage(storage.S3Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Endpoint:      cfg.S3Endpoint,
		PresignExpiry: cfg.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenPasswordResetExpiry,
		cfg.TokenMagicLinkExpiry,
	)
	fileService := service.NewFileService(fileRepository, proofStorage)
	userService := service.NewUserService(userRepository, fileService)
	integrityService := service.NewIntegrityService(userRepository)
	goalService := service.NewGoalService(goalRepository, milestoneRepository)
	milestoneService := service.NewMilestoneService(
		milestoneRepository,
		goalRepository,
		reflectionRepository,
		userRepository,
		integrityService,
		emailService,
	)
	shareService := service.NewShareService(
		milestoneRepository,
		goalRepository,
		userRepository,
		markdown.NewRenderer(),
	)
	statsService := service.NewStatsService(userRepository, goalRepository, milestoneRepository)

	sweeper := sweep.New(milestoneRepository, milestoneService, cfg.SweepInterval)

	return &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		UserService:      userService,
		EmailService:     emailService,
		FileService:      fileService,
		GoalService:      goalService,
		MilestoneService: milestoneService,
		ShareService:     shareService,
		StatsService:     statsService,
		Sweeper:          sweeper,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
