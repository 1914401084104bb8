package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"mypts-economy-system/handlers"
	"mypts-economy-system/middleware"
	"mypts-economy-system/models"
	"mypts-economy-system/services"
	"mypts-economy-system/utils"
	"mypts-economy-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultTotalSupply = 1_000_000_000

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.Hub{},
		&models.ActivityRewardRule{},
		&models.UserActivityRecord{},
		&models.Badge{},
		&models.ProfileBadgeProgress{},
		&models.ProfileMilestone{},
		&models.LeaderboardEntry{},
		&models.ProfileMirror{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	notifier := services.NewNotifier(os.Getenv("NOTIFICATION_SERVICE_URL"), os.Getenv("MYPTS_SERVICE_TOKEN"))

	hubService := services.NewHubService(db)
	ledgerService := services.NewLedgerService(db)
	activityService := services.NewActivityService(db, ledgerService)
	milestoneService := services.NewMilestoneService(db, notifier)
	badgeService := services.NewBadgeService(db, notifier)
	leaderboardService := services.NewLeaderboardService(db)
	reconciliationService := services.NewReconciliationService(db, activityService, hubService)

	// Gamification follow-ups for every completed credit
	ledgerService.Milestones = milestoneService
	ledgerService.Badges = badgeService
	ledgerService.Leaderboard = leaderboardService
	ledgerService.Notifier = notifier

	totalSupply := int64(defaultTotalSupply)
	if v := os.Getenv("HUB_TOTAL_SUPPLY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			totalSupply = n
		}
	}
	if _, err := hubService.EnsureHub(totalSupply); err != nil {
		log.Fatal("failed to initialize hub:", err)
	}
	if err := activityService.SeedRules(); err != nil {
		log.Fatal("failed to seed reward rules:", err)
	}
	if err := badgeService.SeedCatalog(); err != nil {
		log.Fatal("failed to seed badge catalog:", err)
	}

	// --- CONFIGURE Profile Service sync details ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("MYPTS_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("MYPTS_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Profile Sync Worker...")
		syncWorker.Start(ctx)
	}()

	leaderboardService.StartRebuildScheduler()

	// ✅ Setup routes — enforced Gateway auth + /s/ prefix for secured paths
	handlers.SetupEconomyRoutes(app, ledgerService, hubService)
	handlers.SetupActivityRoutes(app, activityService)
	handlers.SetupGamificationRoutes(app, ledgerService, milestoneService, badgeService, leaderboardService, reconciliationService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
