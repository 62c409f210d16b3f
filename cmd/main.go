package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"warehouse-service/internal/config"
	"warehouse-service/internal/generation"
	"warehouse-service/internal/handlers"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/services"
	"warehouse-service/internal/storage"
)

func main() {
	cfg := InitConfig()
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)
	store := InitObjectStore(cfg)
	previewCache := InitPreviewCache(cfg)
	m := metrics.NewMetrics()

	itemRepo := repository.NewItemRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	socialRepo := repository.NewRoomSocialRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	itemService := services.NewItemService(db, itemRepo, placementRepo, store, previewCache, m)
	sceneService := services.NewSceneService(roomRepo, placementRepo)
	roomService := services.NewRoomService(roomRepo, socialRepo, store)
	profileService := services.NewProfileService(profileRepo, store)

	genClient := generation.NewClient(nil, cfg.GenerationBaseURL, cfg.GenerationAPIKey, cfg.BackgroundRemovalURL)
	genService := generation.NewService(genClient, store, m, nil)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})

	// Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	ih := handlers.NewItemHandler(itemService, genService)
	rh := handlers.NewRoomHandler(roomService, sceneService)
	ph := handlers.NewProfileHandler(profileService)

	api := app.Group("/api")

	api.Post("/item/upload", ih.UploadItem)
	api.Put("/item/update/:item_id", ih.UpdateItem)
	api.Delete("/item/destroy/:item_id", ih.DeleteItem)
	api.Post("/item/create-3d", ih.CreateModel)
	api.Post("/item/check-status", ih.CheckStatus)
	api.Get("/item/preview-model/:filename", ih.PreviewModel)
	api.Post("/item/rodin-upload", ih.AdoptGenerated)
	api.Post("/item/remove-background", ih.RemoveBackground)
	api.Get("/item/:user_id", ih.ListItems)

	api.Post("/room/create", rh.CreateRoom)
	api.Put("/room/update/:room_id", rh.UpdatePlacements)
	api.Get("/room/studio/:room_id", rh.ShowRoom)
	api.Get("/room/mainstage/:room_id", rh.ShowRoom)
	api.Post("/room/upload/thumbnail/:room_id", rh.UploadThumbnail)
	api.Post("/room/comment/store/:room_id", rh.StoreComment)
	api.Delete("/room/comment/destroy/:comment_id", rh.DestroyComment)
	api.Post("/room/like/:room_id", rh.Like)
	api.Post("/room/dislike/:room_id", rh.Dislike)
	api.Get("/room/:user_id", rh.ListRooms)

	api.Get("/profile/show/:user_id", ph.Show)
	api.Put("/profile/update/:user_id", ph.Update)
	api.Get("/profile/search", ph.Search)

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	// Start the Fiber server
	port := cfg.AppPort
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("Server listening on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Item{},
		&models.Room{},
		&models.Placement{},
		&models.Profile{},
		&models.RoomComment{},
		&models.RoomLike{},
	)
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func InitObjectStore(cfg *config.Config) *storage.MinioStore {
	store, err := storage.ConnectMinio(cfg)
	if err != nil {
		log.Fatalf("MinIO initialization failed: %v", err)
	}
	return store
}

func InitPreviewCache(cfg *config.Config) *storage.PreviewCache {
	if cfg.RedisHost == "" {
		log.Println("Redis not configured, preview caching disabled")
		return nil
	}
	cache, err := storage.NewPreviewCache(cfg.RedisHost, cfg.RedisPort, cfg.PreviewCacheTTL)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	return cache
}
