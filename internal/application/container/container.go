// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	adsrepo "github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/ads"
	analyticsrepo "github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/analytics"
	contentrepo "github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/content"
	flagsrepo "github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/flags"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/media"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/messaging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/database"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Infrastructure
	Logger      *logging.ChanneledLogger
	DB          *database.DB
	Cache       *caching.Store
	Broadcaster *messaging.LiveBroadcaster

	// Repositories
	PlacementRepo repositories.AdPlacementRepository
	FlagRepo      repositories.FlagRepository
	ViewRepo      repositories.ViewEventRepository
	PostRepo      repositories.PostRepository

	// Application services
	FlagService      *services.FlagService
	AdService        *services.AdService
	ViewService      *services.ViewService
	AnalyticsService *services.AnalyticsService
	PostService      *services.PostService
	AuthService      *services.AuthService
	AdminService     *services.AdminService
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger) *Container {
	cache := caching.NewStore(config.DefaultCacheTTL, logger)
	broadcaster := messaging.NewLiveBroadcaster(logger)

	placementRepo := adsrepo.NewSQLPlacementRepository(db, logger)
	flagRepo := flagsrepo.NewSQLFlagRepository(db)
	viewRepo := analyticsrepo.NewSQLViewRepository(db, logger)
	postRepo := contentrepo.NewSQLPostRepository(db)

	// Resolution can run off a static file instead of the database; admin
	// flag writes always land in the database.
	var flagProvider repositories.FlagProvider = flagRepo
	if config.FlagsFilePath != "" {
		flagProvider = flagsrepo.NewFileProvider(config.FlagsFilePath)
	}

	creatives := media.NewCreativeProcessor(config.CreativesBasePath)

	flagService := services.NewFlagService(flagProvider, logger)
	adService := services.NewAdService(placementRepo, flagService, cache, broadcaster, logger)
	viewService := services.NewViewService(viewRepo, broadcaster, logger)
	analyticsService := services.NewAnalyticsService(viewRepo, cache, logger)
	postService := services.NewPostService(postRepo, cache, logger)
	authService := services.NewAuthService(logger)
	adminService := services.NewAdminService(placementRepo, flagRepo, creatives, adService, flagService, logger)

	return &Container{
		Logger:      logger,
		DB:          db,
		Cache:       cache,
		Broadcaster: broadcaster,

		PlacementRepo: placementRepo,
		FlagRepo:      flagRepo,
		ViewRepo:      viewRepo,
		PostRepo:      postRepo,

		FlagService:      flagService,
		AdService:        adService,
		ViewService:      viewService,
		AnalyticsService: analyticsService,
		PostService:      postService,
		AuthService:      authService,
		AdminService:     adminService,
	}
}
