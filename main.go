package main

import (
	"strings"
	"time"
	"vinylcat/auth"
	"vinylcat/config"
	"vinylcat/covers"
	"vinylcat/db"
	"vinylcat/handlers"
	"vinylcat/ingest"
	"vinylcat/models"
	"vinylcat/providers"
	"vinylcat/providers/discogs"
	"vinylcat/storage"
	"vinylcat/utils"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 365 * 86400 // 1 year
)

func main() {
	if config.DEBUG_MODE {
		log.SetLevel(log.DebugLevel)
	}
	// Fails fast when the mandatory client identity is missing
	userAgent := config.UserAgent()

	db.Init(config.MYSQL_DSN, config.SQLITE_FILE)
	models.Init()
	storage.Init()

	coverFetcher := covers.NewFetcher(storage.GetDefaultStorage(), userAgent)
	gateway := discogs.NewClient(userAgent, config.DISCOGS_TOKEN, config.PROVIDER_RATE_LIMIT)
	pipeline := ingest.NewPipeline(db.Instance, gateway, coverFetcher)
	handlers.Init(gateway, pipeline, coverFetcher, providers.NewSearchCache(5*time.Minute))

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	sessionSecret := config.SESSION_KEY
	if sessionSecret == "" {
		sessionSecret = utils.RandSalt(32)
	}
	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(sessionSecret))
	cookieStore.Options(sessions.Options{MaxAge: sessionExpirationTime})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/cover/"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that

	// Custom Auth Router
	authRouter := &auth.Router{Base: router}
	// User handlers
	router.POST("/user/login", handlers.UserLoginHandler)
	authRouter.POST("/user/logout", handlers.UserLogout)
	authRouter.GET("/user/status", handlers.UserGetStatus)
	authRouter.GET("/user/list", handlers.UserList, models.PermissionAdmin)
	authRouter.POST("/user/save", handlers.UserSave, models.PermissionAdmin)
	authRouter.GET("/status", handlers.AdminStatus, models.PermissionAdmin)
	// Scan / provider search
	authRouter.POST("/scan", handlers.Scan, models.PermissionCatalog)
	authRouter.GET("/search", handlers.Search, models.PermissionCatalog)
	authRouter.POST("/scan/add", handlers.ScanAdd, models.PermissionCatalog)
	authRouter.GET("/scan/ws", handlers.ScanFeed, models.PermissionCatalog)
	// Release handlers
	authRouter.GET("/release/list", handlers.ReleaseList)
	authRouter.GET("/release/get/:slug", handlers.ReleaseGet)
	authRouter.POST("/release/save", handlers.ReleaseSave, models.PermissionCatalog)
	authRouter.POST("/release/delete", handlers.ReleaseDelete, models.PermissionCatalog)
	authRouter.POST("/release/cover", handlers.ReleaseSetCover, models.PermissionCatalog)
	// Reference entities
	authRouter.GET("/artist/list", handlers.ArtistList)
	authRouter.GET("/artist/get/:slug", handlers.ArtistGet)
	authRouter.POST("/artist/save", handlers.ArtistSave, models.PermissionCatalog)
	authRouter.POST("/artist/delete", handlers.ArtistDelete, models.PermissionCatalog)
	authRouter.GET("/genre/list", handlers.GenreList)
	authRouter.POST("/genre/save", handlers.GenreSave, models.PermissionCatalog)
	authRouter.POST("/genre/delete", handlers.GenreDelete, models.PermissionCatalog)
	authRouter.GET("/format/list", handlers.FormatList)
	authRouter.GET("/shelf/list", handlers.ShelfList)
	authRouter.POST("/shelf/save", handlers.ShelfSave, models.PermissionCatalog)
	authRouter.POST("/shelf/delete", handlers.ShelfDelete, models.PermissionCatalog)
	// Covers are immutable by filename - cache for a week
	router.GET("/cover/:file", (&utils.CacheRouter{CacheTime: 7 * 86400}).Handler(), handlers.CoverFetch)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatal("server stopped", "err", err)
}
