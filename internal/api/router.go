package api

import (
	"github.com/arizkuren/skillbluff/internal/api/handler"
	"github.com/arizkuren/skillbluff/internal/api/middleware"
	"github.com/arizkuren/skillbluff/internal/config"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/arizkuren/skillbluff/internal/service"
	"github.com/gin-gonic/gin"
)

// Dependencies bundles what the HTTP layer needs.
type Dependencies struct {
	Skills *service.SkillService
	Votes  *service.VoteService
	// DB is pinged by /health; nil skips the check.
	DB     handler.Pinger
	Logger *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Dependencies, cfg *config.Config) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(cfg.Server.CORS))

	healthHandler := handler.NewHealthHandler(deps.DB)
	skillHandler := handler.NewSkillHandler(deps.Skills)
	voteHandler := handler.NewVoteHandler(deps.Votes)
	sitemapHandler := handler.NewSitemapHandler(deps.Skills, cfg.Site.BaseURL)

	r.GET("/health", healthHandler.Health)
	r.GET("/sitemap.xml", sitemapHandler.Sitemap)

	v := r.Group("/api")
	{
		v.POST("/generate", skillHandler.Generate)
		v.GET("/random", skillHandler.Random)
		v.GET("/top", skillHandler.Top)
		v.GET("/skills/:id", skillHandler.Get)

		v.POST("/vote", voteHandler.Vote)
		v.GET("/vote", voteHandler.Count)
	}

	return r
}
