package restapi

import (
	"net/http"
	"net/http/pprof"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps collects what SetupRouter wires together. Nil handlers skip their routes.
type RouterDeps struct {
	Portfolio   *PortfolioHandler
	Watches     *WatchHandler
	Metrics     http.Handler
	Logger      *zap.Logger
	EnablePprof bool
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	if deps.Logger != nil {
		router.Use(ZapLogger(deps.Logger))
	}
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := router.Group("/api/v1")
	if deps.Portfolio != nil {
		v1.GET("/address/:address/validity", deps.Portfolio.GetValidityHandler)
		v1.GET("/portfolio/:address", deps.Portfolio.GetPortfolioHandler)
	}
	if deps.Watches != nil {
		v1.POST("/watches", deps.Watches.CreateWatchHandler)
		v1.GET("/watches/:id", deps.Watches.GetWatchHandler)
		v1.PUT("/watches/:id", deps.Watches.UpdateWatchHandler)
		v1.DELETE("/watches/:id", deps.Watches.DeleteWatchHandler)
	}

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// Закрыть в проде.
	if deps.EnablePprof {
		pprofRouter := router.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		}
	}

	return router
}
