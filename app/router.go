package app

import (
	"bitwise74/file-catalog/app/file"
	"bitwise74/file-catalog/app/root"
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/pkg/middleware"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Multipart bodies above this are spooled to disk
const maxMultipartMemory = 8 << 20

func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()

	// Without configured origins only same origin requests work
	if origins := viper.GetStringSlice("host.cors"); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.MetricsMiddleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = maxMultipartMemory

	// GET /metrics			-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	m := router.Group("/api")
	if rateLimit := viper.GetInt("security.rate_limit"); rateLimit > 0 {
		m.Use(middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: rateLimit,
			Burst:             rateLimit * 2,
		}))
	}

	// HEAD /api/heartbeat 		-> Used to check if the server is alive
	m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })

	listCache := listCacheMiddleware()

	f := m.Group("/v1/files")
	{
		// POST /api/v1/files/upload		-> Uploads a new file
		f.POST("/upload", middleware.BodySizeLimiter(d.MaxUploadSize+maxMultipartOverhead), func(c *gin.Context) { file.FileUpload(c, d) })

		// PATCH /api/v1/files/:fileId/rename	-> Renames a file owned by a user
		f.PATCH("/:fileId/rename", middleware.BodySizeLimiter(1<<20), func(c *gin.Context) { file.FileRename(c, d) })

		// GET /api/v1/files/list		-> Lists a user's files or every public file
		f.GET("/list", listCache, func(c *gin.Context) { file.FileList(c, d) })

		// GET /api/v1/files/tags		-> Lists the tags a user has used
		f.GET("/tags", listCache, func(c *gin.Context) { file.FileTags(c, d) })

		// GET /api/v1/files/stats		-> Returns the storage usage of a user
		f.GET("/stats", func(c *gin.Context) { file.FileStats(c, d) })

		// DELETE /api/v1/files/:fileId		-> Deletes a file owned by a user
		f.DELETE("/:fileId", func(c *gin.Context) { file.FileDelete(c, d) })

		// GET /api/v1/files/:fileId/download	-> Streams a file's content
		f.GET("/:fileId/download", func(c *gin.Context) { file.FileDownload(c, d) })

		// PATCH /api/v1/files/:fileId/visibility	-> Changes the visibility of a file
		f.PATCH("/:fileId/visibility", middleware.BodySizeLimiter(1<<20), func(c *gin.Context) { file.FileVisibility(c, d) })
	}

	return router
}

// Room for the multipart framing and the text fields next to the file
const maxMultipartOverhead = 1 << 20

// listCacheMiddleware caches listing responses for cache.list_ttl seconds
// in redis when configured, in process memory otherwise. Listings may then
// lag behind writes by up to the TTL.
func listCacheMiddleware() gin.HandlerFunc {
	ttl := time.Duration(viper.GetInt("cache.list_ttl")) * time.Second
	if ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var store persist.CacheStore

	if addr := viper.GetString("cache.redis_addr"); addr != "" {
		store = persist.NewRedisStore(redis.NewClient(&redis.Options{
			Network: "tcp",
			Addr:    addr,
		}))

		zap.L().Info("Caching listings in redis", zap.String("addr", addr), zap.Duration("ttl", ttl))
	} else {
		store = persist.NewMemoryStore(ttl)
	}

	return cache.CacheByRequestURI(store, ttl)
}
