package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aquastream/collections_backend/appctx"
	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/reports"
	"github.com/aquastream/collections_backend/telegram"
	"github.com/aquastream/collections_backend/utils"
	"github.com/aquastream/collections_backend/watersync"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	api := watersync.NewClient()
	store := watersync.NewStore()
	checker := watersync.NewChecker(api, store, watersync.DefaultConfig())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(appctx.Set(c.Request.Context(), appctx.ContextKeyCorrelationId, cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(adminTokenMiddleware())
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/api/completeness/run", watersync.TriggerRunHandler(checker))
	r.GET("/api/completeness/runs", watersync.RunHistoryHandler())
	r.GET("/api/completeness/runs/:id", watersync.RunDetailHandler())
	r.GET("/api/collections/export", exportCollectionsHandler())
	r.DELETE("/api/collections", deleteCollectionsHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	notifier := telegram.NewNotifier()

	botToken := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if botToken != "" {
		if err := telegram.Init(botToken, os.Getenv("TELEGRAM_ADMIN_CHAT_ID")); err != nil {
			config.LogError(logger, "main", "main", "telegram init", nil, err)
		} else {
			telegram.StartPolling(telegram.Deps{Checker: checker, API: api})
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "telegram"}).Warn("TELEGRAM_BOT_TOKEN not set; bot disabled")
	}

	watersync.NewScheduler(checker, notifier).Start(sigCtx)

	summaryHour := utils.IntFromEnv("DAILY_SUMMARY_HOUR", 8)
	watersync.ScheduleDailyAt(sigCtx, "daily-summary-broadcast", summaryHour, 0, utils.FleetLocation(), func(jobCtx context.Context) {
		_ = reports.BroadcastDailySummary(jobCtx, notifier)
	})

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.WithFields(logrus.Fields{"field": "server"}).Error(err)
		}
	}
}

// adminTokenMiddleware guards the API with a static token when one is
// configured. Bearer and raw token headers are both accepted.
func adminTokenMiddleware() gin.HandlerFunc {
	expected := strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN"))
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		token := strings.TrimSpace(c.GetHeader("token"))
		if token == "" {
			auth := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}
		if token != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func exportCollectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseRangeParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		data, err := reports.ExportCollectionsXLSX(c.Request.Context(), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("collections_%s_%s.xlsx",
			from.Format(utils.DateLayout), to.Format(utils.DateLayout))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

func deleteCollectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseRangeParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		deleted, err := models.DeleteCollectionsByDateRange(c.Request.Context(), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": len(deleted)})
	}
}

func parseRangeParams(c *gin.Context) (time.Time, time.Time, error) {
	loc := utils.FleetLocation()
	from, err := utils.ParseDate(c.Query("from"), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %v", err)
	}
	to, err := utils.ParseDate(c.Query("to"), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %v", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date before from date")
	}
	return from, to, nil
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		cid, _ := appctx.GetString(c.Request.Context(), appctx.ContextKeyCorrelationId)
		logger.WithFields(logrus.Fields{
			"status":         c.Writer.Status(),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"latency":        latency.String(),
			"correlation_id": cid,
		}).Info("request")
	}
}
