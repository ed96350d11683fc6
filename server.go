package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/handlers"
	"github.com/wiredpart/parts_backend/middlewares"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/queries"
	"github.com/wiredpart/parts_backend/utils"
)

const shutdownTimeout = 30 * time.Second

func main() {
	settings := config.LoadSettings()
	logger := config.NewLogger(settings.LogLevel)
	config.ReportSettingsWarnings(logger, settings)
	if settings.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run and docker both stop with SIGTERM
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	db, err := config.ConnectDatabase(settings, logger, 10)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Fatal(err.Error())
	}
	defer func() {
		_ = config.CloseDatabase(db)
	}()

	if !settings.SkipMigrations {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	rdb, lockClient, err := config.ConnectRedis(sigCtx, settings, logger, 5)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "redis"}).Fatal(err.Error())
	}
	var locker utils.StockLocker
	if lockClient != nil {
		locker = utils.NewRedisStockLocker(lockClient, logger)
		defer func() {
			_ = rdb.Close()
		}()
	} else {
		logger.WithFields(logrus.Fields{"field": "redis"}).Info("REDIS_ADDRESS not set; using in-process stock lock")
	}

	store := models.NewStore(db, settings, locker, logger)
	h := handlers.New(store, queries.NewDispatcher(store, logger), logger)

	extra := []gin.HandlerFunc{cors.New(corsConfig(settings))}
	if settings.RateLimitEnabled {
		if rdb == nil {
			logger.WithFields(logrus.Fields{"field": "rateLimit"}).Warn("RATE_LIMIT_ENABLED needs REDIS_ADDRESS; rate limiting is off")
		} else {
			limiter := middlewares.NewRateLimiter(rdb, int64(settings.RateLimitMax), settings.RateLimitWindow)
			extra = append(extra, limiter.Middleware())
		}
	}
	router := handlers.NewRouter(h, logger, extra...)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{
		"port":   settings.Port,
		"driver": settings.DBDriver,
	}).Info("parts ledger listening")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

// corsConfig allows every origin outside production. In production only the
// configured origins are allowed, and none when the list is empty.
func corsConfig(settings *config.Settings) cors.Config {
	c := cors.DefaultConfig()
	if settings.Production {
		c.AllowOrigins = settings.CorsAllowedOrigins
		if len(c.AllowOrigins) == 0 {
			c.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		c.AllowAllOrigins = true
	}
	c.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	c.AddAllowHeaders("Origin", "Content-Type", middlewares.UserIdHeader, middlewares.CorrelationIdHeader)
	c.AddExposeHeaders("Content-Length", middlewares.CorrelationIdHeader)
	return c
}
