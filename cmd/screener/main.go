package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/guidias1961/pulse-screener/pkg/cache"
	"github.com/guidias1961/pulse-screener/pkg/enrich"
	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/guidias1961/pulse-screener/pkg/screener"
	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

const defaultSubgraphURL = "https://graph.pulsechain.com/subgraphs/name/pulsex/pulsex"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "false") == "true",
		Output: os.Stderr,
	})

	subgraphClient, err := subgraph.NewClient(subgraph.DefaultConfig(getEnv("SUBGRAPH_URL", defaultSubgraphURL)))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create subgraph client")
	}
	pager := subgraph.NewPager(subgraphClient)

	dsConfig := enrich.DefaultClientConfig()
	if url := os.Getenv("DEXSCREENER_URL"); url != "" {
		dsConfig.BaseURL = url
	}
	engine := enrich.NewEngine(enrich.NewClient(dsConfig), enrich.DefaultConfig())

	ttl := time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second
	store := newStore(logger, ttl)

	service := screener.NewService(pager, engine, store)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/tokens", tokensHandler(service))
	router.GET("/health", healthHandler(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting screener server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

// newStore picks the cache backend: Redis when REDIS_URL is set, otherwise
// the per-process memory store.
func newStore(logger zerolog.Logger, ttl time.Duration) cache.Store {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return cache.NewMemoryStore(ttl)
	}

	client := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Str("redis_url", redisURL).Msg("Redis unreachable, falling back to memory cache")
		return cache.NewMemoryStore(ttl)
	}

	logger.Info().Str("redis_url", redisURL).Msg("Using Redis cache store")
	return cache.NewRedisStore(client, ttl)
}

func tokensHandler(service *screener.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := parseParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := service.GetTokens(c.Request.Context(), params)
		if err != nil {
			if errors.Is(err, screener.ErrInvalidParams) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// parseParams reads query parameters, leaving absent ones at zero so the
// service applies its defaults.
func parseParams(c *gin.Context) (screener.Params, error) {
	var params screener.Params
	params.View = subgraph.View(c.Query("view"))

	for _, field := range []struct {
		name   string
		target *int
	}{
		{"pages", &params.Pages},
		{"ageDays", &params.AgeDays},
		{"limit", &params.Limit},
	} {
		raw := c.Query(field.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return screener.Params{}, &screener.ParamError{Field: field.name, Reason: "not an integer"}
		}
		*field.target = v
	}

	return params, nil
}

func healthHandler(store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.Len(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "cacheEntries": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cacheEntries": entries})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
