// Command server starts the Clipstream API HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"clipstream/internal/api"
	"clipstream/internal/auth"
	"clipstream/internal/observability/logging"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/server"
	"clipstream/internal/serverutil"
	"clipstream/internal/storage"
	"clipstream/internal/views"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address")
	dataPath := flag.String("data", "", "path to JSON datastore")
	storageDriver := flag.String("storage-driver", "", "datastore driver (json or postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	postgresMaxConns := flag.Int("postgres-max-conns", 0, "maximum connections in the Postgres pool")
	postgresMinConns := flag.Int("postgres-min-conns", 0, "minimum idle connections maintained by the Postgres pool")
	postgresMaxConnLifetime := flag.Duration("postgres-max-conn-lifetime", 0, "maximum lifetime for a pooled Postgres connection")
	postgresMaxConnIdle := flag.Duration("postgres-max-conn-idle", 0, "maximum idle time for a pooled Postgres connection")
	postgresHealthInterval := flag.Duration("postgres-health-interval", 0, "interval between Postgres health checks")
	postgresAcquireTimeout := flag.Duration("postgres-acquire-timeout", 0, "timeout when acquiring a Postgres connection from the pool")
	postgresAppName := flag.String("postgres-app-name", "", "application_name reported to Postgres")
	mode := flag.String("mode", "", "server runtime mode (development or production)")
	allowSelfSignup := flag.Bool("allow-self-signup", false, "allow unauthenticated visitors to register accounts")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	accessSecret := flag.String("access-token-secret", "", "signing secret for access tokens")
	refreshSecret := flag.String("refresh-token-secret", "", "signing secret for refresh tokens")
	accessTTL := flag.Duration("access-token-ttl", 0, "access token lifetime")
	refreshTTL := flag.Duration("refresh-token-ttl", 0, "refresh token lifetime")
	secureCookies := flag.Bool("secure-cookies", false, "always set the Secure attribute on session cookies")
	viewsRedisAddr := flag.String("views-redis-addr", "", "Redis address for buffered view counting")
	viewsRedisUsername := flag.String("views-redis-username", "", "Redis username for buffered view counting")
	viewsRedisPassword := flag.String("views-redis-password", "", "Redis password for buffered view counting")
	viewsRedisDB := flag.Int("views-redis-db", 0, "Redis database for buffered view counting")
	viewsFlushInterval := flag.Duration("views-flush-interval", 0, "interval between view counter flushes")
	objectEndpoint := flag.String("object-endpoint", "", "object storage endpoint (e.g. http://127.0.0.1:9000)")
	objectRegion := flag.String("object-region", "", "object storage region")
	objectAccessKey := flag.String("object-access-key", "", "object storage access key")
	objectSecretKey := flag.String("object-secret-key", "", "object storage secret key")
	objectBucket := flag.String("object-bucket", "", "object storage bucket name")
	objectUseSSL := flag.Bool("object-use-ssl", false, "enable TLS for object storage requests")
	objectPrefix := flag.String("object-prefix", "", "object storage key prefix for media uploads")
	objectPublicEndpoint := flag.String("object-public-endpoint", "", "public endpoint used for media URLs")
	flag.Parse()

	logger := logging.New(logging.Config{Level: firstNonEmpty(*logLevel, os.Getenv("CLIPSTREAM_LOG_LEVEL"))})
	auditLogger := logging.WithComponent(logger, "audit")
	recorder := metrics.Default()

	allowSelfSignupValue := *allowSelfSignup
	if env, ok := os.LookupEnv("CLIPSTREAM_ALLOW_SELF_SIGNUP"); ok {
		if value, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			allowSelfSignupValue = value
		} else {
			logger.Warn("invalid CLIPSTREAM_ALLOW_SELF_SIGNUP", "value", env, "error", err)
		}
	}

	serverMode := modeValue(*mode, os.Getenv("CLIPSTREAM_MODE"))
	listenAddr := resolveListenAddr(*addr, serverMode, os.Getenv("CLIPSTREAM_ADDR"))

	tlsCertPath := firstNonEmpty(*tlsCert, os.Getenv("CLIPSTREAM_TLS_CERT"))
	tlsKeyPath := firstNonEmpty(*tlsKey, os.Getenv("CLIPSTREAM_TLS_KEY"))

	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		AccessSecret:  firstNonEmpty(*accessSecret, os.Getenv("CLIPSTREAM_ACCESS_TOKEN_SECRET")),
		RefreshSecret: firstNonEmpty(*refreshSecret, os.Getenv("CLIPSTREAM_REFRESH_TOKEN_SECRET")),
		AccessTTL:     resolveDuration(*accessTTL, "CLIPSTREAM_ACCESS_TOKEN_TTL", 0),
		RefreshTTL:    resolveDuration(*refreshTTL, "CLIPSTREAM_REFRESH_TOKEN_TTL", 0),
	})
	if err != nil {
		logger.Error("failed to configure token signing", "error", err)
		os.Exit(1)
	}

	postgresDefaultDSN := resolvePostgresDSN(*postgresDSN)
	driver, err := resolveStorageDriver(*storageDriver, os.Getenv("CLIPSTREAM_STORAGE_DRIVER"), postgresDefaultDSN)
	if err != nil {
		logger.Error("failed to resolve storage driver", "error", err)
		os.Exit(1)
	}
	if serverMode == "production" {
		if err := validateProductionDatastore(driver, postgresDefaultDSN, os.Getenv("CLIPSTREAM_POSTGRES_DSN")); err != nil {
			logger.Error("production datastore validation failed", "error", err)
			os.Exit(1)
		}
	}

	var store storage.Repository
	switch driver {
	case "json":
		dataFile := resolveDataPath(*dataPath, os.Getenv("CLIPSTREAM_DATA"))
		store, err = storage.NewJSONRepository(dataFile)
	case "postgres":
		if postgresDefaultDSN == "" {
			logger.Error("postgres storage selected without DSN")
			os.Exit(1)
		}
		var pgOptions []storage.Option
		maxConns := resolveInt(*postgresMaxConns, "CLIPSTREAM_POSTGRES_MAX_CONNS")
		minConns := resolveInt(*postgresMinConns, "CLIPSTREAM_POSTGRES_MIN_CONNS")
		if maxConns > 0 || minConns > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresPoolLimits(int32(maxConns), int32(minConns)))
		}
		maxLifetime := resolveDuration(*postgresMaxConnLifetime, "CLIPSTREAM_POSTGRES_MAX_CONN_LIFETIME", 0)
		maxIdle := resolveDuration(*postgresMaxConnIdle, "CLIPSTREAM_POSTGRES_MAX_CONN_IDLE", 0)
		healthInterval := resolveDuration(*postgresHealthInterval, "CLIPSTREAM_POSTGRES_HEALTH_INTERVAL", 0)
		if maxLifetime > 0 || maxIdle > 0 || healthInterval > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresPoolDurations(maxLifetime, maxIdle, healthInterval))
		}
		if acquireTimeout := resolveDuration(*postgresAcquireTimeout, "CLIPSTREAM_POSTGRES_ACQUIRE_TIMEOUT", 0); acquireTimeout > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresAcquireTimeout(acquireTimeout))
		}
		if appName := firstNonEmpty(*postgresAppName, os.Getenv("CLIPSTREAM_POSTGRES_APP_NAME")); appName != "" {
			pgOptions = append(pgOptions, storage.WithPostgresApplicationName(appName))
		}
		store, err = storage.NewPostgresRepository(postgresDefaultDSN, pgOptions...)
	default:
		logger.Error("unsupported storage driver", "driver", driver)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(codec, store)

	objects := storage.NewObjectStorage(storage.ObjectStorageConfig{
		Endpoint:       firstNonEmpty(*objectEndpoint, os.Getenv("CLIPSTREAM_OBJECT_ENDPOINT")),
		Region:         firstNonEmpty(*objectRegion, os.Getenv("CLIPSTREAM_OBJECT_REGION")),
		AccessKey:      firstNonEmpty(*objectAccessKey, os.Getenv("CLIPSTREAM_OBJECT_ACCESS_KEY")),
		SecretKey:      firstNonEmpty(*objectSecretKey, os.Getenv("CLIPSTREAM_OBJECT_SECRET_KEY")),
		Bucket:         firstNonEmpty(*objectBucket, os.Getenv("CLIPSTREAM_OBJECT_BUCKET")),
		UseSSL:         resolveBool(*objectUseSSL, "CLIPSTREAM_OBJECT_USE_SSL"),
		Prefix:         strings.TrimSpace(firstNonEmpty(*objectPrefix, os.Getenv("CLIPSTREAM_OBJECT_PREFIX"))),
		PublicEndpoint: firstNonEmpty(*objectPublicEndpoint, os.Getenv("CLIPSTREAM_OBJECT_PUBLIC_ENDPOINT")),
	})

	var counter views.Counter
	if redisAddr := firstNonEmpty(*viewsRedisAddr, os.Getenv("CLIPSTREAM_VIEWS_REDIS_ADDR")); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Username: firstNonEmpty(*viewsRedisUsername, os.Getenv("CLIPSTREAM_VIEWS_REDIS_USERNAME")),
			Password: firstNonEmpty(*viewsRedisPassword, os.Getenv("CLIPSTREAM_VIEWS_REDIS_PASSWORD")),
			DB:       resolveInt(*viewsRedisDB, "CLIPSTREAM_VIEWS_REDIS_DB"),
		})
		counter = views.NewRedisCounter(client)
		logger.Info("view counting backed by Redis", "addr", redisAddr)
	} else {
		counter = views.NewMemoryCounter()
	}

	flusher, err := views.NewFlusher(views.FlusherConfig{
		Counter:    counter,
		Repository: store,
		Interval:   resolveDuration(*viewsFlushInterval, "CLIPSTREAM_VIEWS_FLUSH_INTERVAL", 0),
		Logger:     logging.WithComponent(logger, "views"),
		Metrics:    recorder,
	})
	if err != nil {
		logger.Error("failed to configure view flusher", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(store, sessions)
	handler.Objects = objects
	handler.Views = counter
	handler.Metrics = recorder
	handler.AllowSelfSignup = allowSelfSignupValue
	if resolveBool(*secureCookies, "CLIPSTREAM_SECURE_COOKIES") {
		handler.SessionCookiePolicy = api.SessionCookiePolicy{SecureMode: api.SessionCookieSecureAlways}
	}

	srv, err := server.New(handler, server.Config{
		Addr:        listenAddr,
		Logger:      logger,
		AuditLogger: auditLogger,
		Metrics:     recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		flusher.Run(workerCtx)
	}()

	logger.Info("Clipstream API listening", "addr", listenAddr, "mode", serverMode)
	if tlsCertPath != "" && tlsKeyPath != "" {
		logger.Info("TLS enabled", "cert_file", tlsCertPath)
	}
	logger.Info("metrics endpoint available", "path", "/metrics")

	runErr := serverutil.Run(context.Background(), serverutil.Config{
		Server: srv.HTTPServer(),
		TLS: serverutil.TLSConfig{
			CertFile: tlsCertPath,
			KeyFile:  tlsKeyPath,
		},
		Logger: logger,
	})

	workerCancel()
	<-flusherDone

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if closer, ok := store.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(closeCtx); err != nil {
			logger.Warn("failed to close datastore", "error", err)
		}
	} else if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close datastore", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("server error", "error", runErr)
		os.Exit(1)
	}
}

func resolveListenAddr(flagValue, mode, envAddr string) string {
	listenAddr := strings.TrimSpace(flagValue)
	if listenAddr == "" {
		listenAddr = strings.TrimSpace(envAddr)
	}
	if listenAddr == "" {
		listenAddr = defaultListenForMode(mode)
	}
	return listenAddr
}

func modeValue(flagMode, envMode string) string {
	mode := strings.ToLower(strings.TrimSpace(flagMode))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(envMode))
	}
	if mode == "" {
		mode = "development"
	}
	return mode
}

func defaultListenForMode(mode string) string {
	if mode == "production" {
		return ":80"
	}
	return ":8080"
}

func resolveStorageDriver(flagValue, envValue, postgresDSN string) (string, error) {
	if driver := strings.ToLower(strings.TrimSpace(flagValue)); driver != "" {
		return driver, nil
	}
	if driver := strings.ToLower(strings.TrimSpace(envValue)); driver != "" {
		return driver, nil
	}
	if strings.TrimSpace(postgresDSN) != "" {
		return "postgres", nil
	}
	return "json", nil
}

func validateProductionDatastore(driver, resolvedPostgresDSN, envPostgresDSN string) error {
	if driver != "postgres" {
		return fmt.Errorf("production mode requires the postgres datastore driver, got %q", driver)
	}
	if strings.TrimSpace(envPostgresDSN) == "" && strings.TrimSpace(resolvedPostgresDSN) == "" {
		return fmt.Errorf("production mode requires CLIPSTREAM_POSTGRES_DSN to be set")
	}
	return nil
}

func resolveDataPath(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := strings.TrimSpace(envValue); env != "" {
		return env
	}
	return "data/store.json"
}

func resolvePostgresDSN(flagValue string) string {
	return strings.TrimSpace(firstNonEmpty(flagValue, os.Getenv("CLIPSTREAM_POSTGRES_DSN"), os.Getenv("DATABASE_URL")))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func resolveInt(flagValue int, envKey string) int {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return 0
}

func resolveDuration(flagValue time.Duration, envKey string, fallback time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := time.ParseDuration(env); err == nil {
			return value
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

func resolveBool(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}
	if env, ok := os.LookupEnv(envKey); ok {
		if value, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return false
}
