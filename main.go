package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tasks-api/api"
	"tasks-api/storage"
)

func main() {
	_ = godotenv.Load()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	store, sink := buildStore()

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(parseRedisOptions(redisConn))
		ttl := 5 * time.Minute
		if v := os.Getenv("CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid CACHE_TTL: %v", err)
			}
			ttl = d
		}
		store = storage.NewCache(store, rc, ttl)
	}

	auth := buildAuth()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("tasks_api"))
	e.GET("/metrics", echoprometheus.NewHandler())

	logger := log.New()
	api.Register(e, store, auth, sink, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func buildStore() (api.TaskStore, api.EventSink) {
	driver := strings.ToLower(os.Getenv("STORAGE_DRIVER"))
	switch driver {
	case "azure":
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		tasksTable := os.Getenv("TASKS_TABLE")
		eventQueue := os.Getenv("EVENTS_QUEUE")
		if connStr == "" || tasksTable == "" || eventQueue == "" {
			log.Fatal("missing azure storage config")
		}
		s, err := storage.New(connStr, tasksTable, eventQueue)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return s, s
	case "postgres":
		dsn := os.Getenv("POSTGRES_DSN")
		if dsn == "" {
			log.Fatal("missing POSTGRES_DSN")
		}
		s, err := storage.NewPostgres(context.Background(), dsn)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return s, nil
	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "./tasks.db"
		}
		s, err := storage.NewSQLite(path)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return s, nil
	case "", "memory":
		log.Warn("using in-memory store; tasks will not survive a restart")
		return storage.NewMemory(), nil
	default:
		log.Fatalf("unsupported STORAGE_DRIVER %q", driver)
		return nil, nil
	}
}

func buildAuth() *api.Auth {
	localMode := os.Getenv("LOCAL_AUTH_MODE") != "" || os.Getenv("AUTH_TEST_MODE") == "1"
	if localMode {
		return api.NewAuth(nil, "", "")
	}

	audience := os.Getenv("AUTH_AUDIENCE")
	domain := os.Getenv("AUTH_DOMAIN")
	if audience == "" || domain == "" {
		log.Fatal("missing auth config")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		log.Fatalf("jwks: %v", err)
	}
	return api.NewAuth(jwks, audience, "https://"+domain+"/")
}

// parseRedisOptions accepts either a redis URL or an Azure-style
// "host:port,password=...,ssl=true" connection string.
func parseRedisOptions(redisConn string) *redis.Options {
	opts, err := redis.ParseURL(redisConn)
	if err == nil {
		return opts
	}
	parts := strings.Split(redisConn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
