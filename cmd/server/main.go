package main

import (
	"os"
	"strconv"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sparksblog/sparks/auth"
	"github.com/sparksblog/sparks/feed"
	"github.com/sparksblog/sparks/server"
	"github.com/sparksblog/sparks/storage"
	"github.com/sparksblog/sparks/utils"
	"github.com/sparksblog/sparks/utils/dotenv"
	"github.com/sparksblog/sparks/utils/flag"
	. "github.com/sparksblog/sparks/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func init() {
	Log.Info("api server initialized")
}

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Log.Info("api server shutdown")
}

func feedConfigFromEnv() feed.Config {
	config := feed.Config{}
	if v := os.Getenv("SPARKS_FEED_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Limit = n
		}
	}
	// the length cap is deployment-specific, off unless configured
	if v := os.Getenv("SPARKS_MAX_IDEA_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxIdeaLen = n
		}
	}
	return config
}

func newMailer() auth.Mailer {
	if utils.IsProdEnv() {
		mailer, err := auth.NewSESMailer()
		if err != nil {
			Log.Fatal("fail to create SES mailer: ", err)
		}
		return mailer
	}
	return auth.LogMailer{}
}

func newAuthStore() auth.Store {
	store, err := auth.GetRedisStore()
	if err != nil {
		if utils.IsProdEnv() {
			Log.Fatal("fail to connect to redis: ", err)
		}
		Log.Info("redis not available, falling back to in-memory session store")
		return auth.NewMemoryStore()
	}
	return store
}

func newStatsdClient() *statsd.Client {
	client, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		Log.Info("statsd not available, counters disabled")
		return nil
	}
	return client
}

func main() {
	defer cleanup()

	flag.ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	utils.DatabaseSetupAndMigration(db)
	gormStorage := storage.NewGorm(db)

	authService := auth.NewService(newAuthStore(), gormStorage, newMailer(), auth.NewHolder(), auth.Config{
		BaseURL: os.Getenv("APP_BASE_URL"),
		OAuth:   auth.GithubOAuthConfig(),
	})

	bus := server.NewBus()
	defer bus.Close()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(flag.ServiceName))

	server.RegisterRoutes(router, server.Deps{
		Storage:    gormStorage,
		Auth:       authService,
		Bus:        bus,
		FeedConfig: feedConfigFromEnv(),
		Statsd:     newStatsdClient(),
	})

	Log.Info("api server starts up")
	router.Run(":8080")
}
