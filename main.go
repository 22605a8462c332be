package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/maze-arcade/api"
	gameapi "github.com/beka-birhanu/maze-arcade/api/game"
	api_i "github.com/beka-birhanu/maze-arcade/api/i"
	"github.com/beka-birhanu/maze-arcade/api/identity"
	"github.com/beka-birhanu/maze-arcade/config"
	"github.com/beka-birhanu/maze-arcade/infrastruture/clock"
	"github.com/beka-birhanu/maze-arcade/infrastruture/ledger"
	logger "github.com/beka-birhanu/maze-arcade/infrastruture/log"
	"github.com/beka-birhanu/maze-arcade/infrastruture/metrics"
	"github.com/beka-birhanu/maze-arcade/infrastruture/repo"
	"github.com/beka-birhanu/maze-arcade/infrastruture/token"
	"github.com/beka-birhanu/maze-arcade/service"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	playersCollection  = "players"
	attemptsCollection = "attempts"
)

// Global variables for dependencies
var (
	mongoClient      *mongo.Client
	redisClient      *redis.Client
	playerRepo       *repo.PlayerRepo
	attemptRepo      *repo.AttemptRepo
	creditLedger     i.Ledger
	arcadeMetrics    *metrics.Arcade
	arcadeManager    *service.ArcadeManager
	arcadeController api_i.Controller
	jwtTokenizer     i.Tokenizer
	authService      i.Authenticator
	authController   api_i.Controller
	router           *api.Router
	appLogger        *logger.Logger
)

func newLogger(name, color string) *logger.Logger {
	l, err := logger.New(name, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", name, err))
		os.Exit(1)
	}
	if err := l.SetLevel(config.Envs.LogLevel); err != nil {
		appLogger.Warning(fmt.Sprintf("Invalid log level %q for %s, keeping default", config.Envs.LogLevel, name))
	}
	return l
}

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initRepos(ctx context.Context, client *mongo.Client) {
	playerRepo = repo.NewPlayerRepo(client, config.Envs.DBName, playersCollection)
	attemptRepo = repo.NewAttemptRepo(client, config.Envs.DBName, attemptsCollection, playersCollection)

	if err := playerRepo.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating player indexes: %v", err))
		os.Exit(1)
	}
	if err := attemptRepo.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating attempt indexes: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Repositories initialized")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
		DB:       config.Envs.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initLedger() {
	var err error
	creditLedger, err = ledger.NewRedisLedger(redisClient, ledger.Options{
		EntryFee: config.Envs.EntryFee,
		WinPrize: config.Envs.WinPrize,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating credit ledger: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Credit ledger initialized")
}

func initMetrics() {
	var err error
	arcadeMetrics, err = metrics.NewArcade(prometheus.DefaultRegisterer)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Registering metrics: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Metrics initialized")
}

func initArcadeManager() {
	arcadeLogger := newLogger("ARCADE", config.ColorCyan)
	managerLogger := newLogger("ARCADE-MANAGER", config.ColorMagenta)
	tick := time.Duration(config.Envs.TickInterval) * time.Millisecond

	var err error
	arcadeManager, err = service.NewArcadeManager(&service.ArcadeConfig{
		NewController: func(player uuid.UUID, r i.Renderer) (*service.Controller, error) {
			return service.NewController(service.ControllerConfig{
				PlayerID:          player,
				Width:             config.Envs.MazeWidth,
				Height:            config.Envs.MazeHeight,
				Duration:          time.Duration(config.Envs.MazeDuration) * time.Second,
				TickInterval:      tick,
				SettlementTimeout: time.Duration(config.Envs.SettlementTimeout) * time.Second,
				Entry:             creditLedger,
				Reward:            creditLedger,
				Recorder:          attemptRepo,
				Renderer:          r,
				Metrics:           arcadeMetrics,
				Logger:            arcadeLogger,
			})
		},
		NewClock: func() i.Clock { return clock.NewTicker(tick) },
		IdleTTL:  time.Duration(config.Envs.SessionIdleTTL) * time.Second,
		Logger:   managerLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating arcade manager: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Arcade manager initialized")
}

func initArcadeController() {
	var err error
	arcadeController, err = gameapi.NewArcadeController(gameapi.Config{
		Arcade:   arcadeManager,
		Ledger:   creditLedger,
		Attempts: attemptRepo,
		Logger:   newLogger("ARCADE-API", config.ColorBlue),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating arcade controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Arcade controller initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	var err error
	authService, err = service.NewAuth(&service.AuthConfig{
		PlayerRepo:     playerRepo,
		Tokenizer:      jwtTokenizer,
		Ledger:         creditLedger,
		StarterCredits: config.Envs.StarterCredits,
		Logger:         newLogger("AUTH", config.ColorYellow),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initAuthController() {
	authController = identity.NewIdentityServer(authService)
	appLogger.Info("Auth controller initialized")
}

func initRouter(t i.Tokenizer) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Mode:                    config.Envs.GinMode,
		Controllers:             []api_i.Controller{authController, arcadeController},
		AuthorizationMiddleware: identity.Authoriz(t),
		MetricsHandler:          promhttp.Handler(),
	})
	appLogger.Info("Router initialized")
}

func main() {
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelSetup()

	// Initialize dependencies
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	initMongo(setupCtx)
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	initRepos(setupCtx, mongoClient)

	initRedis(setupCtx)
	defer redisClient.Close()

	initLedger()
	initMetrics()
	initArcadeManager()
	initArcadeController()
	initJWTTokenizer()
	initAuthService()
	initAuthController()
	initRouter(jwtTokenizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run HTTP server until interrupted
	if err := router.Run(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Running server: %v", err))
	}

	// Let in-flight settlements finish before the stores close.
	arcadeManager.StopAll()
	appLogger.Info("Shut down")
}
