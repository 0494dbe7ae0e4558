package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "geek-ludo/internal/handler/http"
	wsHandler "geek-ludo/internal/handler/websocket"
	"geek-ludo/internal/hub"
	"geek-ludo/internal/infra/judge/httpjudge"
	gormpersistence "geek-ludo/internal/infra/persistence/gorm"
	"geek-ludo/internal/infra/prefs/envfile"
	"geek-ludo/internal/infra/setup"
	redisstate "geek-ludo/internal/infra/state/redis"
	"geek-ludo/internal/infra/transport/wsclient"
	"geek-ludo/internal/middleware"
	"geek-ludo/internal/render"
	"geek-ludo/internal/repository"
	"geek-ludo/internal/service"
	"geek-ludo/internal/worker"
)

// 偏好存储后端
const (
	PrefsBackendFile  = "file"
	PrefsBackendRedis = "redis"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	ServerURL         string
	JudgeURL          string
	JudgeTimeout      time.Duration
	ControlHost       string
	ControlPort       string
	ControlSecret     string
	JWTExpiryHours    int
	CORSAllowedOrigin string
	LogLevel          string
	AppEnv            string
	ScoringMode       string
	StepDelay         time.Duration

	PrefsBackend  string
	PrefsFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	JournalEnabled bool
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		ServerURL:         os.Getenv("SERVER_URL"),
		JudgeURL:          os.Getenv("JUDGE_URL"),
		ControlHost:       os.Getenv("CONTROL_HOST"),
		ControlPort:       os.Getenv("CONTROL_PORT"),
		ControlSecret:     os.Getenv("CONTROL_SECRET"),
		CORSAllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGIN"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AppEnv:            os.Getenv("APP_ENV"),
		ScoringMode:       os.Getenv("SCORING_MODE"),
		PrefsBackend:      strings.ToLower(os.Getenv("PREFS_BACKEND")),
		PrefsFile:         os.Getenv("PREFS_FILE"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:         os.Getenv("REDIS_KEY_PREFIX"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBName:            os.Getenv("DB_NAME"),
		// --- 设置默认值 ---
		JudgeTimeout:    30 * time.Second,
		JWTExpiryHours:  24,
		RateLimitMax:    20,
		RateLimitWindow: 1 * time.Second,
		StepDelay:       service.DefaultStepDelay,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB")) // 忽略错误，默认为 0
	cfg.JournalEnabled, _ = strconv.ParseBool(os.Getenv("JOURNAL_ENABLED"))
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_MAX must be a positive integer, got %q", v)
		}
		cfg.RateLimitMax = n
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration, got %q", v)
		}
		cfg.RateLimitWindow = d
	}
	if v := os.Getenv("STEP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("STEP_DELAY must be a non-negative duration, got %q", v)
		}
		cfg.StepDelay = d
	}

	if cfg.ControlHost == "" {
		cfg.ControlHost = "127.0.0.1"
	}
	if cfg.ControlPort == "" {
		cfg.ControlPort = "8081"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.ScoringMode == "" {
		cfg.ScoringMode = "fixed"
	}
	if cfg.PrefsBackend == "" {
		cfg.PrefsBackend = PrefsBackendFile
	}
	if cfg.PrefsFile == "" {
		cfg.PrefsFile = defaultPrefsFile()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ludo:"
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("environment variable SERVER_URL must be set")
	}
	if cfg.JudgeURL == "" {
		judgeURL, err := judgeURLFromServer(cfg.ServerURL)
		if err != nil {
			return nil, err
		}
		cfg.JudgeURL = judgeURL
	}
	if _, err := service.ParseScoringMode(cfg.ScoringMode); err != nil {
		return nil, fmt.Errorf("SCORING_MODE %q: %w", cfg.ScoringMode, err)
	}
	switch cfg.PrefsBackend {
	case PrefsBackendFile:
	case PrefsBackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("PREFS_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown PREFS_BACKEND %q", cfg.PrefsBackend)
	}
	if cfg.JournalEnabled {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("JOURNAL_ENABLED requires REDIS_ADDR for the task queue")
		}
		if cfg.DBHost == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("JOURNAL_ENABLED requires DB_HOST and DB_NAME")
		}
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// judgeURLFromServer 由游戏服务端地址推导评测服务地址 (同源，ws→http，wss→https)
func judgeURLFromServer(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid SERVER_URL %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("SERVER_URL %q must use ws or wss", serverURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("SERVER_URL %q has no host", serverURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".geek-ludo.env"
	}
	return dir + string(os.PathSeparator) + "geek-ludo" + string(os.PathSeparator) + "prefs.env"
}

// App 结构体包含应用的所有组件和配置
type App struct {
	Config        *Config
	Log           *logrus.Logger
	DeviceID      string
	DB            *gorm.DB
	RedisClient   *redis.Client
	AsynqClient   *asynq.Client
	JournalWorker *worker.JournalWorker
	Engine        *service.Engine
	Game          *service.GameService
	Observer      *render.Observer
	Transport     *wsclient.Client
	Hub           *hub.Hub
	Auth          *service.AuthService
	HttpServer    *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger。各包通过 logrus 的全局 logger 记录日志，这里统一配置它。
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s, Format: %T)", logLevel.String(), log.Formatter)
	log.Info("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Config: cfg, Log: log, ctx: ctx, cancel: cancel}
	fail := func(err error) (*App, error) {
		app.Shutdown()
		return nil, err
	}

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	if cfg.RedisAddr != "" {
		redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("failed to init Redis: %w", err))
		}
		app.RedisClient = redisClient
		log.Info("Redis client initialized")
	}

	var prefsRepo repository.PreferenceRepository
	if cfg.PrefsBackend == PrefsBackendRedis {
		prefsRepo = redisstate.NewRedisPreferenceRepository(app.RedisClient, cfg.KeyPrefix)
	} else {
		prefsRepo = envfile.NewPreferenceRepository(cfg.PrefsFile)
	}
	log.WithField("backend", cfg.PrefsBackend).Info("Preference store initialized")

	var journalService *service.JournalService
	if cfg.JournalEnabled {
		db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fail(fmt.Errorf("failed to init DB: %w", err))
		}
		app.DB = db
		log.Info("Database initialized")

		if err := setup.MigrateDB(db); err != nil {
			return fail(fmt.Errorf("failed to migrate DB: %w", err))
		}
		log.Info("Database migrated")

		redisClientOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		journalRepo := gormpersistence.NewGormJournalRepository(db)
		app.AsynqClient = asynq.NewClient(redisClientOpt)
		app.JournalWorker = worker.NewJournalWorker(redisClientOpt, journalRepo, log)
		journalService = service.NewJournalService(app.AsynqClient, journalRepo)
		log.Info("Match journal enabled")
	}
	log.Info("Infrastructure initialized successfully")

	// 4. 设备身份
	identity := service.NewIdentityProvider(prefsRepo)
	deviceID, err := identity.DeviceID(ctx)
	if err != nil {
		// 仍然可以用临时 ID 继续游戏，只是重启后无法恢复座位
		log.WithError(err).Warn("Device id is not persisted, seat resume after restart will not work")
	}
	app.DeviceID = deviceID

	// 5. 事件循环与状态机
	log.Info("Initializing game services...")
	scoringMode, _ := service.ParseScoringMode(cfg.ScoringMode)
	engine := service.NewEngine(256)
	clk := clock.New()
	transport := wsclient.NewClient(cfg.ServerURL)
	observer := render.NewObserver(render.LogSink(log))

	deps := service.MachineDeps{
		Transport: transport,
		Judge:     httpjudge.NewClient(cfg.JudgeURL, cfg.JudgeTimeout),
		Runner:    service.NewLoopRunner(ctx, engine.Post),
		Scheduler: service.NewClockScheduler(clk, engine.Post),
		Scoring:   service.NewScoring(scoringMode, rand.New(rand.NewSource(clk.Now().UnixNano()))),
		Observer:  observer,
		Clock:     clk,
		StepDelay: cfg.StepDelay,
		UserID:    deviceID,
	}
	if journalService != nil {
		deps.Recorder = journalService
	}
	machine := service.NewMachine(deps)
	game := service.NewGameService(engine, machine, identity, journalService)

	hubInstance := hub.NewHub(game)
	observer.AddSink(hubInstance)

	app.Engine = engine
	app.Game = game
	app.Observer = observer
	app.Transport = transport
	app.Hub = hubInstance
	log.Info("Game services initialized")

	// 6. 控制接口
	controlSecret := cfg.ControlSecret
	if controlSecret == "" {
		controlSecret = uuid.NewString()
		log.Info("CONTROL_SECRET not set, generated a per-process secret")
	}
	authService, err := service.NewAuthService(controlSecret, cfg.JWTExpiryHours)
	if err != nil {
		return fail(fmt.Errorf("failed to create AuthService: %w", err))
	}
	app.Auth = authService

	log.Info("Initializing handlers...")
	authHandler := httpHandler.NewAuthHandler(authService, deviceID)
	gameHandler := httpHandler.NewGameHandler(game, observer)
	viewHandler := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin)

	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSAllowedOrigin))

	protected := []gin.HandlerFunc{middleware.Auth(controlSecret)}
	if app.RedisClient != nil {
		protected = append(protected, middleware.RateLimit(app.RedisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	api := router.Group("/api")
	api.POST("/token", authHandler.Token)
	gameRoutes := api.Group("").Use(protected...)
	{
		gameRoutes.GET("/view", gameHandler.View)
		gameRoutes.POST("/join", gameHandler.Join)
		gameRoutes.POST("/start", gameHandler.Start)
		gameRoutes.POST("/challenge/open", gameHandler.OpenChallenge)
		gameRoutes.POST("/challenge/submit", gameHandler.Submit)
		gameRoutes.POST("/challenge/skip", gameHandler.Skip)
		gameRoutes.POST("/review/verdict", gameHandler.Verdict)
		gameRoutes.POST("/scoring", gameHandler.Scoring)
		gameRoutes.POST("/exit", gameHandler.Exit)
		gameRoutes.GET("/journal", gameHandler.Journal)
	}
	wsRoutes := router.Group("/ws").Use(middleware.Auth(controlSecret))
	{
		wsRoutes.GET("/view", viewHandler.HandleConnection)
	}
	log.Info("Router setup complete")

	app.HttpServer = &http.Server{
		Addr:              cfg.ControlHost + ":" + cfg.ControlPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Application assembled successfully")
	return app, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Engine.Run(a.ctx)
	go a.Hub.Run(a.ctx)

	if a.JournalWorker != nil {
		if err := a.JournalWorker.Start(); err != nil {
			// 日志只是附加功能，worker 起不来不影响对局
			a.Log.WithError(err).Error("Journal worker unavailable, queued entries will wait")
		}
	}

	loadCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	if err := a.Game.LoadLobbyDefaults(loadCtx); err != nil {
		a.Log.WithError(err).Warn("Failed to load lobby defaults")
	}
	cancel()

	go a.Transport.Run(a.ctx, a.Game)
	a.Log.WithField("server_url", a.Config.ServerURL).Info("Game server transport started")

	token, err := a.Auth.IssueToken(a.DeviceID)
	if err != nil {
		a.Log.WithError(err).Error("Failed to issue control token")
	} else {
		a.Log.WithFields(logrus.Fields{
			"view_url": "ws://" + a.HttpServer.Addr + "/ws/view?token=" + token,
		}).Info("Control token issued")
	}

	go func() {
		a.Log.Infof("HTTP control server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用，可以在部分初始化后调用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 关闭控制接口
	if a.HttpServer != nil {
		a.Log.Info("Shutting down HTTP server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
		cancel()
	}

	// 2. 停止事件循环、传输层和 Hub
	a.cancel()
	if a.Engine != nil {
		a.Engine.Stop()
	}

	// 3. 优雅关闭 Worker Server，排队中的日志仍会写入
	if a.JournalWorker != nil {
		a.JournalWorker.Shutdown()
	}

	// 4. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	// 5. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 6. 关闭数据库连接
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil && sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			} else {
				a.Log.Info("Database connection closed.")
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000" // 开发默认
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		// 不记录 query，其中可能带有 token
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Debug("Request handled")
		}
	}
}
