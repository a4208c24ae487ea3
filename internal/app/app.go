// Package app はアプリケーションの初期化と起動モードごとのワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/config"
	"github.com/hitoshi/edurecords/internal/database"
	"github.com/hitoshi/edurecords/internal/handler"
	"github.com/hitoshi/edurecords/internal/logger"
	"github.com/hitoshi/edurecords/internal/metrics"
	"github.com/hitoshi/edurecords/internal/middleware"
	"github.com/hitoshi/edurecords/internal/repository"
	"github.com/hitoshi/edurecords/internal/school"
	"github.com/hitoshi/edurecords/internal/security"
	"github.com/hitoshi/edurecords/internal/student"
	"github.com/hitoshi/edurecords/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込みのエラーもJSONで出力できるよう、先にInfoレベルで初期化する
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, ParseMigrateDirection(args))
	default:
		return runServe(cfg)
	}
}

// server はAPIサーバーの構成要素。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

func (s *server) close() {
	s.rateLimiter.Stop()
}

// newServer はDB接続から全依存関係をワイヤリングしてルーターを構築する。
// DBへの接続は行わないため、接続不能なDBでも構築できる。
func newServer(cfg *config.Config, db *sql.DB) *server {
	// 1. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	schoolRepo := repository.NewPostgresSchoolRepo(db)
	studentRepo := repository.NewPostgresStudentRepo(db)
	classRepo := repository.NewPostgresClassRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)

	// 2. メトリクス
	var (
		collector      *metrics.Collector
		metricsHandler http.Handler
		authOpts       []auth.ServiceOption
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(db, "edurecords"),
		)
		collector = metrics.NewCollector(reg)
		metricsHandler = metrics.Handler(reg)
		authOpts = append(authOpts, auth.WithLoginRecorder(collector))
	}

	// 3. 認証
	passwords := auth.NewPasswordPolicy()
	tokens := auth.NewTokenCodec(cfg.AuthConfig())
	authService := auth.NewService(userRepo, passwords, tokens, authOpts...)

	// 4. ドメインサービス
	sanitizer := security.NewTextSanitizer()
	userService := user.NewService(userRepo, passwords)
	schoolService := school.NewService(schoolRepo, sanitizer)
	studentService := student.NewService(studentRepo, sanitizer)
	classService := student.NewClassService(classRepo, studentRepo, sanitizer)
	scheduleService := student.NewScheduleService(scheduleRepo, classRepo, studentRepo)

	// 5. ルーター（レート制限の設定値はreq/min単位）
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		RateLimiter:       rateLimiter,
		TokenDecoder:      tokens,
		Metrics:           collector,
		MetricsHandler:    metricsHandler,
		DB:                db,

		AuthService:     authService,
		UserService:     userService,
		SchoolService:   schoolService,
		StudentService:  studentService,
		ClassService:    classService,
		ScheduleService: scheduleService,
	})

	return &server{handler: router, rateLimiter: rateLimiter}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL, cfg.PoolConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	srv := newServer(cfg, db)
	defer srv.close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", httpServer.Addr),
			slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// upは未適用のマイグレーションをすべて適用し、downは直近の1つを戻す。
func runMigrate(cfg *config.Config, direction MigrateDirection) error {
	slog.Info("running database migrations",
		slog.String("direction", string(direction)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	var (
		version uint
		err     error
	)
	switch direction {
	case MigrateDown:
		version, err = database.RollbackMigration(cfg.DatabaseURL)
	default:
		version, err = database.RunMigrations(cfg.DatabaseURL)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
