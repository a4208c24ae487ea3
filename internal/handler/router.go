package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/edurecords/internal/metrics"
	"github.com/hitoshi/edurecords/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	// TrustProxyHeaders はX-Forwarded-For/X-Real-IPでRemoteAddrを書き換えるかどうか。
	// 信頼できるリバースプロキシ配下でのみ有効にする
	TrustProxyHeaders bool
	RateLimiter       *middleware.RateLimiter
	TokenDecoder      middleware.TokenDecoder

	// メトリクス。nilの場合は記録も/metricsの公開も行わない
	Metrics        *metrics.Collector
	MetricsHandler http.Handler

	// ヘルスチェック
	DB Pinger

	// サービス
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	SchoolService   SchoolServiceInterface
	StudentService  StudentServiceInterface
	ClassService    ClassServiceInterface
	ScheduleService ScheduleServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → ResponseTime → Logging → Metrics
//
// 認証が必要なルートにはさらに Identity → RateLimit(General) → RequireActive を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// ログインのIP単位レート制限より前に実IPへ書き換える
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewResponseTimeMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))

	var identityOpts []middleware.IdentityOption
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		identityOpts = append(identityOpts, middleware.WithRejectionRecorder(deps.Metrics))
	}

	healthHandler := NewHealthHandler(deps.DB)
	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	schoolHandler := NewSchoolHandler(deps.SchoolService)
	studentHandler := NewStudentHandler(deps.StudentService)
	classHandler := NewClassHandler(deps.ClassService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ログインと登録はクライアントIP単位のレート制限を共有する
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())
		r.Post("/auth/login", authHandler.Login)
		r.Post("/users", userHandler.Register)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.TokenDecoder, identityOpts...))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.RequireActive())

		r.Get("/auth/me", authHandler.Me)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Put("/", userHandler.UpdateUser)
			r.Delete("/", userHandler.DeleteUser)
			r.Put("/password", userHandler.ChangePassword)
		})

		r.Route("/schools", func(r chi.Router) {
			r.Get("/", schoolHandler.ListSchools)
			r.With(middleware.RequireAdmin()).Post("/", schoolHandler.CreateSchool)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", schoolHandler.GetSchool)
				r.Get("/students", studentHandler.ListSchoolStudents)
				r.With(middleware.RequireAdmin()).Put("/", schoolHandler.UpdateSchool)
				r.With(middleware.RequireAdmin()).Delete("/", schoolHandler.DeleteSchool)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.Post("/", studentHandler.CreateStudent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", studentHandler.GetStudent)
				r.Patch("/", studentHandler.UpdateStudent)
				r.Delete("/", studentHandler.DeleteStudent)
			})
		})

		r.Route("/classes", func(r chi.Router) {
			r.Post("/", classHandler.CreateClass)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", classHandler.GetClass)
				r.Put("/", classHandler.UpdateClass)
				r.Delete("/", classHandler.DeleteClass)
			})
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", scheduleHandler.CreateSchedule)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", scheduleHandler.GetSchedule)
				r.Put("/", scheduleHandler.UpdateSchedule)
				r.Delete("/", scheduleHandler.DeleteSchedule)
			})
		})
	})

	return r
}
