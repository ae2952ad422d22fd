package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/microblog/internal/metrics"
	"github.com/hitoshi/microblog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	RequestRecorder   middleware.RequestRecorder

	// メトリクス公開
	Gatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// フォローグラフ
	FollowService FollowServiceInterface

	// 投稿・フィード・エンゲージメント
	PostService       PostServiceInterface
	FeedService       FeedServiceInterface
	EngagementService EngagementServiceInterface

	// 画像ストレージ（nilの場合は画像機能が無効）
	MediaStore MediaStoreInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → Metrics
//	→（認証ルートのみ）Auth → RateLimit(General)
//
// ユーザー登録とトークン発行、ヘルスチェック、メトリクスは認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.RequestRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService, deps.MediaStore)
	followHandler := NewFollowHandler(deps.FollowService)
	postHandler := NewPostHandler(deps.PostService, deps.FeedService, deps.EngagementService, deps.MediaStore)

	// --- 認証不要のルート ---

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// ユーザー登録とトークン発行
	r.Post("/api/users", userHandler.Register)
	r.Post("/api/users/token", authHandler.IssueToken)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		writeLimited := deps.RateLimiter.WriteMiddleware()

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateMe)
			r.With(writeLimited).Post("/me/image", userHandler.CreateProfileImageUploadURL)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)

				// フォローグラフ
				r.Get("/followings", followHandler.ListFollowings)
				r.With(writeLimited).Post("/followings", followHandler.Follow)
				r.With(writeLimited).Delete("/followings/{followeeID}", followHandler.Unfollow)
				r.Get("/followers", followHandler.ListFollowers)
			})
		})

		// 自分のコメント一覧
		r.Get("/api/comments", postHandler.ListMyComments)

		// 投稿・フィード・エンゲージメント
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListFeed)
			r.With(writeLimited).Post("/", postHandler.CreatePost)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.With(writeLimited).Put("/", postHandler.UpdatePost)
				r.With(writeLimited).Delete("/", postHandler.DeletePost)
				r.With(writeLimited).Post("/image", postHandler.CreatePostImageUploadURL)

				r.With(writeLimited).Post("/like", postHandler.LikePost)
				r.With(writeLimited).Delete("/like", postHandler.UnlikePost)

				r.With(writeLimited).Post("/comments", postHandler.CreateComment)
				r.With(writeLimited).Delete("/comments", postHandler.DeleteOwnComments)
			})
		})
	})

	return r
}
