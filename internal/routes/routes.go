package routes

import (
	"io/fs"
	"net/http"

	"github.com/pawprintclub/pawfeed/internal/app"
	"github.com/pawprintclub/pawfeed/internal/handler"
	"github.com/pawprintclub/pawfeed/internal/middleware"
	"github.com/pawprintclub/pawfeed/internal/storage"
	"github.com/pawprintclub/pawfeed/web"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	feed := handler.NewFeedHandler(a.PostService, a.Cfg.UploadMaxBytes, a.Cfg.AdminToken)
	newsletter := handler.NewNewsletterHandler(a.EmailService)

	mux := http.NewServeMux()

	// Static marketing site
	static, _ := fs.Sub(web.StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})

	// Local blob storage serves uploaded images directly
	if local, ok := a.Storage.(*storage.LocalStorage); ok {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir()))))
	}

	// Feed API (uploads are rate limited)
	rateLimiter := middleware.RateLimitUploads()

	mux.HandleFunc("GET /api/posts", feed.List)
	mux.HandleFunc("POST /api/posts", rateLimiter(feed.Create))
	mux.HandleFunc("DELETE /api/posts/{id}", feed.Delete)

	// Newsletter
	mux.HandleFunc("POST /api/newsletter/subscribe", newsletter.Subscribe)

	// Health
	mux.HandleFunc("GET /api/health", handler.Health)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.CORS(a.Cfg.CORSOrigins),
		middleware.RequestLogging,
	)
}
