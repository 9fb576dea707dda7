package handlers

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/config"
	"github.com/kartiksrathod/Eduu/internal/health"
	"github.com/kartiksrathod/Eduu/internal/middleware"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/observe"
	"github.com/kartiksrathod/Eduu/internal/services"
)

// Deps is everything the HTTP layer needs. MetricsHandler may be nil, in
// which case /metrics is not mounted. AccessLog defaults to stdout.
type Deps struct {
	Config         *config.Config
	Log            logrus.FieldLogger
	Gate           *middleware.Gate
	Auth           *services.AuthService
	Admin          *services.AdminService
	Resources      *services.ResourceService
	Bookmarks      *services.BookmarkService
	Stats          *services.StatsService
	Photos         *services.PhotoService
	Health         *health.Aggregator
	Metrics        observe.Metrics
	MetricsHandler http.Handler
	AccessLog      io.Writer
}

// Handler groups the route handlers around their shared dependencies.
type Handler struct {
	Deps
	validate *validator.Validate
	pager    services.Pager
}

// NewApp builds the Fiber application with every route registered.
func NewApp(d Deps) *fiber.App {
	if d.Metrics == nil {
		d.Metrics = observe.Noop()
	}
	if d.AccessLog == nil {
		d.AccessLog = os.Stdout
	}
	h := &Handler{
		Deps:     d,
		validate: newValidator(),
		pager:    services.Pager{Default: d.Config.DefaultPageSize, Max: d.Config.MaxPageSize},
	}

	app := fiber.New(fiber.Config{
		AppName:      "EduResources API",
		BodyLimit:    int(d.Config.MaxFileSize) + 1<<20,
		UnescapePath: true,
		ErrorHandler: ErrorHandler(d.Log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: d.AccessLog}))
	// Fiber refuses credentials with a wildcard origin.
	origins := strings.Join(d.Config.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: !strings.Contains(origins, "*"),
	}))
	app.Use(observe.Middleware(d.Metrics))

	h.register(app)
	return app
}

func (h *Handler) register(app *fiber.App) {
	gate := h.Gate

	app.Get("/", h.Root)
	app.Get("/health", h.HealthCheck)
	if h.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.MetricsHandler))
	}
	app.Get("/uploads/profile_photos/:name", h.ServePhoto)

	// Auth Routes
	limited := limiter.New(limiter.Config{
		Max:        h.Config.AuthRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"detail": "Too many requests"})
		},
	})
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", limited, h.Register)
	authGroup.Post("/login", limited, h.Login)
	authGroup.Post("/resend-verification", limited, h.ResendVerification)
	authGroup.Get("/verify/:token", h.VerifyEmail)
	authGroup.Get("/profile", gate.Authenticate, h.Profile)
	authGroup.Put("/profile/password", gate.Authenticate, h.ChangePassword)
	authGroup.Post("/profile/photo", gate.Authenticate, h.UploadPhoto)

	// Resource Routes
	for _, kind := range models.Kinds {
		r := resourceRoutes{h: h, kind: kind}
		group := app.Group("/api/" + kind.Path())
		group.Get("/", r.List)
		group.Post("/", gate.Authenticate, gate.RequireAdmin, r.Create)
		group.Get("/:id", r.Get)
		group.Put("/:id", gate.Authenticate, gate.RequireAdmin, r.Update)
		group.Delete("/:id", gate.Authenticate, gate.RequireAdmin, r.Delete)
		group.Get("/:id/download", r.Download)
		group.Get("/:id/view", r.View)
	}

	upload := app.Group("/api/upload")
	upload.Post("/:kind/upload", gate.Authenticate, gate.RequireAdmin, h.UploadAlias)
	upload.Get("/:kind/download/:filename", h.DownloadAlias)

	// Bookmark Routes
	bookmarks := app.Group("/api/bookmarks", gate.Authenticate)
	bookmarks.Get("/", h.ListBookmarks)
	bookmarks.Get("/check/:type/:id", h.CheckBookmark)
	bookmarks.Post("/", h.CreateBookmark)
	bookmarks.Delete("/id/:bookmark_id", h.DeleteBookmarkByID)
	bookmarks.Delete("/:type/:id", h.DeleteBookmark)

	app.Get("/api/stats", gate.Authenticate, h.GetStats)
	app.Get("/api/cms/content", h.CMSContent)

	// Admin Routes
	admin := app.Group("/api/admin", gate.Authenticate, gate.RequireAdmin)
	admin.Get("/dashboard", h.Dashboard)
	admin.Get("/users", h.ListUsers)
	admin.Get("/users/:email", h.GetUserByEmail)
	admin.Put("/users/:email/admin", h.SetAdmin)
}
