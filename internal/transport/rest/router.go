package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/admin"
	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/internal/transport/middleware"
	"github.com/frahmantamala/filehub/internal/transport/swagger"
	"github.com/frahmantamala/filehub/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth  *auth.Handler
	Files *file.Handler
	Users *user.Handler
	Admin *admin.Handler
}

type Options struct {
	DB          *sql.DB
	DBComponent string
	RBAC        *auth.RBACAuthorization
	ABAC        *auth.ABACPolicy
	AccessLog   accesslog.Sink
	Origins     []string
	OpenAPIPath string
	Logger      *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, opts Options, h Handlers) {
	healthHandler := NewHealthHandler(opts.DB, opts.DBComponent)
	rbac := opts.RBAC

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.Origins))
	router.Use(middleware.ClientContext)
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.AccessLog != nil {
		router.Use(accesslog.Middleware(opts.AccessLog, h.Auth.Identify))
	}

	router.Get("/health", healthHandler.Health)
	router.Get("/ping", healthHandler.Ping)
	router.Get(swagger.SpecRoute, swagger.SpecHandler(opts.OpenAPIPath))
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/register", h.Auth.Register)
		r.With(h.Auth.OptionalAuth).Get("/logout", h.Auth.Logout)
		r.With(h.Auth.OptionalAuth).Post("/logout", h.Auth.Logout)
		r.With(h.Auth.AuthMiddleware).Get("/profile", h.Auth.Profile)
	})

	router.Route("/files", func(r chi.Router) {
		r.Use(middleware.InputScreen)
		r.Get("/public", h.Files.Public)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/", h.Files.List)
			pr.Get("/stats", h.Files.Stats)
			pr.With(rbac.Require(auth.PermFilesUpload)).Get("/upload", h.Files.UploadForm)
			pr.With(rbac.Require(auth.PermFilesUpload)).Post("/upload", h.Files.Upload)
			pr.With(opts.ABAC.RequireFileAccess(auth.AccessRead)).Get("/download/{id}", h.Files.Download)
			pr.Delete("/delete/{id}", h.Files.Delete)
			pr.Get("/detail/{id}", h.Files.Detail)

			pr.Route("/{id}/permissions", func(gr chi.Router) {
				gr.Get("/", h.Files.ListGrants)
				gr.Post("/", h.Files.Grant)
				gr.Delete("/{grantID}", h.Files.Revoke)
			})
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)
		r.Use(middleware.InputScreen)

		r.Group(func(ur chi.Router) {
			ur.Use(rbac.Require(auth.PermManageUsers))
			ur.Get("/", h.Admin.Dashboard)
			ur.Get("/users", h.Users.List)
			ur.Get("/users/{id}", h.Users.Detail)
			ur.Put("/users/{id}/status", h.Users.UpdateStatus)
		})
		r.With(rbac.Require(auth.PermManagePermissions)).Post("/users/{id}/roles", h.Users.UpdateRoles)

		r.Group(func(lr chi.Router) {
			lr.Use(rbac.Require(auth.PermViewLogs))
			lr.Get("/files", h.Admin.Files)
			lr.Get("/logs", h.Admin.Logs)
		})

		r.Group(func(br chi.Router) {
			br.Use(rbac.Require(auth.PermBackup))
			br.Get("/backup", h.Admin.Backups)
			br.Post("/backup", h.Admin.RunBackup)
		})
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.InputScreen)
		r.Get("/docs", Docs)
		r.Get("/public/files", h.Files.APIPublic)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Get("/files", h.Files.APIList)
			pr.With(rbac.Require(auth.PermFilesUpload)).Post("/files", h.Files.Upload)
			pr.Get("/files/{id}", h.Files.APIDetail)
			pr.With(opts.ABAC.RequireFileAccess(auth.AccessRead)).Get("/files/{id}/download", h.Files.Download)
			pr.Delete("/files/{id}", h.Files.APIDelete)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorJSON(w, http.StatusNotFound, "not found")
	})
}
