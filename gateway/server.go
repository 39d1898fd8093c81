// Package gateway exposes the studio over HTTP: project storage, the
// build pipeline, built-package downloads, and a single-exchange RPC
// endpoint carrying the bridge procedures.
package gateway

import (
	"encoding/json"
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/rpcchan"
	"github.com/ownablekit/studio/store"
)

// Server is the gateway Fiber application.
type Server struct {
	app      *fiber.App
	log      *zap.Logger
	cfg      Config
	compiler compiler.Compiler
	projects *store.ProjectStore
	packages *store.PackageStore
	rpc      *rpcchan.Endpoint
}

// NewServer wires stores and the compiler into an HTTP surface. The
// returned server owns an RPC endpoint; register bridge procedures on
// RPC() before serving.
func NewServer(cfg Config, db *store.DB, c compiler.Compiler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	// dispatch-only endpoint: HTTP carries one envelope per exchange
	conn, _ := rpcchan.Pipe(1)

	s := &Server{
		app:      app,
		log:      log.Named("gateway"),
		cfg:      cfg,
		compiler: c,
		projects: store.NewProjectStore(db),
		packages: store.NewPackageStore(db),
		rpc:      rpcchan.NewEndpoint(conn, rpcchan.WithLogger(log)),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// RPC returns the endpoint behind POST /rpc for procedure registration.
func (s *Server) RPC() *rpcchan.Endpoint { return s.rpc }

// Listen blocks serving HTTP on the configured address.
func (s *Server) Listen() error {
	s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))
	return s.app.Listen(s.cfg.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())

	if s.cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, DELETE, OPTIONS",
		}))
	}

	s.app.Use(func(c *fiber.Ctx) error {
		if c.Path() == "/healthz" {
			return c.Next()
		}
		s.log.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()))
		return c.Next()
	})
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Post("/rpc", s.handleRPC)

	s.app.Get("/projects", s.handleListProjects)
	s.app.Post("/projects", s.handleSaveProject)
	s.app.Get("/projects/:name", s.handleGetProject)
	s.app.Delete("/projects/:name", s.handleDeleteProject)

	s.app.Post("/projects/:name/build", s.handleBuild)

	s.app.Get("/packages", s.handleListPackages)
	s.app.Get("/packages/:cid", s.handleGetPackage)
}

// httpError maps pipeline errors onto status codes.
func httpError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var structured *errors.Error
	if stderrors.As(err, &structured) {
		switch structured.Kind {
		case errors.KindNotFound:
			status = fiber.StatusNotFound
		case errors.KindInvalidInput, errors.KindStructure, errors.KindCompilation:
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": structured.Error(),
			"phase": structured.Phase,
			"kind":  structured.Kind,
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
