package gateway

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ownablekit/studio/builder"
	"github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/orchestrator"
	"github.com/ownablekit/studio/project"
	"github.com/ownablekit/studio/store"
)

func (s *Server) handleRPC(c *fiber.Ctx) error {
	reply, err := s.rpc.Dispatch(c.Context(), c.Body())
	if err != nil {
		return httpError(c, err)
	}
	if reply == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(reply)
}

func (s *Server) handleListProjects(c *fiber.Ctx) error {
	names, err := s.projects.List(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"projects": names})
}

func (s *Server) handleSaveProject(c *fiber.Ctx) error {
	var p project.Project
	if err := c.BodyParser(&p); err != nil {
		return httpError(c, errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "decode project"))
	}
	if err := s.projects.Put(c.Context(), &p); err != nil {
		return httpError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"name": p.Name})
}

func (s *Server) handleGetProject(c *fiber.Ctx) error {
	p, err := s.projects.Get(c.Context(), c.Params("name"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleDeleteProject(c *fiber.Ctx) error {
	if err := s.projects.Delete(c.Context(), c.Params("name")); err != nil {
		return httpError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type buildRequest struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// handleBuild runs the pipeline against a stored project and persists
// the resulting package.
func (s *Server) handleBuild(c *fiber.Ctx) error {
	name := c.Params("name")

	var req buildRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return httpError(c, errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "decode build request"))
	}
	if req.Version == "" {
		req.Version = "0.1.0"
	}

	p, err := s.projects.Get(c.Context(), name)
	if err != nil {
		return httpError(c, err)
	}

	orch := orchestrator.New(s.compiler, builder.Config{
		PackageName: name,
		Version:     req.Version,
		Description: req.Description,
	}, orchestrator.WithLogger(s.log))

	res, err := orch.Build(c.Context(), p)
	if err != nil {
		s.log.Warn("build failed", zap.String("project", name), zap.Error(err))
		return httpError(c, err)
	}

	if err := s.packages.Put(c.Context(), store.Package{
		CID:      res.CID,
		Name:     name,
		Version:  req.Version,
		Filename: res.Filename,
		Archive:  res.Archive,
	}); err != nil {
		return httpError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"cid":      res.CID,
		"filename": res.Filename,
		"size":     len(res.Archive),
		"steps":    orch.Steps(),
	})
}

func (s *Server) handleListPackages(c *fiber.Ctx) error {
	pkgs, err := s.packages.List(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	if pkgs == nil {
		pkgs = []store.Package{}
	}
	return c.JSON(fiber.Map{"packages": pkgs})
}

// handleGetPackage streams the archive for a content identifier.
func (s *Server) handleGetPackage(c *fiber.Ctx) error {
	pkg, err := s.packages.Get(c.Context(), c.Params("cid"))
	if err != nil {
		return httpError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+pkg.Filename+`"`)
	return c.Send(pkg.Archive)
}
