package web

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const filtersCacheKey = "filters"

func (s *Server) handleFilters(c *fiber.Ctx) error {
	if s.filters != nil {
		if cached, ok := s.filters.Get(filtersCacheKey); ok {
			return c.JSON(cached)
		}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	opts, err := s.svc.FilterOptions(ctx)
	if err != nil {
		return err
	}

	if s.filters != nil {
		s.filters.SetDefault(filtersCacheKey, opts)
	}
	return c.JSON(opts)
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.svc.Search(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	req, err := parseQueryRequest(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.svc.Query(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleGetPost(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	post, err := s.svc.Post(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	if post == nil {
		return fiber.NewError(http.StatusNotFound, "post not found")
	}
	return c.JSON(post)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	stats, err := s.stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
