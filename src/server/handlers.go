package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"

	"subject-feed/src/publish"
	"subject-feed/src/subjects"
)

const healthTimeout = 2 * time.Second

// publishRequest is the body of POST /api/subjects/:subject.
type publishRequest struct {
	Message string `json:"message" validate:"required"`
}

type healthResponse struct {
	Status   string           `json:"status"`
	Broker   string           `json:"broker"`
	Consumer string           `json:"consumer"`
	Offsets  map[string]int64 `json:"offsets"`
}

func renderNode(c echo.Context, status int, node g.Node) error {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// getFeed serves GET /api/subjects/:subject.
func (s *Server) getFeed(c echo.Context) error {
	subject, err := subjects.Parse(c.Param("subject"))
	if err != nil {
		return c.String(http.StatusBadRequest, "Bad Request: "+err.Error())
	}

	fragments := s.feed.Read(subject.String())
	s.logger.Debug("[Server] Returning feed for '%s' with %d messages", subject, len(fragments))
	return renderNode(c, http.StatusOK, FeedPage(subject, fragments))
}

// listSubjects serves GET /api/subjects.
func (s *Server) listSubjects(c echo.Context) error {
	return renderNode(c, http.StatusOK, SubjectsPage(subjects.All()))
}

// publishMessage serves POST /api/subjects/:subject.
func (s *Server) publishMessage(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, publish.ErrMissingIdentity.Error())
	}

	// The subject is judged before the body: an unknown subject fails whatever was sent.
	if _, err := subjects.Parse(c.Param("subject")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, publish.ErrEmptyContent.Error())
	}

	res, err := s.publisher.Publish(c.Request().Context(), c.Param("subject"), req.Message, principal)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, res)
	case publish.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, publish.ErrDeliveryFailed.Error())
	}
}

// health serves GET /health.
func (s *Server) health(c echo.Context) error {
	resp := healthResponse{
		Status:   "ok",
		Broker:   "ok",
		Consumer: "unknown",
		Offsets:  map[string]int64{},
	}

	if s.broker != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := s.broker.Ping(ctx); err != nil {
			resp.Broker = err.Error()
			resp.Status = "degraded"
		}
	}

	if s.consumer != nil {
		resp.Consumer = s.consumer.State().String()
		if !s.consumer.Healthy() {
			resp.Status = "degraded"
		}
		for tp, off := range s.consumer.Offsets() {
			resp.Offsets[fmt.Sprintf("%s/%d", tp.Topic, tp.Partition)] = off
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

// errorHandler writes echo errors as {"message": "..."} and hides internal details.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Internal Server Error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		s.logger.Error("[Server] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"message": msg})
	}
	if err != nil {
		s.logger.Error("[Server] Failed to write error response: %v", err)
	}
}
