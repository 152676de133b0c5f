package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/publish"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-Username"

	principalKey = "principal"
)

// RequirePrincipal reads the caller identity set by the upstream auth layer.
// Requests without both headers are rejected with 401.
func RequirePrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := contracts.Principal{
			UserID:   c.Request().Header.Get(HeaderUserID),
			Username: c.Request().Header.Get(HeaderUsername),
		}
		if !p.Valid() {
			return echo.NewHTTPError(http.StatusUnauthorized, publish.ErrMissingIdentity.Error())
		}
		c.Set(principalKey, p)
		return next(c)
	}
}

func principalFrom(c echo.Context) (contracts.Principal, bool) {
	p, ok := c.Get(principalKey).(contracts.Principal)
	return p, ok
}

// RequestLogger logs one line per request through log.
func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			id := res.Header().Get(echo.HeaderXRequestID)
			latency := time.Since(start)

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("[HTTP] %s %s %d %s id=%s", req.Method, req.URL.Path, res.Status, latency, id)
			default:
				log.Debug("[HTTP] %s %s %d %s id=%s", req.Method, req.URL.Path, res.Status, latency, id)
			}
			return nil
		}
	}
}
