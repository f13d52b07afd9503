package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/graphql"
	"expense-tracker/internal/service"
)

// cookieSession implements graphql.Session on top of the session cookie.
type cookieSession struct {
	c     *gin.Context
	h     *Handler
	token string
	user  *domain.User
}

var _ graphql.Session = (*cookieSession)(nil)

func (s *cookieSession) User() *domain.User { return s.user }

func (s *cookieSession) Login(ctx context.Context, user *domain.User) error {
	if s.token != "" {
		if err := s.h.sessions.Revoke(ctx, s.token); err != nil {
			s.h.logger.WithError(err).Warn("revoke previous session")
		}
	}
	token, expiresAt, err := s.h.sessions.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	s.h.setCookie(s.c, token, expiresAt)
	s.token = token
	s.user = user
	return nil
}

func (s *cookieSession) Logout(ctx context.Context) error {
	if s.token != "" {
		if err := s.h.sessions.Revoke(ctx, s.token); err != nil {
			return err
		}
	}
	s.h.clearCookie(s.c)
	s.token = ""
	s.user = nil
	return nil
}

func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &cookieSession{c: c, h: h}
		if token, err := c.Cookie(h.opts.CookieName); err == nil && token != "" {
			user, err := h.sessions.Resolve(c.Request.Context(), token)
			switch {
			case err == nil:
				sess.token = token
				sess.user = user
			case errors.Is(err, service.ErrUnauthorized):
				h.clearCookie(c)
			default:
				h.logger.WithError(err).Error("resolve session")
			}
		}
		c.Request = c.Request.WithContext(graphql.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

func (h *Handler) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, maxAge, "/", "", h.opts.CookieSecure, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.CookieSecure, true)
}
