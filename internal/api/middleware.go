package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"time-planner/internal/model"
	"time-planner/internal/service"
)

const accountKey = "account"

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// authRequired resolves the bearer token before any handler touches data.
func (s *Server) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		s.abortWithError(c, service.ErrUnauthorized)
		return
	}
	account, err := s.svc.Accounts.Authenticate(c.Request.Context(), token)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Set(accountKey, account)
	c.Next()
}

func currentAccount(c *gin.Context) *model.Account {
	if v, ok := c.Get(accountKey); ok {
		if account, ok := v.(*model.Account); ok {
			return account
		}
	}
	return nil
}

func accountID(c *gin.Context) uuid.UUID {
	if account := currentAccount(c); account != nil {
		return account.ID
	}
	return uuid.Nil
}
