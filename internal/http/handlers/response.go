package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/http/middleware"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/service"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["ok"] = true
	c.JSON(http.StatusOK, body)
}

func reject(c *gin.Context, status int, reason, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": reason, "message": msg})
}

// fail maps err onto a response. Rule violations keep their reason and get a
// 4xx; anything else is logged, reported and hidden behind a 500.
func fail(c *gin.Context, err error) {
	if de, isDomain := domain.AsError(err); isDomain {
		reject(c, statusFor(de.Kind), de.Reason, de.Message)
		return
	}
	if errors.Is(err, service.ErrInvalidInitData) || errors.Is(err, service.ErrInvalidToken) {
		reject(c, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	ctx := c.Request.Context()
	_ = c.Error(err)
	logger.WithContext(ctx).Error("request failed", "path", c.FullPath(), "error", err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("route", c.FullPath())
		scope.SetTag("correlation_id", logger.CorrelationIDFromContext(ctx))
		sentry.CaptureException(err)
	})
	reject(c, http.StatusInternalServerError, "internal", "internal error")
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStateConflict:
		return http.StatusConflict
	case domain.KindInvalidInput, domain.KindInsufficientBalance:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// bind decodes a JSON body. An empty body is fine: the identity may come
// from the bearer token alone.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		reject(c, http.StatusBadRequest, "invalid_request", "malformed request body")
		return false
	}
	return true
}

// identity resolves who the request acts for. A bearer token wins; an
// explicit telegram_id that disagrees with it is refused.
func identity(c *gin.Context, explicit string) (string, bool) {
	explicit = strings.TrimSpace(explicit)
	if token, has := middleware.TokenIdentity(c); has {
		if explicit != "" && explicit != token {
			reject(c, http.StatusForbidden, "forbidden", "telegram_id does not match token")
			return "", false
		}
		return token, true
	}
	if explicit == "" {
		fail(c, domain.ErrInvalidIdentity)
		return "", false
	}
	return explicit, true
}

// flexID accepts a telegram id sent either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }
