package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dojo-admin-api/internal/middleware"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+": "+raw)
	}
	return id, nil
}

func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+": "+raw)
	}
	return v, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

// expiringWindow reads the days query parameter, falling back to fallback
// only when the parameter is absent. An explicit 0 is kept.
func expiringWindow(c *gin.Context, fallback int) (int, error) {
	raw, ok := c.GetQuery("days")
	if !ok {
		return fallback, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid days")
	}
	return days, nil
}
