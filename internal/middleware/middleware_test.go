package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newProtectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	validator := stubValidator{claims: &models.JWTClaims{EmployeeID: 7, Login: "coach", Role: models.EmployeeRoleTrainer}}
	router.GET("/employees/:id", JWT(validator), RBAC(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).Login)
	})
	return router
}

func serve(router *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	router := newProtectedRouter(string(models.EmployeeRoleTrainer))

	if code := serve(router, "/employees/1", "").Code; code != http.StatusUnauthorized {
		t.Fatalf("missing header: unexpected status %d", code)
	}
	if code := serve(router, "/employees/1", "Token good").Code; code != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: unexpected status %d", code)
	}
	if code := serve(router, "/employees/1", "Bearer bad").Code; code != http.StatusUnauthorized {
		t.Fatalf("bad token: unexpected status %d", code)
	}

	recorder := serve(router, "/employees/1", "bearer good")
	if recorder.Code != http.StatusOK || recorder.Body.String() != "coach" {
		t.Fatalf("unexpected response: %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestRBACAllowsSelfAccess(t *testing.T) {
	router := newProtectedRouter(string(models.EmployeeRoleAdmin), SelfAccess)

	if code := serve(router, "/employees/7", "Bearer good").Code; code != http.StatusOK {
		t.Fatalf("self access: unexpected status %d", code)
	}
	if code := serve(router, "/employees/8", "Bearer good").Code; code != http.StatusForbidden {
		t.Fatalf("other employee: unexpected status %d", code)
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", OptionalJWT(stubValidator{claims: &models.JWTClaims{Login: "coach"}}), func(c *gin.Context) {
		if claims := Claims(c); claims != nil {
			c.String(http.StatusOK, claims.Login)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	if body := serve(router, "/", "Bearer bad").Body.String(); body != "anonymous" {
		t.Fatalf("unexpected body: %s", body)
	}
	if body := serve(router, "/", "Bearer good").Body.String(); body != "coach" {
		t.Fatalf("unexpected body: %s", body)
	}
}
