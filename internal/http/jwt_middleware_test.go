package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pathfinder-llm/internal/service"
)

func protectedRouter(jwtSvc *service.JWTService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", RequireUser(jwtSvc, nil), func(c *gin.Context) {
		userID, ok := AuthUserID(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func callProtected(jwtSvc *service.JWTService, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	protectedRouter(jwtSvc).ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error
}

func TestRequireUser_ExposesUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSvc := service.NewJWTService("secret", 15*time.Minute)
	token, err := jwtSvc.IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for _, header := range []string{"Bearer " + token, "bearer   " + token} {
		rec := callProtected(jwtSvc, header)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %q, got %d", header[:8], rec.Code)
		}
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.UserID != "u1" {
			t.Fatalf("expected user u1, got %+v (%v)", body, err)
		}
	}
}

func TestRequireUser_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSvc := service.NewJWTService("secret", 15*time.Minute)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dTE6cHc="} {
		rec := callProtected(jwtSvc, header)
		if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "missing token" {
			t.Fatalf("header %q: expected 401 missing token, got %d %s", header, rec.Code, rec.Body.String())
		}
	}
}

func TestRequireUser_RejectsForeignSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := service.NewJWTService("other", time.Minute).IssueAccessToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := callProtected(service.NewJWTService("secret", time.Minute), "Bearer "+token)
	if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "invalid token" {
		t.Fatalf("expected 401 invalid token, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireUser_ReportsExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issued := time.Now().Add(-2 * time.Hour)
	claims := service.Claims{
		UserID:    "u1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pathfinder-llm",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec := callProtected(service.NewJWTService("secret", time.Minute), "Bearer "+token)
	if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "token expired" {
		t.Fatalf("expected 401 token expired, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireUser_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := callProtected(nil, "Bearer x")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
