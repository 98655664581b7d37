package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kyatflow/internal/config"
	"kyatflow/internal/models"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	config.Set(&config.Config{JWTSecret: "test-secret", JWTExpirationDur: time.Hour})
}

func testUser(role models.Role) *models.User {
	u := &models.User{Email: "user@example.com", Role: role}
	u.ID = "0190a4c8-1111-7000-8000-000000000001"
	return u
}

func setupAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": c.GetString(ContextUserID),
			"role":   c.GetString(ContextRole),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := parseBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	if code, _ := errObj["code"].(string); code != want {
		t.Errorf("error code = %q, want %q", code, want)
	}
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	setTestConfig(t)
	user := testUser(models.RoleAdmin)

	token, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user id = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Sub(time.Now()) > time.Hour {
		t.Errorf("expiry should follow JWT_EXPIRES_IN, got %v", claims.ExpiresAt)
	}
}

func TestParseAccessTokenRejectsForeignTokens(t *testing.T) {
	setTestConfig(t)

	t.Run("wrong_secret", func(t *testing.T) {
		claims := &JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		if _, err := ParseAccessToken(token); err == nil {
			t.Error("expected token signed with another secret to fail")
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := &JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if _, err := ParseAccessToken(token); err == nil {
			t.Error("expected expired token to fail")
		}
	})

	t.Run("missing_user", func(t *testing.T) {
		claims := &JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if _, err := ParseAccessToken(token); err == nil {
			t.Error("expected token without user to fail")
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	setTestConfig(t)
	token, err := GenerateAccessToken(testUser(models.RoleUser))
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"wrong_scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage_token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(setupAuthRouter(), tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assertErrorCode(t, rec, "UNAUTHORIZED")
				return
			}
			body := parseBody(t, rec)
			if body["userId"] != "0190a4c8-1111-7000-8000-000000000001" {
				t.Errorf("expected user id in context, got %v", body["userId"])
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	setTestConfig(t)
	userToken, _ := GenerateAccessToken(testUser(models.RoleUser))
	adminToken, _ := GenerateAccessToken(testUser(models.RoleAdmin))
	router := setupAuthRouter(RequireAdmin())

	rec := doAuthRequest(router, "Bearer "+userToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", rec.Code)
	}
	assertErrorCode(t, rec, "FORBIDDEN")

	rec = doAuthRequest(router, "Bearer "+adminToken)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}
