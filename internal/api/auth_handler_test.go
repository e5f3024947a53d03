package api

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	svc, err := auth.NewAuthService(privatePEM, publicPEM, 15*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *auth.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	authService := newTestAuthService(t)
	handler := NewAuthHandler(db, authService, nil, slog.Default())

	router := gin.New()
	router.POST("/v1/auth/register", handler.Register)
	router.POST("/v1/auth/login", handler.Login)
	return router, db, authService
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	router, _, authService := newAuthTestRouter(t)

	rec := postJSON(t, router, "/v1/auth/register", gin.H{
		"email":    "jo@example.com",
		"password": "secret-password",
		"name":     "Jo",
		"role":     "candidate",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/v1/auth/login", gin.H{
		"email":    "jo@example.com",
		"password": "secret-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	claims, err := authService.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.Role != database.RoleCandidate || claims.TokenType != "access" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _, _ := newAuthTestRouter(t)

	body := gin.H{
		"email":    "jo@example.com",
		"password": "secret-password",
		"name":     "Jo",
		"role":     "candidate",
	}
	if rec := postJSON(t, router, "/v1/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	if rec := postJSON(t, router, "/v1/auth/register", body); rec.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", rec.Code)
	}
}

func TestRegisterEmployerRequiresCompanyName(t *testing.T) {
	router, _, _ := newAuthTestRouter(t)

	rec := postJSON(t, router, "/v1/auth/register", gin.H{
		"email":    "hr@example.com",
		"password": "secret-password",
		"name":     "HR",
		"role":     "employer",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _, _ := newAuthTestRouter(t)

	if rec := postJSON(t, router, "/v1/auth/register", gin.H{
		"email":    "jo@example.com",
		"password": "secret-password",
		"name":     "Jo",
		"role":     "candidate",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec := postJSON(t, router, "/v1/auth/login", gin.H{
		"email":    "jo@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
