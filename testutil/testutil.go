package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sandarika/labubananas/config"
	"github.com/sandarika/labubananas/models"
	"github.com/sandarika/labubananas/utils"
)

// TestPassword is the password of every user made by CreateTestUser.
const TestPassword = "password123"

// TestConfig returns a configuration suited to in-process tests: sqlite, no access log
// file, silent SQL logging and a rate limit high enough to never trigger.
func TestConfig() config.AppConfig {
	return config.AppConfig{
		AppPort:                  "0",
		JWTSecret:                "test-secret",
		JWTAlgorithm:             "HS256",
		AccessTokenExpireMinutes: 60,
		DBDriver:                 config.DriverSQLite,
		RateLimitPerMinute:       100000,
		AllowedOrigins:           []string{"*"},
		GinMode:                  "test",
		CacheTTLSeconds:          60,
		LogLevel:                 "silent",
	}
}

// SetupTestDB opens a fresh, migrated in-memory database private to the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := TestConfig()
	cfg.DatabaseURI = "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := config.InitDatabase(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// TestTokens returns a token service signing with the TestConfig secret.
func TestTokens(t *testing.T) *utils.TokenService {
	t.Helper()

	cfg := TestConfig()
	tokens, err := utils.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}
	return tokens
}

// CreateTestUser inserts a user with TestPassword and the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()

	hash, err := utils.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestUnion inserts a union directly.
func CreateTestUnion(t *testing.T, db *gorm.DB, name string) models.Union {
	t.Helper()

	union := models.Union{Name: name}
	if err := db.Create(&union).Error; err != nil {
		t.Fatalf("Failed to create test union: %v", err)
	}
	return union
}

// CreateTestPost inserts a post into unionID.
func CreateTestPost(t *testing.T, db *gorm.DB, unionID uint, title string) models.Post {
	t.Helper()

	post := models.Post{Title: title, Content: "Body of " + title, UnionID: unionID}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return post
}

// CreateTestPoll inserts a poll with one option per label and returns it with its options.
func CreateTestPoll(t *testing.T, db *gorm.DB, question string, labels ...string) models.Poll {
	t.Helper()

	poll := models.Poll{Question: question}
	if err := db.Create(&poll).Error; err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	for _, label := range labels {
		option := models.PollOption{PollID: poll.ID, Text: label}
		if err := db.Create(&option).Error; err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		poll.Options = append(poll.Options, option)
	}
	return poll
}

// CreateTestEvent inserts an event starting in one hour, created by creatorID.
func CreateTestEvent(t *testing.T, db *gorm.DB, creatorID uint, title string) models.Event {
	t.Helper()

	event := models.Event{Title: title, StartTime: time.Now().Add(time.Hour).UTC(), CreatorID: creatorID}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return event
}

// AuthHeader returns the Authorization header for user.
func AuthHeader(t *testing.T, tokens *utils.TokenService, user models.User) map[string]string {
	t.Helper()

	token, _, err := tokens.Issue(user.Username, 0)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Serve runs req through handler and returns the recorded response.
func Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v. Body: %s", err, w.Body.String())
	}
}

// AssertDetail checks the status and the detail message of an error response.
func AssertDetail(t *testing.T, w *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	AssertStatus(t, w, status)
	var resp utils.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v. Body: %s", err, w.Body.String())
	}
	if resp.Detail != detail {
		t.Errorf("Expected detail %q, got %q", detail, resp.Detail)
	}
}
