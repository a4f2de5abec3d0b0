package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/alemhar/fielder/internal/model"
	"github.com/alemhar/fielder/pkg/config"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/jwtutil"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memStore is an in-memory attachment store. failPutOn makes the n-th Put
// fail (1-based), failDelete makes every Delete fail; both are used to pin
// the accepted partial-failure semantics.
type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       int
	failPutOn  int
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(key string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPutOn != 0 && s.puts == s.failPutOn {
		return fmt.Errorf("store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return fmt.Errorf("store unavailable")
	}
	delete(s.objects, key)
	return nil
}

func (s *memStore) URL(key string) string {
	return "http://localhost:8080/storage/" + key
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:    "8080",
			Env:     "test",
			BaseURL: "http://localhost:8080",
		},
		JWT: config.JWTConfig{
			SigningKey:      "test-signing-key",
			ExpirationHours: 1,
		},
		Branding: config.BrandingConfig{
			PrimaryColor:   "#25a1c9",
			SecondaryColor: "#222253",
			LogoLightPath:  "branding/logo_for_light.png",
			LogoDarkPath:   "branding/logo_for_dark.png",
		},
	}
}

// setupTest points the handler package at an in-memory database and store
func setupTest(t *testing.T) (*gorm.DB, *memStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.SetDB(db)

	store := newMemStore()
	c := testConfig()
	jwtutil.Initialize(&c.JWT)
	Init(c, store)

	return db, store
}

func createTenant(t *testing.T, db *gorm.DB, name, slug string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: name, Slug: slug}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func createUser(t *testing.T, db *gorm.DB, tenantID uint, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Email: email, Password: string(hash), TenantID: tenantID, ThemeMode: model.ThemeDark}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, tenantID uint, title string) *model.Project {
	t.Helper()
	project := &model.Project{TenantID: tenantID, Title: title}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createActivity(t *testing.T, db *gorm.DB, tenantID, projectID uint, title, activityType string) *model.Activity {
	t.Helper()
	activity := &model.Activity{TenantID: tenantID, ProjectID: projectID, Title: title, Type: activityType}
	require.NoError(t, db.Create(activity).Error)
	return activity
}

// newRequest builds an echo context for a handler invocation authenticated as
// the given user, mirroring what AuthMiddleware places in the context
func newRequest(method, target string, body io.Reader, contentType string, user *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("tenant_id", user.TenantID)
	}
	return c, rec
}

func setParams(c echo.Context, names []string, values []string) {
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func dataObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	payload := decodeBody(t, rec)
	data, ok := payload["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", rec.Body.String())
	return data
}

func dataList(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	payload := decodeBody(t, rec)
	data, ok := payload["data"].([]interface{})
	require.True(t, ok, "response has no data list: %s", rec.Body.String())
	return data
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

type fileSpec struct {
	name    string
	content []byte
}

// multipartBody builds a multipart create-entry payload with files under the
// "attachments" field
func multipartBody(t *testing.T, fields map[string]string, files []fileSpec) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, file := range files {
		fw, err := w.CreateFormFile("attachments", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func userIDString(user *model.User) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}
