package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aethra/nexus/internal/auth"
	"github.com/aethra/nexus/internal/database"
	"github.com/aethra/nexus/internal/entitlement"
	"github.com/aethra/nexus/internal/models"
)

type testEnv struct {
	router *gin.Engine
	svc    *entitlement.Service
	db     *gorm.DB
	jwt    *auth.JWTService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.Unit{},
		&models.User{},
		&models.UserUnit{},
		&models.Module{},
		&models.UnitModule{},
		&models.UserModulePermission{},
	))
	require.NoError(t, database.Seed(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	svc := entitlement.NewService(db, log)
	jwtService := auth.NewJWTService("test-secret", 1)

	router := SetupRouter(RouterConfig{
		Handler:        NewHandler(svc),
		UnitHandler:    NewUnitHandler(svc),
		AdminHandler:   NewAdminHandler(svc),
		AuthHandler:    NewAuthHandler(svc, jwtService, log),
		JWTService:     jwtService,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return &testEnv{router: router, svc: svc, db: db, jwt: jwtService}
}

func (e *testEnv) createAccount(t *testing.T, email, password, roleName string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, e.db.Where("name = ?", roleName).First(&role).Error)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Email: email, PasswordHash: string(hash), RoleID: role.ID, IsActive: true}
	require.NoError(t, e.db.Create(&user).Error)
	return &user
}

func (e *testEnv) tokenFor(t *testing.T, user *models.User, roleName string) string {
	t.Helper()
	token, err := e.jwt.Generate(user.ID, user.Email, roleName)
	require.NoError(t, err)
	return token.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "up", body["database"])
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)

	w := env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "root@acme.test", "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	token := body["token"].(map[string]interface{})
	assert.NotEmpty(t, token["access_token"])
	assert.Equal(t, "Bearer", token["token_type"])

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "root@acme.test", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "nobody@acme.test", "password": "supersecret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)

	w := env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "root@acme.test", "password": "supersecret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/admin/units", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/admin/units", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGating(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createAccount(t, "admin@acme.test", "supersecret", models.RoleAdmin)
	user := env.createAccount(t, "user@acme.test", "supersecret", models.RoleUser)
	adminToken := env.tokenFor(t, admin, models.RoleAdmin)
	userToken := env.tokenFor(t, user, models.RoleUser)

	// Management surface is super_admin only.
	w := env.do(t, http.MethodGet, "/admin/units", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodGet, "/admin/administrators", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Grants are reachable by admins but not plain users.
	w = env.do(t, http.MethodGet, "/admin/administrators/"+admin.ID.String()+"/grants", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/admin/administrators/"+user.ID.String()+"/grants", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnitLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	super := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	token := env.tokenFor(t, super, models.RoleSuperAdmin)

	w := env.do(t, http.MethodPost, "/admin/units", token, gin.H{"name": "Acme", "description": "first tenant"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	unitID := body["id"].(string)

	// Duplicate name conflicts.
	w = env.do(t, http.MethodPost, "/admin/units", token, gin.H{"name": "Acme"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/admin/units", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/admin/units/"+unitID, token, gin.H{"description": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/admin/units/"+unitID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/admin/units/"+unitID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnitMembersEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	super := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	member := env.createAccount(t, "member@acme.test", "supersecret", models.RoleUser)
	token := env.tokenFor(t, super, models.RoleSuperAdmin)

	unit, err := env.svc.CreateUnit(context.Background(), "Acme", "")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.UserUnit{UserID: member.ID, UnitID: unit.ID}).Error)

	w := env.do(t, http.MethodGet, "/admin/units/"+unit.ID.String()+"/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	users := body["users"].([]interface{})
	require.Len(t, users, 1)
	entry := users[0].(map[string]interface{})
	assert.Equal(t, member.Email, entry["email"])
	assert.Equal(t, models.RoleUser, entry["role"].(map[string]interface{})["name"])

	w = env.do(t, http.MethodGet, "/admin/units/"+uuid.NewString()+"/users", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModuleEnablementEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	super := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	token := env.tokenFor(t, super, models.RoleSuperAdmin)

	unit, err := env.svc.CreateUnit(context.Background(), "Acme", "")
	require.NoError(t, err)
	var module models.Module
	require.NoError(t, env.db.Where("name = ?", "dashboard").First(&module).Error)

	path := "/admin/units/" + unit.ID.String() + "/modules/" + module.ID.String()

	// Missing enabled field is a validation error.
	w := env.do(t, http.MethodPut, path, token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, path, token, gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/admin/units/"+unit.ID.String()+"/modules", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	statuses := body["modules"].([]interface{})
	var enabledCount int
	for _, raw := range statuses {
		st := raw.(map[string]interface{})
		if st["enabled"].(bool) {
			enabledCount++
			assert.Equal(t, super.Email, st["enabled_by_email"])
		}
	}
	assert.Equal(t, 1, enabledCount)

	w = env.do(t, http.MethodPut, path, token, gin.H{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGrantEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	super := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	admin := env.createAccount(t, "admin@acme.test", "supersecret", models.RoleAdmin)
	user := env.createAccount(t, "user@acme.test", "supersecret", models.RoleUser)
	superToken := env.tokenFor(t, super, models.RoleSuperAdmin)
	adminToken := env.tokenFor(t, admin, models.RoleAdmin)

	unit, err := env.svc.CreateUnit(context.Background(), "Acme", "")
	require.NoError(t, err)
	var module models.Module
	require.NoError(t, env.db.Where("name = ?", "dashboard").First(&module).Error)

	grantBody := gin.H{
		"user_id":   user.ID.String(),
		"unit_id":   unit.ID.String(),
		"module_id": module.ID.String(),
	}

	// Granting against a disabled module is rejected.
	w := env.do(t, http.MethodPost, "/api/grants", adminToken, grantBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, env.svc.SetModuleEnablement(context.Background(), unit.ID, module.ID, true, super.ID))

	w = env.do(t, http.MethodPost, "/api/grants", adminToken, grantBody)
	require.Equal(t, http.StatusCreated, w.Code)

	// The admin sees its own grant.
	w = env.do(t, http.MethodGet, "/admin/administrators/"+admin.ID.String()+"/grants", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Len(t, body["grants"].([]interface{}), 1)

	// A super admin inspecting this admin sees the same grant flagged own.
	w = env.do(t, http.MethodGet, "/admin/administrators/"+admin.ID.String()+"/grants", superToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	grants := body["grants"].([]interface{})
	require.Len(t, grants, 1)
	units := grants[0].(map[string]interface{})["units"].([]interface{})
	modules := units[0].(map[string]interface{})["modules"].([]interface{})
	assert.True(t, modules[0].(map[string]interface{})["own_grant"].(bool))

	w = env.do(t, http.MethodDelete, "/api/grants", adminToken, grantBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/admin/administrators/"+admin.ID.String()+"/grants", adminToken, nil)
	body = decodeBody(t, w)
	assert.Empty(t, body["grants"].([]interface{}))
}

func TestAdministratorEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	super := env.createAccount(t, "root@acme.test", "supersecret", models.RoleSuperAdmin)
	token := env.tokenFor(t, super, models.RoleSuperAdmin)

	unit, err := env.svc.CreateUnit(context.Background(), "Acme", "")
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/admin/administrators", token, gin.H{
		"email":    "admin@acme.test",
		"password": "supersecret",
		"role":     "admin",
		"unit_ids": []string{unit.ID.String()},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	adminID := body["id"].(string)

	w = env.do(t, http.MethodGet, "/admin/administrators", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	// The super admin account itself is listed too.
	assert.Len(t, body["administrators"].([]interface{}), 2)

	w = env.do(t, http.MethodPut, "/admin/administrators/"+adminID+"/units", token, gin.H{
		"unit_ids": []string{},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/admin/administrators/"+adminID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/admin/administrators/"+adminID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createAccount(t, "admin@acme.test", "supersecret", models.RoleAdmin)
	token := env.tokenFor(t, admin, models.RoleAdmin)

	w := env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, admin.Email, body["user"].(map[string]interface{})["email"])
	visibility := body["visibility"].(map[string]interface{})
	assert.Equal(t, false, visibility["SeeAllUnits"])
}
