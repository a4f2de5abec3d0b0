package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alemhar/fielder/internal/middleware"
	"github.com/alemhar/fielder/internal/model"
	"github.com/alemhar/fielder/internal/schema"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/jwtutil"
	"github.com/alemhar/fielder/pkg/logger"
	"github.com/alemhar/fielder/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login exchanges email+password for a bearer token scoped to the user's
// tenant. The response carries the session user and the tenant ("company")
// with resolved branding so the client can theme itself immediately.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request."})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_credentials")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "Email and password are required."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials."})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials."})
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, user.TenantID); result.Error != nil {
		log.Error("Tenant not found for user",
			zap.Uint("user_id", user.ID),
			zap.Uint("tenant_id", user.TenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to resolve tenant."})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.TenantID, tenant.Slug)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Token error."})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("tenant_slug", tenant.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"user":    userResponse(&user),
		"company": companyResponse(&tenant),
		"token":   token,
	})
}

// Me resolves the current session from the bearer token
func Me(c echo.Context) error {
	log := logger.FromContext(c)

	user, tenant, err := currentUserAndTenant(c)
	if err != nil {
		log.Error("Failed to resolve session", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":    userResponse(user),
		"company": companyResponse(tenant),
	})
}

// UpdateTheme stores the user's theme preference
func UpdateTheme(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		ThemeMode string `json:"theme_mode"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request."})
	}

	if req.ThemeMode != model.ThemeLight && req.ThemeMode != model.ThemeDark {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "theme_mode must be light or dark."})
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	user.ThemeMode = req.ThemeMode
	if result := database.GetDB().Model(&user).Update("theme_mode", req.ThemeMode); result.Error != nil {
		log.Error("Failed to update theme", zap.Uint("user_id", userID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update theme."})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": userResponse(&user),
	})
}

// Schemas returns the tenant's default detail schemas for projects and
// activities, falling back to the built-in defaults
func Schemas(c echo.Context) error {
	log := logger.FromContext(c)

	_, tenant, err := currentUserAndTenant(c)
	if err != nil {
		log.Error("Failed to resolve session", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	projectSchema := map[string]interface{}(tenant.ProjectDefaultDetailsSchema)
	if len(projectSchema) == 0 {
		projectSchema = schema.DefaultProjectDetailsSchema()
	}

	activitySchema := map[string]interface{}(tenant.ActivityDefaultDetailsSchema)
	if len(activitySchema) == 0 {
		activitySchema = schema.DefaultActivityDetailsSchema()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"project_default_details_schema":  projectSchema,
		"activity_default_details_schema": activitySchema,
	})
}

func currentUserAndTenant(c echo.Context) (*model.User, *model.Tenant, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return nil, nil, echo.ErrUnauthorized
	}
	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		return nil, nil, echo.ErrUnauthorized
	}

	var user model.User
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&user, userID); result.Error != nil {
		return nil, nil, result.Error
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, tenantID); result.Error != nil {
		return nil, nil, result.Error
	}

	return &user, &tenant, nil
}

func userResponse(user *model.User) echo.Map {
	themeMode := user.ThemeMode
	if themeMode == "" {
		themeMode = model.ThemeDark
	}
	return echo.Map{
		"id":         strconv.FormatUint(uint64(user.ID), 10),
		"email":      user.Email,
		"theme_mode": themeMode,
	}
}

func companyResponse(tenant *model.Tenant) echo.Map {
	return echo.Map{
		"id":       strconv.FormatUint(uint64(tenant.ID), 10),
		"name":     tenant.Name,
		"slug":     tenant.Slug,
		"branding": brandingResponse(tenant),
	}
}

// brandingResponse resolves tenant branding settings over the configured
// defaults and turns logo paths into absolute URLs
func brandingResponse(tenant *model.Tenant) echo.Map {
	primaryColor := cfg.Branding.PrimaryColor
	secondaryColor := cfg.Branding.SecondaryColor
	logoLightPath := cfg.Branding.LogoLightPath
	logoDarkPath := cfg.Branding.LogoDarkPath

	if branding, ok := tenant.Settings["branding"].(map[string]interface{}); ok {
		if v, ok := branding["primary_color"].(string); ok && v != "" {
			primaryColor = v
		}
		if v, ok := branding["secondary_color"].(string); ok && v != "" {
			secondaryColor = v
		}
		if v, ok := branding["logo_light_path"].(string); ok && v != "" {
			logoLightPath = v
		}
		if v, ok := branding["logo_dark_path"].(string); ok && v != "" {
			logoDarkPath = v
		}
	}

	return echo.Map{
		"primary_color":   primaryColor,
		"secondary_color": secondaryColor,
		"logo_light_url":  fileStore.URL(logoLightPath),
		"logo_dark_url":   fileStore.URL(logoDarkPath),
	}
}
