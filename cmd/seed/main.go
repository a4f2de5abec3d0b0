// Seeds a demo tenant with users, projects, and activities so a fresh install
// has something to show in the mobile client. Safe to run repeatedly.
package main

import (
	"strconv"
	"time"

	"github.com/alemhar/fielder/internal/model"
	"github.com/alemhar/fielder/internal/schema"
	"github.com/alemhar/fielder/pkg/config"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	db := database.GetDB()

	var tenant model.Tenant
	if err := db.Where(model.Tenant{Slug: "synnch-au"}).
		Attrs(model.Tenant{Name: "Synnch AU"}).
		FirstOrCreate(&tenant).Error; err != nil {
		log.Fatal("Failed to seed tenant", zap.Error(err))
	}
	log.Info("Tenant ready", zap.String("slug", tenant.Slug), zap.Uint("id", tenant.ID))

	admin := seedUser(log, tenant.ID, "admin@synnch.au", "Synnch AU Admin", "password")
	seedUser(log, tenant.ID, "user@synnch.au", "Synnch AU User", "password")

	projectSchema := map[string]interface{}(tenant.ProjectDefaultDetailsSchema)
	if len(projectSchema) == 0 {
		projectSchema = schema.DefaultProjectDetailsSchema()
	}
	activitySchema := map[string]interface{}(tenant.ActivityDefaultDetailsSchema)
	if len(activitySchema) == 0 {
		activitySchema = schema.DefaultActivityDetailsSchema()
	}

	ownerID := strconv.FormatUint(uint64(admin.ID), 10)
	today := time.Now().Format("2006-01-02")
	inDays := func(days int) string {
		return time.Now().AddDate(0, 0, days).Format("2006-01-02")
	}

	chronicCare := seedProject(log, tenant.ID, "Chronic Care Management Program", projectSchema, map[string]interface{}{
		"description": "Long-term chronic care management for high-risk patients in the clinic.",
		"status":      "planned",
		"startDate":   today,
		"tags":        []interface{}{"chronic-care", "clinic"},
		"ownerUserId": ownerID,
	})

	diabetes := seedProject(log, tenant.ID, "Diabetes Foot Screening Initiative", projectSchema, map[string]interface{}{
		"description": "Routine foot screening for diabetic patients to catch complications early.",
		"status":      "planned",
		"startDate":   today,
		"tags":        []interface{}{"diabetes", "screening"},
		"ownerUserId": ownerID,
	})

	seedActivity(log, tenant.ID, chronicCare.ID, "Initial patient outreach calls", model.ActivityTypeCore, activitySchema, map[string]interface{}{
		"description":    "Call eligible high-risk patients to enroll them in the chronic care program.",
		"status":         "todo",
		"dueDate":        inDays(7),
		"assigneeUserId": ownerID,
		"estimateHours":  4,
	})
	seedActivity(log, tenant.ID, chronicCare.ID, "Prepare patient education materials", model.ActivityTypeSupporting, activitySchema, map[string]interface{}{
		"description":    "Draft and print pamphlets explaining the chronic care program.",
		"status":         "todo",
		"dueDate":        inDays(3),
		"assigneeUserId": ownerID,
		"estimateHours":  2,
	})
	seedActivity(log, tenant.ID, diabetes.ID, "Set up screening schedule", model.ActivityTypeCore, activitySchema, map[string]interface{}{
		"description":    "Coordinate with clinicians to schedule regular foot screening slots.",
		"status":         "todo",
		"dueDate":        inDays(7),
		"assigneeUserId": ownerID,
		"estimateHours":  3,
	})
	seedActivity(log, tenant.ID, diabetes.ID, "Create patient follow-up checklist", model.ActivityTypeSupporting, activitySchema, map[string]interface{}{
		"description":    "Define a checklist for nurses to document screening findings and follow-ups.",
		"status":         "todo",
		"dueDate":        inDays(5),
		"assigneeUserId": ownerID,
		"estimateHours":  2,
	})

	log.Info("Seed complete")
}

func seedUser(log *zap.Logger, tenantID uint, email, name, password string) *model.User {
	db := database.GetDB()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	var user model.User
	if err := db.Where(model.User{Email: email}).
		Assign(model.User{TenantID: tenantID, Name: name, Password: string(hash)}).
		FirstOrCreate(&user).Error; err != nil {
		log.Fatal("Failed to seed user", zap.String("email", email), zap.Error(err))
	}

	log.Info("User ready", zap.String("email", user.Email), zap.Uint("id", user.ID))
	return &user
}

func seedProject(log *zap.Logger, tenantID uint, title string, detailsSchema, details map[string]interface{}) *model.Project {
	db := database.GetDB()

	if err := schema.Validate(detailsSchema, details); err != nil {
		log.Fatal("Seed project details do not conform to schema",
			zap.String("title", title), zap.Error(err))
	}

	var project model.Project
	if err := db.Where(model.Project{TenantID: tenantID, Title: title}).
		Assign(model.Project{
			DetailsSchema: datatypes.JSONMap(detailsSchema),
			Details:       datatypes.JSONMap(details),
		}).
		FirstOrCreate(&project).Error; err != nil {
		log.Fatal("Failed to seed project", zap.String("title", title), zap.Error(err))
	}

	log.Info("Project ready", zap.String("title", project.Title), zap.String("uuid", project.UUID))
	return &project
}

func seedActivity(log *zap.Logger, tenantID, projectID uint, title, activityType string, detailsSchema, details map[string]interface{}) {
	db := database.GetDB()

	if err := schema.Validate(detailsSchema, details); err != nil {
		log.Fatal("Seed activity details do not conform to schema",
			zap.String("title", title), zap.Error(err))
	}

	// tenant_id is copied from the owning project, never re-derived later
	var activity model.Activity
	if err := db.Where(model.Activity{TenantID: tenantID, ProjectID: projectID, Title: title}).
		Assign(model.Activity{
			Type:          activityType,
			DetailsSchema: datatypes.JSONMap(detailsSchema),
			Details:       datatypes.JSONMap(details),
		}).
		FirstOrCreate(&activity).Error; err != nil {
		log.Fatal("Failed to seed activity", zap.String("title", title), zap.Error(err))
	}

	log.Info("Activity ready", zap.String("title", activity.Title), zap.String("uuid", activity.UUID))
}
