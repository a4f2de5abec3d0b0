package handler

import (
	"net/http"
	"time"

	"github.com/alemhar/fielder/internal/middleware"
	"github.com/alemhar/fielder/internal/model"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/logger"
	"github.com/alemhar/fielder/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListActivitiesForProject returns the project's activities ordered by title.
// The parent project must resolve in tenant scope first; otherwise the whole
// request is a 404.
func ListActivitiesForProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordActivityOperation("list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	projectUUID := c.Param("projectUuid")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var project model.Project
	result := database.GetDB().
		Where("tenant_id = ? AND uuid = ?", tenantID, projectUUID).
		First(&project)
	if result.Error != nil {
		log.Warn("Project not found in tenant scope",
			zap.String("project_uuid", projectUUID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	var activities []model.Activity
	result = database.GetDB().
		Where("tenant_id = ? AND project_id = ?", tenantID, project.ID).
		Order("title").
		Find(&activities)
	if result.Error != nil {
		log.Error("Failed to retrieve activities", zap.Uint("project_id", project.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve activities."})
	}

	data := make([]echo.Map, 0, len(activities))
	for i := range activities {
		data = append(data, activityResponse(&activities[i]))
	}

	log.Info("Activities retrieved",
		zap.Int("count", len(activities)),
		zap.Uint("project_id", project.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// GetActivity returns one activity with its parent project summary and an
// entry count
func GetActivity(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordActivityOperation("get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	activityUUID := c.Param("activityUuid")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var activity model.Activity
	result := database.GetDB().
		Where("tenant_id = ? AND uuid = ?", tenantID, activityUUID).
		First(&activity)
	if result.Error != nil {
		log.Warn("Activity not found in tenant scope",
			zap.String("activity_uuid", activityUUID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	var entryCount int64
	database.GetDB().
		Model(&model.ActivityEntry{}).
		Where("tenant_id = ? AND activity_id = ?", tenantID, activity.ID).
		Count(&entryCount)

	data := activityResponse(&activity)
	data["entries_count"] = entryCount

	var project model.Project
	if result := database.GetDB().
		Where("tenant_id = ?", tenantID).
		First(&project, activity.ProjectID); result.Error == nil {
		data["project"] = echo.Map{
			"uuid":  project.UUID,
			"title": project.Title,
		}
	} else {
		data["project"] = nil
	}

	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

func activityResponse(activity *model.Activity) echo.Map {
	return echo.Map{
		"uuid":           activity.UUID,
		"title":          activity.Title,
		"type":           activity.Type,
		"details":        activity.Details,
		"details_schema": activity.DetailsSchema,
		"external_id":    activity.ExternalID,
	}
}
