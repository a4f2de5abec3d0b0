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

// ListProjects returns the tenant's projects ordered by title, each carrying
// an activity count recomputed per call
func ListProjects(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var projects []model.Project
	result := database.GetDB().
		Where("tenant_id = ?", tenantID).
		Order("title").
		Find(&projects)
	if result.Error != nil {
		log.Error("Failed to retrieve projects", zap.Uint("tenant_id", tenantID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve projects."})
	}

	counts, err := activityCountsByProject(tenantID)
	if err != nil {
		log.Error("Failed to count activities", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve projects."})
	}

	data := make([]echo.Map, 0, len(projects))
	for i := range projects {
		data = append(data, projectSummaryResponse(&projects[i], counts[projects[i].ID]))
	}

	log.Info("Projects retrieved", zap.Int("count", len(projects)), zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// GetProject returns one project with its ordered activity summaries. A UUID
// belonging to another tenant looks identical to a missing one.
func GetProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("get")

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
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve project."})
	}

	activitySummaries := make([]echo.Map, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		activitySummaries = append(activitySummaries, echo.Map{
			"uuid":        a.UUID,
			"title":       a.Title,
			"type":        a.Type,
			"external_id": a.ExternalID,
		})
	}

	data := projectSummaryResponse(&project, int64(len(activities)))
	data["activities"] = activitySummaries

	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

func projectSummaryResponse(project *model.Project, activityCount int64) echo.Map {
	return echo.Map{
		"uuid":             project.UUID,
		"title":            project.Title,
		"details":          project.Details,
		"details_schema":   project.DetailsSchema,
		"external_id":      project.ExternalID,
		"activities_count": activityCount,
	}
}

// activityCountsByProject returns activity counts per project within the
// tenant, one grouped query for the whole listing
func activityCountsByProject(tenantID uint) (map[uint]int64, error) {
	var rows []struct {
		ProjectID uint
		Total     int64
	}

	result := database.GetDB().
		Model(&model.Activity{}).
		Select("project_id, count(*) as total").
		Where("tenant_id = ?", tenantID).
		Group("project_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = row.Total
	}
	return counts, nil
}
