package handler

import (
	"net/http"
	"testing"

	"github.com/alemhar/fielder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjects(t *testing.T) {
	db, _ := setupTest(t)
	tenantA := createTenant(t, db, "Tenant A", "tenant-a")
	tenantB := createTenant(t, db, "Tenant B", "tenant-b")
	userA := createUser(t, db, tenantA.ID, "a@example.com", "password")
	userB := createUser(t, db, tenantB.ID, "b@example.com", "password")

	createProject(t, db, tenantA.ID, "Zulu Project")
	alpha := createProject(t, db, tenantA.ID, "Alpha Project")
	createProject(t, db, tenantB.ID, "Foo")

	createActivity(t, db, tenantA.ID, alpha.ID, "First", model.ActivityTypeCore)
	createActivity(t, db, tenantA.ID, alpha.ID, "Second", model.ActivityTypeSupporting)

	t.Run("returns only the caller's tenant, ordered by title", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects", nil, "", userA)
		require.NoError(t, ListProjects(c))
		require.Equal(t, http.StatusOK, rec.Code)

		data := dataList(t, rec)
		require.Len(t, data, 2)

		first := data[0].(map[string]interface{})
		second := data[1].(map[string]interface{})
		assert.Equal(t, "Alpha Project", first["title"])
		assert.Equal(t, float64(2), first["activities_count"])
		assert.Equal(t, "Zulu Project", second["title"])
		assert.Equal(t, float64(0), second["activities_count"])
	})

	t.Run("other tenant never sees them", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects", nil, "", userB)
		require.NoError(t, ListProjects(c))
		require.Equal(t, http.StatusOK, rec.Code)

		data := dataList(t, rec)
		require.Len(t, data, 1)
		assert.Equal(t, "Foo", data[0].(map[string]interface{})["title"])
	})
}

func TestGetProject(t *testing.T) {
	db, _ := setupTest(t)
	tenantA := createTenant(t, db, "Tenant A", "tenant-a")
	tenantB := createTenant(t, db, "Tenant B", "tenant-b")
	userA := createUser(t, db, tenantA.ID, "a@example.com", "password")
	userB := createUser(t, db, tenantB.ID, "b@example.com", "password")

	project := createProject(t, db, tenantA.ID, "Foo")
	createActivity(t, db, tenantA.ID, project.ID, "Bravo", model.ActivityTypeSupporting)
	createActivity(t, db, tenantA.ID, project.ID, "Alpha", model.ActivityTypeCore)

	t.Run("returns project with ordered activity summaries", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects/"+project.UUID, nil, "", userA)
		setParams(c, []string{"projectUuid"}, []string{project.UUID})

		require.NoError(t, GetProject(c))
		require.Equal(t, http.StatusOK, rec.Code)

		data := dataObject(t, rec)
		assert.Equal(t, project.UUID, data["uuid"])
		assert.Equal(t, float64(2), data["activities_count"])

		activities := data["activities"].([]interface{})
		require.Len(t, activities, 2)
		assert.Equal(t, "Alpha", activities[0].(map[string]interface{})["title"])
		assert.Equal(t, "Bravo", activities[1].(map[string]interface{})["title"])
	})

	t.Run("guessed uuid from another tenant is not found", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects/"+project.UUID, nil, "", userB)
		setParams(c, []string{"projectUuid"}, []string{project.UUID})

		require.NoError(t, GetProject(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown uuid is not found", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects/does-not-exist", nil, "", userA)
		setParams(c, []string{"projectUuid"}, []string{"does-not-exist"})

		require.NoError(t, GetProject(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListActivitiesForProject(t *testing.T) {
	db, _ := setupTest(t)
	tenantA := createTenant(t, db, "Tenant A", "tenant-a")
	tenantB := createTenant(t, db, "Tenant B", "tenant-b")
	userA := createUser(t, db, tenantA.ID, "a@example.com", "password")
	userB := createUser(t, db, tenantB.ID, "b@example.com", "password")

	project := createProject(t, db, tenantA.ID, "Foo")
	createActivity(t, db, tenantA.ID, project.ID, "Charlie", model.ActivityTypeCore)
	createActivity(t, db, tenantA.ID, project.ID, "Alpha", model.ActivityTypeSupporting)

	t.Run("orders activities by title", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects/"+project.UUID+"/activities", nil, "", userA)
		setParams(c, []string{"projectUuid"}, []string{project.UUID})

		require.NoError(t, ListActivitiesForProject(c))
		require.Equal(t, http.StatusOK, rec.Code)

		data := dataList(t, rec)
		require.Len(t, data, 2)
		assert.Equal(t, "Alpha", data[0].(map[string]interface{})["title"])
		assert.Equal(t, "supporting", data[0].(map[string]interface{})["type"])
		assert.Equal(t, "Charlie", data[1].(map[string]interface{})["title"])
	})

	t.Run("parent project must resolve in tenant scope", func(t *testing.T) {
		c, rec := newRequest(http.MethodGet, "/api/projects/"+project.UUID+"/activities", nil, "", userB)
		setParams(c, []string{"projectUuid"}, []string{project.UUID})

		require.NoError(t, ListActivitiesForProject(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetActivity(t *testing.T) {
	db, _ := setupTest(t)
	tenantA := createTenant(t, db, "Tenant A", "tenant-a")
	userA := createUser(t, db, tenantA.ID, "a@example.com", "password")

	project := createProject(t, db, tenantA.ID, "Foo")
	activity := createActivity(t, db, tenantA.ID, project.ID, "Alpha", model.ActivityTypeCore)
	require.NoError(t, db.Create(&model.ActivityEntry{
		TenantID:   tenantA.ID,
		ActivityID: activity.ID,
		UserID:     userA.ID,
		Body:       strPtr("note"),
	}).Error)

	c, rec := newRequest(http.MethodGet, "/api/activities/"+activity.UUID, nil, "", userA)
	setParams(c, []string{"activityUuid"}, []string{activity.UUID})

	require.NoError(t, GetActivity(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataObject(t, rec)
	assert.Equal(t, activity.UUID, data["uuid"])
	assert.Equal(t, "core", data["type"])
	assert.Equal(t, float64(1), data["entries_count"])

	parent := data["project"].(map[string]interface{})
	assert.Equal(t, project.UUID, parent["uuid"])
	assert.Equal(t, "Foo", parent["title"])
}

func strPtr(s string) *string {
	return &s
}
