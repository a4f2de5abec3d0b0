package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alemhar/fielder/internal/middleware"
	"github.com/alemhar/fielder/internal/model"
	"github.com/alemhar/fielder/internal/storage"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/logger"
	"github.com/alemhar/fielder/prometheus"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var dataURIPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// ListEntriesForActivity returns the activity's entries newest-first, each
// with its author and attachment list
func ListEntriesForActivity(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntryOperation("list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	activity, err := resolveActivity(tenantID, c.Param("activityUuid"))
	if err != nil {
		log.Warn("Activity not found in tenant scope",
			zap.String("activity_uuid", c.Param("activityUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var entries []model.ActivityEntry
	result := entryQuery(tenantID).
		Where("activity_id = ?", activity.ID).
		Order("created_at DESC, id DESC").
		Find(&entries)
	if result.Error != nil {
		log.Error("Failed to retrieve entries", zap.Uint("activity_id", activity.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to retrieve entries."})
	}

	data := make([]echo.Map, 0, len(entries))
	for i := range entries {
		data = append(data, entryResponse(&entries[i]))
	}

	log.Info("Entries retrieved",
		zap.Int("count", len(entries)),
		zap.Uint("activity_id", activity.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// CreateEntry creates an entry against an activity from a multipart request,
// storing any uploaded files as attachments. The entry row is written first;
// each file is then stored and recorded independently, so one failed file
// never rolls back the entry or the files that already stored.
func CreateEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntryOperation("create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	activity, err := resolveActivity(tenantID, c.Param("activityUuid"))
	if err != nil {
		log.Warn("Activity not found in tenant scope",
			zap.String("activity_uuid", c.Param("activityUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	body, data, files, err := parseEntryInput(c)
	if err != nil {
		log.Warn("Invalid entry payload", zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": err.Error()})
	}

	if body == nil && data == nil && len(files) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "Either body, data, or an attachment must be provided.",
		})
	}

	entry := model.ActivityEntry{
		TenantID:   tenantID,
		ActivityID: activity.ID,
		UserID:     userID,
		Body:       body,
		Data:       datatypes.JSONMap(data),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&entry); result.Error != nil {
		log.Error("Failed to create entry",
			zap.Uint("activity_id", activity.ID),
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	for _, fileHeader := range files {
		storeUploadedAttachment(log, &entry, fileHeader)
	}

	loaded, err := loadEntry(tenantID, entry.UUID)
	if err != nil {
		log.Error("Failed to reload entry", zap.String("entry_uuid", entry.UUID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	log.Info("Entry created",
		zap.String("entry_uuid", entry.UUID),
		zap.Uint("activity_id", activity.ID),
		zap.Uint("tenant_id", tenantID),
		zap.Int("attachments", len(loaded.Attachments)))
	return c.JSON(http.StatusCreated, echo.Map{"data": entryResponse(loaded)})
}

// CreateEntryFromCamera creates an entry from a captured photo sent as a
// base64 data URI. Same operation as CreateEntry, second ingestion mode.
func CreateEntryFromCamera(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntryOperation("create_camera")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	activity, err := resolveActivity(tenantID, c.Param("activityUuid"))
	if err != nil {
		log.Warn("Activity not found in tenant scope",
			zap.String("activity_uuid", c.Param("activityUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	var req struct {
		Body      *string                `json:"body"`
		Data      map[string]interface{} `json:"data"`
		Photo     string                 `json:"photo"`
		PhotoName string                 `json:"photoName"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request."})
	}

	if req.Photo == "" || req.PhotoName == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "Either body, data, or a photo must be provided.",
		})
	}

	imageData, err := base64.StdEncoding.DecodeString(dataURIPrefix.ReplaceAllString(req.Photo, ""))
	if err != nil || len(imageData) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "Invalid base64 image data."})
	}

	entry := model.ActivityEntry{
		TenantID:   tenantID,
		ActivityID: activity.ID,
		UserID:     userID,
		Body:       req.Body,
		Data:       datatypes.JSONMap(req.Data),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&entry); result.Error != nil {
		log.Error("Failed to create entry",
			zap.Uint("activity_id", activity.ID),
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	storeAttachment(log, &entry, req.PhotoName, "image/jpeg", bytes.NewReader(imageData), int64(len(imageData)))

	loaded, err := loadEntry(tenantID, entry.UUID)
	if err != nil {
		log.Error("Failed to reload entry", zap.String("entry_uuid", entry.UUID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	log.Info("Entry created from camera",
		zap.String("entry_uuid", entry.UUID),
		zap.Uint("activity_id", activity.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"data": entryResponse(loaded)})
}

// GetEntry returns a single entry with author and attachments
func GetEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntryOperation("get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	entry, err := loadEntry(tenantID, c.Param("entryUuid"))
	if err != nil {
		log.Warn("Entry not found in tenant scope",
			zap.String("entry_uuid", c.Param("entryUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": entryResponse(entry)})
}

// UpdateEntry replaces the entry's body and data in full. Absent fields are
// written as NULL, never merged. Author and attachments stay untouched.
func UpdateEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntryOperation("update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	var req struct {
		Body *string                `json:"body"`
		Data map[string]interface{} `json:"data"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request."})
	}

	var entry model.ActivityEntry
	result := database.GetDB().
		Where("tenant_id = ? AND uuid = ?", tenantID, c.Param("entryUuid")).
		First(&entry)
	if result.Error != nil {
		log.Warn("Entry not found in tenant scope",
			zap.String("entry_uuid", c.Param("entryUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result = database.GetDB().
		Model(&entry).
		Select("body", "data").
		Updates(map[string]interface{}{
			"body": req.Body,
			"data": datatypes.JSONMap(req.Data),
		})
	if result.Error != nil {
		log.Error("Failed to update entry", zap.String("entry_uuid", entry.UUID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	loaded, err := loadEntry(tenantID, entry.UUID)
	if err != nil {
		log.Error("Failed to reload entry", zap.String("entry_uuid", entry.UUID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to save entry."})
	}

	log.Info("Entry updated", zap.String("entry_uuid", entry.UUID), zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"data": entryResponse(loaded)})
}

// DeleteAttachment removes one attachment: backing file first, then the
// record. A file-delete failure is logged and counted but does not keep the
// record alive.
func DeleteAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttachmentOperation("delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required."})
	}

	var entry model.ActivityEntry
	result := database.GetDB().
		Where("tenant_id = ? AND uuid = ?", tenantID, c.Param("entryUuid")).
		First(&entry)
	if result.Error != nil {
		log.Warn("Entry not found in tenant scope",
			zap.String("entry_uuid", c.Param("entryUuid")),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	var attachment model.ActivityEntryAttachment
	result = database.GetDB().
		Where("tenant_id = ? AND activity_entry_id = ? AND uuid = ?", tenantID, entry.ID, c.Param("attachmentUuid")).
		First(&attachment)
	if result.Error != nil {
		log.Warn("Attachment not found in entry scope",
			zap.String("attachment_uuid", c.Param("attachmentUuid")),
			zap.Uint("entry_id", entry.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found."})
	}

	// File first, then the row. If the store fails the row still goes; the
	// orphaned blob is accepted and surfaced through metrics only.
	if attachment.FilePath != "" {
		if err := fileStore.Delete(attachment.FilePath); err != nil {
			log.Error("Failed to delete attachment file",
				zap.String("file_path", attachment.FilePath),
				zap.Error(err))
			prometheus.RecordStorageError("delete")
		}
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&attachment); result.Error != nil {
		log.Error("Failed to delete attachment record",
			zap.String("attachment_uuid", attachment.UUID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete attachment."})
	}

	log.Info("Attachment deleted",
		zap.String("attachment_uuid", attachment.UUID),
		zap.String("entry_uuid", entry.UUID),
		zap.Uint("tenant_id", tenantID))
	return c.NoContent(http.StatusNoContent)
}

func resolveActivity(tenantID uint, activityUUID string) (*model.Activity, error) {
	var activity model.Activity
	result := database.GetDB().
		Where("tenant_id = ? AND uuid = ?", tenantID, activityUUID).
		First(&activity)
	if result.Error != nil {
		return nil, result.Error
	}
	return &activity, nil
}

func entryQuery(tenantID uint) *gorm.DB {
	return database.GetDB().
		Where("tenant_id = ?", tenantID).
		Preload("User").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		})
}

func loadEntry(tenantID uint, entryUUID string) (*model.ActivityEntry, error) {
	var entry model.ActivityEntry
	result := entryQuery(tenantID).
		Where("uuid = ?", entryUUID).
		First(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

// parseEntryInput reads body, data, and files from a create-entry request.
// Multipart carries files under "attachments"; body is a plain field and data
// a JSON-encoded object. A JSON request carries body and data directly.
func parseEntryInput(c echo.Context) (*string, map[string]interface{}, []*multipart.FileHeader, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, nil, errors.New("Invalid multipart payload.")
		}

		var body *string
		if values, ok := form.Value["body"]; ok && len(values) > 0 {
			body = &values[0]
		}

		var data map[string]interface{}
		if values, ok := form.Value["data"]; ok && len(values) > 0 && values[0] != "" {
			if err := json.Unmarshal([]byte(values[0]), &data); err != nil {
				return nil, nil, nil, errors.New("data must be a JSON object.")
			}
		}

		files := form.File["attachments"]
		if extra, ok := form.File["attachments[]"]; ok {
			files = append(files, extra...)
		}

		return body, data, files, nil
	}

	var req struct {
		Body *string                `json:"body"`
		Data map[string]interface{} `json:"data"`
	}
	if err := c.Bind(&req); err != nil {
		return nil, nil, nil, errors.New("Invalid request payload.")
	}
	return req.Body, req.Data, nil, nil
}

// storeUploadedAttachment stores one multipart file for the entry. Failures
// are logged and counted; the caller moves on to the next file.
func storeUploadedAttachment(log *zap.Logger, entry *model.ActivityEntry, fileHeader *multipart.FileHeader) {
	if fileHeader == nil {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file",
			zap.String("original_name", fileHeader.Filename),
			zap.Error(err))
		prometheus.RecordStorageError("put")
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	storeAttachment(log, entry, fileHeader.Filename, mimeType, file, fileHeader.Size)
}

// storeAttachment writes the file to the tenant/activity/entry-scoped key and
// records one attachment row. A storage failure skips the row; already-stored
// attachments are never rolled back.
func storeAttachment(log *zap.Logger, entry *model.ActivityEntry, originalName, mimeType string, r io.Reader, size int64) {
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	key := storage.AttachmentKey(entry.TenantID, entry.ActivityID, entry.ID, storedName)

	if err := fileStore.Put(key, r); err != nil {
		log.Error("Failed to store attachment file",
			zap.String("original_name", originalName),
			zap.String("file_path", key),
			zap.Error(err))
		prometheus.RecordStorageError("put")
		return
	}

	attachment := model.ActivityEntryAttachment{
		TenantID:        entry.TenantID,
		ActivityEntryID: entry.ID,
		FilePath:        key,
		OriginalName:    originalName,
		MimeType:        mimeType,
		Size:            size,
		Meta:            datatypes.JSONMap{},
	}

	if result := database.GetDB().Create(&attachment); result.Error != nil {
		log.Error("Failed to record attachment",
			zap.String("original_name", originalName),
			zap.String("file_path", key),
			zap.Error(result.Error))
		prometheus.RecordStorageError("put")
		return
	}

	prometheus.RecordAttachmentOperation("store")
}

func entryResponse(entry *model.ActivityEntry) echo.Map {
	attachments := make([]echo.Map, 0, len(entry.Attachments))
	for i := range entry.Attachments {
		a := &entry.Attachments[i]
		attachments = append(attachments, echo.Map{
			"uuid":          a.UUID,
			"original_name": a.OriginalName,
			"mime_type":     a.MimeType,
			"size":          a.Size,
			"meta":          a.Meta,
			"url":           fileStore.URL(a.FilePath),
		})
	}

	var author echo.Map
	if entry.User.ID != 0 {
		author = echo.Map{
			"id":    strconv.FormatUint(uint64(entry.User.ID), 10),
			"email": entry.User.Email,
		}
	}

	return echo.Map{
		"uuid":        entry.UUID,
		"body":        entry.Body,
		"data":        entry.Data,
		"created_at":  entry.CreatedAt.Format(time.RFC3339),
		"user":        author,
		"attachments": attachments,
	}
}
