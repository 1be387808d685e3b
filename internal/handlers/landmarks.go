package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/landmarks/backend/internal/middleware"
	"github.com/landmarks/backend/internal/models"
	"github.com/landmarks/backend/internal/services"
	"github.com/landmarks/backend/internal/storage"
	"github.com/landmarks/backend/pkg/logger"
	"github.com/landmarks/backend/pkg/utils"
	"gorm.io/gorm"
)

type LandmarksHandler struct {
	DB      *gorm.DB
	Storage storage.ImageStore
	Ratings *services.RatingService
}

func NewLandmarksHandler(db *gorm.DB, store storage.ImageStore, ratings *services.RatingService) *LandmarksHandler {
	return &LandmarksHandler{DB: db, Storage: store, Ratings: ratings}
}

func (h *LandmarksHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Landmark{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchValue, searchValue)
	}

	if categoryRaw := strings.TrimSpace(c.Query("categoryId")); categoryRaw != "" {
		categoryID, err := parseID(categoryRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid categoryId")
		}
		query = query.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting landmarks")
	}

	var landmarks []models.Landmark
	if err := utils.ApplyPagination(query.Order("name ASC"), p).Find(&landmarks).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing landmarks")
	}

	if err := h.Ratings.Annotate(landmarks); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing ratings")
	}

	return utils.Paginated(c, landmarks, p.Page, p.Limit, total)
}

// Popular returns landmarks ranked by average rating, best first.
func (h *LandmarksHandler) Popular(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	var landmarks []models.Landmark
	if err := h.DB.Find(&landmarks).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing landmarks")
	}

	if err := h.Ratings.Annotate(landmarks); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing ratings")
	}

	sort.SliceStable(landmarks, func(i, j int) bool {
		if landmarks[i].AverageRating != landmarks[j].AverageRating {
			return landmarks[i].AverageRating > landmarks[j].AverageRating
		}
		return landmarks[i].ReviewCount > landmarks[j].ReviewCount
	})

	if len(landmarks) > limit {
		landmarks = landmarks[:limit]
	}

	return utils.Success(c, fiber.StatusOK, landmarks)
}

func (h *LandmarksHandler) Get(c *fiber.Ctx) error {
	landmarkID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid landmark id")
	}

	var landmark models.Landmark
	if err := h.DB.First(&landmark, "id = ?", landmarkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "landmark not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching landmark")
	}

	average, count, err := h.Ratings.Summary(landmark.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing rating")
	}
	landmark.AverageRating = average
	landmark.ReviewCount = count

	return utils.Success(c, fiber.StatusOK, landmark)
}

func (h *LandmarksHandler) Create(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)
	if admin == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	description := strings.TrimSpace(c.FormValue("description"))
	location := strings.TrimSpace(c.FormValue("location"))
	categoryRaw := strings.TrimSpace(c.FormValue("category_id"))

	if name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}
	if description == "" || location == "" {
		return utils.Error(c, fiber.StatusBadRequest, "description and location are required")
	}

	fileHeader, err := c.FormFile("img")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "image is required")
	}

	categoryID, err := parseID(categoryRaw)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid category_id")
	}

	var category models.Category
	if err := h.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "category not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching category")
	}

	objectName, err := h.storeImage(c, fileHeader)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing image")
	}

	landmark := models.Landmark{
		Name:         name,
		Description:  description,
		Location:     location,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Img:          objectName,
	}

	if err := h.DB.Create(&landmark).Error; err != nil {
		h.removeImage(c, objectName)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "landmark already exists")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating landmark")
	}

	logger.InfoWithUser(userIDString(admin), "landmark_created", map[string]interface{}{
		"landmark_id": landmark.ID,
		"name":        landmark.Name,
		"category_id": landmark.CategoryID,
		"img":         landmark.Img,
	})

	return utils.Success(c, fiber.StatusCreated, landmark)
}

func (h *LandmarksHandler) Update(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)
	if admin == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	landmarkID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid landmark id")
	}

	var landmark models.Landmark
	if err := h.DB.First(&landmark, "id = ?", landmarkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "landmark not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching landmark")
	}

	updates := map[string]interface{}{}

	if name := strings.TrimSpace(c.FormValue("name")); name != "" {
		updates["name"] = name
	}
	if description := strings.TrimSpace(c.FormValue("description")); description != "" {
		updates["description"] = description
	}
	if location := strings.TrimSpace(c.FormValue("location")); location != "" {
		updates["location"] = location
	}

	if categoryRaw := strings.TrimSpace(c.FormValue("category_id")); categoryRaw != "" {
		categoryID, err := parseID(categoryRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid category_id")
		}
		var category models.Category
		if err := h.DB.First(&category, "id = ?", categoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Error(c, fiber.StatusNotFound, "category not found")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed fetching category")
		}
		updates["category_id"] = category.ID
	}

	if fileHeader, err := c.FormFile("img"); err == nil {
		objectName, storeErr := h.storeImage(c, fileHeader)
		if storeErr != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed storing image")
		}
		h.removeImage(c, landmark.Img)
		updates["img"] = objectName
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&landmark).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Error(c, fiber.StatusConflict, "landmark already exists")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating landmark")
		}
	}

	var refreshed models.Landmark
	if err := h.DB.First(&refreshed, "id = ?", landmarkID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated landmark")
	}

	logger.InfoWithUser(userIDString(admin), "landmark_updated", map[string]interface{}{
		"landmark_id": refreshed.ID,
		"fields":      len(updates),
	})

	return utils.Success(c, fiber.StatusOK, refreshed)
}

func (h *LandmarksHandler) Delete(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)
	if admin == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	landmarkID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid landmark id")
	}

	var landmark models.Landmark
	if err := h.DB.First(&landmark, "id = ?", landmarkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "landmark not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching landmark")
	}

	h.removeImage(c, landmark.Img)

	if err := h.DB.Select("Reviews").Delete(&landmark).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting landmark")
	}

	logger.InfoWithUser(userIDString(admin), "landmark_deleted", map[string]interface{}{
		"landmark_id": landmarkID,
		"name":        landmark.Name,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "landmark deleted"})
}

// storeImage writes the uploaded photo under a generated object name and
// returns that name.
func (h *LandmarksHandler) storeImage(c *fiber.Ctx, fileHeader *multipart.FileHeader) (string, error) {
	stream, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer stream.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".jpg"
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := h.Storage.Put(c.Context(), objectName, stream, fileHeader.Size, contentType); err != nil {
		return "", err
	}
	return objectName, nil
}

// removeImage is best-effort cleanup: a failed delete is logged and the
// primary operation carries on.
func (h *LandmarksHandler) removeImage(c *fiber.Ctx, objectName string) {
	if objectName == "" {
		return
	}
	if err := h.Storage.Delete(c.Context(), objectName); err != nil {
		logger.Warn("image_cleanup_failed", map[string]interface{}{
			"object_name": objectName,
			"error":       err.Error(),
		})
	}
}
