package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/landmarks/backend/internal/middleware"
	"github.com/landmarks/backend/internal/models"
	"github.com/landmarks/backend/pkg/logger"
	"github.com/landmarks/backend/pkg/utils"
	"gorm.io/gorm"
)

type CategoriesHandler struct {
	DB *gorm.DB
}

func NewCategoriesHandler(db *gorm.DB) *CategoriesHandler {
	return &CategoriesHandler{DB: db}
}

func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing categories")
	}
	return utils.Success(c, fiber.StatusOK, categories)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	category := models.Category{Name: req.Name}
	if err := h.DB.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "category already exists")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating category")
	}

	if admin := middleware.GetCurrentUser(c); admin != nil {
		logger.InfoWithUser(userIDString(admin), "category_created", map[string]interface{}{
			"category_id": category.ID,
			"name":        category.Name,
		})
	}

	return utils.Success(c, fiber.StatusCreated, category)
}

// Delete refuses to remove a category that still owns landmarks; callers
// must move or delete the landmarks first.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	categoryID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid category id")
	}

	var category models.Category
	if err := h.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "category not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching category")
	}

	var dependents int64
	if err := h.DB.Model(&models.Landmark{}).Where("category_id = ?", categoryID).Count(&dependents).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking category landmarks")
	}
	if dependents > 0 {
		return utils.Error(c, fiber.StatusConflict, "category still has landmarks")
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting category")
	}

	if admin := middleware.GetCurrentUser(c); admin != nil {
		logger.InfoWithUser(userIDString(admin), "category_deleted", map[string]interface{}{
			"category_id": categoryID,
			"name":        category.Name,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "category deleted"})
}
