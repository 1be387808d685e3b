package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/landmarks/backend/internal/middleware"
	"github.com/landmarks/backend/internal/models"
	"github.com/landmarks/backend/pkg/logger"
	"github.com/landmarks/backend/pkg/utils"
	"gorm.io/gorm"
)

type ReviewsHandler struct {
	DB *gorm.DB
}

func NewReviewsHandler(db *gorm.DB) *ReviewsHandler {
	return &ReviewsHandler{DB: db}
}

func (h *ReviewsHandler) ListForLandmark(c *fiber.Ctx) error {
	landmarkID, err := parseID(c.Params("landmarkId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid landmark id")
	}

	var reviews []models.Review
	err = h.DB.Preload("User").
		Where("landmark_id = ?", landmarkID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing reviews")
	}

	for i := range reviews {
		reviews[i].UserEmail = reviews[i].User.Email
	}

	return utils.Success(c, fiber.StatusOK, reviews)
}

func (h *ReviewsHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.requireSelf(c, userID); err != nil {
		return err
	}

	var reviews []models.Review
	err = h.DB.Preload("Landmark").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing reviews")
	}

	for i := range reviews {
		reviews[i].LandmarkName = reviews[i].Landmark.Name
	}

	return utils.Success(c, fiber.StatusOK, reviews)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewsHandler) Create(c *fiber.Ctx) error {
	userID, landmarkID, err := h.parsePair(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid review path")
	}

	if err := h.requireSelf(c, userID); err != nil {
		return err
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return utils.Error(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}
	if req.Comment == "" {
		return utils.Error(c, fiber.StatusBadRequest, "comment is required")
	}

	var landmark models.Landmark
	if err := h.DB.First(&landmark, "id = ?", landmarkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "landmark not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching landmark")
	}

	review := models.Review{
		Rating:     req.Rating,
		Comment:    req.Comment,
		UserID:     userID,
		LandmarkID: landmarkID,
	}

	// The compound unique index turns a concurrent double-submit into a
	// deterministic duplicate-key error instead of a second row.
	if err := h.DB.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "you already reviewed this landmark")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating review")
	}

	logger.InfoWithUser(userIDString(middleware.GetCurrentUser(c)), "review_created", map[string]interface{}{
		"review_id":   review.ID,
		"landmark_id": landmarkID,
		"rating":      review.Rating,
	})

	return utils.Success(c, fiber.StatusCreated, review)
}

func (h *ReviewsHandler) Update(c *fiber.Ctx) error {
	userID, landmarkID, err := h.parsePair(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid review path")
	}

	if err := h.requireSelf(c, userID); err != nil {
		return err
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return utils.Error(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}
	if req.Comment == "" {
		return utils.Error(c, fiber.StatusBadRequest, "comment is required")
	}

	var review models.Review
	if err := h.DB.First(&review, "user_id = ? AND landmark_id = ?", userID, landmarkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "review not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching review")
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	if err := h.DB.Save(&review).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating review")
	}

	return utils.Success(c, fiber.StatusOK, review)
}

func (h *ReviewsHandler) Delete(c *fiber.Ctx) error {
	userID, landmarkID, err := h.parsePair(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid review path")
	}

	if err := h.requireSelf(c, userID); err != nil {
		return err
	}

	result := h.DB.Where("user_id = ? AND landmark_id = ?", userID, landmarkID).Delete(&models.Review{})
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting review")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "review not found")
	}

	logger.InfoWithUser(userIDString(middleware.GetCurrentUser(c)), "review_deleted", map[string]interface{}{
		"landmark_id": landmarkID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "review deleted"})
}

func (h *ReviewsHandler) parsePair(c *fiber.Ctx) (uint, uint, error) {
	userID, err := parseID(c.Params("userId"))
	if err != nil {
		return 0, 0, err
	}
	landmarkID, err := parseID(c.Params("landmarkId"))
	if err != nil {
		return 0, 0, err
	}
	return userID, landmarkID, nil
}

// requireSelf rejects requests whose path names a different user than the
// verified token subject. The acting identity always comes from the token;
// the path id is only accepted as a redundant confirmation.
func (h *ReviewsHandler) requireSelf(c *fiber.Ctx, userID uint) error {
	current := middleware.GetCurrentUser(c)
	if current == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if current.ID != userID {
		logger.WarnWithUser(userIDString(current), "review_identity_mismatch", map[string]interface{}{
			"path_user_id": userID,
			"path":         c.Path(),
		})
		return utils.Error(c, fiber.StatusForbidden, "cannot act for another user")
	}
	return nil
}
