package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/landmarks/backend/internal/database"
	"github.com/landmarks/backend/internal/middleware"
	"github.com/landmarks/backend/internal/models"
	"github.com/landmarks/backend/internal/services"
	"github.com/landmarks/backend/internal/storage"
	"github.com/landmarks/backend/pkg/logger"
	"github.com/landmarks/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store storage.ImageStore
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating local image store: %v", err)
	}

	ratingService := services.NewRatingService(db)

	authHandler := NewAuthHandler(db)
	categoriesHandler := NewCategoriesHandler(db)
	landmarksHandler := NewLandmarksHandler(db, store, ratingService)
	reviewsHandler := NewReviewsHandler(db)
	mediaHandler := NewMediaHandler(store)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 25 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/static/:filename", mediaHandler.Serve)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/check", authMiddleware.RequireAuth, authHandler.Check)

	categoryRoutes := api.Group("/categories")
	categoryRoutes.Get("/", categoriesHandler.List)
	categoryRoutes.Post("/", authMiddleware.RequireAuth, middleware.AdminOnly, categoriesHandler.Create)
	categoryRoutes.Delete("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, categoriesHandler.Delete)

	landmarkRoutes := api.Group("/landmarks")
	landmarkRoutes.Get("/", landmarksHandler.List)
	landmarkRoutes.Get("/popular", landmarksHandler.Popular)
	landmarkRoutes.Get("/:id", landmarksHandler.Get)
	landmarkRoutes.Post("/", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Create)
	landmarkRoutes.Put("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Update)
	landmarkRoutes.Delete("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Delete)

	reviewRoutes := api.Group("/reviews")
	reviewRoutes.Get("/landmark/:landmarkId", reviewsHandler.ListForLandmark)
	reviewRoutes.Get("/:userId/reviews", authMiddleware.RequireAuth, reviewsHandler.ListForUser)
	reviewRoutes.Post("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Create)
	reviewRoutes.Put("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Update)
	reviewRoutes.Delete("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Delete)

	return &testEnv{app: app, db: db, store: store}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed creating test category: %v", err)
	}
	return category
}

func createTestLandmark(t *testing.T, db *gorm.DB, category *models.Category, name, description, location string) *models.Landmark {
	t.Helper()

	landmark := &models.Landmark{
		Name:         name,
		Description:  description,
		Location:     location,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Img:          "test-" + name + ".jpg",
	}
	if err := db.Create(landmark).Error; err != nil {
		t.Fatalf("failed creating test landmark: %v", err)
	}
	return landmark
}

func createTestReview(t *testing.T, db *gorm.DB, user *models.User, landmark *models.Landmark, rating int, comment string, createdAt time.Time) *models.Review {
	t.Helper()

	review := &models.Review{
		Rating:     rating,
		Comment:    comment,
		UserID:     user.ID,
		LandmarkID: landmark.ID,
	}
	review.CreatedAt = createdAt
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("failed creating test review: %v", err)
	}
	return review
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performMultipartRequest submits form fields plus an optional image part
// named "img", mirroring how the admin UI posts landmarks.
func performMultipartRequest(t *testing.T, app *fiber.App, method, path string, fields map[string]string, imageName string, imageBytes []byte, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing form field %s: %v", key, err)
		}
	}

	if imageName != "" {
		part, err := writer.CreateFormFile("img", imageName)
		if err != nil {
			t.Fatalf("failed creating image part: %v", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			t.Fatalf("failed writing image bytes: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, method, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %+v", body)
	}
	return data
}
