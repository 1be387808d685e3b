package handlers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/landmarks/backend/internal/storage"
	"github.com/landmarks/backend/pkg/utils"
)

type MediaHandler struct {
	Storage storage.ImageStore
}

func NewMediaHandler(store storage.ImageStore) *MediaHandler {
	return &MediaHandler{Storage: store}
}

// Serve streams a stored image read-only by its generated filename.
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	filename := strings.TrimSpace(c.Params("filename"))
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	obj, err := h.Storage.Get(c.Context(), filename)
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, "image not found")
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Set("Content-Type", contentType)
	c.Set("Cache-Control", "public, max-age=86400")
	return c.SendStream(obj)
}
