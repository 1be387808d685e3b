package handlers

import (
	"strconv"
	"strings"

	"github.com/landmarks/backend/internal/models"
)

func parseID(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func userIDString(user *models.User) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}
