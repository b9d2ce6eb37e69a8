package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID tạo UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateShortID tạo ID ngắn (8 ký tự)
func GenerateShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// IsUUID kiểm tra chuỗi có phải UUID hợp lệ không
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
