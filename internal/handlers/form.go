package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var errReadImage = errors.New("failed to read image")

// readImage loads the multipart image field after checking size and type.
func readImage(c *fiber.Ctx, field string, maxBytes int) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image file is required", services.ErrValidation)
	}

	if maxBytes > 0 && file.Size > int64(maxBytes) {
		return nil, "", fmt.Errorf("%w: image size must be at most %d bytes", services.ErrValidation, maxBytes)
	}

	contentType := strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0])
	if !media.AllowedContentType(contentType) {
		return nil, "", fmt.Errorf("%w: invalid image format, only JPEG, PNG, WEBP and HEIC are allowed", services.ErrValidation)
	}

	f, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errReadImage, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errReadImage, err)
	}
	return data, strings.ToLower(contentType), nil
}

// optionalFloat parses a numeric form or query value; empty means absent.
func optionalFloat(raw, name string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", services.ErrValidation, name)
	}
	return &f, nil
}
