package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/storage"
)

// ImageService decodes base64 uploads and persists them through a
// storage.Store.
type ImageService struct {
	store storage.Store
}

func NewImageService(store storage.Store) *ImageService {
	return &ImageService{store: store}
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// decodeDataURL parses a "data:image/png;base64,..." payload. A bare
// base64 string without the data: prefix is accepted as PNG.
func decodeDataURL(payload string) ([]byte, string, error) {
	contentType := "image/png"
	if strings.HasPrefix(payload, "data:") {
		meta, rest, found := strings.Cut(payload[len("data:"):], ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = rest
	}
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fmt.Errorf("unsupported image type %q", contentType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image")
	}
	return data, contentType, nil
}

// save decodes the payload and writes it under prefix/<uuid>.<ext>.
func (s *ImageService) save(ctx context.Context, prefix, payload string) (string, error) {
	data, contentType, err := decodeDataURL(payload)
	if err != nil {
		return "", err
	}
	objectName := fmt.Sprintf("%s/%s.%s", prefix, uuid.New().String(), imageExtensions[contentType])
	if err := s.store.Save(ctx, objectName, data, contentType); err != nil {
		return "", err
	}
	return objectName, nil
}

// SaveRecipeImage stores a recipe image and returns its object name.
func (s *ImageService) SaveRecipeImage(ctx context.Context, payload string) (string, error) {
	return s.save(ctx, "recipe_images", payload)
}

// SaveAvatar stores a user avatar and returns its object name.
func (s *ImageService) SaveAvatar(ctx context.Context, payload string) (string, error) {
	return s.save(ctx, "user_avatars", payload)
}

// URL resolves a stored object name to a public URL.
func (s *ImageService) URL(objectName string) string {
	return s.store.URL(objectName)
}

// Delete removes a stored object.
func (s *ImageService) Delete(ctx context.Context, objectName string) error {
	return s.store.Delete(ctx, objectName)
}
