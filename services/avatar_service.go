package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
)

// avatarURLTTL is how long a presigned avatar URL stays valid; URLs are built per response
const avatarURLTTL = time.Hour

// AvatarService validates and stores profile pictures
type AvatarService struct {
	storage ObjectStorage
}

// NewAvatarService creates an avatar service over object storage
func NewAvatarService(storage ObjectStorage) *AvatarService {
	return &AvatarService{storage: storage}
}

// Upload validates the file and stores it under avatars/<userID>/; it returns the object key
func (s *AvatarService) Upload(ctx context.Context, userID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateAvatarFile(fileHeader); err != nil {
		return "", err
	}
	contentType, _ := utils.AvatarContentType(fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, utils.MaxAvatarSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("avatars/%d/%s", userID, uuid.NewString())
	if err := s.storage.PutObject(ctx, key, contentType, content); err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	return key, nil
}

// URL presigns a short-lived GET URL for a stored avatar
func (s *AvatarService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.storage.PresignGet(ctx, key, avatarURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate avatar URL: %w", err)
	}
	return url, nil
}

// Delete removes a previously stored avatar
func (s *AvatarService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
