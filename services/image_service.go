package services

import (
	"errors"
	"io"
	"strings"
	"time"

	"imagehub/models"
	"imagehub/repositories"
	"imagehub/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The ImageService interface defines image upload, listing and
// ownership-guarded mutation.
type ImageService interface {
	SaveImage(file io.Reader, originalName string, input *CreateImageInput, ownerID uint) (*ImageResponse, error)
	GetAllImages(page, limit int, callerID uint, callerRole models.Role) (*PaginatedImagesResponse, error)
	GetImageByID(id uint, callerID uint, callerRole models.Role) (*ImageResponse, error)
	UpdateImage(id uint, input *UpdateImageInput, callerID uint, callerRole models.Role) (*ImageResponse, error)
	DeleteImage(id uint, callerID uint, callerRole models.Role) (*DeleteImageResult, error)
}

// --- Structs for Input/Output ---

type CreateImageInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type UpdateImageInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ImageResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	UserID      uint      `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaginatedImagesResponse struct {
	Data       []ImageResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	HasMore    bool            `json:"has_more"`
}

// DeleteImageResult summarizes a completed deletion.
type DeleteImageResult struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
	UserID   uint   `json:"user_id"`
	Message  string `json:"message"`
}

// The imageService structure is the implementation of the ImageService interface
type imageService struct {
	repo    repositories.ImageRepository
	store   *storage.DiskStore
	baseURL string
	logger  *zap.Logger
}

var _ ImageService = (*imageService)(nil)

// NewImageService creates a new ImageService instance. baseURL is the public
// prefix under which uploaded files are served.
func NewImageService(repo repositories.ImageRepository, store *storage.DiskStore, baseURL string, logger *zap.Logger) ImageService {
	return &imageService{
		repo:    repo,
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// SaveImage writes the payload to disk under a generated name and records the
// metadata row. The two steps are not transactional; a crash in between
// leaves an orphaned file.
func (s *imageService) SaveImage(file io.Reader, originalName string, input *CreateImageInput, ownerID uint) (*ImageResponse, error) {
	if file == nil || originalName == "" {
		return nil, NewValidation("File or filename is missing")
	}

	filename, err := s.store.Save(file, originalName)
	if err != nil {
		return nil, NewInternal("Failed to store uploaded file")
	}

	image := models.Image{
		Name:        input.Name,
		Description: input.Description,
		URL:         s.baseURL + "/uploads/" + filename,
		UserID:      ownerID,
	}

	if err := s.repo.Create(&image); err != nil {
		// Best effort: don't leave a file nothing references.
		if rmErr := s.store.Remove(filename); rmErr != nil {
			s.logger.Warn("failed to remove file after metadata error", zap.String("filename", filename), zap.Error(rmErr))
		}
		return nil, NewInternal("Failed to create image record")
	}

	resp := mapImageToResponse(&image)
	return &resp, nil
}

// GetAllImages returns a page of images. ADMIN and MODERATOR callers see
// everything; everyone else sees only their own.
func (s *imageService) GetAllImages(page, limit int, callerID uint, callerRole models.Role) (*PaginatedImagesResponse, error) {
	page, limit = normalizePage(page, limit)

	var ownerID *uint
	if !callerRole.CanSeeAllImages() {
		ownerID = &callerID
	}

	images, total, err := s.repo.FindAll(page, limit, ownerID)
	if err != nil {
		return nil, NewInternal("Database error retrieving images")
	}

	data := make([]ImageResponse, 0, len(images))
	for i := range images {
		data = append(data, mapImageToResponse(&images[i]))
	}

	return &PaginatedImagesResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
		HasMore:    int64(page*limit) < total,
	}, nil
}

// GetImageByID returns the image when the caller owns it or holds a
// read-bypass role.
func (s *imageService) GetImageByID(id uint, callerID uint, callerRole models.Role) (*ImageResponse, error) {
	image, err := s.findImage(id)
	if err != nil {
		return nil, err
	}

	if image.UserID != callerID && !callerRole.CanSeeAllImages() {
		return nil, NewUnauthorized("You are not authorized to access this image")
	}

	resp := mapImageToResponse(image)
	return &resp, nil
}

// UpdateImage applies a partial update to name and description. Only the
// owner may write; elevated roles get no bypass here.
func (s *imageService) UpdateImage(id uint, input *UpdateImageInput, callerID uint, callerRole models.Role) (*ImageResponse, error) {
	image, err := s.findImage(id)
	if err != nil {
		return nil, err
	}

	if image.UserID != callerID {
		return nil, NewUnauthorized("You are not authorized to modify this image")
	}

	if input.Name != nil {
		image.Name = *input.Name
	}
	if input.Description != nil {
		image.Description = *input.Description
	}

	if err := s.repo.Update(image); err != nil {
		return nil, NewInternal("Failed to save image updates")
	}

	resp := mapImageToResponse(image)
	return &resp, nil
}

// DeleteImage removes the backing file and then the metadata row. File
// removal is best effort: a missing or undeletable file is logged and the
// row is deleted regardless.
func (s *imageService) DeleteImage(id uint, callerID uint, callerRole models.Role) (*DeleteImageResult, error) {
	image, err := s.findImage(id)
	if err != nil {
		return nil, err
	}

	if image.UserID != callerID {
		return nil, NewUnauthorized("You are not authorized to delete this image")
	}

	filename := FilenameFromURL(image.URL)
	if filename != "" {
		if err := s.store.Remove(filename); err != nil {
			s.logger.Warn("file not found for deletion", zap.String("filename", filename), zap.Error(err))
		}
	}

	if err := s.repo.Delete(image); err != nil {
		return nil, NewInternal("Failed to delete image record")
	}

	return &DeleteImageResult{
		ID:       image.ID,
		Name:     image.Name,
		Filename: filename,
		UserID:   image.UserID,
		Message:  "Image deleted successfully",
	}, nil
}

func (s *imageService) findImage(id uint) (*models.Image, error) {
	image, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Image not found")
		}
		return nil, NewInternal("Database error retrieving image")
	}
	return image, nil
}

// FilenameFromURL extracts the on-disk filename: the final path segment of
// the stored URL.
func FilenameFromURL(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}

func mapImageToResponse(image *models.Image) ImageResponse {
	return ImageResponse{
		ID:          image.ID,
		Name:        image.Name,
		Description: image.Description,
		URL:         image.URL,
		UserID:      image.UserID,
		CreatedAt:   image.CreatedAt,
		UpdatedAt:   image.UpdatedAt,
	}
}
