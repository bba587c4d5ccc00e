package repositories

import (
	"imagehub/models"

	"gorm.io/gorm"
)

// ImageRepository interface defines Image-related database operations
type ImageRepository interface {
	Create(image *models.Image) error
	FindByID(id uint) (*models.Image, error)
	Update(image *models.Image) error
	Delete(image *models.Image) error
	FindAll(page int, limit int, ownerID *uint) ([]models.Image, int64, error)
}

// imageRepository implements the ImageRepository interface
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepository instance
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new Image
func (r *imageRepository) Create(image *models.Image) error {
	result := r.db.Create(image)
	return result.Error
}

// FindByID finds Image by ID
func (r *imageRepository) FindByID(id uint) (*models.Image, error) {
	var image models.Image
	result := r.db.First(&image, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &image, nil
}

// Update updates Image information
func (r *imageRepository) Update(image *models.Image) error {
	result := r.db.Save(image)
	return result.Error
}

// Delete deletes Image
func (r *imageRepository) Delete(image *models.Image) error {
	result := r.db.Delete(image)
	return result.Error
}

// FindAll returns one page of Images, newest first, with the total matching
// count. A non-nil ownerID restricts results to that user's images.
func (r *imageRepository) FindAll(page int, limit int, ownerID *uint) ([]models.Image, int64, error) {
	offset := (page - 1) * limit
	var images []models.Image
	var total int64

	query := r.db.Model(&models.Image{})
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&images)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return images, total, nil
}
