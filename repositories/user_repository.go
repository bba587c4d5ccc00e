package repositories

import (
	"imagehub/models"

	"gorm.io/gorm"
)

// UserFilter narrows FindAll results. Both fields are substring matches and
// are ANDed when both are set.
type UserFilter struct {
	Email string
	Name  string
}

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(user *models.User) error
	FindAll(page int, limit int, filter UserFilter) ([]models.User, int64, error)
	CountImages(userIDs []uint) (map[uint]int64, error)
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new User
func (r *userRepository) Create(user *models.User) error {
	result := r.db.Create(user)
	return result.Error
}

// FindByID finds User by ID
func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail finds User by Email
func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// Update updates User information
func (r *userRepository) Update(user *models.User) error {
	result := r.db.Save(user)
	return result.Error
}

// Delete deletes User
func (r *userRepository) Delete(user *models.User) error {
	result := r.db.Delete(user)
	return result.Error
}

// FindAll returns one page of Users, newest first, with the total matching count.
func (r *userRepository) FindAll(page int, limit int, filter UserFilter) ([]models.User, int64, error) {
	offset := (page - 1) * limit
	var users []models.User
	var total int64

	query := r.db.Model(&models.User{})
	if filter.Email != "" {
		query = query.Where("email LIKE ?", "%"+filter.Email+"%")
	}
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return users, total, nil
}

// CountImages returns the number of images owned by each of the given users.
// Users without images are absent from the map.
func (r *userRepository) CountImages(userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint
		Count  int64
	}
	err := r.db.Model(&models.Image{}).
		Select("user_id, count(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}
