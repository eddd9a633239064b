package repository

import (
	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// UserRepository is the user persistence interface
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindAdmins() ([]model.User, error)
	Update(user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAdmins returns every user holding the administrative role.
func (r *userRepository) FindAdmins() ([]model.User, error) {
	var admins []model.User
	err := r.db.Where("role = ?", model.RoleAdmin).Find(&admins).Error
	return admins, err
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}
