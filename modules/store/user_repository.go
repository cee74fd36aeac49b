package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository provides read access to users. The messaging core never
// creates or deletes users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user and resolves the profile variant. The variant is
// decided here, once per load; callers switch on user.Profile.Kind.
func (r *UserRepository) FindByID(id string) (*User, error) {
	var user User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var employee EmployeeProfile
	if err := r.db.First(&employee, "user_id = ?", id).Error; err == nil {
		user.Profile = Profile{Kind: ProfileEmployee, Image: employee.Image}
		return &user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load employee profile: %w", err)
	}

	var company CompanyProfile
	if err := r.db.First(&company, "user_id = ?", id).Error; err == nil {
		user.Profile = Profile{Kind: ProfileCompany, Image: company.Logo}
		return &user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load company profile: %w", err)
	}

	user.Profile = Profile{Kind: ProfileNone}
	return &user, nil
}

// Create inserts a user row. Used by tests and seed tooling; the account
// subsystem owns user creation in production.
func (r *UserRepository) Create(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SetEmployeeProfile attaches an employee profile to a user.
func (r *UserRepository) SetEmployeeProfile(profile *EmployeeProfile) error {
	if err := r.db.Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save employee profile: %w", err)
	}
	return nil
}

// SetCompanyProfile attaches a company profile to a user.
func (r *UserRepository) SetCompanyProfile(profile *CompanyProfile) error {
	if err := r.db.Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save company profile: %w", err)
	}
	return nil
}
