package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/aethra/nexus/internal/errors"
	"github.com/aethra/nexus/internal/models"
)

// ListAdministrators returns accounts whose role is admin or super_admin,
// ordered by email, with memberships (and their unit names) preloaded.
// When no admin roles exist the result is an empty slice, not an error.
func (s *Service) ListAdministrators(ctx context.Context) ([]models.User, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Where("name IN ?", []string{models.RoleAdmin, models.RoleSuperAdmin}).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("find admin roles: %w", err)
	}
	if len(roles) == 0 {
		return []models.User{}, nil
	}

	roleIDs := make([]uuid.UUID, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}

	var admins []models.User
	err = s.db.WithContext(ctx).
		Preload("Role").
		Preload("Memberships").
		Preload("Memberships.Unit").
		Where("role_id IN ?", roleIDs).
		Order("email").
		Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	return admins, nil
}

// GetAdministrator returns one admin account with role and memberships.
func (s *Service) GetAdministrator(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var admin models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Memberships").
		Preload("Memberships.Unit").
		First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("administrator")
	}
	if err != nil {
		return nil, fmt.Errorf("get administrator: %w", err)
	}
	return &admin, nil
}

// CreateAdministrator creates an admin or super_admin account with the
// given unit memberships.
func (s *Service) CreateAdministrator(ctx context.Context, email, password, roleName string, unitIDs []uuid.UUID) (*models.User, error) {
	if email == "" {
		return nil, apperrors.NewValidationError("email", "email is required")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password", "password must be at least 8 characters")
	}
	role, err := ParseRole(roleName)
	if err != nil || role == RoleUser {
		return nil, apperrors.NewValidationError("role", "role must be admin or super_admin")
	}

	var roleRow models.Role
	err = s.db.WithContext(ctx).Where("name = ?", roleName).First(&roleRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("role")
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := models.User{
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       roleRow.ID,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Create(&admin).Error
	if apperrors.IsDuplicateKey(err) {
		return nil, apperrors.NewConflictError("administrator")
	}
	if err != nil {
		return nil, fmt.Errorf("create administrator: %w", err)
	}

	for _, unitID := range unitIDs {
		membership := models.UserUnit{UserID: admin.ID, UnitID: unitID}
		if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil && !apperrors.IsDuplicateKey(err) {
			return nil, fmt.Errorf("create membership: %w", err)
		}
	}

	return s.GetAdministrator(ctx, admin.ID)
}

// SetAdministratorUnits replaces an admin's memberships with unitIDs.
func (s *Service) SetAdministratorUnits(ctx context.Context, adminID uuid.UUID, unitIDs []uuid.UUID) error {
	if _, err := s.GetAdministrator(ctx, adminID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", adminID).
		Delete(&models.UserUnit{}).Error
	if err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}

	for _, unitID := range unitIDs {
		membership := models.UserUnit{UserID: adminID, UnitID: unitID}
		if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil && !apperrors.IsDuplicateKey(err) {
			return fmt.Errorf("create membership: %w", err)
		}
	}
	return nil
}

// GetUserByEmail loads an account with its role for authentication.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// GetUser loads an account with its role.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
