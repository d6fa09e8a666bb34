package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/repository"
)

const bcryptCost = 10

const msgEmailTaken = "user with this email already exists."

// CreateUserInput is a self-registration request.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
}

// UserPatch lists the user fields to change. Nil fields are left untouched.
type UserPatch struct {
	Email    *string
	Password *string
	Name     *string
	IsActive *bool
	IsStaff  *bool
}

// UserService exposes domain operations.
type UserService interface {
	Register(ctx context.Context, in CreateUserInput) (*model.User, error)
	CreateSuperuser(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uint, patch UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// NormalizeEmail lower-cases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates an active, non-staff user with a hashed password.
func (s *userService) Register(ctx context.Context, in CreateUserInput) (*model.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser creates an active staff user.
func (s *userService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	return s.create(ctx, CreateUserInput{Email: email, Password: password}, true)
}

func (s *userService) create(ctx context.Context, in CreateUserInput, staff bool) (*model.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("email", "This field is required.")
	}

	// Check if user already exists
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         in.Name,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsStaff:      staff,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, self uint) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return apperrors.NewValidationError("email", msgEmailTaken)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check user existence: %w", err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// UpdateUser applies patch. A new password is hashed before it is stored.
func (s *userService) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Password != nil && *patch.Password != "" {
		hashed, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.IsStaff != nil {
		user.IsStaff = *patch.IsStaff
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
