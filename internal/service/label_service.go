package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/repository"
)

// LabelService exposes owner-scoped CRUD for tags and ingredients.
type LabelService[T repository.Label] interface {
	List(ctx context.Context, caller policy.Caller) ([]T, error)
	Get(ctx context.Context, caller policy.Caller, id uint) (*T, error)
	Create(ctx context.Context, caller policy.Caller, name string) (*T, error)
	Rename(ctx context.Context, caller policy.Caller, id uint, name string) (*T, error)
	Delete(ctx context.Context, caller policy.Caller, id uint) error
}

type labelService[T repository.Label] struct {
	repo     repository.LabelRepository[T]
	resource policy.Resource
	build    func(owner uint, name string) T
	rename   func(*T, string)
}

// NewTagService creates the tag service.
func NewTagService(repo repository.LabelRepository[model.Tag]) LabelService[model.Tag] {
	return &labelService[model.Tag]{
		repo:     repo,
		resource: policy.Tags,
		build:    func(owner uint, name string) model.Tag { return model.Tag{UserID: owner, Name: name} },
		rename:   func(t *model.Tag, name string) { t.Name = name },
	}
}

// NewIngredientService creates the ingredient service.
func NewIngredientService(repo repository.LabelRepository[model.Ingredient]) LabelService[model.Ingredient] {
	return &labelService[model.Ingredient]{
		repo:     repo,
		resource: policy.Ingredients,
		build:    func(owner uint, name string) model.Ingredient { return model.Ingredient{UserID: owner, Name: name} },
		rename:   func(i *model.Ingredient, name string) { i.Name = name },
	}
}

func (s *labelService[T]) scope(caller policy.Caller) policy.Filter {
	return policy.ResolveScope(caller, s.resource)
}

func (s *labelService[T]) List(ctx context.Context, caller policy.Caller) ([]T, error) {
	return s.repo.List(ctx, s.scope(caller))
}

func (s *labelService[T]) Get(ctx context.Context, caller policy.Caller, id uint) (*T, error) {
	return s.repo.FindByID(ctx, s.scope(caller), id)
}

func (s *labelService[T]) Create(ctx context.Context, caller policy.Caller, name string) (*T, error) {
	if err := validateLabelName(name); err != nil {
		return nil, err
	}
	obj := s.build(caller.UserID, name)
	if err := s.repo.Create(ctx, &obj); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.resource, err)
	}
	return &obj, nil
}

func (s *labelService[T]) Rename(ctx context.Context, caller policy.Caller, id uint, name string) (*T, error) {
	obj, err := s.repo.FindByID(ctx, s.scope(caller), id)
	if err != nil {
		return nil, err
	}
	if err := validateLabelName(name); err != nil {
		return nil, err
	}
	s.rename(obj, name)
	if err := s.repo.Update(ctx, obj); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.resource, err)
	}
	return obj, nil
}

func (s *labelService[T]) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	return s.repo.Delete(ctx, s.scope(caller), id)
}

func validateLabelName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("name", "This field may not be blank.")
	}
	if len(name) > 255 {
		return apperrors.NewValidationError("name", "Ensure this field has no more than 255 characters.")
	}
	return nil
}
