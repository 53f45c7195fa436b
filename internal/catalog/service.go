package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetProductByName(ctx context.Context, name string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	InsertProduct(ctx context.Context, p Product) (int64, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	InsertCategory(ctx context.Context, c Category) (int64, error)
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the product registry.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ProductInput describes a product create/update payload.
type ProductInput struct {
	Name       string
	CategoryID int64
	BuyPrice   float64
	SellPrice  float64
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name required", ErrValidation)
	}
	if in.BuyPrice < 0 || in.SellPrice < 0 {
		return fmt.Errorf("%w: prices must be >= 0", ErrValidation)
	}
	return nil
}

// GetProduct fetches a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetProductByName fetches a product by exact name.
func (s *Service) GetProductByName(ctx context.Context, name string) (Product, error) {
	return s.repo.GetProductByName(ctx, strings.TrimSpace(name))
}

// ListProducts returns the registry ordered by name.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// CreateProduct registers a new product. Stock keepers only.
func (s *Service) CreateProduct(ctx context.Context, actor *shared.Actor, input ProductInput) (Product, error) {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return Product{}, err
	}
	if err := input.validate(); err != nil {
		return Product{}, err
	}
	if input.CategoryID != 0 {
		if _, err := s.repo.GetCategory(ctx, input.CategoryID); err != nil {
			return Product{}, err
		}
	}
	product := Product{
		Name:       strings.TrimSpace(input.Name),
		CategoryID: input.CategoryID,
		BuyPrice:   input.BuyPrice,
		SellPrice:  input.SellPrice,
	}
	id, err := s.repo.InsertProduct(ctx, product)
	if err != nil {
		return Product{}, err
	}
	product.ID = id
	s.recordAudit(ctx, actor, "catalog:product_create", id, map[string]any{"name": product.Name})
	return product, nil
}

// UpdateProduct revises product fields; identity stays fixed.
func (s *Service) UpdateProduct(ctx context.Context, actor *shared.Actor, id int64, input ProductInput) (Product, error) {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return Product{}, err
	}
	if err := input.validate(); err != nil {
		return Product{}, err
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product.Name = strings.TrimSpace(input.Name)
	product.CategoryID = input.CategoryID
	product.BuyPrice = input.BuyPrice
	product.SellPrice = input.SellPrice
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, actor, "catalog:product_update", id, map[string]any{"name": product.Name})
	return product, nil
}

// DeleteProduct removes a product from the registry.
func (s *Service) DeleteProduct(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "catalog:product_delete", id, nil)
	return nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory registers a category. Stock keepers only.
func (s *Service) CreateCategory(ctx context.Context, actor *shared.Actor, name string) (Category, error) {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category name required", ErrValidation)
	}
	id, err := s.repo.InsertCategory(ctx, Category{Name: name})
	if err != nil {
		return Category{}, err
	}
	s.recordAudit(ctx, actor, "catalog:category_create", id, map[string]any{"name": name})
	return Category{ID: id, Name: name}, nil
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, actor *shared.Actor, id int64, name string) error {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name required", ErrValidation)
	}
	if err := s.repo.UpdateCategory(ctx, Category{ID: id, Name: name}); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "catalog:category_update", id, map[string]any{"name": name})
	return nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.CatalogManageRoles...); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "catalog:category_delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "catalog",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
