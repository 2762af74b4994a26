package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service serves the public product catalog.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters) (*ProductList, error)
	FeaturedProducts(ctx context.Context, limit int) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error)
	ListBrands(ctx context.Context) ([]BrandDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type service struct {
	repo *Repository
	cfg  config.CatalogConfig
}

func NewService(repo *Repository, cfg config.CatalogConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) (*ProductList, error) {
	page := filters.Pagination.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	rows, total, err := s.repo.ListProducts(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	if rows == nil {
		rows = []ProductDTO{}
	}
	return &ProductList{Products: rows, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *service) FeaturedProducts(ctx context.Context, limit int) ([]ProductDTO, error) {
	def := s.cfg.FeaturedPageSize
	if def <= 0 {
		def = 6
	}
	rows, err := s.repo.RandomProducts(ctx, pagination.NormalizeLimit(limit, def, s.cfg.MaxPageSize))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	if rows == nil {
		rows = []ProductDTO{}
	}
	return rows, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	sizes, err := s.repo.ListSizes(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product sizes")
	}
	if sizes == nil {
		sizes = []SizeDTO{}
	}
	return &ProductDetailDTO{ProductDTO: *product, Sizes: sizes}, nil
}

func (s *service) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	out := make([]BrandDTO, 0, len(rows))
	for _, b := range rows {
		out = append(out, BrandDTO{ID: b.ID, Name: b.Name, LogoURL: b.LogoURL})
	}
	return out, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return out, nil
}
