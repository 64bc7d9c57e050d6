package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
	"github.com/minimal/storefront/internal/pkg/validate"
)

var _ ports.CatalogService = (*CatalogService)(nil)

// CatalogService persists catalog changes. Admin checks happen in the HTTP
// middleware before any mutating method is reached.
type CatalogService struct {
	repo      ports.ProductRepository
	validator *validate.Validator
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCatalogService(repo ports.ProductRepository, validator *validate.Validator, logger zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, validator: validator, now: time.Now, logger: logger}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *CatalogService) Add(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := s.validator.Struct(p); err != nil {
		return nil, err
	}
	p.ID = ""
	p.Reviews = nil
	created, err := s.repo.Create(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	metrics.ProductsMutatedTotal.WithLabelValues("add").Inc()
	s.logger.Info().Str("product_id", created.ID).Msg("product created")
	return created, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	if err := s.validator.Struct(p); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, &p)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	metrics.ProductsMutatedTotal.WithLabelValues("update").Inc()
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	metrics.ProductsMutatedTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *CatalogService) AddReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error) {
	r.Body = strings.TrimSpace(r.Body)
	if r.Date == "" {
		r.Date = s.now().Format(time.DateOnly)
	}
	if err := s.validator.Struct(r); err != nil {
		return nil, err
	}
	p, err := s.repo.AppendReview(ctx, id, r)
	if err != nil {
		return nil, fmt.Errorf("add review to %s: %w", id, err)
	}
	metrics.ProductsMutatedTotal.WithLabelValues("review").Inc()
	return p, nil
}
