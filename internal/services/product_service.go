package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aralis/internal/cache"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

const catalogVersionKey = "catalog:version"

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	SKU         string          `json:"sku" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=100"`
	Slug        string          `json:"slug" validate:"omitempty,max=120"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"required,max=50"`
	Price       decimal.Decimal `json:"price"`
	Colors      []string        `json:"colors" validate:"dive,required"`
	Sizes       []string        `json:"sizes" validate:"dive,required"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Active      *bool           `json:"active"`
}

// ProductService handles the catalog. Public reads go through the cache; every
// admin write bumps the catalog version so older cache entries are never read again.
type ProductService struct {
	repo   repositories.ProductRepository
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, store cache.Store, ttl time.Duration, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// ListActive returns the products shown in the storefront, newest first.
func (s *ProductService) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	key := s.key(ctx, "list", category)

	var products []models.Product
	if s.fromCache(ctx, key, &products) {
		return products, nil
	}

	products, err := s.repo.GetActive(category)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	if products == nil {
		products = []models.Product{}
	}
	s.toCache(ctx, key, products)
	return products, nil
}

// GetActive returns a storefront product by ID or slug.
func (s *ProductService) GetActive(ctx context.Context, idOrSlug string) (*models.Product, error) {
	key := s.key(ctx, "item", idOrSlug)

	var product models.Product
	if s.fromCache(ctx, key, &product) {
		return &product, nil
	}

	found, err := s.lookup(idOrSlug)
	if err != nil {
		return nil, err
	}
	if !found.Active {
		return nil, errorbank.NotFound("product not found")
	}
	s.toCache(ctx, key, found)
	return found, nil
}

// ListAll returns every product including inactive ones, for the admin panel.
func (s *ProductService) ListAll() ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, storeError(err, "", "")
	}
	return products, nil
}

func (s *ProductService) lookup(idOrSlug string) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.repo.GetByID(idOrSlug)
	} else {
		product, err = s.repo.GetBySlug(idOrSlug)
	}
	if err != nil {
		return nil, storeError(err, "product not found", "")
	}
	return product, nil
}

// CreateProduct adds a product to the catalog. The slug defaults to one derived from the name.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{ID: uuid.New().String(), Active: true}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(product); err != nil {
		return nil, storeError(err, "", "a product with this SKU or slug already exists")
	}
	s.invalidate(ctx)
	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("sku", product.SKU))
	return product, nil
}

// UpdateProduct replaces the product with ID id.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, storeError(err, "product not found", "")
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(product); err != nil {
		return nil, storeError(err, "product not found", "a product with this SKU or slug already exists")
	}
	s.invalidate(ctx)
	return product, nil
}

// DeleteProduct removes a product. Orders keep their own snapshot of it.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return storeError(err, "product not found", "")
	}
	s.invalidate(ctx)
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func applyProductInput(product *models.Product, in ProductInput) error {
	if !in.Price.IsPositive() {
		return errorbank.BadRequest("price must be greater than zero", errorbank.WithDetail("field", "price"))
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return errorbank.BadRequest("a slug could not be derived from the name", errorbank.WithDetail("field", "slug"))
	}

	product.SKU = strings.TrimSpace(in.SKU)
	product.Name = strings.TrimSpace(in.Name)
	product.Slug = slug
	product.Description = in.Description
	product.Category = strings.ToLower(strings.TrimSpace(in.Category))
	product.Price = in.Price.Round(2)
	product.Colors = in.Colors
	product.Sizes = in.Sizes
	product.ImageURL = in.ImageURL
	if in.Active != nil {
		product.Active = *in.Active
	}
	return nil
}

var slugReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u", "ç", "c",
)

// Slugify lower-cases s, folds common accents and joins words with dashes.
func Slugify(s string) string {
	s = slugReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *ProductService) key(ctx context.Context, kind, id string) string {
	version := "0"
	if raw, err := s.cache.Get(ctx, catalogVersionKey); err == nil {
		version = string(raw)
	}
	return fmt.Sprintf("catalog:v%s:%s:%s", version, kind, id)
}

func (s *ProductService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("discarding corrupt catalog cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *ProductService) toCache(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate moves readers to a new catalog version; stale entries age out through their TTL.
func (s *ProductService) invalidate(ctx context.Context) {
	version := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := s.cache.Set(ctx, catalogVersionKey, []byte(version), 0); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
