package service

import (
	"context"
	"fmt"
	"io"

	"tienda-api/internal/domain"
	"tienda-api/internal/realtime"
	"tienda-api/internal/repository"
	"tienda-api/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore is the slice of the storage layer the services need.
type BlobStore interface {
	Save(bucket storage.Bucket, name string, r io.Reader) (string, error)
	Open(bucket storage.Bucket, name string) (io.ReadCloser, error)
	PublicURL(name string) string
}

// Upload is a file received with a form submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries the admin form fields for create and update.
// A nil Image preserves the existing image reference on update.
type ProductInput struct {
	Name        string
	Description *string
	Price       float64
	CategoryID  *uuid.UUID
	Stock       *int
	Image       *Upload
}

// CategoryInput carries the admin form fields for category create/update.
type CategoryInput struct {
	Name         string
	Description  *string
	DisplayOrder *int
}

// AdminCatalogService is the back-office side of the catalog: full product
// and category CRUD plus the availability toggle. Every product mutation
// publishes a change event; subscribers respond by re-fetching, so there is
// no optimistic local state anywhere.
type AdminCatalogService interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ToggleAvailability(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type adminCatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	store        BlobStore
	publisher    realtime.Publisher
	logger       *zap.Logger
}

// NewAdminCatalogService creates a new instance of AdminCatalogService
func NewAdminCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	store BlobStore,
	publisher realtime.Publisher,
	logger *zap.Logger,
) AdminCatalogService {
	return &adminCatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		store:        store,
		publisher:    publisher,
		logger:       logger,
	}
}

// ListProducts returns all products, newest first
func (s *adminCatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

// CreateProduct uploads the image first when one is provided, then inserts
// the row. An upload failure aborts the insert.
func (s *adminCatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	imageURL, err := s.uploadImage(input.Image)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Stock:       input.Stock,
		ImageURL:    imageURL,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.OpInsert, product.ID)
	return product, nil
}

// UpdateProduct applies the form fields to an existing product. A new image
// replaces the stored reference; otherwise the existing one is preserved.
func (s *adminCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Image != nil {
		imageURL, err := s.uploadImage(input.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL = imageURL
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.Stock = input.Stock

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.OpUpdate, product.ID)
	return product, nil
}

// DeleteProduct removes a product
func (s *adminCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, realtime.OpDelete, id)
	return nil
}

// ToggleAvailability flips the binary reading of stock: 0/NULL becomes 1,
// anything positive becomes 0. The collapse is lossy: a product with stock 5
// toggles to 0 and back to 1, never back to 5.
func (s *adminCatalogService) ToggleAvailability(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStock := 0
	if product.Stock == nil || *product.Stock == 0 {
		newStock = 1
	}

	if err := s.productRepo.UpdateStock(ctx, id, newStock); err != nil {
		return nil, err
	}

	product.Stock = &newStock
	s.publish(ctx, realtime.OpUpdate, id)
	return product, nil
}

// ListCategories returns all categories in display order
func (s *adminCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// CreateCategory inserts a new category
func (s *adminCatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	category := &domain.Category{
		Name:         input.Name,
		Description:  input.Description,
		DisplayOrder: input.DisplayOrder,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory applies the form fields to an existing category
func (s *adminCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Description = input.Description
	category.DisplayOrder = input.DisplayOrder

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory removes a category; referencing products keep a NULL
// category via the foreign key.
func (s *adminCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

// uploadImage stores a product image under a random name in the public
// bucket and returns its public URL.
func (s *adminCatalogService) uploadImage(image *Upload) (*string, error) {
	if image == nil {
		return nil, nil
	}

	name := uuid.New().String()
	if ext := storage.Ext(image.Filename); ext != "" {
		name = name + "." + ext
	}

	stored, err := s.store.Save(storage.BucketProductImages, name, image.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	url := s.store.PublicURL(stored)
	return &url, nil
}

// publish is best-effort: the write already happened, so a broker failure
// only delays subscribers until their next full fetch.
func (s *adminCatalogService) publish(ctx context.Context, op realtime.Op, id uuid.UUID) {
	if err := s.publisher.PublishProductChange(ctx, op, id); err != nil {
		s.logger.Warn("Failed to publish product change",
			zap.String("op", string(op)),
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
}
