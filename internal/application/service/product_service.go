package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"github.com/sangkips/kassa-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// Austrian VAT rates a product may carry.
var allowedTaxRates = []decimal.Decimal{
	decimal.NewFromInt(20),
	decimal.NewFromInt(13),
	decimal.NewFromInt(10),
	decimal.Zero,
}

func validTaxRate(rate decimal.Decimal) bool {
	for _, r := range allowedTaxRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// ProductService handles product-related operations
type ProductService struct {
	productRepo repository.ProductRepository
	numbers     *utils.NumberGenerator
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository, numbers *utils.NumberGenerator) *ProductService {
	return &ProductService{productRepo: productRepo, numbers: numbers}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name     string
	Code     string
	Category string
	Price    decimal.Decimal
	TaxRate  decimal.Decimal
	TaxType  enum.TaxType
	Notes    *string
}

func (in *CreateProductInput) validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if in.Price.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price cannot be negative"})
	}
	if !validTaxRate(in.TaxRate) {
		errs = append(errs, apperror.FieldError{Field: "tax_rate", Message: "Tax rate must be 0, 10, 13 or 20"})
	}
	if !in.TaxType.IsValid() {
		errs = append(errs, apperror.FieldError{Field: "tax_type", Message: "Invalid tax type"})
	}
	return errs
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	if errs := input.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs...)
	}

	// Auto-generate code if not provided
	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = s.numbers.ProductCode()
	}

	existing, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Product code already exists")
	}

	product := &entity.Product{
		Name:     strings.TrimSpace(input.Name),
		Code:     code,
		Category: strings.TrimSpace(input.Category),
		Price:    input.Price,
		TaxRate:  input.TaxRate,
		TaxType:  input.TaxType,
		Notes:    input.Notes,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts retrieves products with pagination
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	p := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, p), nil
}

// ImportProductRow represents a single row from the import file
type ImportProductRow struct {
	Line     int
	Name     string
	Code     string
	Category string
	Price    string
	TaxRate  string
	Notes    string
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError describes an error for a specific row during import
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportProducts validates and creates products from parsed spreadsheet rows.
// Invalid rows are reported and skipped; valid rows are created one by one.
func (s *ProductService) ImportProducts(ctx context.Context, rows []ImportProductRow) (*ImportResult, error) {
	result := &ImportResult{TotalRows: len(rows)}

	// Track codes seen in this import batch to detect duplicates within the file
	seenCodes := make(map[string]int)

	for _, row := range rows {
		fail := func(field, msg string) {
			result.Errors = append(result.Errors, ImportRowError{Row: row.Line, Field: field, Message: msg})
		}

		price, err := decimal.NewFromString(strings.Replace(row.Price, ",", ".", 1))
		if err != nil {
			fail("price", "Price is not a number")
			continue
		}
		rate := decimal.NewFromInt(20)
		if row.TaxRate != "" {
			if rate, err = decimal.NewFromString(strings.TrimSuffix(row.TaxRate, "%")); err != nil {
				fail("tax_rate", "Tax rate is not a number")
				continue
			}
		}

		code := strings.TrimSpace(row.Code)
		if code != "" {
			if prev, exists := seenCodes[code]; exists {
				fail("code", fmt.Sprintf("Duplicate code '%s' (same as row %d)", code, prev))
				continue
			}
			seenCodes[code] = row.Line
		}

		input := &CreateProductInput{
			Name:     row.Name,
			Code:     code,
			Category: row.Category,
			Price:    price,
			TaxRate:  rate,
			TaxType:  enum.TaxTypeInclusive,
		}
		if row.Notes != "" {
			notes := row.Notes
			input.Notes = &notes
		}

		if _, err := s.CreateProduct(ctx, input); err != nil {
			appErr := apperror.GetAppError(err)
			if appErr.Kind == apperror.KindInternal {
				return nil, err
			}
			field := ""
			if len(appErr.Errors) > 0 {
				field = appErr.Errors[0].Field
			}
			fail(field, appErr.Message)
			continue
		}
		result.Successful++
	}

	result.Failed = len(result.Errors)
	return result, nil
}
