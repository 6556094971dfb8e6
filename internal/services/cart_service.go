package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 99

// CartItem is one line of a client-held cart.
type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// Quote is a cart priced from the catalog.
type Quote struct {
	Items []models.OrderItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// CartService prices carts. Prices always come from the catalog, never from the client.
type CartService struct {
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(products repositories.ProductRepository) *CartService {
	return &CartService{products: products}
}

// Quote prices every line and sums the total.
func (s *CartService) Quote(items []CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, errorbank.BadRequest("cart is empty")
	}

	quote := &Quote{Items: make([]models.OrderItem, 0, len(items)), Total: decimal.Zero}
	for i, item := range items {
		line, err := s.priceLine(i, item)
		if err != nil {
			return nil, err
		}
		quote.Items = append(quote.Items, line)
		quote.Total = quote.Total.Add(line.Subtotal)
	}
	return quote, nil
}

func (s *CartService) priceLine(index int, item CartItem) (models.OrderItem, error) {
	detail := errorbank.WithDetails(map[string]any{"line": index, "product_id": item.ProductID})

	if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
		return models.OrderItem{}, errorbank.BadRequest(
			fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity), detail)
	}

	product, err := s.products.GetByID(item.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.OrderItem{}, errorbank.Unprocessable("product not found", detail, errorbank.WithCause(err))
		}
		return models.OrderItem{}, errorbank.Internal("failed to price cart", errorbank.WithCause(err))
	}
	if !product.Active {
		return models.OrderItem{}, errorbank.Unprocessable(fmt.Sprintf("%s is no longer available", product.Name), detail)
	}
	if !product.HasColor(item.Color) {
		return models.OrderItem{}, errorbank.Unprocessable(fmt.Sprintf("color %q is not offered for %s", item.Color, product.Name), detail)
	}
	if !product.HasSize(item.Size) {
		return models.OrderItem{}, errorbank.Unprocessable(fmt.Sprintf("size %q is not offered for %s", item.Size, product.Name), detail)
	}

	return models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		UnitPrice: product.Price,
		Quantity:  item.Quantity,
		Color:     item.Color,
		Size:      item.Size,
		Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}, nil
}
