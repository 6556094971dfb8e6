package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aralis/internal/models"
	"aralis/internal/services"
	"aralis/pkg/errorbank"
)

// CatalogCreator is satisfied by *services.ProductService.
type CatalogCreator interface {
	CreateProduct(ctx context.Context, in services.ProductInput) (*models.Product, error)
}

// Products is the starter catalog used for demos and local development.
func Products() []services.ProductInput {
	return []services.ProductInput{
		{
			SKU: "VES-LINO-01", Name: "Vestido de Lino", Category: "vestidos",
			Description: "Vestido midi de lino lavado, confeccionado a medida.",
			Price:       decimal.RequireFromString("59.90"),
			Colors:      []string{"arena", "oliva", "negro"},
			Sizes:       []string{"XS", "S", "M", "L", "XL"},
		},
		{
			SKU: "CHA-MEZ-01", Name: "Chaqueta de Mezclilla Bordada", Category: "chaquetas",
			Description: "Chaqueta de mezclilla con bordado floral hecho a mano.",
			Price:       decimal.RequireFromString("89.00"),
			Colors:      []string{"azul", "celeste"},
			Sizes:       []string{"S", "M", "L"},
		},
		{
			SKU: "BLU-SED-01", Name: "Blusa de Seda", Category: "blusas",
			Description: "Blusa de seda natural con cuello lazo.",
			Price:       decimal.RequireFromString("45.50"),
			Colors:      []string{"crudo", "rosa"},
			Sizes:       []string{"S", "M", "L"},
		},
		{
			SKU: "PAN-ALG-01", Name: "Pañuelo de Algodón", Category: "accesorios",
			Description: "Pañuelo estampado de algodón orgánico, talla única.",
			Price:       decimal.RequireFromString("12.00"),
		},
	}
}

// Catalog creates the starter products, skipping any that already exist.
// It returns how many products were created.
func Catalog(ctx context.Context, creator CatalogCreator, logger *zap.Logger) (int, error) {
	created := 0
	for _, in := range Products() {
		product, err := creator.CreateProduct(ctx, in)
		if err != nil {
			if errorbank.Is(err, errorbank.KindConflict) {
				logger.Info("product already seeded", zap.String("sku", in.SKU))
				continue
			}
			return created, fmt.Errorf("failed to seed %s: %w", in.SKU, err)
		}
		created++
		logger.Info("seeded product", zap.String("sku", product.SKU), zap.String("id", product.ID))
	}
	return created, nil
}
