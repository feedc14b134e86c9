package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	appinventory "github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// ProductUseCase casos de uso de catálogo. Stock y costo se manejan vía reposición y órdenes;
// aquí solo se fija el stock de alta.
type ProductUseCase struct {
	repo  repository.ProductRepository
	audit *appinventory.AuditTrail
}

// NewProductUseCase construye el caso de uso. audit puede ser nil (sin movimiento de alta).
func NewProductUseCase(repo repository.ProductRepository, audit *appinventory.AuditTrail) *ProductUseCase {
	return &ProductUseCase{repo: repo, audit: audit}
}

// Create crea un producto con su stock inicial y su política de decants.
func (uc *ProductUseCase) Create(ctx context.Context, actor string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" || strings.TrimSpace(in.Name) == "" || in.InitialStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: precio y costo no pueden ser negativos", domain.ErrInvalidInput)
	}
	policy, err := decantPolicy(in.Decant, in.ContainerVolume)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("buscar sku: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SKU:             sku,
		Name:            in.Name,
		Description:     in.Description,
		Unit:            in.Unit,
		Price:           in.Price,
		Cost:            in.Cost,
		SupplierID:      in.SupplierID,
		StockQuantity:   in.InitialStock,
		ContainerVolume: in.ContainerVolume,
		Decant:          policy,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	if uc.audit != nil && product.StockQuantity > 0 {
		uc.audit.Append(ctx, []*entity.InventoryMovement{{
			ID:         uuid.New().String(),
			ProductID:  product.ID,
			Type:       entity.MovementTypeRestock,
			Quantity:   product.StockQuantity,
			NewStock:   product.StockQuantity,
			UnitCost:   product.Cost,
			SupplierID: product.SupplierID,
			Reference:  "alta",
			CreatedBy:  actor,
			CreatedAt:  now,
		}})
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo. No toca Cost, Stock ni el volumen abierto.
// El volumen del envase no puede quedar por debajo de lo que queda en el envase abierto.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Unit != nil {
		product.Unit = *in.Unit
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
		}
		product.Price = *in.Price
	}
	if in.ContainerVolume != nil {
		if in.ContainerVolume.LessThan(product.Decant.OpenedVolumeLeft) {
			return nil, fmt.Errorf("%w: el volumen del envase no puede ser menor que el abierto (%s ml)",
				domain.ErrInvalidInput, product.Decant.OpenedVolumeLeft.String())
		}
		product.ContainerVolume = *in.ContainerVolume
	}
	if in.Decant != nil {
		policy, err := decantPolicy(in.Decant, product.ContainerVolume)
		if err != nil {
			return nil, err
		}
		policy.OpenedVolumeLeft = product.Decant.OpenedVolumeLeft
		product.Decant = policy
	} else if product.Decant.Enabled && !product.ContainerVolume.IsPositive() {
		return nil, fmt.Errorf("%w: un producto con decants necesita volumen de envase", domain.ErrInvalidInput)
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func decantPolicy(in *dto.DecantPolicyRequest, containerVolume decimal.Decimal) (entity.DecantPolicy, error) {
	if containerVolume.IsNegative() {
		return entity.DecantPolicy{}, fmt.Errorf("%w: volumen de envase negativo", domain.ErrInvalidInput)
	}
	if in == nil {
		return entity.DecantPolicy{}, nil
	}
	if !in.Enabled {
		return entity.DecantPolicy{Volume: in.Volume, Price: in.Price}, nil
	}
	switch {
	case !containerVolume.IsPositive():
		return entity.DecantPolicy{}, fmt.Errorf("%w: un producto con decants necesita volumen de envase", domain.ErrInvalidInput)
	case !in.Volume.IsPositive():
		return entity.DecantPolicy{}, fmt.Errorf("%w: el volumen del decant debe ser positivo", domain.ErrInvalidInput)
	case in.Volume.GreaterThan(containerVolume):
		return entity.DecantPolicy{}, fmt.Errorf("%w: el decant no puede superar el envase", domain.ErrInvalidInput)
	case in.Price.IsNegative():
		return entity.DecantPolicy{}, fmt.Errorf("%w: precio de decant negativo", domain.ErrInvalidInput)
	}
	return entity.DecantPolicy{Enabled: true, Volume: in.Volume, Price: in.Price}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Unit:            p.Unit,
		Price:           p.Price,
		Cost:            p.Cost,
		SupplierID:      p.SupplierID,
		StockQuantity:   p.StockQuantity,
		ContainerVolume: p.ContainerVolume,
		Decant: dto.DecantPolicyResponse{
			Enabled:          p.Decant.Enabled,
			Volume:           p.Decant.Volume,
			Price:            p.Decant.Price,
			OpenedVolumeLeft: p.Decant.OpenedVolumeLeft,
		},
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
