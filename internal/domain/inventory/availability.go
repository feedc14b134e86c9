package inventory

import (
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Availability es la vista de disponibilidad de un producto; se calcula sobre una instantánea.
type Availability struct {
	ProductID        string
	StockQuantity    int
	OpenedVolumeLeft decimal.Decimal
	AvailableVolume  decimal.Decimal
	DecantEnabled    bool
	DecantsAvailable int
}

// AvailabilityOf calcula la disponibilidad sin tocar el almacenamiento.
func AvailabilityOf(p *entity.Product) Availability {
	rec := RecordOf(p)
	a := Availability{
		ProductID:        p.ID,
		StockQuantity:    rec.StockQuantity,
		OpenedVolumeLeft: rec.OpenedVolumeLeft,
		AvailableVolume:  rec.AvailableVolume(),
		DecantEnabled:    p.Decant.Configured(),
	}
	if a.DecantEnabled {
		a.DecantsAvailable = int(a.AvailableVolume.Div(p.Decant.Volume).Floor().IntPart())
	}
	return a
}
