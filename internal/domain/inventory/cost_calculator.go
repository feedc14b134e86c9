package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost recalcula el costo promedio ponderado tras una reposición.
// nuevo = (stockActual*costoActual + cantEntrada*costoEntrada) / (stockActual + cantEntrada)
func WeightedAverageCost(currentStock int, currentCost decimal.Decimal, added int, addedCost decimal.Decimal) decimal.Decimal {
	stock := decimal.NewFromInt(int64(currentStock))
	in := decimal.NewFromInt(int64(added))
	sum := stock.Add(in)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return stock.Mul(currentCost).Add(in.Mul(addedCost)).Div(sum).Round(4)
}
