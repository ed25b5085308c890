package model

// Unit constants shared by every solving method so results stay comparable.
const (
	CostPerKm   = 1.0  // currency units per km
	CO2PerKm    = 0.4  // kg CO2 per km
	SpeedKph    = 80.0 // average delivery speed
	EarthRadius = 6371.0
)

// AssignmentRecord describes one customer served by one warehouse.
type AssignmentRecord struct {
	WarehouseID   string  `json:"warehouseId" yaml:"warehouseId"`
	CustomerID    string  `json:"customerId" yaml:"customerId"`
	DistanceKm    float64 `json:"distanceKm" yaml:"distanceKm"`
	Cost          float64 `json:"cost" yaml:"cost"`
	CO2           float64 `json:"co2" yaml:"co2"`
	DeliveryHours float64 `json:"deliveryTimeHours" yaml:"deliveryTimeHours"`
}

// NewAssignmentRecord derives cost, CO2 and delivery time from distance.
func NewAssignmentRecord(warehouseID, customerID string, km float64) AssignmentRecord {
	return AssignmentRecord{
		WarehouseID:   warehouseID,
		CustomerID:    customerID,
		DistanceKm:    km,
		Cost:          km * CostPerKm,
		CO2:           km * CO2PerKm,
		DeliveryHours: km / SpeedKph,
	}
}

// Aggregate is the summary handed back to the orchestrator's caller.
type Aggregate struct {
	TotalCost       float64 `json:"totalCost" yaml:"totalCost"`
	TotalCO2        float64 `json:"totalCo2" yaml:"totalCo2"`
	AvgDeliveryTime float64 `json:"avgDeliveryTime" yaml:"avgDeliveryTime"`
	RoutesUsed      int     `json:"routesUsed" yaml:"routesUsed"`
	WarehousesUsed  int     `json:"warehousesUsed" yaml:"warehousesUsed"`
}

// Summarize folds records into an Aggregate.
func Summarize(records []AssignmentRecord) Aggregate {
	var agg Aggregate
	if len(records) == 0 {
		return agg
	}
	used := make(map[string]struct{})
	hours := 0.0
	for _, r := range records {
		agg.TotalCost += r.Cost
		agg.TotalCO2 += r.CO2
		hours += r.DeliveryHours
		used[r.WarehouseID] = struct{}{}
	}
	agg.RoutesUsed = len(records)
	agg.WarehousesUsed = len(used)
	agg.AvgDeliveryTime = hours / float64(len(records))
	return agg
}
