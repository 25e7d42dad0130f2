package dto

// DeliveryStats are the headline delivery numbers for today.
type DeliveryStats struct {
	DueToday          int64 `json:"due_today"`
	DueTomorrow       int64 `json:"due_tomorrow"`
	DeliveredToday    int64 `json:"delivered_today"`
	NotAvailableToday int64 `json:"not_available_today"`
	NewOrders         int64 `json:"new_orders"`
}

// ProductDelivery pairs a product with its delivered quantity for the
// requested month. Slice order follows the underlying query order.
type ProductDelivery struct {
	Product  ProductResponse `json:"product"`
	Quantity int64           `json:"quantity"`
}

// DashboardData aggregates everything the dashboard renders. Time buckets
// with no deliveries are null, not zero; sales rows run from the requested
// year backwards over three years.
type DashboardData struct {
	DeliveryStats       DeliveryStats     `json:"delivery_stats"`
	DeliveriesThisMonth []*int64          `json:"deliveries_this_month"`
	DeliveriesThisYear  []*int64          `json:"deliveries_this_year"`
	SalesPerMonth       [][]*int64        `json:"sales_per_month"`
	ProductDeliveries   []ProductDelivery `json:"product_deliveries"`
}
