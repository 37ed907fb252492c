package models

// StockAdvisoryKind enumerates the advisory signals stock evaluation can emit.
type StockAdvisoryKind string

const (
	// StockError signals that more units were sold than stocked. The
	// negative remaining stock is still written through unclamped.
	StockError StockAdvisoryKind = "stock_error"
	// LowStockWarning signals remaining stock at or under the threshold.
	LowStockWarning StockAdvisoryKind = "low_stock_warning"
)

// StockAdvisory is a non-blocking signal about a product's stock position.
// It never gates the field update; callers turn it into a user-visible
// message.
type StockAdvisory struct {
	Kind           StockAdvisoryKind `json:"kind"`
	ProductName    string            `json:"productName"`
	InitialStock   float64           `json:"initialStock"`
	QuantitySold   float64           `json:"quantitySold"`
	RemainingStock float64           `json:"remainingStock"`
}
