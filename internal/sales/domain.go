package sales

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction represents one product sale loaded from the catalog.
// Price and Sold are pointers because catalog entries may omit them and the
// aggregates treat a missing value differently from a zero value.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Price       *float64           `bson:"price,omitempty" json:"price"`
	Category    string             `bson:"category" json:"category"`
	DateOfSale  time.Time          `bson:"dateOfSale" json:"dateOfSale"`
	Sold        *bool              `bson:"sold,omitempty" json:"sold"`
}

// Statistics holds the monthly sale totals.
type Statistics struct {
	TotalSoldItems    int64   `json:"totalSoldItems"`
	TotalNotSoldItems int64   `json:"totalNotSoldItems"`
	TotalSaleAmount   float64 `json:"totalSaleAmount"`
}

// PriceBucket is one bar of the price histogram. Max is nil for the overflow bucket.
type PriceBucket struct {
	Range string   `json:"range"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Count int64    `json:"count"`
}

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ListFilter is what a storage backend needs to answer a listing query.
type ListFilter struct {
	Range  MonthRange
	Search string
	Skip   int64
	Limit  int64
}
