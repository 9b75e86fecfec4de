package sales

import (
	"fmt"
	"math"
)

const (
	bucketWidth = 100
	bucketCount = 10

	// OverflowLabel names the bucket holding every price at or above the last boundary.
	OverflowLabel = "901-above"
)

// BucketBoundaries are the lower bounds of the fixed histogram buckets plus the final upper bound.
var BucketBoundaries = []float64{0, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}

func overflowStart() float64 { return BucketBoundaries[len(BucketBoundaries)-1] }

// bucketIndex maps a price to its bucket; bucketCount is the overflow bucket.
// Negative prices are clamped into the first bucket.
func bucketIndex(price float64) int {
	if price < 0 {
		return 0
	}
	if price >= overflowStart() {
		return bucketCount
	}
	return int(math.Floor(price / bucketWidth))
}

func bucketAt(i int, count int64) PriceBucket {
	if i >= bucketCount {
		return PriceBucket{Range: OverflowLabel, Min: overflowStart(), Count: count}
	}
	lo, hi := BucketBoundaries[i], BucketBoundaries[i+1]
	return PriceBucket{
		Range: fmt.Sprintf("%d-%d", int(lo), int(hi)),
		Min:   lo,
		Max:   &hi,
		Count: count,
	}
}

// bucketFromLowerBound converts a $bucket group key (a boundary or the default label) back into a bucket.
func bucketFromLowerBound(key interface{}, count int64) (PriceBucket, error) {
	var lo float64
	switch v := key.(type) {
	case string:
		if v != OverflowLabel {
			return PriceBucket{}, fmt.Errorf("unexpected bucket label %q", v)
		}
		return bucketAt(bucketCount, count), nil
	case int32:
		lo = float64(v)
	case int64:
		lo = float64(v)
	case float64:
		lo = v
	default:
		return PriceBucket{}, fmt.Errorf("unexpected bucket key %v (%T)", key, key)
	}
	return bucketAt(bucketIndex(lo), count), nil
}
