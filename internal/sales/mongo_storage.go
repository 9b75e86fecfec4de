package sales

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStorage implements Storage on a MongoDB collection.
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri, checks the connection and ensures the dateOfSale index.
// The returned storage owns the client; call Close on shutdown.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrStore, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping: %v", ErrStore, err)
	}

	s := &MongoStorage{client: client, coll: client.Database(database).Collection(collection)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the underlying client.
func (s *MongoStorage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the index every month-scoped query relies on.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dateOfSale", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrStore, err)
	}
	return nil
}

func (s *MongoStorage) InsertMany(ctx context.Context, txs []*Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(txs))
	for i, t := range txs {
		if t == nil {
			return 0, fmt.Errorf("%w: record %d is empty", ErrStore, i)
		}
		docs = append(docs, t)
	}
	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("%w: insert: %v", ErrStore, err)
	}
	return len(res.InsertedIDs), nil
}

func (s *MongoStorage) DeleteExcept(ctx context.Context, keep []primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, exceptQuery(keep))
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %v", ErrStore, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStorage) Find(ctx context.Context, f ListFilter) ([]*Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.coll.Find(ctx, listQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrStore, err)
	}
	out := make([]*Transaction, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrStore, err)
	}
	return out, nil
}

func (s *MongoStorage) CountBySold(ctx context.Context, r MonthRange, sold bool) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, soldQuery(r, sold))
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStore, err)
	}
	return n, nil
}

func (s *MongoStorage) SumSoldPrice(ctx context.Context, r MonthRange) (float64, error) {
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := s.aggregate(ctx, saleAmountPipeline(r), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *MongoStorage) PriceHistogram(ctx context.Context, r MonthRange) ([]PriceBucket, error) {
	var rows []struct {
		ID    interface{} `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := s.aggregate(ctx, histogramPipeline(r), &rows); err != nil {
		return nil, err
	}
	out := make([]PriceBucket, 0, len(rows))
	for _, row := range rows {
		b, err := bucketFromLowerBound(row.ID, row.Count)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *MongoStorage) CategoryBreakdown(ctx context.Context, r MonthRange) ([]CategoryCount, error) {
	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := s.aggregate(ctx, categoryPipeline(r), &rows); err != nil {
		return nil, err
	}
	out := make([]CategoryCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryCount{Category: row.ID, Count: row.Count})
	}
	return out, nil
}

func (s *MongoStorage) aggregate(ctx context.Context, p mongo.Pipeline, out interface{}) error {
	cur, err := s.coll.Aggregate(ctx, p)
	if err != nil {
		return fmt.Errorf("%w: aggregate: %v", ErrStore, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrStore, err)
	}
	return nil
}

func monthQuery(r MonthRange) bson.E {
	return bson.E{Key: "dateOfSale", Value: bson.D{
		{Key: "$gte", Value: r.Start},
		{Key: "$lt", Value: r.End},
	}}
}

func listQuery(f ListFilter) bson.D {
	q := bson.D{monthQuery(f.Range)}
	if f.Search == "" {
		return q
	}
	pattern := regexp.QuoteMeta(f.Search)
	rx := primitive.Regex{Pattern: pattern, Options: "i"}
	return append(q, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "title", Value: rx}},
		bson.D{{Key: "description", Value: rx}},
		bson.D{{Key: "$expr", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$toString", Value: "$price"}}, "",
			}}}},
			{Key: "regex", Value: pattern},
			{Key: "options", Value: "i"},
		}}}}},
	}})
}

func exceptQuery(keep []primitive.ObjectID) bson.D {
	ids := make(bson.A, 0, len(keep))
	for _, id := range keep {
		ids = append(ids, id)
	}
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: ids}}}}
}

func soldQuery(r MonthRange, sold bool) bson.D {
	return bson.D{monthQuery(r), {Key: "sold", Value: sold}}
}

func saleAmountPipeline(r MonthRange) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: soldQuery(r, true)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	}
}

func histogramPipeline(r MonthRange) mongo.Pipeline {
	boundaries := make(bson.A, 0, len(BucketBoundaries))
	for _, b := range BucketBoundaries {
		boundaries = append(boundaries, b)
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			monthQuery(r),
			{Key: "price", Value: bson.D{{Key: "$type", Value: "number"}}},
		}}},
		{{Key: "$bucket", Value: bson.D{
			{Key: "groupBy", Value: bson.D{{Key: "$max", Value: bson.A{"$price", 0}}}},
			{Key: "boundaries", Value: boundaries},
			{Key: "default", Value: OverflowLabel},
			{Key: "output", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}},
		}}},
	}
}

func categoryPipeline(r MonthRange) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{monthQuery(r)}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$category", ""}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
