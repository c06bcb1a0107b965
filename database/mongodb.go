package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/globalbike/SalesWarehouseETL/config"
)

// MongoDB target: every warehouse table becomes a collection, idempotent
// inserts are done with $setOnInsert upserts on the key columns
type MongoDBClient struct {
	URI      string
	DBName   string
	Client   *mongo.Client
	Database *mongo.Database
	ctx      context.Context
}

// creating a new MongoDBClient using manual parameters
func NewMongoDBClient(uri, dbname string) *MongoDBClient {
	return &MongoDBClient{
		URI:    uri,
		DBName: dbname,
		ctx:    context.Background(),
	}
}

// creating a new MongoDBClient using config
func NewMongoDBClientFromConfig(cfg *config.Config) *MongoDBClient {
	//building uri from config
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d/%s",
		cfg.MongoDB.User,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.DBName,
	)

	return &MongoDBClient{
		URI:    uri,
		DBName: cfg.MongoDB.DBName,
		ctx:    context.Background(),
	}
}

// connecting to mongoDB
func (m *MongoDBClient) Connect() error {
	//setting client options
	clientOptions := options.Client().ApplyURI(m.URI)

	//setting timeout for connection
	ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
	defer cancel()

	//connecting to mongodb
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %v", err)
	}

	//checking connection
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	m.Client = client
	m.Database = client.Database(m.DBName)

	fmt.Println("Successfully connected to mongoDB")
	return nil
}

// closing the mongodb connection
func (m *MongoDBClient) Close() error {
	if m.Client != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()
		return m.Client.Disconnect(ctx)
	}
	return nil
}

// MongoDB has no DDL, collections are created implicitly on first insert
func (m *MongoDBClient) ExecuteScript(script string) error {
	return fmt.Errorf("DDL scripts are not supported for the MongoDB target")
}

// LoadTable upserts each row with $setOnInsert keyed on the key columns so
// already-loaded keys are never duplicated or overwritten.
func (m *MongoDBClient) LoadTable(table Table, policy LoadPolicy) (LoadResult, error) {
	result := LoadResult{Table: table.Name}

	if m.Database == nil {
		return result, fmt.Errorf("database connection not established")
	}
	if len(table.Rows) == 0 {
		return result, nil
	}

	collection := m.Database.Collection(table.Name)
	keyColumns := table.KeyColumns
	if len(keyColumns) == 0 {
		keyColumns = table.Columns
	}

	for _, row := range table.Rows {
		filter := bson.M{}
		for _, col := range keyColumns {
			filter[col] = toMongoValue(row[col])
		}

		doc := bson.M{}
		for _, col := range table.Columns {
			doc[col] = toMongoValue(row[col])
		}

		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		res, err := collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
		cancel()

		if err != nil {
			if policy == AtomicLoad {
				return result, fmt.Errorf("failed to insert document into %s, %v", table.Name, err)
			}
			result.RowErrors = append(result.RowErrors, RowError{Table: table.Name, Row: row, Err: err})
			continue
		}

		if res.UpsertedCount > 0 {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// CountRows returns the number of documents in a collection.
func (m *MongoDBClient) CountRows(tableName string) (int64, error) {
	if m.Database == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
	defer cancel()

	return m.Database.Collection(tableName).CountDocuments(ctx, bson.M{})
}

// decimals are stored as strings to keep their exact value, time values as
// native BSON dates
func toMongoValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return v.String()
	case decimal.Decimal:
		return v.String()
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case *string:
		if v == nil {
			return nil
		}
		return *v
	default:
		return value
	}
}
