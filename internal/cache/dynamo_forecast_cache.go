package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bbernstein/surfcast/backend-go/internal/config"
	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const defaultRetryBackoff = 100 * time.Millisecond

// DynamoForecastCache stores computed forecasts in DynamoDB, keyed by
// station and horizon
type DynamoForecastCache struct {
	client       DynamoDBClient
	config       *config.CacheConfig
	clock        clockwork.Clock
	retryBackoff time.Duration
}

func NewDynamoForecastCache(client DynamoDBClient, cacheConfig *config.CacheConfig, clock clockwork.Clock) *DynamoForecastCache {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DynamoForecastCache{
		client:       client,
		config:       cacheConfig,
		clock:        clock,
		retryBackoff: defaultRetryBackoff,
	}
}

// GetForecast retrieves a cached forecast. A missing or expired item yields nil.
func (c *DynamoForecastCache) GetForecast(ctx context.Context, cacheKey string) (*models.ForecastRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.config.DynamoTableName),
		Key: map[string]types.AttributeValue{
			"cacheKey": &types.AttributeValueMemberS{Value: cacheKey},
		},
	}

	result, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting forecast from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record models.ForecastRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling forecast record: %w", err)
	}

	// DynamoDB TTL deletion lags, so expiry is checked here too
	if !c.isValid(record) {
		log.Debug().
			Str("cache_key", cacheKey).
			Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

// SaveForecast validates and stores one forecast
func (c *DynamoForecastCache) SaveForecast(ctx context.Context, record models.ForecastRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid forecast record: %w", err)
	}

	item, err := c.marshal(record)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.config.DynamoTableName),
		Item:      item,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting forecast in DynamoDB: %w", err)
	}

	log.Debug().
		Str("cache_key", record.CacheKey).
		Msg("Saved forecast to cache")

	return nil
}

// SaveForecastsBatch stores records in batches of the configured size,
// retrying failed calls and unprocessed items with exponential backoff
func (c *DynamoForecastCache) SaveForecastsBatch(ctx context.Context, records []models.ForecastRecord) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("invalid forecast record %s: %w", record.CacheKey, err)
		}
	}

	table := c.config.DynamoTableName
	batchSize := c.config.BatchSize
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		var writeRequests []types.WriteRequest
		for _, record := range records[i:end] {
			item, err := c.marshal(record)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		var lastErr error
		backoff := c.retryBackoff
		for retry := 0; retry < c.config.MaxBatchRetries; retry++ {
			if retry > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
			}

			out, err := c.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					table: writeRequests,
				},
			})
			if err != nil {
				lastErr = err
				continue
			}
			if out != nil && len(out.UnprocessedItems[table]) > 0 {
				writeRequests = out.UnprocessedItems[table]
				lastErr = fmt.Errorf("%d unprocessed items", len(writeRequests))
				continue
			}
			lastErr = nil
			break
		}
		if lastErr != nil {
			return fmt.Errorf("batch writing forecasts after %d retries: %w",
				c.config.MaxBatchRetries, lastErr)
		}
	}

	return nil
}

func (c *DynamoForecastCache) marshal(record models.ForecastRecord) (map[string]types.AttributeValue, error) {
	now := c.clock.Now().Unix()
	record.LastUpdated = now
	record.TTL = now + int64(c.config.GetDynamoTTL().Seconds())
	if record.CacheKey == "" {
		record.CacheKey = models.CacheKeyFor(record.StationID, record.Horizon)
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling forecast record: %w", err)
	}
	return item, nil
}

func (c *DynamoForecastCache) isValid(record models.ForecastRecord) bool {
	return c.clock.Now().Unix() < record.TTL
}
