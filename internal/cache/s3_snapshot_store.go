package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	snapshotPrefix     = "raw/"
	snapshotTimeLayout = "20060102T150405Z"
)

// S3SnapshotStore keeps parsed station feeds as CSV objects in S3, one per
// fetch, so the latest one can stand in when NDBC is unavailable
type S3SnapshotStore struct {
	client     S3Client
	bucketName string
	clock      clockwork.Clock
}

func NewS3SnapshotStore(client S3Client, bucketName string, clock clockwork.Clock) *S3SnapshotStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &S3SnapshotStore{
		client:     client,
		bucketName: bucketName,
		clock:      clock,
	}
}

// SnapshotKey names the object for a station fetched at t. Keys of one
// station sort by fetch time.
func SnapshotKey(stationID string, t time.Time) string {
	return fmt.Sprintf("%s%s.csv", stationKeyPrefix(stationID), t.UTC().Format(snapshotTimeLayout))
}

func stationKeyPrefix(stationID string) string {
	return fmt.Sprintf("%sndbc_%s_realtime_", snapshotPrefix, stationID)
}

// SaveSnapshot writes ds under a key stamped with the current time and returns the key
func (c *S3SnapshotStore) SaveSnapshot(ctx context.Context, stationID string, ds *models.Dataset) (string, error) {
	if c.bucketName == "" {
		return "", fmt.Errorf("empty bucket name")
	}

	var buf bytes.Buffer
	if err := ndbc.EncodeCSV(&buf, ds); err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	key := SnapshotKey(stationID, c.clock.Now())
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().
		Str("station_id", stationID).
		Str("key", key).
		Int("rows", ds.Len()).
		Msg("Saved snapshot to S3")
	return key, nil
}

// LatestSnapshot loads the newest snapshot of a station. It returns a nil
// dataset and empty key when the station has none.
func (c *S3SnapshotStore) LatestSnapshot(ctx context.Context, stationID string) (*models.Dataset, string, error) {
	if c.bucketName == "" {
		return nil, "", fmt.Errorf("empty bucket name")
	}

	key, err := c.latestKey(ctx, stationID)
	if err != nil {
		return nil, "", err
	}
	if key == "" {
		log.Debug().Str("station_id", stationID).Msg("No snapshot found")
		return nil, "", nil
	}

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("getting snapshot %s: %w", key, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	ds, err := ndbc.DecodeCSV(result.Body)
	if err != nil {
		return nil, "", fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	return ds, key, nil
}

func (c *S3SnapshotStore) latestKey(ctx context.Context, stationID string) (string, error) {
	prefix := stationKeyPrefix(stationID)
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(prefix),
	})

	var latest string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("listing snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".csv") && key > latest {
				latest = key
			}
		}
	}
	return latest, nil
}
