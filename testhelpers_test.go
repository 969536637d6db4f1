//go:build integration

package main_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/staybook/service-stays/internal/application"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/geocoding"
	"github.com/staybook/service-stays/internal/lock"
	"github.com/staybook/service-stays/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Redis   goredis.UniversalClient
	Cleanup func()
}

// fixedGeocoder resolves every address to the same point so listing
// creation works without an outbound geocoding call.
type fixedGeocoder struct{}

func (fixedGeocoder) Geocode(ctx context.Context, address string) (geocoding.Point, error) {
	return geocoding.Point{Lat: 37.7749, Lon: -122.4194}, nil
}

// nopUploader skips photo storage.
type nopUploader struct{}

func (nopUploader) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	return "https://storage.local/" + key, nil
}

// capturedEvents records published events instead of a Kafka broker.
type capturedEvents struct {
	mu     sync.Mutex
	events []events.CloudEvent
}

func (c *capturedEvents) PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) ofType(eventType string) []events.CloudEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.CloudEvent
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// setupContainers starts PostGIS and Redis testcontainers and returns
// connected clients.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start PostgreSQL (PostGIS) container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_stays",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_stays sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error)
	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.ListingModel{},
		&repository.BookingModel{},
	))

	// Start Redis container for the lock coordinator.
	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisClient := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})
	require.Eventually(t, func() bool {
		return redisClient.Ping(ctx).Err() == nil
	}, 30*time.Second, 500*time.Millisecond, "Redis not ready for connections")

	cleanup := func() {
		_ = redisClient.Close()
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:      db,
		Redis:   redisClient,
		Cleanup: cleanup,
	}
}

// setupStaysStack wires the booking service against real Postgres and Redis.
func setupStaysStack(t *testing.T, infra *testInfra) (*application.BookingService, *application.ListingService, *capturedEvents) {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(infra.DB)
	listingRepo := repository.NewGormListingRepository(infra.DB)
	locks := lock.NewRedisCoordinator(infra.Redis)
	published := &capturedEvents{}

	bookingSvc := application.NewBookingService(bookingRepo, listingRepo, locks, published, logger)
	listingSvc := application.NewListingService(listingRepo, bookingRepo, fixedGeocoder{}, nopUploader{}, published, logger)
	return bookingSvc, listingSvc, published
}

// seedListing inserts a listing at the given coordinates.
func seedListing(t *testing.T, db *gorm.DB, hostID uuid.UUID, name string, lat, lon float64, capacity int) uuid.UUID {
	t.Helper()

	lst, err := listingDomain.NewListing(
		hostID, name, "1 Test St", "integration listing", capacity,
		listingDomain.GeoPoint{Lat: lat, Lon: lon}, nil, time.Now(),
	)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormListingRepository(db).Save(context.Background(), lst))
	return lst.ID()
}

func futureDay(d int) time.Time {
	base := time.Now().UTC().AddDate(0, 1, 0)
	return time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}
