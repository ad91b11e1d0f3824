package testhelpers

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"legalreview/core"
	"legalreview/models"
)

var (
	dbOnce    sync.Once
	testDB    *gorm.DB
	testDBErr error
	postgres  testcontainers.Container
)

// OpenTestDB connects to DATABASE_URL, or to a throwaway postgres container
// when it is unset, and migrates the schema. The connection is shared by
// every test in the process.
func OpenTestDB() (*gorm.DB, error) {
	dbOnce.Do(func() {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			dsn, testDBErr = startPostgres(context.Background())
			if testDBErr != nil {
				return
			}
		}

		testDB, testDBErr = core.InitDB(dsn)
		if testDBErr != nil {
			return
		}
		testDBErr = models.AutoMigrate(testDB)
	})

	return testDB, testDBErr
}

// TerminateTestDB stops the container started by OpenTestDB, if any.
func TerminateTestDB() {
	if postgres != nil {
		_ = postgres.Terminate(context.Background())
		postgres = nil
	}
}

func startPostgres(ctx context.Context) (dsn string, err error) {
	// testcontainers panics when no docker host can be found
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker not available: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "legal",
			"POSTGRES_PASSWORD": "legal",
			"POSTGRES_DB":       "legal_review_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start postgres container: %w", err)
	}
	postgres = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get postgres host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get postgres port: %w", err)
	}

	return fmt.Sprintf("host=%s user=legal password=legal dbname=legal_review_test port=%d sslmode=disable", host, port.Int()), nil
}
