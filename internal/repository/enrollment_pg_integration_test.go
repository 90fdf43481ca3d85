package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 実Postgresに対して、同時リクエストによる二重登録が複合ユニーク
// インデックスで1件に抑えられることを確認する。sqliteでは同時実行の
// 挙動が再現できないため dockertest でコンテナを立てる。
func TestEnrollmentRepository_ConcurrentCreate_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dockertest-based integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker daemon is not reachable: %v", err)
	}
	pool.MaxWait = 120 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=user",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=lms_hub_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "could not start postgres container")
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("could not purge postgres container: %v", err)
		}
	})

	dsn := fmt.Sprintf("host=localhost port=%s user=user password=secret dbname=lms_hub_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *gorm.DB
	err = pool.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if openErr != nil {
			return openErr
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return dbErr
		}
		return sqlDB.Ping()
	})
	require.NoError(t, err, "could not connect to postgres container")

	require.NoError(t, db.AutoMigrate(&model.Enrollment{}))

	ctx := context.Background()
	repo := repository.NewGormEnrollmentRepository()
	userID := uuid.New()
	courseID := uuid.New()

	const workers = 10
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			enrollment := &model.Enrollment{
				EnrollmentID: uuid.New(),
				UserID:       userID,
				CourseID:     courseID,
				Status:       model.EnrollmentActive,
			}
			results[i] = repo.Create(ctx, db, enrollment)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	conflicts := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent enrollment should win")
	assert.Equal(t, workers-1, conflicts)

	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
