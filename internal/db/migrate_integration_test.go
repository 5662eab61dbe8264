package db

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kerjaberkah/portal/internal/config"
	"github.com/kerjaberkah/portal/internal/models"
)

// TestSQLMigrationsPostgres applies the embedded migrations to a real
// PostgreSQL and checks that the gorm models can read and write the schema.
func TestSQLMigrationsPostgres(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("portal_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	portNum, _ := strconv.Atoi(port.Port())

	cfg := config.DatabaseConfig{
		Driver: "postgres", Host: host, Port: portNum,
		User: "portal", Password: "test-password", DBName: "portal_test", SSLMode: "disable",
	}
	gdb, err := Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(gdb, cfg, testLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// running twice is a no-op
	if err := Migrate(gdb, cfg, testLogger()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := Seed(ctx, gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}

	user := models.User{Email: "hr@example.com", Type: models.UserCompany, PasswordHash: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	company := models.Company{UserID: user.ID, Name: "PT Berkah"}
	if err := gdb.Create(&company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	vac := models.Vacancy{CompanyID: company.ID, Title: "Operator", Benefits: []string{"BPJS"}, Status: true}
	if err := gdb.Create(&vac).Error; err != nil {
		t.Fatalf("create vacancy: %v", err)
	}
	var got models.Vacancy
	if err := gdb.Preload("Company").First(&got, vac.ID).Error; err != nil {
		t.Fatalf("read vacancy: %v", err)
	}
	if len(got.Benefits) != 1 || got.Company == nil {
		t.Fatalf("unexpected vacancy %+v", got)
	}
}
