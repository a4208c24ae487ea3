package app

import (
	"bytes"
	"strings"
	"testing"
)

// serveはDBに接続できない場合、サーバーを起動せずにエラーを返す
func TestRun_ServeFailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error = %v, want database-related error", err)
	}
}

func TestRun_MigrateFailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate"})
	if err == nil {
		t.Fatal("Run(migrate) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "migration failed") {
		t.Errorf("error = %v, want migration failure", err)
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("ENV_FILE", "testdata/does-not-exist.env")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_SECRET_KEY", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

func TestRun_HealthcheckFailsWhenServerDown(t *testing.T) {
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"healthcheck"}); err == nil {
		t.Fatal("healthcheck should fail when nothing listens on the port")
	}
}
