package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/internal/auth"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/fees"
	"schoolops/internal/platform/config"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/docstore/memstore"
)

func harness(store *memstore.Store) func(args ...string) (string, error) {
	cfg := config.Config{
		StoreDriver:    config.DriverMemory,
		JWTSecret:      "cli-secret",
		SeedAdminID:    "admin",
		SeedAdminName:  "Head",
		InvoiceDueDays: 30,
	}
	open := func(context.Context, config.Config) (docstore.Gateway, func(context.Context) error, error) {
		return store, func(context.Context) error { return nil }, nil
	}
	return func(args ...string) (string, error) {
		cmd := NewRootCommand(cfg, open)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}
}

func TestSeedThenPayrollRun(t *testing.T) {
	store := memstore.New()
	run := harness(store)

	out, err := run("seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seed complete")

	require.NoError(t, directory.NewService(store).SaveStaff(context.Background(), directory.Staff{
		ID: "st1", Name: "Kemi", Status: directory.StaffActive, Salary: decimal.NewFromInt(90000),
		BankDetails: directory.BankDetails{BankName: "GTB", AccountNumber: "01", AccountName: "Kemi"},
	}))

	out, err = run("payroll", "run", "--month", "9", "--year", "2025")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "2025-09", res["payrollRunId"])

	_, err = run("payroll", "run", "--month", "9", "--year", "2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payroll_already_executed")
}

func TestInvoicesGenerateNeedsFeeStructure(t *testing.T) {
	store := memstore.New()
	run := harness(store)
	_, err := run("seed")
	require.NoError(t, err)

	_, err = run("invoices", "generate", "--class", "JSS1", "--session", "2024-2025", "--term", "First")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fees.ErrNotConfigured), "got %v", err)
}

func TestInvoicesGenerateRequiresFlags(t *testing.T) {
	_, err := harness(memstore.New())("invoices", "generate", "--class", "JSS1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestResultsGenerateReportsPrecondition(t *testing.T) {
	store := memstore.New()
	run := harness(store)
	_, err := run("seed")
	require.NoError(t, err)

	_, err = run("results", "generate", "--class", "JSS1", "--session", "2024-2025", "--term", "First")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_students")
}

func TestTokenCommand(t *testing.T) {
	out, err := harness(memstore.New())("token", "--actor", "bursar", "--role", "accountant")
	require.NoError(t, err)
	claims, err := auth.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "bursar", claims.UserID)
	assert.Equal(t, "accountant", claims.Role)
}

func TestMigrateRejectsOtherStores(t *testing.T) {
	_, err := harness(memstore.New())("migrate")
	require.Error(t, err)
}
