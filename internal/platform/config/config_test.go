package config

import "testing"

func TestValidateDrivers(t *testing.T) {
	base := Config{StoreDriver: DriverMemory, InvoiceDueDays: 30, MaxBodyBytes: 4096}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected memory config to validate, got %v", err)
	}

	pg := base
	pg.StoreDriver = DriverPostgres
	if err := pg.Validate(); err == nil {
		t.Fatal("expected postgres without DATABASE_URL to fail")
	}
	pg.DatabaseURL = "postgres://localhost/school"
	if err := pg.Validate(); err != nil {
		t.Fatalf("expected postgres config to validate, got %v", err)
	}

	mongo := base
	mongo.StoreDriver = DriverMongo
	if err := mongo.Validate(); err == nil {
		t.Fatal("expected mongo without MONGO_URI to fail")
	}

	unknown := base
	unknown.StoreDriver = "sqlite"
	if err := unknown.Validate(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}

func TestValidateProduction(t *testing.T) {
	cfg := Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://x", Environment: "production", InvoiceDueDays: 30, MaxBodyBytes: 4096}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected production without JWT_SECRET to fail")
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INVOICE_DUE_DAYS", "")
	t.Setenv("STORE_DRIVER", "MEMORY")
	cfg := Load()
	if cfg.InvoiceDueDays != 30 {
		t.Fatalf("expected 30 due days, got %d", cfg.InvoiceDueDays)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("expected lower-cased driver, got %s", cfg.StoreDriver)
	}
}
