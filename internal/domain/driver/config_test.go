package driver

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestConfigCoversOpenInterval(t *testing.T) {
	cfg := PaymentConfig{EffectiveDate: date("2025-01-01")}

	if cfg.Covers(date("2024-12-31")) {
		t.Fatal("config should not cover dates before effective date")
	}
	if !cfg.Covers(date("2025-01-01")) {
		t.Fatal("config should cover its effective date")
	}
	if !cfg.Covers(date("2030-06-15")) {
		t.Fatal("open config should cover any later date")
	}
}

func TestConfigCoversClosedInterval(t *testing.T) {
	end := date("2025-03-01")
	cfg := PaymentConfig{EffectiveDate: date("2025-01-01"), EndDate: &end}

	if !cfg.Covers(date("2025-02-28")) {
		t.Fatal("config should cover dates before end date")
	}
	if cfg.Covers(date("2025-03-01")) {
		t.Fatal("end date is exclusive; successor config takes over")
	}
}

func TestValidateConfigBounds(t *testing.T) {
	valid := PaymentConfig{
		Method:            MethodPercentage,
		DriverPercent:     decimal.NewFromInt(70),
		CompanyPercent:    decimal.NewFromInt(30),
		ServiceFeePercent: decimal.NewFromInt(5),
	}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	badMethod := valid
	badMethod.Method = "HOURLY"
	if err := validateConfig(badMethod); err != ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}

	badPercent := valid
	badPercent.DriverPercent = decimal.NewFromInt(120)
	if err := validateConfig(badPercent); err != ErrPercentOutOfRange {
		t.Fatalf("expected ErrPercentOutOfRange, got %v", err)
	}
}
