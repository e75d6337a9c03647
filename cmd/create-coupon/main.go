package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-coupon/main.go <code> <PERCENTAGE|FIXED> <value> [min-purchase] [expires-at RFC3339]")
		fmt.Println("Example: go run cmd/create-coupon/main.go WELCOME10 PERCENTAGE 10 500 2026-12-31T23:59:59Z")
		os.Exit(1)
	}

	code := os.Args[1]
	couponType := domain.CouponType(os.Args[2])
	if !couponType.IsValid() {
		fmt.Fprintf(os.Stderr, "Invalid coupon type %q, must be PERCENTAGE or FIXED\n", os.Args[2])
		os.Exit(1)
	}

	value, err := strconv.ParseFloat(os.Args[3], 64)
	if err != nil || value <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid value %q, must be a positive number\n", os.Args[3])
		os.Exit(1)
	}
	if couponType == domain.CouponTypePercentage && value > 100 {
		fmt.Fprintln(os.Stderr, "Percentage value must be at most 100")
		os.Exit(1)
	}

	var minPurchase float64
	if len(os.Args) > 4 {
		minPurchase, err = strconv.ParseFloat(os.Args[4], 64)
		if err != nil || minPurchase < 0 {
			fmt.Fprintf(os.Stderr, "Invalid min-purchase %q\n", os.Args[4])
			os.Exit(1)
		}
	}

	var expiresAt *time.Time
	if len(os.Args) > 5 {
		t, err := time.Parse(time.RFC3339, os.Args[5])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid expires-at %q, must be RFC3339\n", os.Args[5])
			os.Exit(1)
		}
		expiresAt = &t
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	coupon := &domain.Coupon{
		Code:        code,
		Type:        couponType,
		Value:       value,
		MinPurchase: minPurchase,
		ExpiresAt:   expiresAt,
	}

	if err := repos.Coupon.Create(context.Background(), coupon); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create coupon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Coupon created: %s (%s %.2f", coupon.Code, coupon.Type, coupon.Value)
	if coupon.MinPurchase > 0 {
		fmt.Printf(", min purchase %.2f", coupon.MinPurchase)
	}
	if coupon.ExpiresAt != nil {
		fmt.Printf(", expires %s", coupon.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println(")")
}
