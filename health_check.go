//go:build ignore

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/config"
	"github.com/fenilmodi00/ipo-pipeline/database"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/fenilmodi00/ipo-pipeline/shared"
)

func main() {
	fmt.Printf("🏥 IPO Pipeline Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	healthScore := 0
	totalTests := 4

	upstream := services.NewUpstreamClient(services.UpstreamConfig{
		BaseURL:    cfg.UpstreamBaseURL,
		APIVersion: cfg.UpstreamAPIVersion,
		Timeout:    cfg.HTTPTimeout,
		Retry:      shared.DefaultRetryPolicy(1),
	}, nil)

	// Test 1: upstream IPO list
	fmt.Print("📡 Upstream IPO list: ")
	ipos, err := upstream.ListIPOs(ctx)
	if err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%d IPOs)\n", len(ipos))
		healthScore++
	}

	// Test 2: market indices
	fmt.Print("📈 Market indices: ")
	if payload, err := upstream.FetchMarketIndices(ctx); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%d indices)\n", len(services.NormalizeMarketIndices(payload)))
		healthScore++
	}

	// Test 3: Database
	fmt.Print("🗄️  Database: ")
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Println("✅ OK")
		healthScore++

		// Test 4: Database rows through the transformer
		fmt.Print("📊 Database IPOs: ")
		source := services.NewPostgresIPOSource(database.DB)
		if dbIPOs, err := source.ListIPOs(ctx); err != nil {
			fmt.Printf("❌ FAILED (%v)\n", err)
		} else {
			buckets := services.FilterIPOs(dbIPOs, time.Now().In(cfg.Location()))
			fmt.Printf("✅ OK (%d IPOs, %d ongoing)\n", len(dbIPOs), len(buckets.Ongoing))
			healthScore++
		}
		database.Close()
	}

	// Overall health
	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}
