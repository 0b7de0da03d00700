package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/fatih/color"
	"github.com/nikolaydubina/fpdecimal"
	"golang.org/x/time/rate"

	"github.com/tradevine/matchcore/pkg/backend/memory"
	"github.com/tradevine/matchcore/pkg/core"
)

func main() {
	numOrders := flag.Int("orders", 100000, "number of orders to submit")
	maxRate := flag.Int("rate", 50000, "orders per second")
	seed := flag.Int64("seed", 42, "random seed")
	symbol := flag.String("symbol", "BTC-USDT", "instrument symbol")
	flag.Parse()

	book := core.NewOrderBook(*symbol, memory.NewMemoryBackend())
	engine := core.NewMatchingEngine(book, nil)

	limiter := rate.NewLimiter(rate.Limit(*maxRate), *maxRate/10+1)
	hist := hdrhistogram.New(1, 10_000_000, 3) // microseconds
	r := rand.New(rand.NewSource(*seed))

	ctx := context.Background()
	var totalTrades, rejected int

	log.Printf("Submitting %d orders at up to %d/s...", *numOrders, *maxRate)
	start := time.Now()

	for i := 0; i < *numOrders; i++ {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatalf("rate limiter error: %v", err)
		}

		order := generateRandomOrder(r, *symbol, i)

		began := time.Now()
		trades, err := engine.MatchOrder(ctx, order)
		elapsed := time.Since(began)

		if err != nil {
			rejected++
			continue
		}

		totalTrades += len(trades)
		if err := hist.RecordValue(elapsed.Microseconds()); err != nil {
			log.Printf("failed to record latency: %v", err)
		}
	}

	duration := time.Since(start)

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s\n", green("Load test completed"))
	fmt.Printf("  duration:        %v\n", duration)
	fmt.Printf("  orders:          %d (%.0f/s)\n", *numOrders, float64(*numOrders)/duration.Seconds())
	fmt.Printf("  trades:          %d\n", totalTrades)
	fmt.Printf("  rejected:        %d\n", rejected)
	fmt.Printf("  resting bids:    %d\n", book.Depth(core.Buy))
	fmt.Printf("  resting asks:    %d\n", book.Depth(core.Sell))
	fmt.Printf("\n%s\n", yellow("Match latency (µs)"))
	fmt.Printf("  p50:  %d\n", hist.ValueAtQuantile(50))
	fmt.Printf("  p99:  %d\n", hist.ValueAtQuantile(99))
	fmt.Printf("  p999: %d\n", hist.ValueAtQuantile(99.9))
	fmt.Printf("  max:  %d\n", hist.Max())
}

// generateRandomOrder builds a limit order around a mid price of 100.0
// so roughly half the flow crosses.
func generateRandomOrder(r *rand.Rand, symbol string, orderNum int) *core.Order {
	side := core.Buy
	if r.Float64() < 0.5 {
		side = core.Sell
	}

	price := fpdecimal.FromFloat(100.0 + float64(r.Intn(21)-10)*0.05)
	quantity := fpdecimal.FromFloat(float64(r.Intn(99)+1) * 0.1)

	order, err := core.NewLimitOrder(fmt.Sprintf("load-%d", orderNum), symbol, side, quantity, price)
	if err != nil {
		log.Fatalf("failed to build order: %v", err)
	}
	return order
}
