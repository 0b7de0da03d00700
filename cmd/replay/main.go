package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/nikolaydubina/fpdecimal"
	"gopkg.in/yaml.v3"

	"github.com/tradevine/matchcore/pkg/backend/memory"
	"github.com/tradevine/matchcore/pkg/core"
)

// scriptOrder is one line of a replay script.
type scriptOrder struct {
	ID       string `yaml:"id"`
	Side     string `yaml:"side"`
	Quantity string `yaml:"quantity"`
	Price    string `yaml:"price"`
}

// script is a YAML order sequence for one instrument.
type script struct {
	Symbol string        `yaml:"symbol"`
	Orders []scriptOrder `yaml:"orders"`
}

func main() {
	scriptPath := flag.String("script", "", "path to YAML order script")
	flag.Parse()

	if *scriptPath == "" {
		log.Fatal("usage: replay -script orders.yaml")
	}

	data, err := os.ReadFile(*scriptPath)
	if err != nil {
		log.Fatalf("failed to read script: %v", err)
	}

	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		log.Fatalf("failed to parse script: %v", err)
	}
	if s.Symbol == "" {
		log.Fatal("script must set a symbol")
	}

	book := core.NewOrderBook(s.Symbol, memory.NewMemoryBackend())
	engine := core.NewMatchingEngine(book, nil)

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	ctx := context.Background()

	for _, so := range s.Orders {
		order, err := buildOrder(s.Symbol, so)
		if err != nil {
			fmt.Printf("%s %s: %v\n", red("REJECT"), so.ID, err)
			continue
		}

		trades, err := engine.MatchOrder(ctx, order)
		if err != nil {
			fmt.Printf("%s %s: %v\n", red("REJECT"), so.ID, err)
			continue
		}

		label := green("BUY ")
		if order.Side() == core.Sell {
			label = red("SELL")
		}

		fmt.Printf("%s %s %s @ %s -> %d trade(s)\n", label, so.ID, so.Quantity, so.Price, len(trades))
		for _, trade := range trades {
			fmt.Printf("      %s\n", cyan(trade.String()))
		}
	}

	fmt.Printf("\nFinal book:\n%s", book.String())
}

func buildOrder(symbol string, so scriptOrder) (*core.Order, error) {
	side, err := core.SideFromString(so.Side)
	if err != nil {
		return nil, err
	}

	quantity, err := fpdecimal.FromString(so.Quantity)
	if err != nil {
		return nil, core.ErrInvalidQuantity
	}

	price, err := fpdecimal.FromString(so.Price)
	if err != nil {
		return nil, core.ErrInvalidPrice
	}

	return core.NewLimitOrder(so.ID, symbol, side, quantity, price)
}
