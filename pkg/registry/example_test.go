package registry_test

import (
	"fmt"
	"log"
	"os"

	"github.com/kitstrap/kitstrap/pkg/plugin"
	"github.com/kitstrap/kitstrap/pkg/registry"
)

// examplePlugin is a minimal plugin used in the examples.
type examplePlugin struct {
	plugin.Base
}

func (p *examplePlugin) Install(ctx *plugin.ExecutionContext) *plugin.Result {
	return plugin.NewResult(p.Name(), "installed")
}

func (p *examplePlugin) Verify(ctx *plugin.ExecutionContext) *plugin.Result {
	return plugin.NewResult(p.Name(), "verified")
}

// Example demonstrates registering plugins and computing their execution
// order. Dependencies always run first; among ready plugins the lowest
// priority wins.
func Example_executionOrder() {
	reg := registry.New()

	// A typical component set: assets go in first, settings build on the
	// assets, docs are independent and low priority.
	for _, p := range []*examplePlugin{
		{Base: plugin.NewBase("settings", 20, "assets")},
		{Base: plugin.NewBase("assets", 10)},
		{Base: plugin.NewBase("docs", 5)},
	} {
		if err := reg.Register(p); err != nil {
			log.Fatalf("Failed to register %s: %v", p.Name(), err)
		}
	}

	order, err := reg.ExecutionOrder()
	if err != nil {
		log.Fatalf("Failed to compute order: %v", err)
	}

	for i, name := range order {
		fmt.Printf("%d. %s\n", i+1, name)
	}

	// Output:
	// 1. docs
	// 2. assets
	// 3. settings
}

// Example_installAll demonstrates a full install run with an exclusion.
func Example_installAll() {
	reg := registry.New()

	for _, p := range []*examplePlugin{
		{Base: plugin.NewBase("assets", 10)},
		{Base: plugin.NewBase("settings", 20, "assets")},
	} {
		if err := reg.Register(p); err != nil {
			log.Fatalf("Failed to register %s: %v", p.Name(), err)
		}
	}

	target, err := os.MkdirTemp("", "kitstrap-example")
	if err != nil {
		log.Fatalf("Failed to create target: %v", err)
	}
	defer os.RemoveAll(target)

	ctx := plugin.NewExecutionContext(target, nil)
	results, err := reg.InstallAll(ctx, []string{"settings"})
	if err != nil {
		log.Fatalf("Install failed: %v", err)
	}

	fmt.Printf("results: %d\n", len(results))
	fmt.Printf("assets: %v\n", results["assets"].Success)
	_, hasSettings := results["settings"]
	fmt.Printf("settings present: %v\n", hasSettings)

	// Output:
	// results: 1
	// assets: true
	// settings present: false
}
