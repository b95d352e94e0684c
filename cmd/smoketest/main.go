// Package main - smoketest
// Executable to run the headless boot probes.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/farolengine/farol/test"
)

func main() {
	fmt.Println("🏮 FAROL - HEADLESS PROBE SUITE")
	fmt.Println("================================================")

	ctx := context.Background()

	fmt.Println("\n🧪 Starting probe: The Headless Boot...")
	bootTest := test.NewHeadlessBootTest()
	bootTest.RunTest(ctx)

	// Summary
	results := bootTest.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("📊 PROBE SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   ✅ Passed: %d\n", passed)
	fmt.Printf("   ❌ Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\n⚠️  The console needs recalibration")
		os.Exit(1)
	} else {
		fmt.Println("\n✅ The console is ready to ship")
		os.Exit(0)
	}
}
