// Package main - ghostpad
// Load generator for stress testing the farol server.
// One ghost player claims the pad and mashes random buttons while a
// crowd of spectators decodes the frame stream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"

	"github.com/farolengine/farol/internal/network"
)

// Config for the ghostpad run
type Config struct {
	ServerURL     string
	Spectators    int
	InputInterval time.Duration
	TestDuration  time.Duration
	ClaimPad      bool
}

// Stats tracks performance metrics
type Stats struct {
	InputsSent     int64
	FramesReceived int64
	FrameBytes     int64
	DecodeErrors   int64
	Errors         int64
	Latencies      []time.Duration
	mu             sync.Mutex
}

var pretty = isatty.IsTerminal(os.Stdout.Fd())

// tag prefixes text with an icon when stdout is a terminal.
func tag(icon, text string) string {
	if pretty {
		return icon + " " + text
	}
	return text
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8420/ws", "WebSocket server URL")
	spectators := flag.Int("spectators", 20, "Number of spectator clients")
	interval := flag.Duration("interval", 33*time.Millisecond, "Input interval for the ghost player")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	claim := flag.Bool("claim", true, "Run a ghost player that claims the pad")
	flag.Parse()

	config := Config{
		ServerURL:     *serverURL,
		Spectators:    *spectators,
		InputInterval: *interval,
		TestDuration:  *duration,
		ClaimPad:      *claim,
	}

	fmt.Println("=========================================")
	fmt.Println(tag("👻", "GHOSTPAD - Frame Stream Stress Tool"))
	fmt.Println("=========================================")
	fmt.Printf("Server:     %s\n", config.ServerURL)
	fmt.Printf("Spectators: %d\n", config.Spectators)
	fmt.Printf("Interval:   %v\n", config.InputInterval)
	fmt.Printf("Duration:   %v\n", config.TestDuration)
	fmt.Printf("Claim pad:  %v\n", config.ClaimPad)
	fmt.Println("=========================================")

	// Setup graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\n" + tag("⚠️", "Interrupt received, stopping..."))
		cancel()
	}()

	stats := runLoadTest(ctx, config)

	printResults(stats, config)
}

func runLoadTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\n" + tag("🚀", "Starting clients..."))

	if config.ClaimPad {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runGhostPlayer(ctx, config, stats)
		}()
	}

	for i := 0; i < config.Spectators; i++ {
		wg.Add(1)
		go func(spectatorID int) {
			defer wg.Done()
			runSpectator(ctx, spectatorID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf(tag("✅", "All clients started")+" (%d spectators)\n\n", config.Spectators)

	// Progress updates
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.InputsSent)
				frames := atomic.LoadInt64(&stats.FramesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf(tag("📊", "Progress:")+" Inputs=%d Frames=%d Errors=%d\n", sent, frames, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

// runGhostPlayer claims the pad and mashes random buttons.
func runGhostPlayer(ctx context.Context, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Ghost player: connection failed: %v", err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Drain everything the server sends; the ghost player only cares
	// about pushing inputs.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(map[string]interface{}{"type": "claim_pad"}); err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}

	ticker := time.NewTicker(config.InputInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Best effort: hand the pad back before leaving.
			_ = conn.WriteJSON(map[string]interface{}{"type": "release_pad"})
			return
		case <-ticker.C:
			start := time.Now()
			input := map[string]interface{}{
				"type":    "input",
				"buttons": rand.Intn(256),
			}
			if err := conn.WriteJSON(input); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			latency := time.Since(start)
			atomic.AddInt64(&stats.InputsSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

// runSpectator connects, then decodes every frame packet it receives.
func runSpectator(ctx context.Context, spectatorID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Spectator %d: connection failed: %v", spectatorID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Unblock the read loop when the test ends.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		packet, err := network.DecodeFramePacket(data)
		if err != nil {
			atomic.AddInt64(&stats.DecodeErrors, 1)
			continue
		}
		atomic.AddInt64(&stats.FramesReceived, 1)
		atomic.AddInt64(&stats.FrameBytes, int64(len(packet.Payload)))
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println(tag("📊", "GHOSTPAD RESULTS"))
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.InputsSent)
	frames := atomic.LoadInt64(&stats.FramesReceived)
	frameBytes := atomic.LoadInt64(&stats.FrameBytes)
	decodeErrs := atomic.LoadInt64(&stats.DecodeErrors)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Inputs Sent:      %d\n", sent)
	fmt.Printf("Frames Received:  %d\n", frames)
	fmt.Printf("Frame Payload:    %.2f MiB\n", float64(frameBytes)/(1024*1024))
	fmt.Printf("Decode Errors:    %d\n", decodeErrs)
	fmt.Printf("Errors:           %d\n", errs)

	frameRate := float64(frames) / config.TestDuration.Seconds()
	fmt.Printf("Frame Throughput: %.2f frames/sec (all spectators)\n", frameRate)

	// Latency stats
	if len(stats.Latencies) > 0 {
		var total time.Duration
		var min, max time.Duration = stats.Latencies[0], stats.Latencies[0]

		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}

		avg := total / time.Duration(len(stats.Latencies))

		fmt.Printf("\nInput Write Latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	// Verdict
	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0 && decodeErrs == 0 && frames > 0:
		fmt.Println(tag("✅", "TEST PASSED: Stream held up under load"))
	case frames == 0:
		fmt.Println(tag("❌", "TEST FAILED: No frames received"))
	case float64(decodeErrs)/float64(frames+1) < 0.01 && errs < int64(config.Spectators):
		fmt.Println(tag("⚠️", "TEST WARNING: Some errors detected"))
	default:
		fmt.Println(tag("❌", "TEST FAILED: High error rate"))
	}
	fmt.Println("=========================================")

	// Export results as JSON
	results := map[string]interface{}{
		"inputs_sent":     sent,
		"frames_received": frames,
		"frame_bytes":     frameBytes,
		"decode_errors":   decodeErrs,
		"errors":          errs,
		"frames_per_sec":  frameRate,
		"config": map[string]interface{}{
			"spectators": config.Spectators,
			"interval":   config.InputInterval.String(),
			"duration":   config.TestDuration.String(),
			"claim_pad":  config.ClaimPad,
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("ghostpad_results.json", jsonData, 0644)
	fmt.Println("\n" + tag("📁", "Results saved to ghostpad_results.json"))
}
