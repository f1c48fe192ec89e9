// Package main provides a stress testing tool for the auth event stream.
//
// N devices sign in as the same account and watch their stream while a
// driver device keeps updating the profile. Every update should reach
// every watcher as a USER_UPDATED event. Run the target with APP_ENV=stress
// so the per-IP limits do not reject the devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"livaulislam/pkg/client"
)

// Metrics tracks the test results
type Metrics struct {
	DevicesAttempted int64
	DevicesWatching  int64
	DevicesFailed    int64
	UpdatesSent      int64
	EventsReceived   int64
	Errors           int64
}

var metrics Metrics

func main() {
	serviceURL := flag.String("url", os.Getenv("LIVAULISLAM_SERVICE_URL"), "Service URL")
	apiKey := flag.String("apikey", os.Getenv("LIVAULISLAM_API_KEY"), "Service API key")
	identifier := flag.String("identifier", "", "Test user email or username")
	password := flag.String("password", "password123", "Test user password")
	clients := flag.Int("clients", 20, "Number of watching devices")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	interval := flag.Duration("interval", 2*time.Second, "Profile update interval")
	flag.Parse()

	cfg := client.Config{ServiceURL: *serviceURL, APIKey: *apiKey, Timeout: 10 * time.Second}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if *identifier == "" {
		log.Fatalf("❌ -identifier is required")
	}

	log.Printf("🚀 Starting Auth Stream Stress Test")
	log.Printf("Target: %s", cfg.ServiceURL)
	log.Printf("Devices: %d", *clients)
	log.Printf("Duration: %v", *duration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := signIn(ctx, cfg, *identifier, *password)
	if err != nil {
		log.Fatalf("❌ Sign in failed: %v", err)
	}
	defer driver.Close()
	log.Printf("✅ Signed in as %s", driver.Profile().Username)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runDevice(ctx, cfg, *identifier, *password, &wg)
		time.Sleep(50 * time.Millisecond)
	}

	wg.Add(1)
	go runDriver(ctx, driver, *interval, &wg)

	select {
	case <-interrupt:
		log.Println("🛑 Interrupted")
	case <-time.After(*duration):
		log.Println("⏰ Duration reached")
	}

	cancel()
	wg.Wait()
	printMetrics()
}

func signIn(ctx context.Context, cfg client.Config, identifier, password string) (*client.SessionStore, error) {
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	store := client.NewSessionStore(c, client.NewMemoryTokenStore())
	if _, err := store.SignIn(ctx, identifier, password); err != nil {
		return nil, err
	}
	return store, nil
}

func runDevice(ctx context.Context, cfg client.Config, identifier, password string, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.DevicesAttempted, 1)

	store, err := signIn(ctx, cfg, identifier, password)
	if err != nil {
		atomic.AddInt64(&metrics.DevicesFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	defer store.Close()

	unsubscribe := store.Subscribe(func(event string, _ *client.Session) {
		if event == client.EventUserUpdated {
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	})
	defer unsubscribe()

	if err := store.Watch(ctx); err != nil {
		atomic.AddInt64(&metrics.DevicesFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	atomic.AddInt64(&metrics.DevicesWatching, 1)
	<-ctx.Done()
}

func runDriver(ctx context.Context, store *client.SessionStore, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bio := fmt.Sprintf("Stream stress test update %d", n)
			if _, err := store.UpdateProfile(ctx, client.ProfileUpdate{Bio: &bio}); err != nil {
				if ctx.Err() == nil {
					atomic.AddInt64(&metrics.Errors, 1)
				}
				continue
			}
			atomic.AddInt64(&metrics.UpdatesSent, 1)
		}
	}
}

func printMetrics() {
	watching := atomic.LoadInt64(&metrics.DevicesWatching)
	sent := atomic.LoadInt64(&metrics.UpdatesSent)
	received := atomic.LoadInt64(&metrics.EventsReceived)

	log.Println("\n📊 Test Results")
	log.Println("===============")
	log.Printf("Devices Attempted: %d", atomic.LoadInt64(&metrics.DevicesAttempted))
	log.Printf("Devices Watching: %d", watching)
	log.Printf("Devices Failed: %d", atomic.LoadInt64(&metrics.DevicesFailed))
	log.Printf("Profile Updates Sent: %d", sent)
	log.Printf("USER_UPDATED Events Received: %d (expected up to %d)", received, watching*sent)
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
