package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/time/rate"

	"github.com/openvenue/matchd/pkg/server"
)

const (
	numWorkers      = 50
	ordersPerWorker = 2000
	maxRequestRate  = 5000
)

func main() {
	serverAddr := flag.String("addr", "http://localhost:8080", "Base URL of the matchd server")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, cleaning up...")
		cancel()
	}()

	client := &http.Client{Timeout: 10 * time.Second}
	limiter := rate.NewLimiter(rate.Limit(maxRequestRate), maxRequestRate)

	// Latencies recorded in microseconds, up to one minute.
	hist := hdrhistogram.New(1, 60_000_000, 3)
	var histMu sync.Mutex

	var wg sync.WaitGroup
	errChan := make(chan error, numWorkers*ordersPerWorker)

	start := time.Now()
	log.Printf("Starting %d workers, %d orders per worker...", numWorkers, ordersPerWorker)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))

			for j := 0; j < ordersPerWorker; j++ {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				order := generateRandomOrder(rng, workerID*ordersPerWorker+j)
				sendStart := time.Now()
				if err := submitOrder(ctx, client, *serverAddr, order); err != nil {
					errChan <- err
					continue
				}

				histMu.Lock()
				_ = hist.RecordValue(time.Since(sendStart).Microseconds())
				histMu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)
	close(errChan)

	var errCount int
	var firstErr error
	for err := range errChan {
		if firstErr == nil {
			firstErr = err
		}
		errCount++
	}

	total := numWorkers * ordersPerWorker
	log.Printf("Load test completed in %v", duration)
	log.Printf("Total orders attempted: %d", total)
	log.Printf("Throughput: %.0f orders/sec", float64(total-errCount)/duration.Seconds())
	log.Printf("Errors encountered: %d", errCount)
	log.Printf("Latency p50: %dus p99: %dus p99.9: %dus max: %dus",
		hist.ValueAtQuantile(50),
		hist.ValueAtQuantile(99),
		hist.ValueAtQuantile(99.9),
		hist.Max())

	if errCount > 0 {
		log.Printf("First error: %v", firstErr)
		os.Exit(1)
	}
}

// generateRandomOrder produces orders clustered around a mid price so
// that a realistic share of submissions cross and trade.
func generateRandomOrder(rng *rand.Rand, seq int) server.OrderRequest {
	side := "BUY"
	if rng.Intn(2) == 0 {
		side = "SELL"
	}

	orderType := "GTC"
	switch rng.Intn(10) {
	case 0:
		orderType = "FAK"
	case 1:
		orderType = "FOK"
	case 2:
		orderType = "GFD"
	}

	price := 100.0 + rng.Float64()*2.0 - 1.0
	quantity := 1 + rng.Intn(100)

	return server.OrderRequest{
		ID:       fmt.Sprintf("load-%d", seq),
		Side:     side,
		Type:     orderType,
		Price:    fmt.Sprintf("%.2f", price),
		Quantity: fmt.Sprintf("%d", quantity),
	}
}

func submitOrder(ctx context.Context, client *http.Client, baseURL string, order server.OrderRequest) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order %s: server returned %d", order.ID, resp.StatusCode)
	}
	return nil
}
