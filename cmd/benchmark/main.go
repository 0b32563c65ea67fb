// Benchmark tool for load-testing the Kite detection and search API.
//
// Usage:
//   go run cmd/benchmark/main.go -queries /path/to/queries.txt -url http://localhost:8080
//
// This tool:
//  1. Reads target queries (one per line: emails, usernames, IPs, domains, ...)
//  2. Sends each query to POST /api/detect (or /api/search with -search)
//  3. Tracks latency and the distribution of detected types
//  4. Prints throughput and latency statistics
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DetectRequest is the Kite API request format
type DetectRequest struct {
	Query string `json:"query"`
}

// DetectResponse is the Kite API response format
type DetectResponse struct {
	Query string   `json:"query"`
	Types []string `json:"detected_types"`
}

// Metrics tracks benchmark results
type Metrics struct {
	mu        sync.Mutex
	latencies []time.Duration
	typeCount map[string]int64

	TotalProcessed int64
	TotalErrors    int64
}

func main() {
	// Parse flags
	queriesPath := flag.String("queries", "", "Path to file with one query per line")
	baseURL := flag.String("url", "http://localhost:8080", "Kite base URL")
	iterations := flag.Int("n", 1, "Times to replay the query list")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	doSearch := flag.Bool("search", false, "Run full shallow searches instead of detection only")
	verbose := flag.Bool("verbose", false, "Print each query result")
	flag.Parse()

	queries := builtinQueries()
	if *queriesPath != "" {
		var err error
		queries, err = readQueries(*queriesPath)
		if err != nil {
			fmt.Printf("ERROR: Failed to read queries: %v\n", err)
			os.Exit(1)
		}
	}

	endpoint := "/api/detect"
	if *doSearch {
		endpoint = "/api/search"
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                KITE BENCHMARK - API Load Test                 ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKite URL:   %s\n", *baseURL)
	fmt.Printf("Endpoint:   %s\n", endpoint)
	fmt.Printf("Queries:    %d x %d iterations\n", len(queries), *iterations)
	fmt.Printf("Workers:    %d\n", *workers)
	fmt.Println()

	// Check Kite is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kite not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kite is running:")
		fmt.Println("  go run cmd/kite/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kite is healthy")

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(queries, *baseURL, endpoint, *iterations, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func builtinQueries() []string {
	return []string{
		"john.doe@example.com",
		"jane_smith",
		"8.8.8.8",
		"example.com",
		"https://github.com/torvalds",
		"+33612345678",
		"John Doe",
	}
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readQueries(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var queries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries in %s", path)
	}
	return queries, nil
}

func runBenchmark(queries []string, baseURL, endpoint string, iterations, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{typeCount: make(map[string]int64)}

	// Create work channel
	work := make(chan string, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 120 * time.Second}

			for query := range work {
				start := time.Now()
				result, err := probe(client, baseURL, endpoint, query)
				elapsed := time.Since(start)

				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", query, err)
					}
					continue
				}

				metrics.mu.Lock()
				metrics.latencies = append(metrics.latencies, elapsed)
				for _, typ := range result.Types {
					metrics.typeCount[typ]++
				}
				metrics.mu.Unlock()

				if verbose {
					fmt.Printf("✓ %-30s | Types: %-20v | %v\n", query, result.Types, elapsed.Round(time.Millisecond))
				}
			}
		}()
	}

	// Send work
	for i := 0; i < iterations; i++ {
		for _, q := range queries {
			work <- q
		}
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func probe(client *http.Client, baseURL, endpoint, query string) (*DetectResponse, error) {
	body, err := json.Marshal(DetectRequest{Query: query})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result DetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 REQUEST STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	if len(m.typeCount) > 0 {
		fmt.Printf("\n🔍 DETECTED TYPE DISTRIBUTION\n")
		types := make([]string, 0, len(m.typeCount))
		for typ := range m.typeCount {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Printf("   %-10s %d\n", typ, m.typeCount[typ])
		}
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))

	if len(m.latencies) > 0 {
		sort.Slice(m.latencies, func(i, j int) bool { return m.latencies[i] < m.latencies[j] })

		var total time.Duration
		for _, l := range m.latencies {
			total += l
		}
		avg := total / time.Duration(len(m.latencies))
		p50 := m.latencies[len(m.latencies)/2]
		p95 := m.latencies[len(m.latencies)*95/100]
		p99 := m.latencies[len(m.latencies)*99/100]

		fmt.Printf("   Avg Latency:      %v\n", avg.Round(time.Microsecond))
		fmt.Printf("   p50 / p95 / p99:  %v / %v / %v\n",
			p50.Round(time.Microsecond), p95.Round(time.Microsecond), p99.Round(time.Microsecond))
		fmt.Printf("   Throughput:       %.2f req/sec\n", float64(m.TotalProcessed)/duration.Seconds())
	}

	fmt.Println()
}
