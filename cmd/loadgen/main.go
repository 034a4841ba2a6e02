// loadgen fires concurrent checkouts at a running server to demonstrate that
// oversubscribed stock yields exactly initial-stock successes and the rest
// rejected with insufficient stock, never a negative quantity.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base url")
	itemID := flag.String("item", "", "inventory item id (uuid)")
	userID := flag.String("user", "loadgen", "acting user id")
	requests := flag.Int("n", 50, "number of concurrent checkouts")
	flag.Parse()

	if *itemID == "" {
		log.Fatal("missing required -item flag")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]any{
				"item_id":  *itemID,
				"user_id":  fmt.Sprintf("%s-%d", *userID, n),
				"type":     "checkout",
				"quantity": 1,
			})

			resp, err := client.Post(*baseURL+"/api/v1/transactions", "application/json", bytes.NewReader(body))
			if err != nil {
				errorCount.Add(1)
				return
			}
			resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== LOADGEN RESULTS ==========")
	fmt.Printf("Total Requests:     %d\n", *requests)
	fmt.Printf("Succeeded:          %d\n", successCount.Load())
	fmt.Printf("Insufficient Stock: %d\n", soldOutCount.Load())
	fmt.Printf("Errors:             %d\n", errorCount.Load())
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Println("=====================================")
}
