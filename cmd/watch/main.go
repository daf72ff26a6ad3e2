// Command watch connects viewers to the marketplace socket and reports the
// pushes they receive. With -clients > 1 it doubles as a load test.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks what the clients saw.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	CommandsSent         int64
	Errors               int64

	mu     sync.Mutex
	frames map[string]int64
}

func (m *Metrics) frame(kind string) {
	m.mu.Lock()
	m.frames[kind]++
	m.mu.Unlock()
}

var metrics = Metrics{frames: make(map[string]int64)}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type statePayload struct {
	Revision               uint64 `json:"revision"`
	RecommendationsLoading bool   `json:"recommendations_loading"`
	Listings               []struct {
		ID uint `json:"id"`
	} `json:"listings"`
	Recommendations []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"recommendations"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	viewer := flag.Uint("viewer", 1, "First viewer ID; client i acts as viewer+i")
	clients := flag.Int("clients", 1, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "How long to watch")
	refresh := flag.Duration("refresh", 0, "Send a refresh command at this interval (0 = never)")
	verbose := flag.Bool("v", false, "Print every state frame")
	flag.Parse()

	log.Printf("Watching %s with %d client(s) for %v", *host, *clients, *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, *viewer+uint(i), *refresh, *verbose, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stopChan)
	wg.Wait()
	printMetrics()
}

func runClient(host string, viewerID uint, refresh time.Duration, verbose bool, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/marketplace"}
	header := http.Header{}
	header.Set("X-Viewer-ID", fmt.Sprint(viewerID))

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Printf("viewer %d: dial failed: %v", viewerID, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			metrics.frame(f.Type)
			if verbose {
				describe(viewerID, f)
			}
		}
	}()

	var tick <-chan time.Time
	if refresh > 0 {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-tick:
			if err := c.WriteMessage(websocket.TextMessage, []byte(`{"type":"refresh"}`)); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			atomic.AddInt64(&metrics.CommandsSent, 1)
		}
	}
}

func describe(viewerID uint, f frame) {
	if f.Type != "state" {
		log.Printf("viewer %d: %s %s", viewerID, f.Type, string(f.Payload))
		return
	}
	var st statePayload
	if err := json.Unmarshal(f.Payload, &st); err != nil {
		log.Printf("viewer %d: bad state frame: %v", viewerID, err)
		return
	}
	names := make([]string, 0, len(st.Recommendations))
	for _, r := range st.Recommendations {
		names = append(names, r.Name)
	}
	log.Printf("viewer %d: rev=%d listings=%d loading=%t recs=%v",
		viewerID, st.Revision, len(st.Listings), st.RecommendationsLoading, names)
}

func printMetrics() {
	log.Println("Results")
	log.Println("=======")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Commands Sent: %d", atomic.LoadInt64(&metrics.CommandsSent))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	kinds := make([]string, 0, len(metrics.frames))
	for k := range metrics.frames {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		log.Printf("Frames %-16s %d", k+":", metrics.frames[k])
	}
}
