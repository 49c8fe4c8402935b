// amiws-tap dials an amiws endpoint and prints every decoded envelope,
// useful for inspecting what a monitor instance would ingest.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/Briareos12/amiws-queue/internal/amiws"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8000/", "amiws websocket URL")
	raw := flag.Bool("raw", false, "print raw JSON payloads instead of decoded envelopes")
	flag.Parse()

	if err := run(*url, *raw); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(url string, raw bool) error {
	fmt.Printf("connecting to %s...\n", url)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Close on interrupt so ReadMessage unblocks
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return nil
		}

		if raw {
			fmt.Println(string(payload))
			continue
		}

		msg, err := amiws.Decode(payload)
		if err != nil {
			fmt.Printf("!! %v\n", err)
			continue
		}
		printMessage(msg)
	}
}

func printMessage(msg amiws.Message) {
	label := fmt.Sprintf("type=%d", msg.Type)
	switch msg.Type {
	case amiws.TypeEvent:
		label = "event " + msg.Data.Event()
	case amiws.TypeResponse:
		label = "response"
	}

	fmt.Printf("[%s] %s\n", msg.ServerID, label)

	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, msg.Data[k])
	}
}
