package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/annel0/voxelworld/internal/eventbus"
)

const (
	defaultServerURL = "nats://127.0.0.1:4222"
	timeFormat       = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		serverURL  = flag.String("url", defaultServerURL, "NATS server URL")
		stream     = flag.String("stream", eventbus.DefaultStream, "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		decode     = flag.Bool("decode", false, "Decode chunk snapshots")
		duration   = flag.Duration("for", 10*time.Second, "Stats collection window")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*serverURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to server: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	switch *command {
	case "tail":
		err = tailEvents(ctx, bus, filter, *decode)
	case "stats":
		ctx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()
		err = showStats(ctx, bus, filter)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// tailEvents печатает события до прерывания
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, decode bool) error {
	fmt.Printf("🎬 Tailing world events (types: %v)\n", filter.Types)

	var count int
	var mu sync.Mutex
	sub, err := bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		count++
		printEvent(ev, decode)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	mu.Lock()
	fmt.Printf("\n📊 Total events: %d\n", count)
	mu.Unlock()
	return nil
}

// showStats считает события по типам за окно времени
func showStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter) error {
	type typeStats struct {
		count int
		bytes uint64
	}
	var mu sync.Mutex
	stats := make(map[string]*typeStats)

	sub, err := bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stats[ev.EventType]
		if !ok {
			s = &typeStats{}
			stats[ev.EventType] = s
		}
		s.count++
		s.bytes += uint64(len(ev.Payload))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	start := time.Now().UTC()
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	types := make([]string, 0, len(stats))
	for t := range stats {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("Period: %s - %s\n", start.Format(timeFormat), time.Now().UTC().Format(timeFormat))
	for _, t := range types {
		fmt.Printf("  %s: %d events, %s\n", t, stats[t].count, humanize.Bytes(stats[t].bytes))
	}
	return nil
}

func printEvent(ev *eventbus.Envelope, decode bool) {
	fmt.Printf("[%s] %s/%s [prio %d] %s\n",
		ev.Timestamp.Format(timeFormat), ev.Source, ev.EventType, ev.Priority, ev.ID)

	if coords, ok := ev.Metadata[eventbus.MetaCoords]; ok {
		fmt.Printf("  Coords: %s", coords)
		if fp, ok := ev.Metadata[eventbus.MetaFingerprint]; ok {
			fmt.Printf(" Fingerprint: %s Blocks: %s", fp, ev.Metadata[eventbus.MetaBlocks])
		}
		fmt.Println()
	}
	if b, ok := ev.Metadata[eventbus.MetaBrightness]; ok {
		fmt.Printf("  Brightness: %s\n", b)
	}
	if len(ev.Payload) == 0 {
		return
	}

	fmt.Printf("  Payload: %s\n", humanize.Bytes(uint64(len(ev.Payload))))
	if !decode {
		return
	}
	snap, err := eventbus.DecodeSnapshot(ev.Payload)
	if err != nil {
		fmt.Printf("  ⚠️ %v\n", err)
		return
	}
	chunk := snap.Chunk()
	fmt.Printf("  Snapshot: chunk %s, %d blocks, glowing=%v\n", snap.Coords, chunk.BlockCount(), chunk.IsGlowing())
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
