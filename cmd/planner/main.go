// cmd/planner/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/unclebandit/campaign-engine/internal/service"
)

// Offline content-calendar planning tool. Projects a forward-looking,
// non-binding calendar for human review; nothing here schedules or posts.
func main() {
	days := flag.Int("days", 7, "planning horizon in days")
	channels := flag.String("channels", "instagram,facebook", "comma-separated channels")
	topics := flag.String("topics", "", "comma-separated topics (round-robin)")
	contentTypes := flag.String("content-types", "post", "comma-separated content types")
	seed := flag.Int64("seed", 0, "RNG seed for reproducible output (0 = random)")
	asJSON := flag.Bool("json", false, "emit JSON instead of a table")
	flag.Parse()

	projector := service.NewCalendarProjector(nil, *seed)
	entries := projector.Project(*days, splitCSV(*channels), splitCSV(*topics), splitCSV(*contentTypes), "")

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintln(os.Stderr, "encode failed:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%-12s %-6s %-12s %-14s %-16s %s\n", "DATE", "TIME", "CHANNEL", "CONTENT TYPE", "TOPIC", "EST. REACH")
	for _, e := range entries {
		fmt.Printf("%-12s %-6s %-12s %-14s %-16s %d\n", e.Date, e.Time, e.Channel, e.ContentType, e.Topic, e.EstimatedReach)
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
