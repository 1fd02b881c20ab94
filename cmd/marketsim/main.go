// Command marketsim runs the city markets headless: it loads the config,
// resumes or starts a save slot, advances the clock and saves on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/persistence"
	"github.com/talgya/mini-market/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	slot := flag.String("slot", "", "save slot (config save.slot when empty)")
	steps := flag.Int("steps", 0, "market steps to run headless; 0 runs in real time until interrupted")
	speed := flag.Float64("speed", 1, "real-time speed multiplier")
	reportEvery := flag.Int("report", 10, "market steps between price reports")
	fresh := flag.Bool("new", false, "start a new game even if the slot exists")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if *slot == "" {
		*slot = cfg.Save.Slot
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Save.Path); dir != "" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Save.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Save.Path)

	// ── World ─────────────────────────────────────────────────────────
	catalog, err := cfg.Catalog()
	if err != nil {
		slog.Error("bad goods catalog", "error", err)
		os.Exit(1)
	}
	for _, g := range catalog.Goods() {
		slog.Debug("good", "key", g.Key, "base_price", g.BasePrice, "stickiness", g.Stickiness)
	}
	atlas, err := world.FromConfig(cfg)
	if err != nil {
		slog.Error("bad city atlas", "error", err)
		os.Exit(1)
	}
	for _, c := range atlas.Cities() {
		slog.Info("city", "name", c.Name, "position", c.Position.String(), "model", c.Model)
	}

	// ── Session ───────────────────────────────────────────────────────
	sess := engine.NewSession(cfg, catalog, atlas)
	if !*fresh && db.HasSave(*slot) {
		if err := db.LoadGame(*slot, sess); err != nil {
			slog.Error("failed to load save", "slot", *slot, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Resuming %q at %s play time\n", *slot, engine.PlayTime(sess.Clock.Frame, cfg.Session.FrameRate))
		for _, m := range sess.Missions() {
			fmt.Println("  " + m)
		}
	} else {
		slog.Info("starting new game", "slot", *slot, "seed", cfg.Seed, "gold", sess.Gold)
	}

	clock := sess.Clock
	clock.Speed = *speed
	stepMarkets := clock.OnStep
	clock.OnStep = func(n uint64) {
		stepMarkets(n)
		if *reportEvery > 0 && n%uint64(*reportEvery) == 0 {
			report(sess, n)
		}
	}

	// ── Run ───────────────────────────────────────────────────────────
	if *steps > 0 {
		clock.Advance(*steps * int(clock.StepEvery))
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Println("Markets running... (Ctrl+C to stop)")
		clock.Run(ctx)
	}
	report(sess, clock.Steps())

	// Final save on shutdown.
	if err := db.SaveGame(*slot, sess); err != nil {
		slog.Error("final save failed", "error", err)
		os.Exit(1)
	}
	if err := db.SaveMeta("last_slot", *slot); err != nil {
		slog.Warn("could not record last slot", "error", err)
	}
	fmt.Printf("Saved %q: %s gold, %s market steps.\n",
		*slot, humanize.Comma(int64(sess.Gold)), humanize.Comma(int64(clock.Steps())))
}

func report(sess *engine.Session, step uint64) {
	cat := sess.Catalog()
	reg := sess.Registry()
	fmt.Printf("\n── step %s ──\n", humanize.Comma(int64(step)))
	for _, city := range reg.Names() {
		m, _ := reg.Get(city)
		var b strings.Builder
		for g, q := range m.Prices() {
			fmt.Fprintf(&b, "  %s %s/%s", cat.Good(g).Key,
				humanize.FormatFloat("#,###.##", q.Sell), humanize.FormatFloat("#,###.##", q.Buy))
			if h := reg.History(city); h != nil && h.Len() > 1 {
				fmt.Fprintf(&b, " (%+.2f)", h.Change(g))
			}
		}
		fmt.Printf("%-14s %-10s%s\n", city, m.Model(), b.String())
	}
}

func logLevel(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
