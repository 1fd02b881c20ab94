// Command saves lists, inspects and deletes marketsim save slots.
//
// Usage:
//
//	saves [-config file] [-db path] list
//	saves [-config file] [-db path] show <slot>
//	saves [-config file] [-db path] delete <slot>
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/economy"
	"github.com/talgya/mini-market/internal/kv"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/persistence"
	"github.com/talgya/mini-market/internal/quest"
)

func main() {
	configPath := flag.String("config", "", "YAML config file for good names (defaults when empty)")
	dbPath := flag.String("db", "", "save database (config save.path when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *dbPath == "" {
		*dbPath = cfg.Save.Path
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	db, err := persistence.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	args := flag.Args()
	cmd := "list"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "list":
		err = list(db)
	case "show", "delete":
		if len(args) < 2 {
			err = fmt.Errorf("%s needs a slot name", cmd)
			break
		}
		if cmd == "show" {
			err = show(db, catalog, args[1])
		} else if err = db.DeleteSlot(args[1]); err == nil {
			fmt.Printf("Deleted %q\n", args[1])
		}
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if errors.Is(err, persistence.ErrNoSave) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func list(db *persistence.DB) error {
	slots, err := db.ListSlots()
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Println("No saves.")
		return nil
	}
	last, _ := db.GetMeta("last_slot")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tGOLD\tPOSITION\tCITIES\tSAVED\t")
	for _, s := range slots {
		name := s.Name
		if name == last {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t(%.2f, %.2f)\t%d\t%s\t\n",
			name, humanize.Comma(int64(s.Gold)), s.WorldX, s.WorldY, s.Cities, humanize.Time(s.Time()))
	}
	return w.Flush()
}

func show(db *persistence.DB, catalog *economy.Catalog, slot string) error {
	sum, err := db.Summary(slot)
	if err != nil {
		return err
	}
	state, err := db.State(slot)
	if err != nil {
		return err
	}

	fmt.Println(sum.String())
	fmt.Printf("Session: %s\nSaved: %s\n", sum.SessionID, humanize.Time(sum.Time()))

	s := kv.Map(state)
	if cargo, ok := s.Ints("playerCargo"); ok {
		fmt.Printf("Cargo: %v\n", cargo)
	}
	if list, ok := state["activeQuests"].([]any); ok {
		quests := quest.LogFromList(list)
		fmt.Printf("Quests: %d active\n", quests.Len())
		for _, q := range quests.Active() {
			fmt.Println("  " + q.Mission(catalog.NameOf(q.Good)))
		}
	}

	economies, _ := state["CityEconomies"].(map[string]any)
	names := make([]string, 0, len(economies))
	for name := range economies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw, _ := economies[name].(map[string]any)
		m := market.FromSnapshot(raw)
		fmt.Printf("\n%s (%s)\n", name, m.Model())
		quotes, _ := json.Marshal(m.Prices())
		fmt.Printf("  quotes: %s\n", quotes)
	}
	return nil
}
