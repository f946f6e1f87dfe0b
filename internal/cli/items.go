package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/focal-dev/focal/internal/config"
	"github.com/focal-dev/focal/internal/engine"
	"github.com/focal-dev/focal/internal/store"
)

var (
	flagPlace  string
	flagDevice string
	flagAll    bool
	flagPinFor time.Duration
	flagHours  float64
)

func init() {
	for _, cmd := range []*cobra.Command{focusCmd, listCmd} {
		cmd.Flags().BoolVar(&flagAll, "all", false, "include everything, not just the visible or live set")
	}
	pinCmd.Flags().DurationVar(&flagPinFor, "for", 0, "pin duration (e.g. 48h); zero pins permanently")
	quietCmd.Flags().Float64Var(&flagHours, "hours", 24, "how long to quiet the item")
	rootCmd.PersistentFlags().StringVar(&flagPlace, "place", "", "current place (e.g. work, home)")
	rootCmd.PersistentFlags().StringVar(&flagDevice, "device", "", "current device (defaults to hostname)")
}

func openDB() (*store.DB, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	path := cfg.Database.Path
	if path == "" {
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}

// localContext assembles the scoring context for a CLI invocation. This is
// the boundary where the wall clock enters; the engine only ever sees the
// snapshot.
func localContext() engine.Context {
	device := flagDevice
	if device == "" {
		if host, err := os.Hostname(); err == nil {
			device = host
		}
	}
	return engine.NewContext(time.Now().UTC(), flagPlace, device)
}

// findItem resolves an ID or unique ID prefix to an item.
func findItem(db *store.DB, ref string) (*engine.Item, error) {
	item, err := db.GetItem(ref)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	items, err := db.ListItems()
	if err != nil {
		return nil, err
	}
	var match *engine.Item
	for i := range items {
		if strings.HasPrefix(items[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous id prefix %q", ref)
			}
			match = &items[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no item matching %q", ref)
	}
	return match, nil
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an item to the backlog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := db.CreateItem(strings.Join(args, " "), time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("added %s  %s\n", shortID(item.ID), item.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the whole backlog with lifecycle states",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListItems()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, item := range items {
			state := engine.Classify(item, now)
			if state == engine.StateArchived && !flagAll {
				continue
			}
			fmt.Printf("%s  %-9s %-40s added %s\n",
				shortID(item.ID), state, item.Title, humanize.Time(item.CreatedAt))
		}
		return nil
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Show the few things worth attention right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListItems()
		if err != nil {
			return err
		}

		cfg, err := config.Load(config.DefaultPath())
		if err != nil {
			return err
		}

		res := engine.Rank(items, localContext(), cfg.Ranking.MaxVisible)
		show := res.Visible
		if flagAll {
			show = res.All
		}

		for _, item := range show {
			fmt.Printf("%s  %.2f  %s\n", shortID(item.ID), item.Computed.Score, item.Title)
			if len(item.Computed.Reasons) > 0 {
				fmt.Printf("      %s\n", strings.Join(item.Computed.Reasons, ", "))
			}
		}
		return nil
	},
}

// eventCmd builds the seen/opened/dismissed commands; they differ only in
// the action they record.
func eventCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			item, err := findItem(db, args[0])
			if err != nil {
				return err
			}

			ctx := localContext()
			updated := engine.RecordInteraction(*item, engine.Action(action), ctx)
			if err := db.SaveItem(updated, ctx.Now); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", action, updated.Title)
			return nil
		},
	}
}

var pinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin an item to the top of the surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := findItem(db, args[0])
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var until *time.Time
		if flagPinFor > 0 {
			t := now.Add(flagPinFor)
			until = &t
		}

		updated := engine.Pin(*item, until)
		if err := db.SaveItem(updated, now); err != nil {
			return err
		}
		if until != nil {
			fmt.Printf("pinned %s until %s\n", updated.Title, humanize.Time(*until))
		} else {
			fmt.Printf("pinned %s\n", updated.Title)
		}
		return nil
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Release a pinned item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := findItem(db, args[0])
		if err != nil {
			return err
		}

		updated := engine.Unpin(*item)
		if err := db.SaveItem(updated, time.Now().UTC()); err != nil {
			return err
		}
		fmt.Printf("unpinned %s\n", updated.Title)
		return nil
	},
}

var quietCmd = &cobra.Command{
	Use:   "quiet <id>",
	Short: "Suppress an item for a while",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := findItem(db, args[0])
		if err != nil {
			return err
		}

		ctx := localContext()
		updated := engine.Quiet(*item, flagHours, ctx)
		if err := db.SaveItem(updated, ctx.Now); err != nil {
			return err
		}
		fmt.Printf("quieted %s until %s\n", updated.Title, humanize.Time(*updated.Signals.QuietUntil))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an item from the backlog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		item, err := findItem(db, args[0])
		if err != nil {
			return err
		}

		if err := db.RemoveItem(item.ID, time.Now().UTC()); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", item.Title)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
