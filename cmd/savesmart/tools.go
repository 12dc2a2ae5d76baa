package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/dukerupert/savesmart/internal/catalog"
	"github.com/dukerupert/savesmart/internal/database"
	"github.com/dukerupert/savesmart/internal/logging"
	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/push"
	"github.com/dukerupert/savesmart/internal/shoppinglist"
	"github.com/dukerupert/savesmart/internal/store"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Action: func(c *cli.Context) error {
			db, err := database.Open(c.String("db-path"))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			v, err := database.Version(db)
			if err != nil {
				return err
			}
			fmt.Printf("schema at version %d\n", v)
			return nil
		},
	}
}

func vapidKeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "vapid-keys",
		Usage: "Generate a VAPID key pair for web push",
		Action: func(c *cli.Context) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Printf("SAVESMART_VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Printf("SAVESMART_VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	}
}

func itemCommand() *cli.Command {
	return &cli.Command{
		Name:  "item",
		Usage: "Manage the item catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a catalog item; the category is inferred from the name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "brand"},
					&cli.StringFlag{Name: "unit", Value: shoppinglist.DefaultUnit},
				},
				Action: runItemAdd,
			},
		},
	}
}

func runItemAdd(c *cli.Context) error {
	db, err := database.Open(c.String("db-path"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	name := strings.TrimSpace(c.String("name"))
	category := catalog.Categorize(name)
	item, err := store.NewItemStore(db).Create(c.Context, name, strings.TrimSpace(c.String("brand")), c.String("unit"), category)
	if err != nil {
		return err
	}
	fmt.Printf("added item %d: %s (%s)\n", item.ID, item.Name, item.Category)
	return nil
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Rank locations by the cost of a list of items",
		ArgsUsage: "ITEM_ID[:QUANTITY]...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json)"},
		},
		Action: runCompare,
	}
}

func runCompare(c *cli.Context) error {
	wanted, err := parseListArgs(c.Args().Slice())
	if err != nil {
		return err
	}

	db, err := database.Open(c.String("db-path"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	entries, err := describeEntries(c.Context, store.NewItemStore(db), wanted)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, c.String("log-level"), c.String("log-format"))
	result := pricing.NewComparer(store.NewPriceStore(db), logger).Compare(c.Context, entries)

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printComparison(os.Stdout, result)
}

type itemGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Item, error)
}

// describeEntries fills in item details the way the shopping list does when
// an item is added.
func describeEntries(ctx context.Context, items itemGetter, wanted []model.ShoppingListEntry) ([]model.ShoppingListEntry, error) {
	entries := make([]model.ShoppingListEntry, 0, len(wanted))
	for _, w := range wanted {
		item, err := items.GetByID(ctx, w.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("unknown item %d", w.ItemID)
		}
		w.ItemName = item.Name
		w.ItemBrand = item.Brand
		w.Unit = item.Unit
		if w.Unit == "" {
			w.Unit = shoppinglist.DefaultUnit
		}
		entries = append(entries, w)
	}
	return entries, nil
}

// parseListArgs reads "id" or "id:quantity" arguments into list entries.
// Repeated ids are merged by summing their quantities.
func parseListArgs(args []string) ([]model.ShoppingListEntry, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one item id is required")
	}
	entries := make([]model.ShoppingListEntry, 0, len(args))
	for _, arg := range args {
		idPart, qtyPart, hasQty := strings.Cut(arg, ":")
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", idPart)
		}
		qty := 1
		if hasQty {
			qty, err = strconv.Atoi(qtyPart)
			if err != nil || qty < 1 {
				return nil, fmt.Errorf("invalid quantity %q for item %d", qtyPart, id)
			}
		}
		entries = append(entries, model.ShoppingListEntry{ItemID: id, Quantity: qty})
	}
	return pricing.MergeEntries(entries), nil
}

func printComparison(w io.Writer, result pricing.Comparison) error {
	if result.Error != "" {
		_, err := fmt.Fprintf(w, "comparison failed: %s\n", result.Error)
		return err
	}
	fmt.Fprintf(w, "%d of %d items priced (%d%% coverage)\n", result.ItemsWithPrices, result.TotalItems, result.CoveragePercent)
	if !result.HasEnoughData {
		fmt.Fprintln(w, "not enough price data for a recommendation")
	}
	if len(result.Locations) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tLOCATION\tCITY\tITEMS\tTOTAL (RM)")
	for i, loc := range result.Locations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i+1, loc.Location.Name, loc.Location.City, loc.ItemCount, loc.Total.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if best := result.Cheapest(); best != nil && len(best.Items) > 0 {
		fmt.Fprintf(w, "\nCheapest: %s\n", best.Location.Name)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, line := range best.Items {
			fmt.Fprintf(tw, "  %s\t%d %s\t%s\t%s\n", line.ItemName, line.Quantity, line.Unit, line.UnitPrice.StringFixed(2), line.LineTotal.StringFixed(2))
		}
		return tw.Flush()
	}
	return nil
}
