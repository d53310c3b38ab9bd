package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/config"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/news"
	"github.com/kalambet/botanic/internal/viewer"
	"github.com/kalambet/botanic/internal/workflow"
)

// --- identify ---

var identifyCmd = &cobra.Command{
	Use:   "identify [image]",
	Short: "Identify a plant from a photo",
	Long: `Identify a plant from a photo and optionally save it to the collection.

Examples:
  botanic identify ./monstera.jpg
  botanic identify ./fern.png --save
  botanic identify --camera`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		camera, _ := cmd.Flags().GetBool("camera")
		save, _ := cmd.Flags().GetBool("save")
		discard, _ := cmd.Flags().GetBool("discard")

		if save && discard {
			return fmt.Errorf("--save and --discard are mutually exclusive")
		}
		if camera == (len(args) == 1) {
			return fmt.Errorf("give either an image path or --camera")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.pipeline()
		if err != nil {
			return err
		}

		kind, path := media.Gallery, ""
		if camera {
			kind = media.Camera
		} else {
			path = args[0]
		}

		out := cmd.OutOrStdout()
		decide := func(c collection.Candidate) bool {
			printPlant(out, "", c)
			switch {
			case save:
				return true
			case discard:
				return false
			default:
				return confirm(cmd.InOrStdin(), out, "Save this plant? [y/N] ")
			}
		}

		printStep("Identifying plant...")
		res, err := workflow.RunOnce(cmd.Context(), workflow.SessionDeps{
			Permissions: a.permissions(),
			Picker:      media.NewFilePicker(path, a.cfg.Media.CaptureCommand, a.cfg.Storage.DataDir),
			Store:       a.store,
			Pipeline:    p,
			Notifier:    workflow.NotifierFunc(printNotice),
		}, kind, decide)

		switch {
		case errors.Is(err, media.ErrCancelled):
			printWarning("No image selected")
			return nil
		case err != nil:
			return &reportedError{err: err}
		}

		if res.Saved != nil {
			fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "ID:"), res.Saved.ID)
		} else {
			printStep("Discarded")
		}
		return nil
	},
}

func init() {
	identifyCmd.Flags().Bool("camera", false, "capture a photo with media.capture_command instead of reading a file")
	identifyCmd.Flags().Bool("save", false, "save the result without asking")
	identifyCmd.Flags().Bool("discard", false, "discard the result without asking")
}

// --- plants ---

var plantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "List, show or delete saved plants",
}

var plantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plants",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v := viewer.New(a.store)
		if err := v.Refresh(cmd.Context()); err != nil {
			return err
		}
		plants := v.Plants()

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if plants == nil {
				plants = []collection.Plant{}
			}
			return enc.Encode(plants)
		}

		if len(plants) == 0 {
			fmt.Fprintln(out, "No saved plants.")
			return nil
		}
		for _, p := range plants {
			fmt.Fprintf(out, "%s  %s  %s\n",
				colorize(colorCyan, shortID(p.ID)),
				p.Name,
				colorize(colorBold, p.Family),
			)
		}
		return nil
	},
}

var plantsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved plant (an unambiguous id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v := viewer.New(a.store)
		p, err := selectPlant(cmd, v, args[0])
		if err != nil {
			return err
		}
		printPlant(cmd.OutOrStdout(), p.ID, candidateOf(p))
		return nil
	},
}

var plantsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved plant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v := viewer.New(a.store)
		p, err := selectPlant(cmd, v, args[0])
		if err != nil {
			return err
		}
		if err := v.Remove(cmd.Context(), p.ID); err != nil {
			return err
		}
		printSuccess("Deleted %s (%s)", p.Name, shortID(p.ID))
		return nil
	},
}

// selectPlant loads v and selects the record whose id equals or starts with ref.
func selectPlant(cmd *cobra.Command, v *viewer.Viewer, ref string) (collection.Plant, error) {
	if err := v.Load(cmd.Context()); err != nil {
		return collection.Plant{}, err
	}
	id, err := resolveID(v.Plants(), ref)
	if err != nil {
		return collection.Plant{}, err
	}
	v.Select(id)
	p, _ := v.Selected()
	return p, nil
}

func resolveID(plants []collection.Plant, ref string) (string, error) {
	var matches []string
	for _, p := range plants {
		if p.ID == ref {
			return p.ID, nil
		}
		if ref != "" && strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no plant with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d plants", ref, len(matches))
	}
}

func init() {
	plantsListCmd.Flags().Bool("json", false, "print the collection as JSON")
	plantsCmd.AddCommand(plantsListCmd)
	plantsCmd.AddCommand(plantsShowCmd)
	plantsCmd.AddCommand(plantsDeleteCmd)
}

// --- images ---

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Inspect selected images",
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every image URI that was selected for identification",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		uris, err := a.store.ListImageURIs(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(uris) == 0 {
			fmt.Fprintln(out, "No images selected yet.")
			return nil
		}
		for _, u := range uris {
			fmt.Fprintln(out, u)
		}
		return nil
	},
}

func init() {
	imagesCmd.AddCommand(imagesListCmd)
}

// --- news ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show recent gardening articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		items, err := news.NewFetcher(nil).Latest(cmd.Context(), cfg.News.Feeds, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No articles found.")
			return nil
		}
		for _, it := range items {
			date := ""
			if !it.Published.IsZero() {
				date = it.Published.Format(time.DateOnly) + "  "
			}
			fmt.Fprintf(out, "\n%s%s\n", date, colorize(colorBold, it.Title))
			if it.Link != "" {
				fmt.Fprintf(out, "  %s\n", colorize(colorCyan, it.Link))
			}
			fmt.Fprintf(out, "  %s\n", truncate(it.Summary(), 200))
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of articles (0 for all)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		if err := cfg.RequirePlantNetKey(); err != nil {
			printWarning("%v", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
