package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-publish/pkg/publish"
)

// batchManifest lists the units of one batch run:
//
//	[[items]]
//	type = "Story"
//	dir = "stories/007"
//	language = "French"
//	cefr = "A1"
//	topic = "Travel"
//	date = "2025-03-01"
type batchManifest struct {
	Items []manifestItem `toml:"items"`
}

type manifestItem struct {
	Type           string `toml:"type"`
	Dir            string `toml:"dir"`
	Language       string `toml:"language"`
	CEFR           string `toml:"cefr"`
	Topic          string `toml:"topic"`
	Date           string `toml:"date"`
	Pages          int    `toml:"pages"`
	SourceType     string `toml:"source_type"`
	Tier           string `toml:"tier"`
	Owner          string `toml:"owner"`
	SkipSynthesis  bool   `toml:"skip_synthesis"`
	RequirePreview bool   `toml:"require_preview"`
}

// loadManifest reads a batch manifest. Relative folders are resolved against
// the manifest's directory.
func loadManifest(path string) ([]publish.BatchItem, needs, error) {
	n := needs{store: true, repository: true}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, n, fmt.Errorf("read manifest: %w", err)
	}
	var m batchManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, n, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Items) == 0 {
		return nil, n, fmt.Errorf("manifest %s lists no items", path)
	}

	base := filepath.Dir(path)
	items := make([]publish.BatchItem, 0, len(m.Items))
	for i, it := range m.Items {
		dir := strings.TrimSpace(it.Dir)
		if dir == "" {
			return nil, n, fmt.Errorf("manifest item %d has no dir", i+1)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}

		// unknown types are reported per unit by the batch
		ct, err := publish.ParseContentType(it.Type)
		if err != nil {
			ct = publish.ContentType(strings.TrimSpace(it.Type))
		}
		switch {
		case ct == publish.ContentTypeAudiobook && !it.SkipSynthesis:
			n.synthesizer = true
		case ct == publish.ContentTypeFlashcardDeck && strings.TrimSpace(it.Owner) == "":
			n.deckOwner = true
		}

		items = append(items, publish.BatchItem{
			Type: ct,
			UnitRequest: publish.UnitRequest{
				Dir:      dir,
				Language: it.Language,
				Level:    it.CEFR,
				Topic:    it.Topic,
				Date:     it.Date,
				Pages:    it.Pages,
			},
			SourceType:     it.SourceType,
			Tier:           it.Tier,
			Owner:          it.Owner,
			SkipSynthesis:  it.SkipSynthesis,
			RequirePreview: it.RequirePreview,
		})
	}
	return items, n, nil
}

func newBatchCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <manifest.toml>",
		Short: "Publish every unit listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, n, err := loadManifest(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, release, err := c.openService(ctx, n)
			if err != nil {
				return err
			}
			defer release()

			var unlocks []func()
			defer func() {
				for _, unlock := range unlocks {
					unlock()
				}
			}()
			locked := make(map[string]bool, len(items))
			for _, item := range items {
				if locked[item.Dir] {
					continue
				}
				locked[item.Dir] = true
				unlock, err := lockFolder(item.Dir)
				if err != nil {
					return err
				}
				unlocks = append(unlocks, unlock)
			}

			results := svc.PublishBatch(ctx, items)
			fmt.Fprintln(cmd.OutOrStdout(), renderBatchSummary(results))

			if failed := publish.Failed(results); failed > 0 {
				return fmt.Errorf("%d of %d units failed", failed, len(results))
			}
			return nil
		},
	}
}

func renderBatchSummary(results []publish.BatchResult) string {
	headers := []string{"#", "Type", "Folder", "Status", "Detail"}
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		status, detail := "published", ""
		switch {
		case r.Err != nil:
			status, detail = "failed", r.Err.Error()
		case r.Item.Type == publish.ContentTypeFlashcardDeck:
			detail = fmt.Sprintf("deck %d, %d cards", r.Result.DeckID, r.Result.Cards)
		case !r.Result.Inserted:
			status, detail = "unchanged", fmt.Sprintf("%d objects, row exists", len(r.Result.Keys))
		default:
			detail = fmt.Sprintf("%d objects", len(r.Result.Keys))
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(r.Item.Type),
			filepath.Base(r.Item.Dir),
			status,
			detail,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft})
}
