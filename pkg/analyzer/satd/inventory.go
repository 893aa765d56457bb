package satd

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/models"
)

// Inventory scans a tree for markers and dates them by blame. It satisfies
// analyzer.TodoReader.
type Inventory struct {
	analyzer *Analyzer
	src      FileSource
	blamer   Blamer
	filter   func(path string) bool
	logger   logrus.FieldLogger
}

// InventoryOption configures an Inventory.
type InventoryOption func(*Inventory)

// WithAnalyzer replaces the default marker analyzer.
func WithAnalyzer(a *Analyzer) InventoryOption {
	return func(inv *Inventory) {
		if a != nil {
			inv.analyzer = a
		}
	}
}

// WithBlamer dates items by line blame. Without one, items are undated.
func WithBlamer(b Blamer) InventoryOption {
	return func(inv *Inventory) {
		inv.blamer = b
	}
}

// WithExclude drops files for which exclude returns true.
func WithExclude(exclude func(path string) bool) InventoryOption {
	return func(inv *Inventory) {
		inv.filter = exclude
	}
}

// WithInventoryLogger sets the logger.
func WithInventoryLogger(l logrus.FieldLogger) InventoryOption {
	return func(inv *Inventory) {
		inv.logger = logging.OrDiscard(l)
	}
}

// NewInventory creates an Inventory over src.
func NewInventory(src FileSource, opts ...InventoryOption) *Inventory {
	inv := &Inventory{
		analyzer: New(),
		src:      src,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Scan analyzes the tree and attaches blame author and date to each item.
// A file whose blame fails keeps its items undated.
func (inv *Inventory) Scan(ctx context.Context) (*Analysis, error) {
	src := inv.src
	if inv.filter != nil {
		src = filteredSource{FileSource: inv.src, exclude: inv.filter}
	}
	analysis, err := inv.analyzer.Analyze(ctx, src)
	if err != nil {
		return nil, err
	}
	if inv.blamer == nil || len(analysis.Items) == 0 {
		return analysis, nil
	}

	byFile := make(map[string][]int)
	var order []string
	for i, item := range analysis.Items {
		if _, ok := byFile[item.File]; !ok {
			order = append(order, item.File)
		}
		byFile[item.File] = append(byFile[item.File], i)
	}

	for _, path := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := inv.blamer.BlameLines(ctx, path)
		if err != nil {
			inv.logger.WithError(err).WithField("file", path).Warn("blame failed, todos left undated")
			continue
		}
		for _, idx := range byFile[path] {
			item := &analysis.Items[idx]
			if item.Line < 1 || item.Line > len(lines) {
				continue
			}
			origin := lines[item.Line-1]
			if origin.Date.IsZero() {
				continue
			}
			date := origin.Date.UTC()
			item.Author = origin.Author
			item.Date = &date
		}
	}

	analysis.Finalize()
	return analysis, nil
}

// ReadTodoInventory returns the dated inventory keyed by file path, each
// file's items in line order.
func (inv *Inventory) ReadTodoInventory(ctx context.Context) (map[string][]models.TodoItem, error) {
	analysis, err := inv.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return ToTodoItems(analysis.Items), nil
}

// ToTodoItems groups items by file, in line order.
func ToTodoItems(items []Item) map[string][]models.TodoItem {
	sorted := append([]Item(nil), items...)
	sortByPosition(sorted)

	out := make(map[string][]models.TodoItem)
	for _, item := range sorted {
		out[item.File] = append(out[item.File], models.TodoItem{
			File:   item.File,
			Line:   item.Line,
			Marker: item.Marker,
			Text:   item.Description,
			Author: item.Author,
			Date:   item.Date,
		})
	}
	return out
}

type filteredSource struct {
	FileSource
	exclude func(string) bool
}

func (f filteredSource) Files(ctx context.Context) ([]string, error) {
	files, err := f.FileSource.Files(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(files))
	for _, path := range files {
		if !f.exclude(path) {
			kept = append(kept, path)
		}
	}
	return kept, nil
}
