package satd

import (
	"sort"
	"time"

	"github.com/panbanda/chronicle/pkg/models"
)

const day = 24 * time.Hour

// FindStale reports dated TODOs at least staleDays old in files that have
// not changed for at least staleDays. Time is measured against the newest
// commit in history, so the result depends only on its inputs. A file's last
// change is the later of its newest commit and the TODO's own blame date.
// staleDays <= 0 means DefaultStaleDays.
func FindStale(inventory map[string][]models.TodoItem, commits []models.Commit, staleDays int) []StaleTodo {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	stale := []StaleTodo{}
	if len(inventory) == 0 || len(commits) == 0 {
		return stale
	}

	var reference time.Time
	lastTouched := make(map[string]time.Time)
	for _, c := range commits {
		if c.Timestamp.After(reference) {
			reference = c.Timestamp
		}
		for _, f := range c.Files {
			if c.Timestamp.After(lastTouched[f]) {
				lastTouched[f] = c.Timestamp
			}
		}
	}
	if reference.IsZero() {
		return stale
	}

	for file, items := range inventory {
		for _, item := range items {
			if item.Date == nil {
				continue
			}
			changed := lastTouched[file]
			if item.Date.After(changed) {
				changed = *item.Date
			}
			age := daysBetween(*item.Date, reference)
			idle := daysBetween(changed, reference)
			if age < staleDays || idle < staleDays {
				continue
			}
			stale = append(stale, StaleTodo{
				File:                file,
				Line:                item.Line,
				Marker:              item.Marker,
				Text:                item.Text,
				Author:              item.Author,
				Date:                item.Date.UTC(),
				AgeDays:             age,
				FileLastChanged:     changed.UTC(),
				DaysSinceFileChange: idle,
			})
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		if stale[i].AgeDays != stale[j].AgeDays {
			return stale[i].AgeDays > stale[j].AgeDays
		}
		if stale[i].File != stale[j].File {
			return stale[i].File < stale[j].File
		}
		return stale[i].Line < stale[j].Line
	})
	return stale
}

func daysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / day)
}

func sortByPosition(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].File != items[j].File {
			return items[i].File < items[j].File
		}
		return items[i].Line < items[j].Line
	})
}
