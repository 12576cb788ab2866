// Package detector decides whether a workshop item changed since the checkpoint.
package detector

import "github.com/tacogips/addonsync/internal/model"

// Classify compares an item's last-updated time with the checkpoint.
// Items without a time are Unknown and are never queued for download.
func Classify(item model.ItemMetadata, checkpoint int64) model.Classification {
	switch {
	case !item.HasTimeUpdated():
		return model.Unknown
	case *item.TimeUpdated > checkpoint:
		return model.Outdated
	default:
		return model.Current
	}
}

// Tally counts classifications over a run.
type Tally struct {
	Outdated int
	Current  int
	Unknown  int
}

// Add records one classification.
func (t *Tally) Add(c model.Classification) {
	switch c {
	case model.Outdated:
		t.Outdated++
	case model.Current:
		t.Current++
	case model.Unknown:
		t.Unknown++
	}
}

// Total returns the number of classified items.
func (t Tally) Total() int {
	return t.Outdated + t.Current + t.Unknown
}
