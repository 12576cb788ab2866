package detector

import (
	"testing"

	"github.com/tacogips/addonsync/internal/model"
)

func TestClassify(t *testing.T) {
	ts := func(v int64) *int64 { return &v }

	tests := []struct {
		name       string
		updated    *int64
		checkpoint int64
		want       model.Classification
	}{
		{name: "newer than checkpoint", updated: ts(1800000000), checkpoint: 1700000000, want: model.Outdated},
		{name: "equal to checkpoint", updated: ts(1700000000), checkpoint: 1700000000, want: model.Current},
		{name: "older than checkpoint", updated: ts(1600000000), checkpoint: 1700000000, want: model.Current},
		{name: "one second newer", updated: ts(1700000001), checkpoint: 1700000000, want: model.Outdated},
		{name: "zero checkpoint", updated: ts(1), checkpoint: 0, want: model.Outdated},
		{name: "absent time", updated: nil, checkpoint: 1700000000, want: model.Unknown},
		{name: "absent time with zero checkpoint", updated: nil, checkpoint: 0, want: model.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := model.ItemMetadata{ID: "1", Title: "x", TimeUpdated: tt.updated}
			if got := Classify(item, tt.checkpoint); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTally(t *testing.T) {
	var tally Tally
	for _, c := range []model.Classification{model.Outdated, model.Current, model.Current, model.Unknown} {
		tally.Add(c)
	}

	if tally.Outdated != 1 || tally.Current != 2 || tally.Unknown != 1 {
		t.Errorf("Tally = %+v, want {1 2 1}", tally)
	}
	if tally.Total() != 4 {
		t.Errorf("Total() = %d, want 4", tally.Total())
	}
}
