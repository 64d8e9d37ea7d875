package queue

import "testing"

func TestTransitionsChain(t *testing.T) {
	chain := Transitions()
	if len(chain) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(chain))
	}
	if chain[0].Start != StatusPending || chain[len(chain)-1].Done != StatusCompleted {
		t.Fatalf("unexpected chain ends: %+v", chain)
	}
	for i := 1; i < len(chain); i++ {
		if chain[i].Start != chain[i-1].Done {
			t.Fatalf("transition %d starts at %s but previous ends at %s", i, chain[i].Start, chain[i-1].Done)
		}
	}
	for _, tr := range chain {
		if !IsProcessingStatus(tr.Processing) || IsProcessingStatus(tr.Start) {
			t.Fatalf("processing classification wrong for %+v", tr)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Rendering "); !ok || status != StatusRendering {
		t.Fatalf("ParseStatus = %q %v", status, ok)
	}
	if _, ok := ParseStatus("encoding"); ok {
		t.Fatal("expected unknown status")
	}
}

func TestFlagReviewAppendsDistinctReasons(t *testing.T) {
	var item Item
	item.FlagReview("no videos produced")
	item.FlagReview("no videos produced")
	item.FlagReview("mobile channel missing")
	if !item.NeedsReview {
		t.Fatal("expected review flag")
	}
	if item.ReviewReason != "no videos produced; mobile channel missing" {
		t.Fatalf("unexpected reason: %q", item.ReviewReason)
	}
}

func TestMakePlaceholders(t *testing.T) {
	if got := makePlaceholders(3); got != "?,?,?" {
		t.Fatalf("makePlaceholders(3) = %q", got)
	}
	if got := makePlaceholders(0); got != "" {
		t.Fatalf("makePlaceholders(0) = %q", got)
	}
}
