package conflict

import "testing"

func quality(overall float64) QualityScore {
	return QualityScore{Overall: overall}
}

func TestDecideAutomatic(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	if got := p.Decide(quality(0.9), quality(0.6), 0.95); got != StrategyAutomatic {
		t.Fatalf("high similarity with clear winner should auto-resolve, got %s", got)
	}
}

func TestDecideMerge(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	if got := p.Decide(quality(0.8), quality(0.75), 0.85); got != StrategyMerge {
		t.Fatalf("near-identical quality should merge, got %s", got)
	}
}

func TestDecideManual(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())

	if got := p.Decide(quality(0.9), quality(0.6), 0.5); got != StrategyManual {
		t.Fatalf("low similarity should defer to a human, got %s", got)
	}
	// High similarity but ambiguous quality gap: neither rule fires.
	if got := p.Decide(quality(0.8), quality(0.65), 0.95); got != StrategyManual {
		t.Fatalf("ambiguous quality gap should defer to a human, got %s", got)
	}
}

func TestDecideBoundaries(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())

	// Exactly at the auto threshold with a gap over the floor.
	if got := p.Decide(quality(0.95), quality(0.7), 0.9); got != StrategyAutomatic {
		t.Fatalf("similarity at threshold should qualify, got %s", got)
	}
	// A gap within the floor is not "clearly better": falls through to manual
	// because the quality difference is also too large to merge.
	if got := p.Decide(quality(0.85), quality(0.7), 0.95); got != StrategyManual {
		t.Fatalf("expected manual inside the gap floor, got %s", got)
	}
}

func TestDecideLocalDisabled(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	got := p.DecideLocal(quality(0.9), quality(0.5), 0.99, LocalOptions{AutoResolve: false})
	if got != StrategySkip {
		t.Fatalf("disabled auto-resolve must always skip, got %s", got)
	}
}

func TestDecideLocalMergeDuplicates(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	got := p.DecideLocal(quality(0.8), quality(0.8), 0.85, LocalOptions{
		AutoResolve:     true,
		MergeDuplicates: true,
	})
	if got != StrategyMerge {
		t.Fatalf("merge option with qualifying similarity should merge, got %s", got)
	}
}

func TestDecideLocalPreferNewer(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	got := p.DecideLocal(quality(0.8), quality(0.8), 0.85, LocalOptions{
		AutoResolve:     true,
		PreferNewerData: true,
	})
	if got != StrategyAutomatic {
		t.Fatalf("prefer-newer option should resolve automatically, got %s", got)
	}
}

func TestDecideLocalFallsBackToQualityRules(t *testing.T) {
	p := NewPolicy(DefaultPolicyThresholds())
	got := p.DecideLocal(quality(0.9), quality(0.6), 0.95, LocalOptions{AutoResolve: true})
	if got != StrategyAutomatic {
		t.Fatalf("expected fallback to batch rules, got %s", got)
	}
}
