package contracts

import "testing"

func TestCompositeCategoriesExcludeSentiment(t *testing.T) {
	for _, cat := range CompositeCategories() {
		if cat == CategorySentiment {
			t.Fatal("sentiment must not be composite-eligible")
		}
	}

	if len(CompositeCategories()) != 6 {
		t.Errorf("expected 6 composite categories, got %d", len(CompositeCategories()))
	}
	if len(AllCategories()) != 7 {
		t.Errorf("expected 7 scored categories, got %d", len(AllCategories()))
	}
}

func TestEveryCategoryHasMetrics(t *testing.T) {
	for _, cat := range AllCategories() {
		if len(MetricsFor(cat)) == 0 {
			t.Errorf("category %s has no registered metrics", cat)
		}
	}
}

func TestRegistryHasNoDuplicates(t *testing.T) {
	seen := make(map[MetricName]bool)
	for _, def := range AllMetrics() {
		if seen[def.Name] {
			t.Errorf("metric %s registered twice", def.Name)
		}
		seen[def.Name] = true
	}
}

func TestRawMetricBag(t *testing.T) {
	bag := NewRawMetricBag("AAPL")

	if bag.Len() != 0 {
		t.Fatalf("new bag should be empty, got %d", bag.Len())
	}
	if _, ok := bag.Get(MetricReturn1M); ok {
		t.Fatal("missing metric reported as present")
	}

	bag.Set(MetricReturn1M, 0.042)

	v, ok := bag.Get(MetricReturn1M)
	if !ok || v != 0.042 {
		t.Fatalf("got (%v, %v), want (0.042, true)", v, ok)
	}
	if bag.Len() != 1 {
		t.Errorf("expected 1 metric, got %d", bag.Len())
	}
}

func TestBagCompleteness(t *testing.T) {
	bag := NewRawMetricBag("AAPL")
	if bag.Completeness() != 0 {
		t.Errorf("empty bag completeness = %v, want 0", bag.Completeness())
	}

	for _, def := range AllMetrics() {
		bag.Set(def.Name, 1.0)
	}
	if bag.Completeness() != 1.0 {
		t.Errorf("full bag completeness = %v, want 1.0", bag.Completeness())
	}
}
