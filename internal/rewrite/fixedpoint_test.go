package rewrite

import (
	"context"
	"sync"
	"testing"

	"github.com/kolkov/fieldwatch/internal/catalog"
	"github.com/kolkov/fieldwatch/internal/watchconfig"
)

func TestRunFixedPointProcessesQueuedNestmatesUntilDry(t *testing.T) {
	cat := catalog.New()
	cat.AddNestmate("PremiumCart")
	cat.AddNestmate("GiftCart")

	sources := map[string]string{
		"PremiumCart": `package cart

func (p *PremiumCart) Apply(items *Items) {
	p.Items = items
}
`,
		"GiftCart": `package cart

func (g *GiftCart) Apply(items *Items) {
	g.Items = items
}
`,
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	resolve := func(className string) (string, any, bool) {
		mu.Lock()
		seen[className]++
		mu.Unlock()
		src, ok := sources[className]
		if !ok {
			return "", nil, false
		}
		return className + ".go", src, true
	}

	cfg := cfgWithField("PremiumCart", "Items", false)
	cfg.Fields = append(cfg.Fields, watchconfig.Field{Class: "GiftCart", Field: "Items"})

	results, err := RunFixedPoint(context.Background(), cat, cfg, resolve)
	if err != nil {
		t.Fatalf("RunFixedPoint: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for class, count := range seen {
		if count != 1 {
			t.Fatalf("resolve called %d times for %s, want 1", count, class)
		}
	}
	for filename, result := range results {
		if result.Stats.FieldWritesInstrumented != 1 {
			t.Fatalf("%s: FieldWritesInstrumented = %d, want 1", filename, result.Stats.FieldWritesInstrumented)
		}
	}

	if more, err := RunFixedPoint(context.Background(), cat, cfg, resolve); err != nil || len(more) != 0 {
		t.Fatalf("second RunFixedPoint call = (%+v, %v), want (empty, nil) once the queue is dry", more, err)
	}
}

func TestRunFixedPointSkipsUnresolvableClasses(t *testing.T) {
	cat := catalog.New()
	cat.AddNestmate("FromAnotherModule")

	resolve := func(className string) (string, any, bool) { return "", nil, false }

	results, err := RunFixedPoint(context.Background(), cat, cfgWithField("X", "Y", false), resolve)
	if err != nil {
		t.Fatalf("RunFixedPoint: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}
