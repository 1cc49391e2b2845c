package watchconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kolkov/fieldwatch/internal/agent"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Fields) != 0 {
		t.Fatalf("Fields = %+v, want none", cfg.Fields)
	}
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".fieldwatch.yaml")
	contents := `
fields:
  - class: Cart
    field: Items
    type: "*container.List[string]"
    capture_stack: true
  - class: Cart
    field: Coupons
    type: "*container.Set[string]"
    seeds: ["PremiumCart"]
    enabled: false
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(cfg.Fields))
	}

	items := cfg.Fields[0]
	if items.Class != "Cart" || items.Field != "Items" || !items.CaptureStack {
		t.Fatalf("Fields[0] = %+v", items)
	}
	if !items.enabled() {
		t.Fatalf("Fields[0].enabled() = false, want true (default)")
	}

	coupons := cfg.Fields[1]
	if len(coupons.Seeds) != 1 || coupons.Seeds[0] != "PremiumCart" {
		t.Fatalf("Fields[1].Seeds = %v", coupons.Seeds)
	}
	if coupons.enabled() {
		t.Fatalf("Fields[1].enabled() = true, want false (explicit)")
	}

	if !cfg.ShouldCaptureStack("Cart", "Items") {
		t.Fatalf("ShouldCaptureStack(Cart, Items) = false, want true")
	}
	if cfg.ShouldCaptureStack("Cart", "Coupons") {
		t.Fatalf("ShouldCaptureStack(Cart, Coupons) = true, want false")
	}
	if cfg.ShouldCaptureStack("Cart", "Unknown") {
		t.Fatalf("ShouldCaptureStack for unknown field = true, want false")
	}
}

func TestApplyRegistersAndRespectsEnabled(t *testing.T) {
	cfg := &Config{
		Fields: []Field{
			{Class: "Cart", Field: "Items", Type: "*container.List[string]"},
			{Class: "Cart", Field: "Archived", Type: "*container.List[string]", Enabled: boolPtr(false)},
		},
	}

	rt := agent.New(nil)
	cfg.Apply(rt)

	if !rt.Store.FieldEnabled("Cart", "Items") {
		t.Fatalf("FieldEnabled(Cart, Items) = false, want true")
	}
	if rt.Store.FieldEnabled("Cart", "Archived") {
		t.Fatalf("FieldEnabled(Cart, Archived) = true, want false")
	}
	if _, ok := rt.Catalog.LookupOwner("Cart", "Archived"); !ok {
		t.Fatalf("LookupOwner(Cart, Archived) not found, want registered even though disabled")
	}
}

func boolPtr(b bool) *bool { return &b }
