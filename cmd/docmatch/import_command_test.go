package main

import (
	"context"
	"path/filepath"
	"testing"

	"docmatch/internal/queue"
	"docmatch/internal/testsupport"
)

const importBundleYAML = `sets:
  - id: bundle-1
    vendor: Initech
    priority: high
    documents:
      - kind: invoice
        document_number: INV-9
        approved_for_match: true
        line_items_csv: lines.csv
      - kind: po
        document_number: PO-9
        approved_for_match: true
        line_items:
          - {sku: A, description: Stapler, quantity: 2, unit_price: 9.5}
      - kind: grn
        document_number: GRN-9
        approved_for_match: true
        line_items:
          - {sku: A, description: Stapler, quantity: 2, unit_price: 9.5}
`

func TestImportAndEvaluate(t *testing.T) {
	env := setupCLITestEnv(t)
	bundleDir := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(bundleDir, "bundle.yaml"), importBundleYAML)
	testsupport.WriteFile(t, filepath.Join(bundleDir, "lines.csv"), "sku,description,quantity,uom,unit_price,total_price\nA,Stapler,2,,9.5,\n")

	out, _, err := runCLI(t, []string{"import", filepath.Join(bundleDir, "bundle.yaml"), "--actor", "ops"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 1 document set(s): bundle-1")
	requireContains(t, out, "1 changed")

	stored, err := env.store.GetByID(context.Background(), "bundle-1")
	if err != nil || stored == nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Status != queue.StatusVerified {
		t.Fatalf("expected verified, got %s", stored.Status)
	}

	if _, _, err := runCLI(t, []string{"import", filepath.Join(bundleDir, "bundle.yaml")}, env.configPath); err == nil {
		t.Fatal("expected duplicate import to fail")
	}
}

func TestEvaluateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.MustInsert(t, env.store, testsupport.MatchedSet("ev-1"))

	out, _, err := runCLI(t, []string{"evaluate", "ev-1", "missing-1"}, env.configPath)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireContains(t, out, "Evaluated 1 of 2 set(s): 1 changed")
	requireContains(t, out, "Not found: missing-1")
	requireContains(t, out, "verified")
}
