package ledger

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyLedgerPackageImportsInfra ensures that only the top-level ledger
// package wraps the infra-backed implementations. Other packages must depend
// on the ledger.Ledger interface instead of importing infra packages directly.
func TestOnlyLedgerPackageImportsInfra(t *testing.T) {
	infraPrefix := "chemstock/internal/infra/ledger"
	allowedPrefix := "chemstock/internal/ledger"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "chemstock/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) {
			continue
		}
		if strings.HasPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == infraPrefix || strings.HasPrefix(importPath, infraPrefix+"/") {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of infra ledger package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of infra ledger packages", len(violations))
	}
}
