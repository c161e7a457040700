// Command validate checks a published snapshot: the Parquet file and the
// SQLite mirror must both satisfy the cleaned-table invariants and hold the
// same rows.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -snapshot data/processed/cleaned.parquet \
//	  -mirror data/projects.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/parquet"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/sqlite"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// maxErrors caps the per-phase detail printed.
const maxErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "data/processed/cleaned.parquet", "path to the Parquet snapshot")
	mirrorPath := flag.String("mirror", "data/projects.db", "path to the SQLite mirror")
	flag.Parse()

	if *snapshotPath == "" || *mirrorPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshotPath, *mirrorPath); code != 0 {
		os.Exit(code)
	}
}

func run(snapshotPath, mirrorPath string) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Println("=== Hydrogen Snapshot Validation ===")
	fmt.Println()

	snapshot, err := parquet.Read(ctx, snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}

	mirror, err := sqlite.OpenExisting(mirrorPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open mirror: %v\n", err)
		return 1
	}
	defer mirror.Close()

	mirrored, err := mirror.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load mirror: %v\n", err)
		return 1
	}
	indexes, err := mirror.Indexes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list mirror indexes: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTable("Snapshot invariants", snapshot),
		validateTable("Mirror invariants", mirrored),
		validateIndexes(indexes),
		validateParity(snapshot, mirrored),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d snapshot, %d mirror; columns: %d\n",
		snapshot.Len(), mirrored.Len(), len(snapshot.Columns))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("All checks passed.")
	return 0
}

// validateTable checks column naming and project_id uniqueness.
func validateTable(name string, t domain.Table) *phase {
	p := &phase{name: name}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" || domain.IsPlaceholder(c.Name) {
			p.errorf("column %q is blank or a placeholder", c.Name)
		}
		if seen[c.Name] {
			p.errorf("column %q appears twice", c.Name)
		}
		seen[c.Name] = true
	}
	for _, f := range domain.RequiredFields {
		if !seen[f] {
			p.errorf("required column %q missing", f)
		}
	}

	idCol := t.ColumnIndex(domain.FieldProjectID)
	if idCol < 0 {
		return p
	}
	ids := make(map[string]int, t.Len())
	for i, row := range t.Rows {
		c := row[idCol]
		if !c.Valid || c.Text == "" {
			p.errorf("row %d: empty project_id", i)
			continue
		}
		if first, dup := ids[c.Text]; dup {
			p.errorf("row %d: project_id %q duplicates row %d", i, c.Text, first)
			continue
		}
		ids[c.Text] = i
	}
	return p
}

func validateIndexes(indexes []string) *phase {
	p := &phase{name: "Mirror indexes"}
	for _, f := range []string{domain.FieldProjectID, domain.FieldProjectName, domain.FieldCountry} {
		want := "idx_" + sqlite.TableName + "_" + f
		if !slices.Contains(indexes, want) {
			p.errorf("index %s missing", want)
		}
	}
	return p
}

func validateParity(snapshot, mirrored domain.Table) *phase {
	p := &phase{name: "Snapshot/mirror parity"}
	if diff := cmp.Diff(snapshot.Columns, mirrored.Columns); diff != "" {
		p.errorf("columns differ (-snapshot +mirror):\n%s", diff)
	}
	if snapshot.Len() != mirrored.Len() {
		p.errorf("row count: snapshot %d, mirror %d", snapshot.Len(), mirrored.Len())
		return p
	}
	for i := range snapshot.Rows {
		if diff := cmp.Diff(snapshot.Rows[i], mirrored.Rows[i], cmpopts.EquateEmpty()); diff != "" {
			p.errorf("row %d differs (-snapshot +mirror):\n%s", i, diff)
		}
	}
	return p
}
