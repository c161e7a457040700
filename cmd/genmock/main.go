// Command genmock writes a sample IEA hydrogen projects workbook for local
// runs of the ETL and dashboard. The output is deterministic for a given
// seed and includes the irregularities the cleaner must handle: blank and
// repeated identifiers, text dates, currency-formatted amounts and N/A cells.
//
// Usage:
//
//	go run ./cmd/genmock -out "data/raw/IEA Hydrogen Production Projects Database.xlsx" -rows 120
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/excel"
)

var (
	countries    = []string{"Germany", "France", "Spain", "Netherlands", "Chile", "Australia", "United States", "China", "Japan", "Oman"}
	statuses     = []string{"Concept", "Feasibility study", "FID", "Under construction", "Operational", "Decommissioned"}
	technologies = []string{"ALK", "PEM", "SOEC", "Other Electrolysis", "NG w CCUS", "Biomass"}
	products     = []string{"H2", "NH3", "MeOH", "Synfuels", "CH4"}
	prefixes     = []string{"Green", "Blue", "North", "Coastal", "Valley", "Harbour", "Desert", "Delta"}
	suffixes     = []string{"Hydrogen Hub", "H2 Plant", "Electrolyser", "Ammonia Project", "Energy Park"}
)

// header is the two-row IEA layout: a group row over field labels. The
// "Announced Size" column carries the investment amount.
func header() [2][]string {
	return [2][]string{
		{"Ref", "DATABASE", "", "", "", "", "", "", "", "Capacity", "", "", "IEA zero-carbon estimated normalized capacity"},
		{"", "Project name", "Country", "Date online", "Decomission date", "Status", "Technology", "Product", "Announced Size", "MWel", "Nm³ H₂/h", "kt H2/y", "Nm³ H₂/h"},
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated workbook")
	sheet := flag.String("sheet", "Projects", "sheet name")
	n := flag.Int("rows", 120, "number of project rows")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *n <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	rows := make([][]any, 0, *n)
	for i := range *n {
		rows = append(rows, row(rng, i))
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := excel.WriteWorkbook(*out, *sheet, header(), rows); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	log.Printf("wrote %d rows to %s (sheet %q)", len(rows), *out, *sheet)
	return nil
}

func row(rng *rand.Rand, i int) []any {
	var id any = fmt.Sprintf("%d", i+1)
	switch {
	case i%41 == 40:
		id = nil
	case i%37 == 36:
		id = fmt.Sprintf("%d", i-5)
	}

	r := []any{
		id,
		fmt.Sprintf("%s %s %d", pick(rng, prefixes), pick(rng, suffixes), i+1),
		pick(rng, countries),
		dateOnline(rng, i),
		nil,
		pick(rng, statuses),
		pick(rng, technologies),
		pick(rng, products),
		investment(rng, i),
		nil,
		nil,
		nil,
		nil,
	}

	if r[5] == "Decommissioned" {
		// Serial for a date in 2030..2040.
		r[4] = float64(47484 + rng.IntN(3650))
	}
	if mw := rng.Float64() * 500; rng.IntN(4) > 0 {
		r[9] = round(mw, 1)
		r[10] = round(mw*200, 0)
		r[11] = round(mw*0.15, 2)
		r[12] = round(mw*190, 0)
	}
	if i%13 == 0 {
		r[2] = "N/A"
	}
	return r
}

// dateOnline mixes Excel serials, ISO text and unparseable text.
func dateOnline(rng *rand.Rand, i int) any {
	switch i % 10 {
	case 3:
		return fmt.Sprintf("%d-%02d-01", 2022+rng.IntN(8), 1+rng.IntN(12))
	case 7:
		return "TBD"
	case 9:
		return nil
	default:
		// 2015-01-01 .. about 2031.
		return float64(42005 + rng.IntN(6000))
	}
}

func investment(rng *rand.Rand, i int) any {
	amount := 1_000_000 + rng.IntN(900_000_000)
	switch i % 6 {
	case 0:
		return float64(amount)
	case 1:
		return fmt.Sprintf("€%s", commas(amount))
	case 2:
		return fmt.Sprintf("%d", amount)
	default:
		return nil
	}
}

func commas(n int) string {
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func round(v float64, places int) float64 {
	p := 1.0
	for range places {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}
