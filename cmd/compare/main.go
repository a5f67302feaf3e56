package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/jpequegn/skiplist-bench/datastream"
	"github.com/jpequegn/skiplist-bench/skiplist"
	"github.com/jpequegn/skiplist-bench/skiplist/analyTool"
	"github.com/jpequegn/skiplist-bench/skiplist/arena"
	"github.com/jpequegn/skiplist-bench/skiplist/classic"
)

func insertAll(sl skiplist.SkipList, gen *datastream.ZipfDataGenerator, n int) {
	for rank := 0; rank < n; rank++ {
		sl.Put(gen.KeyOf(rank), skiplist.V(rank))
	}
}

func testOne(name string, sl skiplist.Analyable, kmap map[skiplist.K]float64, csvOut string) {
	fmt.Println(color.CyanString("=== %s ===", name))

	if err := analyTool.CheckStruct(sl); err != nil {
		logrus.Fatalf("structure check failed for %s: %v", name, err)
	}

	m := sl.Metrics()
	score, steps := analyTool.AnalyzeStep(sl, kmap)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Size", "MaxLevel", "AvgLevel", "Insertions", "Searches", "Cmp/Search", "ExpSteps"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	cmpPerSearch := "N/A"
	if m.TotalSearches > 0 {
		cmpPerSearch = fmt.Sprintf("%.4f", float64(m.SearchComparisons)/float64(m.TotalSearches))
	}
	table.Append([]string{
		fmt.Sprintf("%d", sl.Len()),
		fmt.Sprintf("%d", m.MaxLevel),
		fmt.Sprintf("%.4f", m.AverageLevel),
		fmt.Sprintf("%d", m.TotalInsertions),
		fmt.Sprintf("%d", m.TotalSearches),
		cmpPerSearch,
		fmt.Sprintf("%.6f", score),
	})
	table.Render()

	levelCounts := analyTool.CountLevel(sl)
	fmt.Print("level population: ")
	for i := len(levelCounts) - 1; i >= 0; i-- {
		fmt.Printf("L%d=%d ", i, levelCounts[i])
	}
	fmt.Println()

	analyTool.PrintSkipList(sl, 8, 12)
	fmt.Println()

	if csvOut != "" {
		file, err := os.Create(fmt.Sprintf("%s_%s.csv", csvOut, name))
		if err != nil {
			logrus.Fatalf("create csv: %v", err)
		}
		defer file.Close()
		writer := csv.NewWriter(file)
		analyTool.PrintSkipListToCSV(sl, writer)
		steps.PrintToCSV(writer)
		writer.Flush()
	}
}

func main() {
	var n int
	var seed int64
	var a, b float64
	var queries int
	var csvOut string

	pflag.IntVar(&n, "n", 900, "number of keys")
	pflag.Int64Var(&seed, "seed", 42, "random seed")
	pflag.Float64Var(&a, "a", 1.07, "Zipf parameter a")
	pflag.Float64Var(&b, "b", 1.0, "Zipf parameter b")
	pflag.IntVar(&queries, "queries", 10, "query rounds per key (Zipf-sampled)")
	pflag.StringVar(&csvOut, "csv", "", "prefix for CSV structure dumps (empty = no CSV)")
	pflag.Parse()

	// Zipf distribution for analysis
	gen := datastream.NewZipfDataGenerator(n, a, b, seed)
	kmap := gen.GetKeyMap()

	// 以 Zipf 模擬熱點的查詢序列，兩個實作吃同一份
	seq := gen.GenerateSequence(n * queries)

	// Classic
	classicSL := classic.NewClassicSkipList(seed)
	insertAll(classicSL, gen, n)
	for _, rank := range seq {
		classicSL.Get(gen.KeyOf(rank))
	}
	testOne("classic", classicSL, kmap, csvOut)

	// Arena
	arenaSL := arena.NewArenaSkipList(seed)
	insertAll(arenaSL, gen, n)
	for _, rank := range seq {
		arenaSL.Get(gen.KeyOf(rank))
	}
	testOne("arena", arenaSL, kmap, csvOut)
}
