package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/jpequegn/skiplist-bench/datastream"
	"github.com/jpequegn/skiplist-bench/skiplist"
	"github.com/jpequegn/skiplist-bench/skiplist/analyTool"
	"github.com/jpequegn/skiplist-bench/skiplist/arena"
	"github.com/jpequegn/skiplist-bench/skiplist/classic"
	"github.com/jpequegn/skiplist-bench/skiplist/reference"
)

func main() {
	// Input: either provide -file, -dir, or provide -out and generation params
	var file string
	var dir string
	var out string
	var n int
	var s float64
	var v float64
	var k int
	var seed int64
	var phase1Ratio float64
	var deleteRatio float64
	var simpleKey bool

	var impls string
	var runs int
	var check bool

	pflag.StringVar(&file, "file", "", "existing bench streamfile (SLBENCH2 format)")
	pflag.StringVar(&dir, "dir", "", "directory containing bench files to test (will test all .bin files)")
	pflag.StringVar(&out, "out", "", "output path to write generated bench streamfile")
	pflag.IntVar(&n, "n", 0, "number of keys for Zipf generator")
	pflag.Float64Var(&s, "s", 1.07, "Zipf parameter s (0 = uniform)")
	pflag.Float64Var(&v, "v", 1.0, "Zipf parameter v")
	pflag.IntVar(&k, "k", 0, "number of operations to generate")
	pflag.Int64Var(&seed, "seed", time.Now().UnixNano(), "seed for generators/structures where applicable")
	pflag.Float64Var(&phase1Ratio, "phase1Ratio", 0.5, "ratio of phase1 operations")
	pflag.Float64Var(&deleteRatio, "deleteRatio", 0.1, "ratio of delete operations")
	pflag.BoolVar(&simpleKey, "simpleKey", true, "use fixed-width decimal keys instead of random hex keys")

	pflag.StringVar(&impls, "impl", "all", "implementations to run: all or comma list (classic,arena,huandu)")
	pflag.IntVar(&runs, "runs", 5, "how many times to repeat each benchmark")
	pflag.BoolVar(&check, "check", false, "verify structure invariants after each first run")
	pflag.Parse()

	var benchPaths []string

	// 判斷模式: -dir 優先於 -file
	if dir != "" {
		// 掃描目錄中所有 .bin 檔案
		files, err := collectBenchFilesFromDir(dir)
		if err != nil {
			logrus.Fatalf("scan directory %s: %v", dir, err)
		}
		if len(files) == 0 {
			logrus.Fatalf("no .bin files found in directory: %s", dir)
		}
		benchPaths = files
		fmt.Printf("Found %d bench files in directory: %s\n", len(benchPaths), dir)
	} else if file != "" {
		benchPaths = []string{file}
		fmt.Printf("bench_file: %s\n", file)
	} else {
		// validate generation inputs
		if out == "" {
			logrus.Fatalf("either -file, -dir, or -out with generation params (-n,-s,-v,-k,-seed) must be provided")
		}
		if n <= 0 || k < 0 {
			logrus.Fatalf("invalid -n or -k: n=%d k=%d", n, k)
		}
		fmt.Printf("generated bench_file: %s\n", out)
		if _, err := datastream.WriteBenchFileFromZipf(n, s, v, uint64(seed), k, phase1Ratio, deleteRatio, out, simpleKey); err != nil {
			logrus.Fatalf("generate bench file: %v", err)
		}
		benchPaths = []string{out}
	}

	toRun := parseImpls(impls)
	fmt.Printf("implementations to test: %s\n", strings.Join(toRun, ","))
	fmt.Println(strings.Repeat("=", 80))

	// 如果是多個檔案，匯總統計
	if len(benchPaths) > 1 {
		runBatchBenchmark(benchPaths, toRun, runs, seed, check)
	} else {
		// 單一檔案，顯示詳細結果
		runBenchmark(benchPaths[0], toRun, runs, seed, check)
	}
}

// collectBenchFilesFromDir 收集指定目錄下所有 .bin 檔案
func collectBenchFilesFromDir(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".bin" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// 排序檔案名稱以確保順序一致
	sort.Strings(files)
	return files, nil
}

// runBatchBenchmark 對多個 benchmark 檔案執行測試並匯總統計
func runBatchBenchmark(benchPaths []string, toRun []string, runs int, seed int64, check bool) {
	fmt.Printf("Testing %d benchmark files...\n\n", len(benchPaths))

	// 為每個實作方式收集所有檔案的統計數據
	type implStats struct {
		avgMsList []float64
		minMsList []float64
		maxMsList []float64
		opsList   []int
		levelList []float64
		cmpList   []float64
		totalRuns int
	}

	allStats := make(map[string]*implStats)
	for _, impl := range toRun {
		allStats[impl] = &implStats{}
	}

	// 對每個 benchmark 檔案執行測試
	for idx, benchPath := range benchPaths {
		fmt.Printf("[%d/%d] Testing: %s\n", idx+1, len(benchPaths), filepath.Base(benchPath))

		bf, err := datastream.ReadBenchFile(benchPath)
		if err != nil {
			logrus.Errorf("  reading bench file: %v", err)
			continue
		}

		fmt.Printf("  ops: %d, entropy: %.6f\n", len(bf.Ops), datastream.EntropyFromDist(bf.Dist))

		for _, impl := range toRun {
			fmt.Printf("  - benchmarking %s...\n", impl)
			stats := benchmarkImpl(bf, impl, runs, seed, check)

			st := allStats[impl]
			st.avgMsList = append(st.avgMsList, stats.avgMs)
			st.minMsList = append(st.minMsList, stats.minMs)
			st.maxMsList = append(st.maxMsList, stats.maxMs)
			st.opsList = append(st.opsList, len(bf.Ops))
			if !math.IsNaN(stats.avgLevel) {
				st.levelList = append(st.levelList, stats.avgLevel)
			}
			if !math.IsNaN(stats.cmpPerSearch) {
				st.cmpList = append(st.cmpList, stats.cmpPerSearch)
			}
			st.totalRuns += runs
		}
		fmt.Println()
	}

	// 計算並顯示匯總統計
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("AGGREGATE STATISTICS (across all benchmark files)")
	fmt.Println(strings.Repeat("=", 80))

	rows := make([][]string, 0, len(toRun))
	for _, impl := range toRun {
		stats := allStats[impl]
		if len(stats.avgMsList) == 0 {
			continue
		}

		avgMs := average(stats.avgMsList)
		minMs := minOf(stats.minMsList)
		maxMs := maxOf(stats.maxMsList)

		// 計算平均 ops/s
		totalOps := 0
		totalSec := 0.0
		for i, ops := range stats.opsList {
			totalOps += ops
			totalSec += stats.avgMsList[i] / 1000.0
		}
		avgThr := float64(totalOps) / totalSec

		rows = append(rows, []string{
			impl,
			fmt.Sprintf("%d", stats.totalRuns),
			fmt.Sprintf("%.3f", avgMs),
			fmt.Sprintf("%.3f", minMs),
			fmt.Sprintf("%.3f", maxMs),
			fmt.Sprintf("%.2f", avgThr),
			formatOrNA(stats.levelList),
			formatOrNA(stats.cmpList),
		})
	}

	renderTable(rows, "Total Runs")
}

// runBenchmark 執行單一 benchmark 檔案的測試
func runBenchmark(benchPath string, toRun []string, runs int, seed int64, check bool) {
	bf, err := datastream.ReadBenchFile(benchPath)
	if err != nil {
		logrus.Errorf("reading bench file %s: %v", benchPath, err)
		return
	}

	fmt.Printf("bench_file: %s\n", benchPath)
	fmt.Printf("ops: %d\n", len(bf.Ops))
	fmt.Printf("entropy: %.6f\n", datastream.EntropyFromDist(bf.Dist))

	rows := make([][]string, 0, len(toRun))
	for _, impl := range toRun {
		fmt.Printf("benchmarking %s...\n", impl)
		stats := benchmarkImpl(bf, impl, runs, seed, check)
		thr := float64(len(bf.Ops)) / (stats.avgMs / 1000.0)
		rows = append(rows, []string{
			impl,
			fmt.Sprintf("%d", runs),
			fmt.Sprintf("%.3f", stats.avgMs),
			fmt.Sprintf("%.3f", stats.minMs),
			fmt.Sprintf("%.3f", stats.maxMs),
			fmt.Sprintf("%.2f", thr),
			formatStat(stats.avgLevel),
			formatStat(stats.cmpPerSearch),
		})
	}

	renderTable(rows, "Runs")
}

func renderTable(rows [][]string, runsHeader string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Impl", runsHeader, "Avg(ms)", "Min(ms)", "Max(ms)", "Ops/s", "AvgLevel", "Cmp/Search"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// 輔助函數：計算平均值
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatOrNA(values []float64) string {
	if len(values) == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", average(values))
}

type benchStats struct {
	avgMs        float64
	minMs        float64
	maxMs        float64
	avgLevel     float64 // from one run (structure-dependent), NaN if not analyzable
	cmpPerSearch float64
}

func benchmarkImpl(bf *datastream.BenchFile, impl string, runs int, seed int64, check bool) benchStats {
	durations := make([]float64, 0, runs)
	avgLevel := math.NaN()
	cmpPerSearch := math.NaN()
	for i := 0; i < runs; i++ {
		sl := newImpl(impl, seed)
		elapsed := runOpsAndTime(sl, bf)
		durations = append(durations, float64(elapsed.Microseconds())/1000.0)
		if i == 0 {
			if analy, ok := sl.(skiplist.Analyable); ok {
				m := analy.Metrics()
				avgLevel = m.AverageLevel
				if m.TotalSearches > 0 {
					cmpPerSearch = float64(m.SearchComparisons) / float64(m.TotalSearches)
				}
				if check {
					if err := analyTool.CheckStruct(analy); err != nil {
						logrus.Fatalf("structure check failed for %s: %v", impl, err)
					}
				}
			}
		}
	}
	sort.Float64s(durations)
	sum := 0.0
	for _, v := range durations {
		sum += v
	}
	avg := sum / float64(len(durations))
	return benchStats{
		avgMs:        avg,
		minMs:        durations[0],
		maxMs:        durations[len(durations)-1],
		avgLevel:     avgLevel,
		cmpPerSearch: cmpPerSearch,
	}
}

func newImpl(impl string, seed int64) skiplist.SkipList {
	switch impl {
	case "classic":
		return classic.NewClassicSkipList(seed)
	case "arena":
		return arena.NewArenaSkipList(seed)
	case "huandu":
		return reference.NewReferenceSkipList()
	default:
		logrus.Fatalf("unknown -impl: %s", impl)
		return nil
	}
}

func runOpsAndTime(sl skiplist.SkipList, bf *datastream.BenchFile) time.Duration {
	model := bf.ToSequenceModel()
	start := time.Now()
	for op, ok := model.Next(); ok; op, ok = model.Next() {
		switch op.Type {
		case datastream.OpQuery:
			sl.Get(op.Key)
		case datastream.OpInsert:
			sl.Put(op.Key, op.Value)
		case datastream.OpDelete:
			sl.Delete(op.Key)
		}
	}
	return time.Since(start)
}

func parseImpls(s string) []string {
	if s == "" || s == "all" {
		return []string{"classic", "arena", "huandu"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := map[string]bool{}
	for _, p := range parts {
		t := strings.TrimSpace(strings.ToLower(p))
		if t == "" || seen[t] {
			continue
		}
		switch t {
		case "classic", "arena", "huandu":
			out = append(out, t)
			seen[t] = true
		}
	}
	if len(out) == 0 {
		return []string{"classic", "arena", "huandu"}
	}
	return out
}
