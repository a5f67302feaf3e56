package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/jpequegn/skiplist-bench/datastream"
)

// parseScientificNotation 解析科學記號字串（如 "1e5"）為整數
func parseScientificNotation(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// formatScientific 將數字格式化為科學記號（用於檔名）
func formatScientific(n int) string {
	if n == 0 {
		return "0"
	}

	exp := 0
	temp := n
	for temp >= 10 {
		temp /= 10
		exp++
	}

	divisor := 1
	for i := 0; i < exp; i++ {
		divisor *= 10
	}
	coefficient := float64(n) / float64(divisor)

	// 如果係數是整數，就不顯示小數
	if coefficient == float64(int(coefficient)) {
		return fmt.Sprintf("%de%d", int(coefficient), exp)
	}
	return fmt.Sprintf("%.1fe%d", coefficient, exp)
}

// formatDecimal 將浮點數格式化為不含小數點的字串（用於檔名）
func formatDecimal(f float64) string {
	val := int(f * 100)
	if val%100 == 0 {
		return fmt.Sprintf("%d", val/100)
	} else if val%10 == 0 {
		return fmt.Sprintf("%d_%d", val/100, (val%100)/10)
	}
	return fmt.Sprintf("%d_%02d", val/100, val%100)
}

func main() {
	var outDir string
	var nList string
	var kStr string
	var sList string
	var v float64
	var seed int64
	var phase1Ratio float64
	var deleteRatio float64
	var simpleKey bool

	pflag.StringVar(&outDir, "outdir", "benchfiles", "output directory for generated bench files")
	pflag.StringVar(&nList, "n", "1e3", "comma list of key counts (scientific notation allowed, e.g. 1e3,1e4)")
	pflag.StringVar(&kStr, "k", "1e5", "number of operations per file (scientific notation allowed)")
	pflag.StringVar(&sList, "s", "0,1.07,1.5", "comma list of Zipf s parameters (0 = uniform)")
	pflag.Float64Var(&v, "v", 1.0, "Zipf parameter v")
	pflag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	pflag.Float64Var(&phase1Ratio, "phase1Ratio", 0.5, "ratio of phase1 operations")
	pflag.Float64Var(&deleteRatio, "deleteRatio", 0.1, "ratio of delete operations")
	pflag.BoolVar(&simpleKey, "simpleKey", true, "use fixed-width decimal keys instead of random hex keys")
	pflag.Parse()

	k, err := parseScientificNotation(kStr)
	if err != nil {
		logrus.Fatalf("invalid -k: %v", err)
	}

	var ns []int
	for _, part := range strings.Split(nList, ",") {
		n, err := parseScientificNotation(strings.TrimSpace(part))
		if err != nil {
			logrus.Fatalf("invalid -n entry %q: %v", part, err)
		}
		ns = append(ns, n)
	}

	var ss []float64
	for _, part := range strings.Split(sList, ",") {
		s, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			logrus.Fatalf("invalid -s entry %q: %v", part, err)
		}
		ss = append(ss, s)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logrus.Fatalf("create output directory: %v", err)
	}

	for _, n := range ns {
		for _, s := range ss {
			name := fmt.Sprintf("bench_n%s_k%s_s%s.bin",
				formatScientific(n), formatScientific(k), formatDecimal(s))
			path := filepath.Join(outDir, name)

			info, err := datastream.WriteBenchFileFromZipf(n, s, v, uint64(seed), k, phase1Ratio, deleteRatio, path, simpleKey)
			if err != nil {
				logrus.Fatalf("generate %s: %v", path, err)
			}
			fmt.Printf("wrote %s (n=%d, k=%d, s=%v, entropy=%.6f)\n", path, n, k, s, info.Entropy)
		}
	}
}
