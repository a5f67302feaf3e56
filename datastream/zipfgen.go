package datastream

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

// ZipfDataGenerator 產生符合 Zipf 分布的查詢序列。
// rank 對應到 keys[rank]；權重洗牌後熱點 key 會散佈在整個鍵空間。
type ZipfDataGenerator struct {
	n       int
	a, b    float64
	keys    []skiplist.K
	Weights []float64
	cdf     []float64
	rng     *rand.Rand
}

func NewZipfDataGenerator(n int, a, b float64, seed int64) *ZipfDataGenerator {
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, n)
	var sum float64
	for i := 1; i <= n; i++ {
		weights[i-1] = 1.0 / math.Pow(float64(i)+b, a)
		sum += weights[i-1]
	}
	// 正規化
	for i := range weights {
		weights[i] /= sum
	}
	rng.Shuffle(len(weights), func(i, j int) {
		weights[i], weights[j] = weights[j], weights[i]
	})
	// 建立累積分布函數 (CDF)
	cdf := make([]float64, n)
	cdf[0] = weights[0]
	for i := 1; i < n; i++ {
		cdf[i] = cdf[i-1] + weights[i]
	}
	return &ZipfDataGenerator{
		n:       n,
		a:       a,
		b:       b,
		keys:    SimpleKeyspace(n),
		Weights: weights,
		cdf:     cdf,
		rng:     rng,
	}
}

// Next 產生一筆查詢 (回傳 rank 0~n-1)
func (z *ZipfDataGenerator) Next() int {
	r := z.rng.Float64()
	// 二分搜尋 cdf
	lo, hi := 0, z.n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if r > z.cdf[mid] {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// NextKey 產生一筆查詢並映射為字串鍵
func (z *ZipfDataGenerator) NextKey() skiplist.K {
	return z.keys[z.Next()]
}

// KeyOf 回傳 rank 對應的字串鍵
func (z *ZipfDataGenerator) KeyOf(rank int) skiplist.K {
	return z.keys[rank]
}

// GenerateSequence 產生指定長度的查詢序列（以 rank 表示）
func (z *ZipfDataGenerator) GenerateSequence(seqLen int) []int {
	seq := make([]int, seqLen)
	for i := 0; i < seqLen; i++ {
		seq[i] = z.Next()
	}
	return seq
}

// GetDistribute 回傳 rank -> 機率
func (z *ZipfDataGenerator) GetDistribute() map[int]float64 {
	result := make(map[int]float64, z.n)
	for i := 0; i < z.n; i++ {
		result[i] = z.Weights[i]
	}
	return result
}

// GetKeyMap 回傳字串鍵 -> 機率
func (z *ZipfDataGenerator) GetKeyMap() map[skiplist.K]float64 {
	result := make(map[skiplist.K]float64, z.n)
	for i := 0; i < z.n; i++ {
		result[z.keys[i]] = z.Weights[i]
	}
	return result
}

func (z *ZipfDataGenerator) DistributeToCSV(writer *csv.Writer) {
	keys := make([]string, 0, z.n+1)
	probs := make([]string, 0, z.n+1)
	keys = append(keys, "key")
	probs = append(probs, "prob")

	for i := 0; i < z.n; i++ {
		keys = append(keys, z.keys[i])
		probs = append(probs, fmt.Sprintf("%f", z.Weights[i]))
	}

	writer.Write(keys)
	writer.Write(probs)
}

func (z *ZipfDataGenerator) Close() error {
	return nil
}

// GetCDF 計算累積分布函數，回傳新的 slice 避免汙染原本的 Weights
func (z *ZipfDataGenerator) GetCDF() []float64 {
	cdf := make([]float64, len(z.Weights))
	sum := 0.0
	for i, w := range z.Weights {
		sum += w
		cdf[i] = sum
	}
	return cdf
}

func (z *ZipfDataGenerator) GetPDF() []float64 {
	pdf := make([]float64, len(z.Weights))
	copy(pdf, z.Weights)
	return pdf
}

func (z *ZipfDataGenerator) Entropy() float64 {
	h := 0.0
	for _, p := range z.Weights {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
