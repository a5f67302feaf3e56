package datastream

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

// UniformDataGenerator 產生符合平均分布的查詢序列，
// 每個 rank 出現機率皆相同。
type UniformDataGenerator struct {
	n    int
	keys []skiplist.K
	rng  *rand.Rand
}

func NewUniformDataGenerator(n int, seed int64) *UniformDataGenerator {
	return &UniformDataGenerator{
		n:    n,
		keys: SimpleKeyspace(n),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Next 產生一筆查詢 (回傳 rank 0~n-1)
func (u *UniformDataGenerator) Next() int {
	return u.rng.Intn(u.n)
}

// NextKey 產生一筆查詢並映射為字串鍵
func (u *UniformDataGenerator) NextKey() skiplist.K {
	return u.keys[u.Next()]
}

// GenerateSequence 產生指定長度的查詢序列（以 rank 表示）
func (u *UniformDataGenerator) GenerateSequence(seqLen int) []int {
	seq := make([]int, seqLen)
	for i := 0; i < seqLen; i++ {
		seq[i] = u.Next()
	}
	return seq
}

// GetDistribute 回傳 rank -> 機率
func (u *UniformDataGenerator) GetDistribute() map[int]float64 {
	result := make(map[int]float64, u.n)
	for i := 0; i < u.n; i++ {
		result[i] = 1.0 / float64(u.n)
	}
	return result
}

func (u *UniformDataGenerator) GetKeyMap() map[skiplist.K]float64 {
	result := make(map[skiplist.K]float64, u.n)
	for i := 0; i < u.n; i++ {
		result[u.keys[i]] = 1.0 / float64(u.n)
	}
	return result
}

func (u *UniformDataGenerator) DistributeToCSV(writer *csv.Writer) {
	keys := make([]string, 0, u.n+1)
	probs := make([]string, 0, u.n+1)
	keys = append(keys, "key")
	probs = append(probs, "prob")
	p := 1.0 / float64(u.n)
	for i := 0; i < u.n; i++ {
		keys = append(keys, u.keys[i])
		probs = append(probs, fmt.Sprintf("%f", p))
	}
	writer.Write(keys)
	writer.Write(probs)
}

func (u *UniformDataGenerator) Close() error {
	return nil
}

func (u *UniformDataGenerator) GetCDF() []float64 {
	cdf := make([]float64, u.n)
	for i := 0; i < u.n; i++ {
		cdf[i] = float64(i+1) / float64(u.n)
	}
	return cdf
}

func (u *UniformDataGenerator) GetPDF() []float64 {
	pdf := make([]float64, u.n)
	for i := 0; i < u.n; i++ {
		pdf[i] = 1.0 / float64(u.n)
	}
	return pdf
}

func (u *UniformDataGenerator) Entropy() float64 {
	p := 1.0 / float64(u.n)
	return -float64(u.n) * p * math.Log2(p)
}
