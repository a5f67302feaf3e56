package datastream

import (
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	randv2 "math/rand/v2"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

// 檔案格式（LittleEndian）：
// [8]byte  Magic: "SLBENCH2"
// uint16   Version: 2
// uint16   Reserved: 0
// uint32   DistCount
// 重複 DistCount 次：
//   uint16  KeyLen
//   []byte  Key
//   float64 Weight
// uint64   OpCount
// 重複 OpCount 次：
//   uint8   OperationType (0=Query,1=Insert,2=Delete)
//   uint16  KeyLen
//   []byte  Key
//   uint32  Value（僅 Insert 使用，其餘為 0）

var (
	benchMagic   = [8]byte{'S', 'L', 'B', 'E', 'N', 'C', 'H', '2'}
	benchVersion = uint16(2)
)

type BenchFile struct {
	Dist map[skiplist.K]float64
	Ops  []Operation
}

// BenchInfo 為產生檔案時一併回傳的分布摘要
type BenchInfo struct {
	Dist    map[skiplist.K]float64
	Entropy float64
}

func writeKey(w io.Writer, key skiplist.K) error {
	if len(key) > math.MaxUint16 {
		return fmt.Errorf("key too long: %d bytes", len(key))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(key))); err != nil {
		return err
	}
	_, err := w.Write([]byte(key))
	return err
}

func readKey(r io.Reader) (skiplist.K, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return skiplist.K(buf), nil
}

// WriteBenchFileFromZipf 產生操作序列並寫入 bin 檔。
// 參數：
//   - n: key 數量
//   - s, v: Zipf 參數。當 s = 0 時使用均勻分布；否則需滿足 s > 1、v >= 1
//   - seed: 隨機種子
//   - k: 輸出操作數量（需 >= n，以保證每個 key 至少插入一次）
//   - phase1Ratio: 第一階段操作占比（第一階段保證覆蓋所有 key）
//   - deleteRatio: 已存在 key 被刪除的機率
//   - simpleKey: true 時使用固定寬度十進位鍵，false 時使用隨機十六進位鍵
//
// 規則：
//   - 某 key 首次出現必為 Insert，之後依 deleteRatio 決定 Delete 或 Query
//   - Delete 僅會出現在 key 目前存在時，之後的再出現會重新 Insert
//   - Insert 的 value 固定為該 key 的 rank，方便測試端驗證查詢結果
func WriteBenchFileFromZipf(n int, s, v float64, seed uint64, k int, phase1Ratio, deleteRatio float64, filename string, simpleKey bool) (*BenchInfo, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid n: %d", n)
	}
	if s != 0.0 && (s <= 1.0 || v < 1.0) {
		return nil, fmt.Errorf("invalid zipf params: s=%v must >1, v=%v must >=1", s, v)
	}
	if k < n {
		return nil, fmt.Errorf("k (%d) must be >= n (%d) to ensure each key appears at least once", k, n)
	}
	phase1Size := int(float64(k) * phase1Ratio)
	if phase1Size < n || phase1Size > k {
		return nil, fmt.Errorf("phase1Size (%d) must satisfy n <= phase1Size <= k", phase1Size)
	}
	if deleteRatio < 0.0 || deleteRatio > 1.0 {
		return nil, fmt.Errorf("deleteRatio (%v) must be between 0.0 and 1.0", deleteRatio)
	}

	r := randv2.New(randv2.NewPCG(seed, 0))

	// rank -> key 的對應
	var rankToKey []skiplist.K
	if simpleKey {
		rankToKey = SimpleKeyspace(n)
		r.Shuffle(len(rankToKey), func(i, j int) { rankToKey[i], rankToKey[j] = rankToKey[j], rankToKey[i] })
	} else {
		rankToKey = RandomKeyspace(n, r)
	}

	// rank 的理論機率，正規化後輸出
	weights := make([]float64, n)
	var sumW float64
	if s == 0.0 {
		for i := 0; i < n; i++ {
			weights[i] = 1.0
		}
		sumW = float64(n)
	} else {
		for i := 0; i < n; i++ {
			weights[i] = 1.0 / math.Pow(v+float64(i), s)
			sumW += weights[i]
		}
	}
	for i := 0; i < n; i++ {
		weights[i] /= sumW
	}

	// rank 取樣器
	nextRank := func() int { return r.IntN(n) }
	if s != 0.0 {
		zipf := randv2.NewZipf(r, s, v, uint64(n-1))
		nextRank = func() int { return int(zipf.Uint64()) }
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// Header
	if _, err := file.Write(benchMagic[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(file, binary.LittleEndian, benchVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(file, binary.LittleEndian, uint16(0)); err != nil { // reserved
		return nil, err
	}

	// Distribution map（依 key 升冪輸出，確保可重現）
	type kv struct {
		k skiplist.K
		w float64
	}
	pairs := make([]kv, n)
	for rank := 0; rank < n; rank++ {
		pairs[rank] = kv{k: rankToKey[rank], w: weights[rank]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	if err := binary.Write(file, binary.LittleEndian, uint32(n)); err != nil {
		return nil, err
	}
	distOut := make(map[skiplist.K]float64, n)
	for _, p := range pairs {
		if err := writeKey(file, p.k); err != nil {
			return nil, err
		}
		if err := binary.Write(file, binary.LittleEndian, p.w); err != nil {
			return nil, err
		}
		distOut[p.k] = p.w
	}

	// Operations count
	if err := binary.Write(file, binary.LittleEndian, uint64(k)); err != nil {
		return nil, err
	}

	writeOp := func(t OperationType, rank int, value skiplist.V) error {
		if err := binary.Write(file, binary.LittleEndian, uint8(t)); err != nil {
			return err
		}
		if err := writeKey(file, rankToKey[rank]); err != nil {
			return err
		}
		return binary.Write(file, binary.LittleEndian, uint32(value))
	}

	// 產生第一階段的 rank 列表（長度 phase1Size）：
	// 前 n 個覆蓋所有 rank，後面用取樣器補齊，最後打亂
	phase1Ranks := make([]int, phase1Size)
	for i := 0; i < n; i++ {
		phase1Ranks[i] = i
	}
	for i := n; i < phase1Size; i++ {
		phase1Ranks[i] = nextRank()
	}
	r.Shuffle(len(phase1Ranks), func(i, j int) { phase1Ranks[i], phase1Ranks[j] = phase1Ranks[j], phase1Ranks[i] })

	// 狀態：rank 目前是否在表中
	present := make([]bool, n)

	emit := func(rank int) error {
		if !present[rank] {
			present[rank] = true
			return writeOp(OpInsert, rank, skiplist.V(rank))
		}
		if r.Float64() < deleteRatio {
			present[rank] = false
			return writeOp(OpDelete, rank, 0)
		}
		return writeOp(OpQuery, rank, 0)
	}

	for _, rank := range phase1Ranks {
		if err := emit(rank); err != nil {
			return nil, err
		}
	}

	// 第二階段：剩餘 k - phase1Size 個操作，取樣器取 rank，規則同上
	for i := phase1Size; i < k; i++ {
		if err := emit(nextRank()); err != nil {
			return nil, err
		}
	}

	return &BenchInfo{Dist: distOut, Entropy: EntropyFromDist(distOut)}, nil
}

// ReadBenchFile 讀取 bin 檔案，回傳分布與操作序列。
func ReadBenchFile(filename string) (*BenchFile, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	var magic [8]byte
	if _, err := io.ReadFull(fd, magic[:]); err != nil {
		return nil, err
	}
	if magic != benchMagic {
		return nil, fmt.Errorf("invalid magic: %q", magic)
	}
	var ver uint16
	if err := binary.Read(fd, binary.LittleEndian, &ver); err != nil {
		return nil, err
	}
	if ver != benchVersion {
		return nil, fmt.Errorf("unsupported version: %d", ver)
	}
	var reserved uint16
	if err := binary.Read(fd, binary.LittleEndian, &reserved); err != nil {
		return nil, err
	}

	// distribution
	var distCount uint32
	if err := binary.Read(fd, binary.LittleEndian, &distCount); err != nil {
		return nil, err
	}
	dist := make(map[skiplist.K]float64, distCount)
	for i := uint32(0); i < distCount; i++ {
		key, err := readKey(fd)
		if err != nil {
			return nil, err
		}
		var weight float64
		if err := binary.Read(fd, binary.LittleEndian, &weight); err != nil {
			return nil, err
		}
		dist[key] = weight
	}

	// operations
	var opCount uint64
	if err := binary.Read(fd, binary.LittleEndian, &opCount); err != nil {
		return nil, err
	}
	ops := make([]Operation, 0, opCount)
	for i := uint64(0); i < opCount; i++ {
		var t uint8
		if err := binary.Read(fd, binary.LittleEndian, &t); err != nil {
			return nil, err
		}
		key, err := readKey(fd)
		if err != nil {
			return nil, err
		}
		var value uint32
		if err := binary.Read(fd, binary.LittleEndian, &value); err != nil {
			return nil, err
		}
		ops = append(ops, Operation{Type: OperationType(t), Key: key, Value: skiplist.V(value)})
	}

	return &BenchFile{Dist: dist, Ops: ops}, nil
}

// ToSequenceModel 將 BenchFile 轉為可重播的 SequenceModel。
func (bf *BenchFile) ToSequenceModel() *SequenceModel {
	if bf == nil {
		return NewSequenceModelFromOps(nil)
	}
	return NewSequenceModelFromOps(bf.Ops)
}

// EntropyFromDist 計算分布的熵（單位：bit）。
// dist 的 value 應為已正規化的機率；會自動忽略 <= 0 的值。
func EntropyFromDist(dist map[skiplist.K]float64) float64 {
	h := 0.0
	for _, p := range dist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

func (info *BenchInfo) DistributeToCSV(writer *csv.Writer) {
	keys := make([]string, 0, len(info.Dist)+1)
	probs := make([]string, 0, len(info.Dist)+1)
	keys = append(keys, "key")
	probs = append(probs, "prob")

	sortedKeys := make([]skiplist.K, 0, len(info.Dist))
	for k := range info.Dist {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Slice(sortedKeys, func(i, j int) bool {
		return sortedKeys[i] < sortedKeys[j]
	})

	for _, k := range sortedKeys {
		keys = append(keys, k)
		probs = append(probs, fmt.Sprintf("%f", info.Dist[k]))
	}
	writer.Write(keys)
	writer.Write(probs)
}
