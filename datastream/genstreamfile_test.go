package datastream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpequegn/skiplist-bench/skiplist"
	"github.com/jpequegn/skiplist-bench/skiplist/classic"
)

func writeTestBenchFile(t *testing.T, n, k int, s float64, deleteRatio float64, simpleKey bool) (string, *BenchInfo) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.bin")
	info, err := WriteBenchFileFromZipf(n, s, 2.0, 7, k, 0.5, deleteRatio, path, simpleKey)
	require.NoError(t, err)
	require.NotNil(t, info)
	return path, info
}

func TestBenchFileRoundTrip(t *testing.T) {
	const n, k = 50, 400
	path, info := writeTestBenchFile(t, n, k, 1.5, 0.2, true)

	bf, err := ReadBenchFile(path)
	require.NoError(t, err)
	require.Len(t, bf.Ops, k)
	require.Len(t, bf.Dist, n)

	// 讀回的分布必須與產生端回報的一致
	for key, w := range info.Dist {
		got, ok := bf.Dist[key]
		require.True(t, ok, "key %q missing from file dist", key)
		assert.InDelta(t, w, got, 1e-12)
	}
	var sum float64
	for _, w := range bf.Dist {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, info.Entropy, EntropyFromDist(bf.Dist), 1e-12)
}

// 驗證操作序列的生成規則：
//   - key 首次出現必為 Insert
//   - Insert 僅發生在 key 不存在時，Delete/Query 僅發生在 key 存在時
//   - 同一 key 的 Insert value 固定（即其 rank）
//   - 每個 key 至少出現一次
func TestBenchFileOpsInvariants(t *testing.T) {
	const n, k = 60, 600
	path, _ := writeTestBenchFile(t, n, k, 1.5, 0.3, true)

	bf, err := ReadBenchFile(path)
	require.NoError(t, err)

	present := make(map[skiplist.K]bool)
	insertValue := make(map[skiplist.K]skiplist.V)
	for i, op := range bf.Ops {
		switch op.Type {
		case OpInsert:
			require.False(t, present[op.Key], "op %d: insert of already-present key %q", i, op.Key)
			if prev, seen := insertValue[op.Key]; seen {
				require.Equal(t, prev, op.Value, "op %d: key %q reinserted with different value", i, op.Key)
			}
			insertValue[op.Key] = op.Value
			present[op.Key] = true
		case OpDelete:
			require.True(t, present[op.Key], "op %d: delete of absent key %q", i, op.Key)
			present[op.Key] = false
		case OpQuery:
			require.True(t, present[op.Key], "op %d: query of absent key %q", i, op.Key)
		default:
			t.Fatalf("op %d: unknown type %v", i, op.Type)
		}
	}

	// 覆蓋保證：所有 key 都插入過，value 恰為 0..n-1 各一次
	require.Len(t, insertValue, n)
	seenValues := make(map[skiplist.V]bool, n)
	for _, v := range insertValue {
		require.Less(t, int(v), n)
		require.False(t, seenValues[v], "duplicate rank value %d", v)
		seenValues[v] = true
	}
}

func TestBenchFileUniformDist(t *testing.T) {
	const n = 40
	path, _ := writeTestBenchFile(t, n, 200, 0.0, 0.1, true)

	bf, err := ReadBenchFile(path)
	require.NoError(t, err)
	for key, w := range bf.Dist {
		assert.InDelta(t, 1.0/float64(n), w, 1e-12, "key %q", key)
	}
}

func TestBenchFileRandomKeys(t *testing.T) {
	path, _ := writeTestBenchFile(t, 30, 120, 1.5, 0.2, false)

	bf, err := ReadBenchFile(path)
	require.NoError(t, err)
	require.Len(t, bf.Dist, 30)
	for key := range bf.Dist {
		assert.Len(t, key, 16)
	}
}

func TestBenchFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.bin")
	pathB := filepath.Join(dir, "b.bin")
	_, err := WriteBenchFileFromZipf(50, 1.5, 2.0, 99, 300, 0.5, 0.2, pathA, true)
	require.NoError(t, err)
	_, err = WriteBenchFileFromZipf(50, 1.5, 2.0, 99, 300, 0.5, 0.2, pathB, true)
	require.NoError(t, err)

	a, err := os.ReadFile(pathA)
	require.NoError(t, err)
	b, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must produce identical files")
}

func TestWriteBenchFileRejectsBadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")

	cases := []struct {
		name                     string
		n, k                     int
		s, v                     float64
		phase1Ratio, deleteRatio float64
	}{
		{"zero n", 0, 100, 1.5, 2.0, 0.5, 0.1},
		{"zipf s too small", 10, 100, 0.5, 2.0, 0.5, 0.1},
		{"zipf v too small", 10, 100, 1.5, 0.5, 0.5, 0.1},
		{"k below n", 100, 50, 1.5, 2.0, 0.5, 0.1},
		{"phase1 below n", 100, 120, 1.5, 2.0, 0.1, 0.1},
		{"deleteRatio above 1", 10, 100, 1.5, 2.0, 0.5, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := WriteBenchFileFromZipf(tc.n, tc.s, tc.v, 1, tc.k, tc.phase1Ratio, tc.deleteRatio, path, true)
			require.Error(t, err)
		})
	}
}

func TestReadBenchFileRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(path, []byte("NOTABENCHFILE"), 0o644))

	_, err := ReadBenchFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic")
}

// 以 SequenceModel 重播操作序列並餵進真正的 skip list，
// 結束時結構內容必須等於依規則推演出的模型狀態。
func TestBenchFileReplayAgainstSkipList(t *testing.T) {
	const n, k = 80, 800
	path, _ := writeTestBenchFile(t, n, k, 1.5, 0.25, true)

	bf, err := ReadBenchFile(path)
	require.NoError(t, err)
	seq := bf.ToSequenceModel()
	require.Equal(t, k, seq.Len())

	sl := classic.NewClassicSkipList(42)
	model := make(map[skiplist.K]skiplist.V)
	for op, ok := seq.Next(); ok; op, ok = seq.Next() {
		switch op.Type {
		case OpInsert:
			sl.Put(op.Key, op.Value)
			model[op.Key] = op.Value
		case OpDelete:
			deleted, found := sl.Delete(op.Key)
			require.True(t, found, "delete of %q failed", op.Key)
			require.Equal(t, model[op.Key], deleted)
			delete(model, op.Key)
		case OpQuery:
			got, found := sl.Get(op.Key)
			require.True(t, found, "query of %q failed", op.Key)
			require.Equal(t, model[op.Key], got)
		}
	}

	require.Equal(t, len(model), sl.Len())
	for key, want := range model {
		got, found := sl.Get(key)
		require.True(t, found)
		require.Equal(t, want, got)
	}
}
