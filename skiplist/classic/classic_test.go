package classic

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpequegn/skiplist-bench/datastream"
	"github.com/jpequegn/skiplist-bench/skiplist"
	"github.com/jpequegn/skiplist-bench/skiplist/analyTool"
)

func TestClassicSkipListInterface(t *testing.T) {
	var _ skiplist.SkipList = (*ClassicSkipList)(nil)
	var _ skiplist.Analyable = (*ClassicSkipList)(nil)
	var _ skiplist.Nodelike = (*classicNode)(nil)
}

// fakeSource 依序回放固定的隨機數序列
type fakeSource struct {
	seq []float64
	pos int
}

func (f *fakeSource) Float64() float64 {
	v := f.seq[f.pos]
	f.pos++
	return v
}

// sourceForLevels 產生讓後續每次插入得到指定高度的隨機序列
func sourceForLevels(levels ...int) *fakeSource {
	var seq []float64
	for _, lv := range levels {
		for i := 0; i < lv; i++ {
			seq = append(seq, 0.0)
		}
		seq = append(seq, 0.9)
	}
	return &fakeSource{seq: seq}
}

func TestPutGetOutOfOrder(t *testing.T) {
	sl := NewClassicSkipList(42)
	sl.Put("b", 2)
	sl.Put("a", 1)
	sl.Put("c", 3)

	for key, want := range map[skiplist.K]skiplist.V{"a": 1, "b": 2, "c": 3} {
		got, found := sl.Get(key)
		require.True(t, found, "key %q should be found", key)
		assert.Equal(t, want, got)
	}

	_, found := sl.Get("d")
	assert.False(t, found)
	assert.Equal(t, 3, sl.Len())
	require.NoError(t, analyTool.CheckStruct(sl))
}

func TestPutOverwritesExistingKey(t *testing.T) {
	sl := NewClassicSkipList(42)
	sl.Put("key1", 100)
	assert.Equal(t, 1, sl.Len())

	sl.Put("key1", 200)
	assert.Equal(t, 1, sl.Len(), "overwrite must not change size")

	got, found := sl.Get("key1")
	require.True(t, found)
	assert.Equal(t, skiplist.V(200), got)

	m := sl.Metrics()
	assert.Equal(t, uint64(2), m.TotalInsertions, "overwrite still counts as an insertion")
}

func TestDeleteMiddleKey(t *testing.T) {
	sl := NewClassicSkipList(42)
	sl.Put("alpha", 1)
	sl.Put("mid", 2)
	sl.Put("zulu", 3)

	value, found := sl.Delete("mid")
	require.True(t, found)
	assert.Equal(t, skiplist.V(2), value)
	assert.Equal(t, 2, sl.Len())

	_, found = sl.Get("mid")
	assert.False(t, found)
	for key, want := range map[skiplist.K]skiplist.V{"alpha": 1, "zulu": 3} {
		got, found := sl.Get(key)
		require.True(t, found)
		assert.Equal(t, want, got)
	}
	require.NoError(t, analyTool.CheckStruct(sl))
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	sl := NewClassicSkipList(42)
	sl.Put("only", 7)

	_, found := sl.Delete("missing")
	assert.False(t, found)
	assert.Equal(t, 1, sl.Len())

	value, found := sl.Delete("only")
	require.True(t, found)
	assert.Equal(t, skiplist.V(7), value)
	assert.Equal(t, 0, sl.Len())

	// 再刪一次不得改變任何狀態
	_, found = sl.Delete("only")
	assert.False(t, found)
	assert.Equal(t, 0, sl.Len())
	_, found = sl.Get("only")
	assert.False(t, found)
}

func TestLevelShrinkAfterDelete(t *testing.T) {
	// a 高度 3、b 高度 0、c 高度 1；刪除 a 後最高層應收縮到 1
	sl := NewClassicSkipListWithSource(sourceForLevels(3, 0, 1))
	sl.Put("a", 1)
	sl.Put("b", 2)
	sl.Put("c", 3)

	_, level := sl.GetMaxStats()
	require.Equal(t, 3, level)
	require.NoError(t, analyTool.CheckStruct(sl))

	_, found := sl.Delete("a")
	require.True(t, found)

	_, level = sl.GetMaxStats()
	assert.Equal(t, 1, level)
	require.NoError(t, analyTool.CheckStruct(sl))
}

func TestDeterministicStructure(t *testing.T) {
	// b 高度 1、a 高度 0：level 1 只有 b，level 0 依序為 a -> b
	sl := NewClassicSkipListWithSource(sourceForLevels(1, 0))
	sl.Put("b", 2)
	sl.Put("a", 1)

	head := sl.GetHead()
	require.NotNil(t, head)

	n0 := head.GetNextAt(0)
	require.NotNil(t, n0)
	assert.Equal(t, "a", n0.GetKey())
	assert.Equal(t, 0, n0.GetLevel())

	n1 := n0.GetNextAt(0)
	require.NotNil(t, n1)
	assert.Equal(t, "b", n1.GetKey())
	assert.Equal(t, 1, n1.GetLevel())
	assert.Nil(t, n1.GetNextAt(0))

	top := head.GetNextAt(1)
	require.NotNil(t, top)
	assert.Equal(t, "b", top.GetKey())
	assert.Nil(t, top.GetNextAt(1))
}

func TestRandomStormMatchesModel(t *testing.T) {
	sl := NewClassicSkipList(7)
	rng := rand.New(rand.NewSource(7))
	model := make(map[skiplist.K]skiplist.V)

	const keySpace = 600
	for i := 0; i < 5000; i++ {
		key := datastream.FormatKey(rng.Intn(keySpace))
		switch rng.Intn(10) {
		case 0, 1:
			deleted, found := sl.Delete(key)
			want, ok := model[key]
			require.Equal(t, ok, found, "delete presence mismatch for %q", key)
			if ok {
				require.Equal(t, want, deleted)
				delete(model, key)
			}
		case 2, 3:
			got, found := sl.Get(key)
			want, ok := model[key]
			require.Equal(t, ok, found, "get presence mismatch for %q", key)
			if ok {
				require.Equal(t, want, got)
			}
		default:
			value := skiplist.V(rng.Uint32())
			sl.Put(key, value)
			model[key] = value
		}
	}

	require.Equal(t, len(model), sl.Len())
	for key, want := range model {
		got, found := sl.Get(key)
		require.True(t, found, "key %q lost", key)
		require.Equal(t, want, got)
	}
	require.NoError(t, analyTool.CheckStruct(sl))
}

func TestThousandKeys(t *testing.T) {
	// 鍵為 "key0".."key999"：內部排序是字典序而非數值序
	sl := NewClassicSkipList(42)
	for i := 0; i < 1000; i++ {
		sl.Put(fmt.Sprintf("key%d", i), skiplist.V(i))
	}

	assert.Equal(t, 1000, sl.Len())
	for i := 0; i < 1000; i++ {
		got, found := sl.Get(fmt.Sprintf("key%d", i))
		require.True(t, found, "key%d missing", i)
		require.Equal(t, skiplist.V(i), got)
	}
	require.NoError(t, analyTool.CheckStruct(sl))
}

func TestMetricsScale(t *testing.T) {
	sl := NewClassicSkipList(42)
	const n = 10000
	for i := 0; i < n; i++ {
		sl.Put(datastream.FormatKey(i), skiplist.V(i))
	}

	m := sl.Metrics()
	assert.Equal(t, uint64(n), m.TotalInsertions)
	// 幾何分布期望值 p/(1-p) = 1.0，給寬鬆容忍
	assert.GreaterOrEqual(t, m.AverageLevel, 0.5)
	assert.LessOrEqual(t, m.AverageLevel, 2.0)
	// log2(10000) ≈ 13.3，最高層應在同一數量級
	assert.GreaterOrEqual(t, m.MaxLevel, 6)
	assert.LessOrEqual(t, m.MaxLevel, maxLevel)

	for i := 0; i < 100; i++ {
		sl.Get(datastream.FormatKey(i * 100))
	}
	m = sl.Metrics()
	assert.Equal(t, uint64(100), m.TotalSearches)
	assert.Greater(t, m.SearchComparisons, uint64(0))
	cmpPerSearch := float64(m.SearchComparisons) / float64(m.TotalSearches)
	assert.Less(t, cmpPerSearch, 60.0, "comparisons should stay logarithmic")
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	src := sourceForLevels(2, 0)
	sl := NewClassicSkipListWithSource(src)
	sl.Put("a", 1)
	sl.Put("b", 2)

	before := sl.Metrics()
	assert.Equal(t, 1.0, before.AverageLevel, "(2+0)/2")
	assert.Equal(t, 2, before.MaxLevel)

	_, found := sl.Delete("a")
	require.True(t, found)

	// 舊快照不受後續變動影響
	assert.Equal(t, 1.0, before.AverageLevel)
	assert.Equal(t, 2, before.MaxLevel)

	after := sl.Metrics()
	assert.Equal(t, 0.0, after.AverageLevel)
	assert.Equal(t, 0, after.MaxLevel)
}

func TestEmptyList(t *testing.T) {
	sl := NewClassicSkipList(42)

	_, found := sl.Get("anything")
	assert.False(t, found)
	_, found = sl.Delete("anything")
	assert.False(t, found)
	assert.Equal(t, 0, sl.Len())

	m := sl.Metrics()
	assert.Equal(t, 0.0, m.AverageLevel)
	assert.Equal(t, 0, m.MaxLevel)
	assert.Equal(t, uint64(1), m.TotalSearches)
	require.NoError(t, analyTool.CheckStruct(sl))
}

func BenchmarkClassicPut(b *testing.B) {
	keys := datastream.SimpleKeyspace(1 << 16)
	sl := NewClassicSkipList(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sl.Put(keys[i%len(keys)], skiplist.V(i))
	}
}

func BenchmarkClassicGet(b *testing.B) {
	keys := datastream.SimpleKeyspace(1 << 16)
	sl := NewClassicSkipList(42)
	for i, key := range keys {
		sl.Put(key, skiplist.V(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sl.Get(keys[i%len(keys)])
	}
}
