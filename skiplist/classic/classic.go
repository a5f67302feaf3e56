package classic

import (
	"math/rand"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

const (
	maxLevel    = 16
	probability = 0.5
)

type classicNode struct {
	key   skiplist.K
	value skiplist.V
	next  []*classicNode
}

func newNode(key skiplist.K, value skiplist.V, level int) *classicNode {
	return &classicNode{
		key:   key,
		value: value,
		next:  make([]*classicNode, level+1),
	}
}

// ClassicSkipList 為教科書式的隨機層級 skip list：
// 以 update 陣列記錄每層插入點的前驅節點，節點高度由擲硬幣決定。
// 另外累計插入、查詢與比較次數供 benchmark 分析。
type ClassicSkipList struct {
	head  *classicNode
	level int
	size  int
	rand  skiplist.Source

	insertions  uint64
	searches    uint64
	comparisons uint64
}

func NewClassicSkipList(seed int64) *ClassicSkipList {
	return NewClassicSkipListWithSource(rand.New(rand.NewSource(seed)))
}

// NewClassicSkipListWithSource 以外部注入的隨機來源建立 skip list，
// 測試可用固定序列控制每個節點的高度。
func NewClassicSkipListWithSource(src skiplist.Source) *ClassicSkipList {
	return &ClassicSkipList{
		head: newNode("", 0, maxLevel),
		rand: src,
	}
}

func (sl *ClassicSkipList) randomLevel() int {
	lvl := 0
	for sl.rand.Float64() < probability && lvl < maxLevel {
		lvl++
	}
	return lvl
}

// findUpdate 由目前最高層下降，記錄每層最後一個 key 小於目標的節點
func (sl *ClassicSkipList) findUpdate(key skiplist.K, update []*classicNode) {
	cur := sl.head
	for h := sl.level; h >= 0; h-- {
		for cur.next[h] != nil && cur.next[h].key < key {
			cur = cur.next[h]
		}
		update[h] = cur
	}
}

// Put 插入或更新 key 對應的 value；key 已存在時僅覆寫，不產生第二個節點
func (sl *ClassicSkipList) Put(key skiplist.K, value skiplist.V) {
	var update [maxLevel + 1]*classicNode
	sl.findUpdate(key, update[:])

	if next := update[0].next[0]; next != nil && next.key == key {
		next.value = value
		sl.insertions++
		return
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		// 新引入的層級沒有任何節點，前驅只能是 head
		for h := sl.level + 1; h <= lvl; h++ {
			update[h] = sl.head
		}
		sl.level = lvl
	}

	node := newNode(key, value, lvl)
	for h := 0; h <= lvl; h++ {
		node.next[h] = update[h].next[h]
		update[h].next[h] = node
	}
	sl.size++
	sl.insertions++
}

// Get 取得 key 對應的 value，並累計下降過程中每次的 key 比較
func (sl *ClassicSkipList) Get(key skiplist.K) (skiplist.V, bool) {
	sl.searches++
	cur := sl.head
	for h := sl.level; h >= 0; h-- {
		for cur.next[h] != nil {
			sl.comparisons++
			if cur.next[h].key >= key {
				break
			}
			cur = cur.next[h]
		}
	}
	if next := cur.next[0]; next != nil && next.key == key {
		return next.value, true
	}
	return 0, false
}

// Contains 判斷 key 是否存在
func (sl *ClassicSkipList) Contains(key skiplist.K) bool {
	_, found := sl.Get(key)
	return found
}

// Delete 刪除 key，回傳被移除的 value；key 不存在時不做任何結構變動
func (sl *ClassicSkipList) Delete(key skiplist.K) (skiplist.V, bool) {
	var update [maxLevel + 1]*classicNode
	sl.findUpdate(key, update[:])

	target := update[0].next[0]
	if target == nil || target.key != key {
		return 0, false
	}

	for h := 0; h <= sl.level; h++ {
		// 節點未參與該層時，前驅指標保持不動
		if update[h].next[h] != target {
			continue
		}
		update[h].next[h] = target.next[h]
	}

	// 最高層清空後收縮，使 level 始終反映實際使用中的最大高度
	for sl.level > 0 && sl.head.next[sl.level] == nil {
		sl.level--
	}
	sl.size--
	return target.value, true
}

func (sl *ClassicSkipList) Len() int {
	return sl.size
}

// Metrics 回傳統計快照。AverageLevel 在此以 level 0 走訪重新計算，
// 刻意不在每次 Put/Delete 時維護，避免大量插入時退化為 O(n^2)。
func (sl *ClassicSkipList) Metrics() skiplist.Metrics {
	var total, count uint64
	for n := sl.head.next[0]; n != nil; n = n.next[0] {
		total += uint64(len(n.next) - 1)
		count++
	}
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	return skiplist.Metrics{
		TotalInsertions:   sl.insertions,
		TotalSearches:     sl.searches,
		SearchComparisons: sl.comparisons,
		AverageLevel:      avg,
		MaxLevel:          sl.level,
	}
}

func (sl *ClassicSkipList) GetMaxStats() (int, int) {
	return sl.size, sl.level
}

func (sl *ClassicSkipList) GetHead() skiplist.Nodelike {
	return sl.head
}

func (nd *classicNode) GetKey() skiplist.K {
	return nd.key
}

func (nd *classicNode) GetValue() skiplist.V {
	return nd.value
}

func (nd *classicNode) GetLevel() int {
	return len(nd.next) - 1
}

func (nd *classicNode) GetNextAt(level int) skiplist.Nodelike {
	if level < 0 || level >= len(nd.next) {
		return nil
	}
	if nd.next[level] == nil {
		return nil
	}
	return nd.next[level]
}
