package arena

import (
	"math/rand"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

const (
	maxLevel    = 16
	probability = 0.5

	// nilIdx 代表空連結
	nilIdx = int32(-1)
)

type arenaNode struct {
	key   skiplist.K
	value skiplist.V
	next  []int32
}

// ArenaSkipList 與 classic 語意相同，但節點集中放在一個 slice 中，
// 連結以索引表示而非指標。刪除後的格子進入 free list 供下次插入重用。
// nodes[0] 固定為 head 哨兵。
type ArenaSkipList struct {
	nodes []arenaNode
	free  []int32
	level int
	size  int
	rand  skiplist.Source

	insertions  uint64
	searches    uint64
	comparisons uint64
}

func NewArenaSkipList(seed int64) *ArenaSkipList {
	return NewArenaSkipListWithSource(rand.New(rand.NewSource(seed)))
}

func NewArenaSkipListWithSource(src skiplist.Source) *ArenaSkipList {
	sl := &ArenaSkipList{
		nodes: make([]arenaNode, 1, 64),
		rand:  src,
	}
	head := arenaNode{next: make([]int32, maxLevel+1)}
	for i := range head.next {
		head.next[i] = nilIdx
	}
	sl.nodes[0] = head
	return sl
}

func (sl *ArenaSkipList) randomLevel() int {
	lvl := 0
	for sl.rand.Float64() < probability && lvl < maxLevel {
		lvl++
	}
	return lvl
}

// alloc 配置一個節點格子，優先取用 free list
func (sl *ArenaSkipList) alloc(key skiplist.K, value skiplist.V, level int) int32 {
	next := make([]int32, level+1)
	for i := range next {
		next[i] = nilIdx
	}
	node := arenaNode{key: key, value: value, next: next}

	if n := len(sl.free); n > 0 {
		idx := sl.free[n-1]
		sl.free = sl.free[:n-1]
		sl.nodes[idx] = node
		return idx
	}
	sl.nodes = append(sl.nodes, node)
	return int32(len(sl.nodes) - 1)
}

func (sl *ArenaSkipList) findUpdate(key skiplist.K, update []int32) {
	cur := int32(0)
	for h := sl.level; h >= 0; h-- {
		for {
			next := sl.nodes[cur].next[h]
			if next == nilIdx || sl.nodes[next].key >= key {
				break
			}
			cur = next
		}
		update[h] = cur
	}
}

func (sl *ArenaSkipList) Put(key skiplist.K, value skiplist.V) {
	var update [maxLevel + 1]int32
	sl.findUpdate(key, update[:])

	if next := sl.nodes[update[0]].next[0]; next != nilIdx && sl.nodes[next].key == key {
		sl.nodes[next].value = value
		sl.insertions++
		return
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		for h := sl.level + 1; h <= lvl; h++ {
			update[h] = 0
		}
		sl.level = lvl
	}

	idx := sl.alloc(key, value, lvl)
	for h := 0; h <= lvl; h++ {
		sl.nodes[idx].next[h] = sl.nodes[update[h]].next[h]
		sl.nodes[update[h]].next[h] = idx
	}
	sl.size++
	sl.insertions++
}

func (sl *ArenaSkipList) Get(key skiplist.K) (skiplist.V, bool) {
	sl.searches++
	cur := int32(0)
	for h := sl.level; h >= 0; h-- {
		for {
			next := sl.nodes[cur].next[h]
			if next == nilIdx {
				break
			}
			sl.comparisons++
			if sl.nodes[next].key >= key {
				break
			}
			cur = next
		}
	}
	if next := sl.nodes[cur].next[0]; next != nilIdx && sl.nodes[next].key == key {
		return sl.nodes[next].value, true
	}
	return 0, false
}

func (sl *ArenaSkipList) Contains(key skiplist.K) bool {
	_, found := sl.Get(key)
	return found
}

func (sl *ArenaSkipList) Delete(key skiplist.K) (skiplist.V, bool) {
	var update [maxLevel + 1]int32
	sl.findUpdate(key, update[:])

	target := sl.nodes[update[0]].next[0]
	if target == nilIdx || sl.nodes[target].key != key {
		return 0, false
	}
	value := sl.nodes[target].value

	for h := 0; h <= sl.level; h++ {
		if sl.nodes[update[h]].next[h] != target {
			continue
		}
		sl.nodes[update[h]].next[h] = sl.nodes[target].next[h]
	}

	for sl.level > 0 && sl.nodes[0].next[sl.level] == nilIdx {
		sl.level--
	}

	// 清空格子避免字串殘留，索引回收給 free list
	sl.nodes[target] = arenaNode{}
	sl.free = append(sl.free, target)
	sl.size--
	return value, true
}

func (sl *ArenaSkipList) Len() int {
	return sl.size
}

// Metrics 回傳統計快照，AverageLevel 同 classic 採呼叫時重新計算
func (sl *ArenaSkipList) Metrics() skiplist.Metrics {
	var total, count uint64
	for idx := sl.nodes[0].next[0]; idx != nilIdx; idx = sl.nodes[idx].next[0] {
		total += uint64(len(sl.nodes[idx].next) - 1)
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

func (sl *ArenaSkipList) GetMaxStats() (int, int) {
	return sl.size, sl.level
}

func (sl *ArenaSkipList) GetHead() skiplist.Nodelike {
	return nodeRef{sl: sl, idx: 0}
}

// nodeRef 以 (list, index) 對外呈現 Nodelike，索引可自由複製
type nodeRef struct {
	sl  *ArenaSkipList
	idx int32
}

func (r nodeRef) GetKey() skiplist.K {
	return r.sl.nodes[r.idx].key
}

func (r nodeRef) GetValue() skiplist.V {
	return r.sl.nodes[r.idx].value
}

func (r nodeRef) GetLevel() int {
	return len(r.sl.nodes[r.idx].next) - 1
}

func (r nodeRef) GetNextAt(level int) skiplist.Nodelike {
	next := r.sl.nodes[r.idx].next
	if level < 0 || level >= len(next) {
		return nil
	}
	if next[level] == nilIdx {
		return nil
	}
	return nodeRef{sl: r.sl, idx: next[level]}
}
