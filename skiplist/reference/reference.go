package reference

import (
	huandu "github.com/huandu/skiplist"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

// ReferenceSkipList 包裝 huandu/skiplist 作為外部對照組，
// 讓 benchrun 可以把自家實作與成熟的第三方實作放在同一張表比較。
// 它沒有內部計數器，因此不實作 Analyable。
type ReferenceSkipList struct {
	list *huandu.SkipList
}

func NewReferenceSkipList() *ReferenceSkipList {
	return &ReferenceSkipList{list: huandu.New(huandu.String)}
}

func (sl *ReferenceSkipList) Put(key skiplist.K, value skiplist.V) {
	sl.list.Set(key, value)
}

func (sl *ReferenceSkipList) Get(key skiplist.K) (skiplist.V, bool) {
	elem := sl.list.Get(key)
	if elem == nil {
		return 0, false
	}
	return elem.Value.(skiplist.V), true
}

func (sl *ReferenceSkipList) Contains(key skiplist.K) bool {
	return sl.list.Get(key) != nil
}

func (sl *ReferenceSkipList) Delete(key skiplist.K) (skiplist.V, bool) {
	elem := sl.list.Remove(key)
	if elem == nil {
		return 0, false
	}
	return elem.Value.(skiplist.V), true
}

func (sl *ReferenceSkipList) Len() int {
	return sl.list.Len()
}
