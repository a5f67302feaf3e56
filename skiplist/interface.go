package skiplist

// K 為排序鍵型別，依字典序排序
type K = string

// V 為節點儲存的值型別
type V = uint32

// Source 提供 [0,1) 均勻隨機數的來源，測試可注入固定序列以驗證結構
type Source interface {
	Float64() float64
}

// Metrics 為操作統計的快照，回傳後與內部狀態脫鉤
type Metrics struct {
	TotalInsertions   uint64
	TotalSearches     uint64
	SearchComparisons uint64
	AverageLevel      float64
	MaxLevel          int
}

type SkipList interface {
	Contains(key K) bool
	Get(key K) (V, bool)
	Put(key K, value V)
	Delete(key K) (V, bool)
	Len() int
}

// Analyable 提供分析功能的介面
type Analyable interface {
	SkipList
	// GetMaxStats 獲取節點數和最大層級
	GetMaxStats() (size int, maxLevel int)
	// Metrics 取得統計快照；AverageLevel 於呼叫時以 O(n) 走訪重新計算
	Metrics() Metrics
	GetHead() Nodelike
}

type Nodelike interface {
	GetKey() K
	GetValue() V
	GetLevel() int
	GetNextAt(level int) Nodelike
}
