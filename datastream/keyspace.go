package datastream

import (
	"fmt"

	randv2 "math/rand/v2"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

// FormatKey 將 rank 轉為固定寬度的十進位字串鍵。
// 補零讓字典序與數值序一致，方便推論結構。
func FormatKey(rank int) skiplist.K {
	return fmt.Sprintf("key%08d", rank)
}

// SimpleKeyspace 產生 n 個固定寬度十進位鍵，rank i 對應 keys[i]
func SimpleKeyspace(n int) []skiplist.K {
	keys := make([]skiplist.K, n)
	for i := 0; i < n; i++ {
		keys[i] = FormatKey(i)
	}
	return keys
}

// RandomKeyspace 產生 n 個不重複的隨機十六進位鍵
func RandomKeyspace(n int, r *randv2.Rand) []skiplist.K {
	keys := make([]skiplist.K, 0, n)
	check := make(map[skiplist.K]struct{}, n)
	for len(keys) < n {
		key := skiplist.K(fmt.Sprintf("%08x%08x", r.Uint32(), r.Uint32()))
		if _, ok := check[key]; ok {
			continue
		}
		check[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
