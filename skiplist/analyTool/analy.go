package analyTool

import (
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/jpequegn/skiplist-bench/skiplist"
)

type StepMap map[skiplist.K]int

// FindStep 計算找到指定 key 的總步數和各層步數
func FindStep(sl skiplist.Analyable, key skiplist.K) (step int, level []int) {
	cur := sl.GetHead()
	if cur == nil {
		return 0, []int{}
	}

	totalSteps := 0

	// 獲取最大層級
	_, maxLevel := sl.GetMaxStats()
	stepsPerLevel := make([]int, maxLevel+1)

	// 從最高層開始搜尋
	for h := maxLevel; h >= 0; h-- {
		levelSteps := 0

		// 在當前層級水平移動
		for cur != nil {
			nextNode := cur.GetNextAt(h)
			if nextNode == nil || nextNode.GetKey() >= key {
				break
			}
			cur = nextNode
			levelSteps++
		}

		// 如果找到目標 key，記錄步數並返回
		if cur != nil {
			nextNode := cur.GetNextAt(h)
			if nextNode != nil && nextNode.GetKey() == key {
				levelSteps++ // 加上最後一步
				stepsPerLevel[h] = levelSteps
				totalSteps += levelSteps

				return totalSteps, stepsPerLevel[:maxLevel+1]
			}
		}

		stepsPerLevel[h] = levelSteps
		totalSteps += levelSteps + 1 // 加上向下移動
	}

	// 如果沒找到，返回搜尋過程中的總步數
	return totalSteps, stepsPerLevel[:maxLevel+1]
}

// AnalyzeStep 根據 map 提供的 key 出現機率計算平均搜尋步數
func AnalyzeStep(sl skiplist.Analyable, keys map[skiplist.K]float64) (float64, StepMap) {
	if len(keys) == 0 {
		return 0.0, nil
	}

	step := StepMap{}

	var totalExpectedSteps float64
	var totalProbability float64

	// 遞迴搜尋所有node，若存在key則計算期望步數
	var dfs func(node skiplist.Nodelike, level int, steps int)
	dfs = func(node skiplist.Nodelike, level int, steps int) {
		if node == nil {
			return
		}

		if node.GetLevel() == level { // 初次到來，計算期望步數
			if p, ok := keys[node.GetKey()]; ok {
				totalExpectedSteps += float64(steps) * p
				totalProbability += p
				step[node.GetKey()] = steps
			} else if node.GetKey() != "" {
				fmt.Printf("warning: key not found in keys map: %s\n", node.GetKey())
			}
		}
		if level > 0 { // 下降也算一步
			dfs(node, level-1, steps+1)
		}

		nextNode := node.GetNextAt(level)
		if nextNode != nil && nextNode.GetLevel() == level {
			// 若下一個節點高度較高，則不屬於本次走訪
			dfs(nextNode, level, steps+1)
		}
	}

	_, maxLevel := sl.GetMaxStats()
	head := sl.GetHead()
	if head != nil {
		dfs(head, maxLevel, 0)
	}

	// 返回平均步數
	if totalProbability > 0 {
		return totalExpectedSteps / totalProbability, step
	}
	return 0.0, step
}

// PrintSkipList 打印 skip list 的結構
func PrintSkipList(sl skiplist.Analyable, maxLevel, maxNodes int) {
	_, actualMaxLevel := sl.GetMaxStats()
	maxLevel = min(maxLevel, actualMaxLevel)
	output := make([]string, maxLevel+1)

	for i := maxLevel; i >= 0; i-- {
		output[i] = fmt.Sprintf("level %d : ", i)
	}

	node := sl.GetHead()
	if node == nil {
		fmt.Println("Skip list 為空")
		return
	}

	count := 0
	for ; node != nil && count < maxNodes; count++ {
		lv := node.GetLevel()
		label := node.GetKey()
		if label == "" {
			label = "(head)"
		}
		for i := range output {
			if i <= lv {
				output[i] += fmt.Sprintf("%10s ->", label)
			} else {
				output[i] += "           ->"
			}
		}
		nextNode := node.GetNextAt(0)
		if nextNode != nil {
			node = nextNode
		} else {
			break
		}
	}

	for i := maxLevel; i >= 0; i-- {
		fmt.Println(output[i])
	}
}

// PrintLink 打印 skip list 的連結結構
func PrintLink(sl skiplist.Analyable, maxLevel, maxNodes int) {
	head := sl.GetHead()
	if head == nil {
		fmt.Println("Skip list 為空")
		return
	}

	maxLevel = min(maxLevel, head.GetLevel())

	for i := maxLevel; i >= 0; i-- {
		fmt.Printf("level %d : ", i)
		node := head
		count := 0
		for node != nil && count < maxNodes {
			fmt.Printf("%s ->", node.GetKey())
			nextNode := node.GetNextAt(i)
			if nextNode != nil {
				node = nextNode
			} else {
				break
			}
			count++
		}
		fmt.Println()
	}
}

// CheckStruct 檢查 skip list 的結構不變量：
//   - level 0 鏈的 key 嚴格遞增且長度等於 size
//   - 節點在 0..GetLevel() 每一層都被前驅直接指到（前綴性質），不多也不少
//   - head 在回報層級以上不得有任何連結
//
// 結構正確時回傳 nil，否則回傳描述第一個違規的 error。
func CheckStruct(sl skiplist.Analyable) error {
	size, maxLevel := sl.GetMaxStats()
	head := sl.GetHead()
	if head == nil {
		return nil
	}

	for h := maxLevel + 1; h <= head.GetLevel(); h++ {
		if head.GetNextAt(h) != nil {
			return fmt.Errorf("head has link at level %d above reported level %d", h, maxLevel)
		}
	}

	// last[i] 為第 i 層目前走到的節點，用來驗證前綴性質
	last := make([]skiplist.Nodelike, maxLevel+1)
	for i := range last {
		last[i] = head
	}

	count := 0
	var prevKey skiplist.K
	for node := head.GetNextAt(0); node != nil; node = node.GetNextAt(0) {
		count++
		if count > 1 && node.GetKey() <= prevKey {
			return fmt.Errorf("level 0 keys not strictly increasing: %q after %q", node.GetKey(), prevKey)
		}
		prevKey = node.GetKey()

		lv := node.GetLevel()
		if lv > maxLevel {
			return fmt.Errorf("node %q has level %d above list level %d", node.GetKey(), lv, maxLevel)
		}
		for i := 1; i <= lv; i++ {
			nextAtLevel := last[i].GetNextAt(i)
			if nextAtLevel == nil || nextAtLevel.GetKey() != node.GetKey() {
				return fmt.Errorf("node %q not linked at level %d", node.GetKey(), i)
			}
			last[i] = node
		}
	}

	if count != size {
		return fmt.Errorf("level 0 traversal found %d nodes, size reports %d", count, size)
	}

	// 每層走到底後不得再有殘留節點（節點不得出現在高於自身層級的鏈上）
	for i := 1; i <= maxLevel; i++ {
		if nextAtLevel := last[i].GetNextAt(i); nextAtLevel != nil {
			return fmt.Errorf("node %q linked at level %d above its own level", nextAtLevel.GetKey(), i)
		}
	}

	return nil
}

// CountLevel 統計每層的節點數量
func CountLevel(sl skiplist.Analyable) []int {
	_, maxLevel := sl.GetMaxStats()
	levelCounts := make([]int, maxLevel+1)

	head := sl.GetHead()
	if head == nil {
		return levelCounts
	}

	// 遍歷所有節點，節點存在於 level 0 到 GetLevel() 的所有層
	for current := head.GetNextAt(0); current != nil; current = current.GetNextAt(0) {
		nodeLevel := current.GetLevel()
		for i := 0; i <= nodeLevel && i < len(levelCounts); i++ {
			levelCounts[i]++
		}
	}

	return levelCounts
}

// PrintSkipListToCSV 將 skip list 的結構輸出到 CSV，每層一列
func PrintSkipListToCSV(sl skiplist.Analyable, writer *csv.Writer) {
	_, actualMaxLevel := sl.GetMaxStats()

	outstr := make([][]string, actualMaxLevel+1)
	var dfs func(node skiplist.Nodelike, level int)
	dfs = func(node skiplist.Nodelike, level int) {
		if node == nil {
			return
		}
		if node.GetLevel() == level {
			for i := range outstr {
				if i <= level {
					outstr[i] = append(outstr[i], node.GetKey())
				} else {
					outstr[i] = append(outstr[i], "")
				}
			}
		}
		if level > 0 {
			dfs(node, level-1)
		}
		nextNode := node.GetNextAt(level)
		if nextNode != nil && nextNode.GetLevel() == level {
			dfs(nextNode, level)
		}
	}
	head := sl.GetHead()
	if head != nil {
		dfs(head, actualMaxLevel)
	}

	for i := len(outstr) - 1; i >= 0; i-- {
		row := make([]string, len(outstr[i])+1)
		row[0] = fmt.Sprintf("level %d", i)
		copy(row[1:], outstr[i])
		writer.Write(row)
	}
}

func (mp StepMap) Print() {
	out := make([]struct {
		key  skiplist.K
		step int
	}, 0, len(mp))
	for k, v := range mp {
		out = append(out, struct {
			key  skiplist.K
			step int
		}{k, v})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].key < out[j].key
	})

	for _, v := range out {
		fmt.Printf("%10s  ", v.key)
	}
	fmt.Println()
	for _, v := range out {
		fmt.Printf("%10d  ", v.step)
	}
	fmt.Println()
}

func (mp StepMap) PrintToCSV(writer *csv.Writer) {
	keys := make([]skiplist.K, 0, len(mp))
	for k := range mp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	row := make([]string, len(keys)+1)
	row[0] = "steps"
	for i, k := range keys {
		row[i+1] = fmt.Sprintf("%d", mp[k])
	}
	writer.Write(row)
}
