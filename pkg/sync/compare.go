package sync

import (
	"encoding/json"
	"sort"

	"kibo-catalog-sync/pkg/models"

	"github.com/pkg/errors"
)

// ProductChanged 判断商品相对快照是否发生了实质变更。
// 两侧先按 catalogId 排序 productInCatalogs（该序列的顺序无业务含义），
// 再做与顺序无关的深比较。
func ProductChanged(before, after *models.Product) (bool, error) {
	sortInCatalogs(before)
	sortInCatalogs(after)

	beforeTree, err := toTree(before)
	if err != nil {
		return false, err
	}
	afterTree, err := toTree(after)
	if err != nil {
		return false, err
	}
	return !deepEqual(beforeTree, afterTree), nil
}

func sortInCatalogs(product *models.Product) {
	if product == nil {
		return
	}
	sort.SliceStable(product.ProductInCatalogs, func(i, j int) bool {
		return product.ProductInCatalogs[i].CatalogID < product.ProductInCatalogs[j].CatalogID
	})
}

// toTree 把任意记录转成通用 JSON 树，比较在树上进行
func toTree(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "序列化比较对象失败")
	}
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.Wrap(err, "反序列化比较对象失败")
	}
	return tree, nil
}

// deepEqual 迭代式深比较（显式栈，不受嵌套深度影响）。
// 记录：字段名集合与各字段值逐一相等；
// 序列：长度相同，且按规范全序排序后逐位相等——序列语义上是集合，
// 仅顺序不同不视为变更。
func deepEqual(a, b interface{}) bool {
	type pair struct{ a, b interface{} }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch av := p.a.(type) {
		case []interface{}:
			bv, ok := p.b.([]interface{})
			if !ok || len(av) != len(bv) {
				return false
			}
			as := sortedByCanonical(av)
			bs := sortedByCanonical(bv)
			for i := range as {
				stack = append(stack, pair{as[i], bs[i]})
			}
		case map[string]interface{}:
			bv, ok := p.b.(map[string]interface{})
			if !ok || len(av) != len(bv) {
				return false
			}
			keys := make([]string, 0, len(av))
			for k := range av {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				bval, ok := bv[k]
				if !ok {
					return false
				}
				stack = append(stack, pair{av[k], bval})
			}
		default:
			if p.a != p.b {
				return false
			}
		}
	}
	return true
}

// sortedByCanonical 返回按元素规范形式（序列化文本）排序的副本
func sortedByCanonical(items []interface{}) []interface{} {
	type keyed struct {
		key  string
		item interface{}
	}
	keyedItems := make([]keyed, len(items))
	for i, item := range items {
		keyedItems[i] = keyed{key: canonicalKey(item), item: item}
	}
	sort.SliceStable(keyedItems, func(i, j int) bool { return keyedItems[i].key < keyedItems[j].key })
	sorted := make([]interface{}, len(items))
	for i, ki := range keyedItems {
		sorted[i] = ki.item
	}
	return sorted
}

func canonicalKey(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
