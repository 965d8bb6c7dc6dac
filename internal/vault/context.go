package vault

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault/adapter"
)

type namedTable struct {
	file  string
	table *adapter.Table
}

// bookkeeping columns are folded into the row prefix or omitted.
var bookkeeping = map[string]bool{"timestamp": true, "date": true, "time": true, "source": true}

func renderContext(p types.Partition, plan Plan, tables []namedTable, maxChars int) string {
	var blocks []string
	for _, nt := range tables {
		if nt.table == nil || len(nt.table.Rows) == 0 {
			continue
		}
		var block string
		switch plan.Need {
		case NeedPattern:
			block = renderPattern(nt, plan.Limit)
		case NeedKeyword:
			block = renderKeyword(nt, plan)
		default:
			block = renderRecent(nt, plan.Limit)
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	head := fmt.Sprintf("Vault history for %s (%s):", p, describeNeed(plan))
	return clampBlock(head+"\n"+strings.Join(blocks, "\n"), maxChars)
}

func describeNeed(plan Plan) string {
	switch plan.Need {
	case NeedPattern:
		return "long-term summary"
	case NeedKeyword:
		return "entries matching " + strings.Join(plan.Terms, ", ")
	default:
		return "most recent entries"
	}
}

func renderRecent(nt namedTable, limit int) string {
	rows := nt.table.Rows
	start := len(rows) - limit
	if start < 0 {
		start = 0
	}
	lines := []string{fmt.Sprintf("%s (%d total):", nt.file, len(rows))}
	for i := start; i < len(rows); i++ {
		lines = append(lines, "- "+formatRow(nt.table.Row(i)))
	}
	return strings.Join(lines, "\n")
}

func renderKeyword(nt namedTable, plan Plan) string {
	var hits []int
	for i := len(nt.table.Rows) - 1; i >= 0 && len(hits) < plan.Limit; i-- {
		hay := strings.ToLower(strings.Join(nt.table.Rows[i], " "))
		for _, term := range plan.Terms {
			if strings.Contains(hay, term) {
				hits = append(hits, i)
				break
			}
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("%s: no entries mention %s.", nt.file, strings.Join(plan.Terms, " or "))
	}
	lines := []string{fmt.Sprintf("%s (%d matching):", nt.file, len(hits))}
	for j := len(hits) - 1; j >= 0; j-- {
		lines = append(lines, "- "+formatRow(nt.table.Row(hits[j])))
	}
	return strings.Join(lines, "\n")
}

type numericStat struct {
	n             int
	sum, min, max float64
}

func renderPattern(nt namedTable, sample int) string {
	t := nt.table
	rows := t.Rows
	if sample > 0 && len(rows) > sample {
		rows = rows[len(rows)-sample:]
	}
	dateCol := indexOf(t.Header, "date")

	lines := []string{fmt.Sprintf("%s: %d entries", nt.file, len(t.Rows))}
	if dateCol >= 0 && len(rows) > 0 {
		first, last := cell(rows[0], dateCol), cell(rows[len(rows)-1], dateCol)
		if first != "" && last != "" {
			lines[0] += fmt.Sprintf(" (%s to %s)", first, last)
		}
	}

	for col, name := range t.Header {
		if bookkeeping[name] {
			continue
		}
		stat := numericStat{}
		counts := map[string]int{}
		for _, r := range rows {
			v := strings.TrimSpace(cell(r, col))
			if v == "" {
				continue
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				if stat.n == 0 || f < stat.min {
					stat.min = f
				}
				if stat.n == 0 || f > stat.max {
					stat.max = f
				}
				stat.n++
				stat.sum += f
				continue
			}
			counts[v]++
		}
		switch {
		case stat.n > 0 && len(counts) == 0:
			lines = append(lines, fmt.Sprintf("- %s: avg %s (min %s, max %s)",
				name, formatNum(stat.sum/float64(stat.n)), formatNum(stat.min), formatNum(stat.max)))
		case len(counts) > 0 && len(counts) <= 12:
			lines = append(lines, fmt.Sprintf("- %s: %s", name, topCounts(counts, 3)))
		}
	}

	tail := len(t.Rows) - 2
	if tail < 0 {
		tail = 0
	}
	for i := tail; i < len(t.Rows); i++ {
		lines = append(lines, "- latest: "+formatRow(t.Row(i)))
	}
	return strings.Join(lines, "\n")
}

func topCounts(counts map[string]int, n int) string {
	type kv struct {
		k string
		v int
	}
	var all []kv
	for k, v := range counts {
		all = append(all, kv{k, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].v != all[j].v {
			return all[i].v > all[j].v
		}
		return all[i].k < all[j].k
	})
	if len(all) > n {
		all = all[:n]
	}
	parts := make([]string, len(all))
	for i, e := range all {
		parts[i] = fmt.Sprintf("%s x%d", e.k, e.v)
	}
	return strings.Join(parts, ", ")
}

func formatRow(r types.Row) string {
	date, _ := r.Get("date")
	clock, _ := r.Get("time")
	var kvs []string
	for _, f := range r {
		if bookkeeping[f.Key] || strings.TrimSpace(f.Value) == "" {
			continue
		}
		kvs = append(kvs, f.Key+"="+f.Value)
	}
	prefix := strings.TrimSpace(date + " " + clock)
	if prefix == "" {
		return strings.Join(kvs, ", ")
	}
	return prefix + ": " + strings.Join(kvs, ", ")
}

func formatNum(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// clampBlock cuts at the last full line that fits.
func clampBlock(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := strings.LastIndexByte(s[:max], '\n')
	if cut <= 0 {
		return strings.TrimSpace(s[:max])
	}
	return strings.TrimSpace(s[:cut])
}
