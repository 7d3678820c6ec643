package cmd

import "github.com/KaramelBytes/tabreport/internal/ingest"

// demoSource is six months of sales figures used by --demo.
func demoSource() ingest.Source {
	return ingest.ColumnMapSource{
		{Name: "月份", Values: []any{"1月", "2月", "3月", "4月", "5月", "6月"}},
		{Name: "销售额", Values: []any{12000, 15000, 18000, 16000, 20000, 22000}},
		{Name: "利润", Values: []any{3600, 4500, 5400, 4800, 6000, 6600}},
		{Name: "客户数量", Values: []any{120, 150, 180, 160, 200, 220}},
	}
}
