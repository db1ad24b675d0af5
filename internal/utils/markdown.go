package utils

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// MarkdownTable renders rows as a GitHub-flavoured markdown table.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	tw := tablewriter.NewWriter(&b)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	tw.AppendBulk(rows)
	tw.Render()
	return b.String()
}

// Percent formats part/total as a percentage with one decimal.
func Percent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}
