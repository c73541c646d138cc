// Package rules holds the pure game rules: stat aggregation and the item
// transactions that move items between inventory and equipment.
package rules

import "github.com/tatianab/nexus/internal/models"

// CalculateTotalStats returns base plus the bonuses of every equipped item.
// The result is for display only; base is never modified.
func CalculateTotalStats(base models.CharacterStats, eq models.Equipment) models.CharacterStats {
	total := base.Clone()

	var sum models.Bonuses
	for _, item := range eq.Items() {
		b := item.Bonuses()
		for _, a := range models.AllAttributes {
			sum[a] += b[a]
		}
	}
	for _, a := range models.AllAttributes {
		total.AddAttribute(a, sum[a])
	}
	return total
}
