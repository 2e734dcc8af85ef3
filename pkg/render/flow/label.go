package flow

const (
	labelMaxRunes  = 18
	labelKeepRunes = 16
	labelEllipsis  = "..."
)

// TruncateLabel shortens labels longer than 18 characters to their first
// 16 characters followed by "...". Shorter labels are returned unchanged.
// Length is counted in runes.
func TruncateLabel(label string) string {
	r := []rune(label)
	if len(r) <= labelMaxRunes {
		return label
	}
	return string(r[:labelKeepRunes]) + labelEllipsis
}
