package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderStageProgress renders a bar like [████░░░░] 3/8 for the wizard.
// done is the number of the current section (1-based).
func RenderStageProgress(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	done = max(0, min(done, total))
	width = max(width, 2)

	filled := done * width / total
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleYellow
	if done == total {
		style = StyleGreen
	}
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), done, total)
}
