package utils

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// MessageType selects the style of a console message.
type MessageType int

// The message types printed by the command line tool.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

var messageStyles = map[MessageType]lipgloss.Style{
	DefaultMessage: lipgloss.NewStyle(),
	StatusMessage:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
	SuccessMessage: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	ErrorMessage:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
}

// DecorateText renders the message in the style of its type. Colors are
// dropped when the output does not support them.
func DecorateText(s string, msgType MessageType) string {
	style, ok := messageStyles[msgType]
	if !ok {
		return s
	}
	return style.Render(s)
}

// FormatTime formats an export duration: seconds with two decimals below a
// minute, whole seconds above.
func FormatTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
