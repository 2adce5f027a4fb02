package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a full-height content panel.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders read notifications and timestamps.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// BadgeStyle renders the unread count next to the bell.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// ActionButtonStyle renders a notification's single action.
var ActionButtonStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Underline(true)

// BannerStyle renders the waiting-for-agent strip in the chat panel.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorYellow).
	PaddingLeft(1)

// ToastStyle returns the bordered box used for a toast of the given type.
func ToastStyle(t model.NotificationType) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(TypeColor(t)).
		Padding(0, 1)
}

// TypeColor maps a notification type to its accent color.
func TypeColor(t model.NotificationType) lipgloss.AdaptiveColor {
	switch t {
	case model.NotificationSuccess:
		return ColorGreen
	case model.NotificationWarning:
		return ColorYellow
	case model.NotificationError:
		return ColorRed
	default:
		return ColorBlue
	}
}

// TypeIcon returns the glyph for a notification type.
func TypeIcon(t model.NotificationType) string {
	switch t {
	case model.NotificationSuccess:
		return "✓"
	case model.NotificationWarning:
		return "⚠"
	case model.NotificationError:
		return "✗"
	default:
		return "ℹ"
	}
}

// TypeStyle returns a bold style in the type's accent color.
func TypeStyle(t model.NotificationType) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(TypeColor(t))
}

// CategoryIcon returns the glyph shown before a notification's title.
func CategoryIcon(c model.Category) string {
	switch c {
	case model.CategoryAppointment:
		return "📅"
	case model.CategoryResults:
		return "🧪"
	case model.CategoryPayment:
		return "💳"
	case model.CategorySystem:
		return "⚙"
	default:
		return "🔔"
	}
}

// DeliveryIcon returns the tick marks shown under a user message.
func DeliveryIcon(s model.DeliveryStatus) string {
	switch s {
	case model.StatusRead:
		return lipgloss.NewStyle().Foreground(ColorBlue).Render("✓✓")
	case model.StatusDelivered:
		return lipgloss.NewStyle().Foreground(ColorGray).Render("✓✓")
	default:
		return lipgloss.NewStyle().Foreground(ColorGray).Render("✓")
	}
}

// SenderStyle returns the label style for a chat message author.
func SenderStyle(s model.Sender) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch s {
	case model.SenderUser:
		return base.Foreground(ColorBlue)
	case model.SenderAdmin:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorMagenta)
	}
}

// PresenceStyle colors the agent presence dot.
func PresenceStyle(online bool) lipgloss.Style {
	if online {
		return lipgloss.NewStyle().Foreground(ColorGreen)
	}
	return lipgloss.NewStyle().Foreground(ColorGray)
}
