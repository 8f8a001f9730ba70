package ui

// DisplayConfig holds configuration for UI rendering
type DisplayConfig struct {
	// Truncation limits
	MaxTitleLength      int
	MaxNameLength       int
	MaxPreviewLines     int
	MaxDescriptionLines int

	// Display lengths
	UUIDDisplayLength    int
	DefaultTerminalWidth int
}

// DefaultConfig returns the default display configuration
func DefaultConfig() DisplayConfig {
	return DisplayConfig{
		MaxTitleLength:      48,
		MaxNameLength:       24,
		MaxPreviewLines:     6,
		MaxDescriptionLines: 10,

		UUIDDisplayLength:    8,
		DefaultTerminalWidth: 120,
	}
}

// Global display configuration (can be overridden)
var Display = DefaultConfig()
