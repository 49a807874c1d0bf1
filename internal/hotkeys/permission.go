package hotkeys

import "os/exec"

// AccessibilitySettingsURL opens the Accessibility pane of System Settings.
const AccessibilitySettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

var openURL = func(url string) error {
	return exec.Command("open", url).Run()
}

// OpenAccessibilitySettings shows the pane where the user grants the
// keyboard hook its permission.
func OpenAccessibilitySettings() error {
	return openURL(AccessibilitySettingsURL)
}
