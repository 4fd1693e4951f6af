//go:build !windows

package util

// LaunchedFromDesktop is always false outside Windows; there a desktop
// launch still comes with a usable terminal or a service manager.
func LaunchedFromDesktop() bool {
	return false
}

// WaitForEnter is a no-op outside Windows.
func WaitForEnter() {}
