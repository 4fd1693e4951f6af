// Package device holds the report models of the virtual output devices
// the sink drives: keyboard, mouse and touchpad.
package device

// ReportBuilder is implemented by device states that encode to a report.
type ReportBuilder interface {
	// BuildReport encodes the state into a device report.
	BuildReport() []byte
}
