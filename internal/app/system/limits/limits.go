// internal/app/system/limits/limits.go
package limits

// Request and field size limits. Free-text fields are truncated to these
// lengths (in runes) after sanitizing.
const (
	// MaxJSONBody is the largest request body Decode will read.
	MaxJSONBody = 64 << 10 // 64 KB

	MaxName    = 200
	MaxPlace   = 100 // city, province
	MaxAddress = 300
	MaxPhone   = 40
	MaxCause   = 200

	MaxTransferNotes = 1000
	MaxReportNotes   = 2000

	// MaxExportRows caps a single CSV export.
	MaxExportRows = 20000
)
