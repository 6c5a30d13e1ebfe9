package dto

// ExportFormat selects the leaderboard export renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered leaderboard ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
