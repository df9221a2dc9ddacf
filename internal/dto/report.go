package dto

// ReportFormat is an export file type.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ReportQuery selects the export format.
type ReportQuery struct {
	Format ReportFormat `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ReportFile is a rendered export.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
