package params

type ReportFormat int

const (
	ReportFormatJSON ReportFormat = iota
	ReportFormatCSV
	ReportFormatUnknown
)

func (f ReportFormat) String() string {
	switch f {
	case ReportFormatJSON:
		return "json"
	case ReportFormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// ParseReportFormat defaults to JSON when format is empty.
func ParseReportFormat(format string) ReportFormat {
	switch format {
	case "", "json":
		return ReportFormatJSON
	case "csv":
		return ReportFormatCSV
	default:
		return ReportFormatUnknown
	}
}
