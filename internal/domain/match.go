package domain

// MatchedPair pairs a roster name with a survey document.
type MatchedPair struct {
	CSVName string `json:"csv_name"`
	PDFName string `json:"pdf_name"`
	PDFFile string `json:"pdf_file"`
	Score   int    `json:"score"`
}

// Mismatch is a pair that failed while its workbook was being built.
type Mismatch struct {
	CSVName string `json:"csv_name"`
	PDFName string `json:"pdf_name"`
	Reason  string `json:"reason"`
}

// UnreadableSurvey is a survey document that could not be parsed at all.
type UnreadableSurvey struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// MatchResult classifies every participant of a batch run.
type MatchResult struct {
	Matched    []MatchedPair      `json:"matched"`
	MissingPDF []string           `json:"missing_pdf"`
	MissingCSV []string           `json:"missing_csv"`
	Unreadable []UnreadableSurvey `json:"unreadable,omitempty"`
}
