package domain

type StatsSummary struct {
	TotalFiles  FlexInt `json:"total_files"`
	TotalSize   FlexInt `json:"total_size"`
	ImageCount  FlexInt `json:"image_count"`
	PDFCount    FlexInt `json:"pdf_count"`
	AvgFileSize FlexInt `json:"avg_file_size"`
	MaxFileSize FlexInt `json:"max_file_size"`
}

type DuplicateGroup struct {
	OriginalFilename string  `json:"original_filename"`
	Size             FlexInt `json:"size"`
	DuplicateCount   FlexInt `json:"duplicate_count"`
}
