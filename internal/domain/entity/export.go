package entity

import "time"

// ExportRecord tracks one statistics workbook written to the report store
type ExportRecord struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	SizeBytes   int64     `json:"size_bytes"`
	PendingRows int       `json:"pending_rows"`
	CreatedAt   time.Time `json:"created_at"`
}
