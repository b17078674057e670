package domain

// ProcessingResult reports what the document-processing service did with an upload
type ProcessingResult struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// UploadResult is returned after a file has been stored
type UploadResult struct {
	Filename   string           `json:"filename"`
	ObjectName string           `json:"object_name"`
	URL        string           `json:"url"`
	Size       int64            `json:"size"`
	Processing ProcessingResult `json:"processing"`
}
