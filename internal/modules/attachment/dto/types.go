package dto

type AttachInput struct {
	Date      string
	SessionID string
	Sources   []string
}

type FileRef struct {
	Date      string
	SessionID string
	FileName  string
}

type AttachmentOutput struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	FileName     string `json:"fileName"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	AttachedAt   string `json:"attachedAt,omitempty"`
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	PageCount    int    `json:"pageCount,omitempty"`
}

type RepairOutput struct {
	SessionsUpdated []string            `json:"sessionsUpdated"`
	FilesCopied     int                 `json:"filesCopied"`
	Missing         []string            `json:"missing"`
	Failed          []string            `json:"failed"`
	FoldersRemoved  []string            `json:"foldersRemoved"`
	FoldersKept     map[string][]string `json:"foldersKept"`
}
