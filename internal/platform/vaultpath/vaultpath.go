// Package vaultpath computes where session data lives on disk. It never
// touches the filesystem and performs no validation.
package vaultpath

import "path/filepath"

const (
	sessionsDir    = "sessions"
	attachmentsDir = "attachments"
	metadataName   = "metadata.json"
	lockName       = ".metadata.lock"
)

type DatePaths struct {
	DateFolder        string
	SessionsFolder    string
	AttachmentsFolder string
	MetadataFile      string
	LockFile          string
}

// Root is the folder that holds one sub-folder per date.
func Root(root string) string {
	return filepath.Join(root, sessionsDir)
}

func ForDate(root, date string) DatePaths {
	dateFolder := filepath.Join(Root(root), date)
	return DatePaths{
		DateFolder:        dateFolder,
		SessionsFolder:    filepath.Join(dateFolder, sessionsDir),
		AttachmentsFolder: filepath.Join(dateFolder, attachmentsDir),
		MetadataFile:      filepath.Join(dateFolder, metadataName),
		LockFile:          filepath.Join(dateFolder, lockName),
	}
}

func SessionFileName(id string) string {
	return "session-" + id + ".json"
}

func SessionFile(sessionsFolder, id string) string {
	return filepath.Join(sessionsFolder, SessionFileName(id))
}

func AttachmentFolder(attachmentsFolder, sessionID string) string {
	return filepath.Join(attachmentsFolder, sessionID)
}

// RelativeAttachment is the attachment path relative to its date folder.
func RelativeAttachment(sessionID, fileName string) string {
	return attachmentsDir + "/" + sessionID + "/" + fileName
}
