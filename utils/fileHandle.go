package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SaveUploadedFile copies src into destDir under a fresh name and returns that name
// together with the number of bytes written.
func SaveUploadedFile(src io.Reader, destDir, ext string) (string, int64, error) {
	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", 0, err
	}

	// Create a unique filename
	newFilename := time.Now().Format("20060102150405") + "-" + uuid.NewString()
	if ext != "" {
		newFilename += "." + ext
	}
	filePath := filepath.Join(destDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(filePath)
		return "", 0, err
	}

	return newFilename, written, nil
}

func GetFileURL(baseURL, publicID string) string {
	if publicID == "" {
		return ""
	}
	return baseURL + "/" + publicID
}
