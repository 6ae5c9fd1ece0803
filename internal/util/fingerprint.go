package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintWindow = 4096

// CalculateFileFingerprint returns the CRC32 of the first and last 4KB of a
// file, or of the whole file when it is small.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	hash := crc32.NewIEEE()
	size := stat.Size()
	if size <= 2*fingerprintWindow {
		if _, err := io.Copy(hash, file); err != nil {
			return "", err
		}
		return fmt.Sprintf("%08x", hash.Sum32()), nil
	}

	if _, err := io.CopyN(hash, file, fingerprintWindow); err != nil {
		return "", err
	}
	if _, err := file.Seek(-fingerprintWindow, io.SeekEnd); err != nil {
		return "", err
	}
	if _, err := io.CopyN(hash, file, fingerprintWindow); err != nil {
		return "", err
	}
	return fmt.Sprintf("%08x", hash.Sum32()), nil
}
