package pkgfile

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

// ChecksumFunction is used to fingerprint packages in the logs.
const ChecksumFunction = crypto.SHA512

var (
	// ErrNotFound is returned when the package path does not exist.
	ErrNotFound = errors.New("package file not found")
	// ErrNotRegular is returned when the package path is a directory or device.
	ErrNotRegular = errors.New("package path is not a regular file")
	// errHashUnavailable is returned when the checksum function is not linked in.
	errHashUnavailable = errors.New("hash function unavailable")
)

// Package is a package read from disk.
type Package struct {
	// Name is the base name of the file.
	Name string
	// Path is the cleaned path the package was read from.
	Path string
	// Content is the raw package bytes.
	Content []byte
	// Checksum is the hex encoded SHA-512 digest of Content.
	Checksum string
}

// Size returns the package size in bytes.
func (p *Package) Size() int {
	return len(p.Content)
}

// Load reads the package at path and computes its checksum.
func Load(path string) (*Package, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("stat package: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}

	checksum, err := Checksum(content)
	if err != nil {
		return nil, err
	}

	return &Package{
		Name:     filepath.Base(path),
		Path:     path,
		Content:  content,
		Checksum: checksum,
	}, nil
}

// Checksum returns the hex encoded ChecksumFunction digest of content.
func Checksum(content []byte) (string, error) {
	if !ChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err := hasher.Write(content); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
