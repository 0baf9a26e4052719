// Package contract models a single smart-contract source file under analysis.
//
// An Artifact is built once by New: the source is read and language metadata
// is extracted at construction, so accessors never touch the filesystem.
package contract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/sieve/internal/errors"
)

// Language is the closed set of contract languages.
type Language string

const (
	// LanguageSolidity is EVM Solidity source (.sol).
	LanguageSolidity Language = "solidity"

	// LanguageRust is Solana program source (.rs).
	LanguageRust Language = "rust"
)

// String returns the language name.
func (l Language) String() string {
	return string(l)
}

// LanguageFromExt maps a file extension (with dot) to a Language.
func LanguageFromExt(ext string) (Language, error) {
	switch strings.ToLower(ext) {
	case ".sol":
		return LanguageSolidity, nil
	case ".rs":
		return LanguageRust, nil
	default:
		return "", errors.Wrapf(errors.ErrUnsupportedLanguage, "extension %q", ext)
	}
}

// Rust framework markers.
const (
	FrameworkAnchor  = "anchor"
	FrameworkSolana  = "solana"
	FrameworkUnknown = "unknown"

	anchorMarker = "use anchor_lang::prelude::*;"
	solanaMarker = "use solana_program::"
)

// pragmaRe captures the first declared Solidity version constraint.
var pragmaRe = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`) //nolint:gochecknoglobals // compiled once

// addressRe finds an explorer address embedded in a file stem.
var addressRe = regexp.MustCompile(`0x[0-9a-fA-F]{40}`) //nolint:gochecknoglobals // compiled once

// Metadata holds language-specific facts extracted from the source.
type Metadata struct {
	// Pragma is the first "pragma solidity" constraint, empty when absent.
	Pragma string `json:"pragma,omitempty"`

	// Framework is anchor, solana or unknown for Rust sources.
	Framework string `json:"framework,omitempty"`
	IsAnchor  bool   `json:"is_anchor,omitempty"`
	IsSolana  bool   `json:"is_solana,omitempty"`
}

// Artifact is one analysis target. It is immutable after New returns.
type Artifact struct {
	path     string
	name     string
	language Language
	source   string
	metadata Metadata
	address  string
}

// New resolves path, reads its source and extracts metadata.
// It fails with ErrNotFound when the file is missing and ErrUnsupportedLanguage
// for any extension other than .sol and .rs.
func New(path string) (*Artifact, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, errors.Wrapf(errors.ErrNotFound, "%s", abs)
	}

	ext := filepath.Ext(abs)
	lang, err := LanguageFromExt(ext)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", abs)
	}

	data, err := os.ReadFile(abs) //nolint:gosec // path comes from the caller's contract selection
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", abs)
	}

	a := &Artifact{
		path:     abs,
		name:     strings.TrimSuffix(filepath.Base(abs), ext),
		language: lang,
		source:   string(data),
	}
	a.metadata = extractMetadata(lang, a.source)
	if m := addressRe.FindString(a.name); m != "" && common.IsHexAddress(m) {
		a.address = common.HexToAddress(m).Hex()
	}
	return a, nil
}

func extractMetadata(lang Language, source string) Metadata {
	switch lang {
	case LanguageSolidity:
		var md Metadata
		if m := pragmaRe.FindStringSubmatch(source); m != nil {
			md.Pragma = strings.TrimSpace(m[1])
		}
		return md
	case LanguageRust:
		md := Metadata{
			IsAnchor: strings.Contains(source, anchorMarker),
			IsSolana: strings.Contains(source, solanaMarker),
		}
		switch {
		case md.IsAnchor:
			md.Framework = FrameworkAnchor
		case md.IsSolana:
			md.Framework = FrameworkSolana
		default:
			md.Framework = FrameworkUnknown
		}
		return md
	}
	return Metadata{}
}

// Path returns the absolute file path.
func (a *Artifact) Path() string { return a.path }

// Name returns the file stem. It keys every stored result.
func (a *Artifact) Name() string { return a.name }

// Language returns the source language.
func (a *Artifact) Language() Language { return a.language }

// Source returns the file content read at construction.
func (a *Artifact) Source() string { return a.source }

// Metadata returns the extracted language facts.
func (a *Artifact) Metadata() Metadata { return a.metadata }

// Address returns the checksummed on-chain address embedded in the file
// name, or "" when the name carries none.
func (a *Artifact) Address() string { return a.address }

// MarshalJSON renders the artifact without its source.
func (a *Artifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path     string   `json:"path"`
		Name     string   `json:"name"`
		Language Language `json:"language"`
		Address  string   `json:"address,omitempty"`
		Metadata Metadata `json:"metadata"`
	}{a.path, a.name, a.language, a.address, a.metadata})
}
