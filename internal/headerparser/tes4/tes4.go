// Package tes4 parses the TES4/TES3 record-zero header shared by every
// Bethesda plugin format, plus the OpenMW extensions layered on top of it.
// It is the sole place in this module that understands plugin binary
// layout; everything above it deals only in headerparser.Header.
package tes4

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
)

// Record-zero flag bits, as written into the TES4/TES3 header.
const (
	flagMaster    = 0x00000001
	flagLocalized = 0x00000080
	flagLight     = 0x00000200 // ESL / light master
	flagMedium    = 0x00000400 // Starfield medium master
	flagBlueprint = 0x00000800 // Starfield blueprint master
	flagOverride  = 0x00001000 // Starfield override plugin
)

var (
	ErrNotAPlugin     = errors.New("tes4: file is not a plugin")
	ErrTruncated      = errors.New("tes4: file is truncated")
	ErrBadSignature   = errors.New("tes4: unexpected record signature")
)

type recordHeader struct {
	Signature    [4]byte
	DataSize     uint32
	Flags        uint32
	FormID       uint32
	VersionCtrl  uint32
	FormVersion  uint16
	Unknown      uint16
}

// Parser parses plugin headers for a single recognised extension set. It
// implements headerparser.Parser.
type Parser struct {
	// OpenMWExtensions enables recognition of .omwgame/.omwaddon/.omwscripts
	// as game/addon files in addition to .esm/.esp.
	OpenMWExtensions bool
}

func (p Parser) ParseHeader(path string) (headerparser.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return headerparser.Header{}, loadordererr.IOError(path, err)
	}
	defer f.Close()

	h, err := parseReader(bufio.NewReader(f), path, p.isScriptFile(path))
	if err != nil {
		return headerparser.Header{}, loadordererr.ParsingError(path, err)
	}
	return h, nil
}

func (p Parser) isScriptFile(path string) bool {
	return p.OpenMWExtensions && strings.HasSuffix(strings.ToLower(path), ".omwscripts")
}

func parseReader(r io.Reader, path string, isScript bool) (headerparser.Header, error) {
	if isScript {
		// OpenMW script-list files have no binary header at all; they are
		// never masters and declare no masters of their own.
		return headerparser.Header{}, nil
	}

	var rh recordHeader
	if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return headerparser.Header{}, ErrTruncated
		}
		return headerparser.Header{}, err
	}
	if string(rh.Signature[:]) != "TES4" && string(rh.Signature[:]) != "TES3" {
		return headerparser.Header{}, ErrBadSignature
	}

	hdr := headerparser.Header{
		IsMaster:    rh.Flags&flagMaster != 0,
		IsLocalized: rh.Flags&flagLocalized != 0,
		IsLight:     rh.Flags&flagLight != 0,
		IsMedium:    rh.Flags&flagMedium != 0,
		IsBlueprint: rh.Flags&flagBlueprint != 0,
	}
	hdr.IsOverride = rh.Flags&flagOverride != 0 && !hdr.IsMaster

	data := make([]byte, rh.DataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return headerparser.Header{}, ErrTruncated
	}

	sub := bytes.NewReader(data)
	for sub.Len() > 0 {
		var sig [4]byte
		var size uint16
		if _, err := io.ReadFull(sub, sig[:]); err != nil {
			break
		}
		if err := binary.Read(sub, binary.LittleEndian, &size); err != nil {
			break
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(sub, payload); err != nil {
			break
		}
		switch string(sig[:]) {
		case "MAST":
			hdr.Masters = append(hdr.Masters, readNullString(payload))
		case "CNAM":
			hdr.Author = readNullString(payload)
		case "SNAM":
			hdr.Description = readNullString(payload)
		}
	}

	return hdr, nil
}

func readNullString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Recognized reports whether path has an extension this parser understands.
func (p Parser) Recognized(path string) bool {
	lower := strings.ToLower(path)
	lower = strings.TrimSuffix(lower, ".ghost")
	switch {
	case strings.HasSuffix(lower, ".esm"), strings.HasSuffix(lower, ".esp"), strings.HasSuffix(lower, ".esl"):
		return true
	case p.OpenMWExtensions && (strings.HasSuffix(lower, ".omwgame") || strings.HasSuffix(lower, ".omwaddon") || strings.HasSuffix(lower, ".omwscripts")):
		return true
	default:
		return false
	}
}
