// Package format reads and writes scene files.
//
// A file is a header, an optional version byte and a gzip stream holding
// the bincode payload of that version's schema:
//
//	legacy     "PogPaint"          gzip(v0.Scene)
//	versioned  "VersionedPogPaint" version:u8 gzip(vN.Scene)
//
// The two headers differ in their first byte, so one byte is enough to
// tell them apart. Files are always written in the current version;
// older versions are upgraded one step at a time when read.
package format

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding"
	"errors"
	"fmt"
	"io"

	v0 "github.com/kuviman/PogPaint/internal/format/v0"
	v1 "github.com/kuviman/PogPaint/internal/format/v1"
	v2 "github.com/kuviman/PogPaint/internal/format/v2"
	"github.com/kuviman/PogPaint/internal/logging"
)

const (
	LegacyHeader    = "PogPaint"
	VersionedHeader = "VersionedPogPaint"

	// CurrentVersion is the schema version written by Write.
	CurrentVersion uint8 = 2

	// Extension is the conventional file extension.
	Extension = ".pp"
)

// Current is the schema of CurrentVersion.
type Current = v2.Scene

// Info describes the envelope of a file that was read.
type Info struct {
	Legacy  bool  // legacy header, no version byte
	Version uint8 // schema version of the payload
}

// Supported reports whether version is part of the upgrade chain.
func Supported(version uint8) bool {
	return version <= CurrentVersion
}

// Write encodes s as a current-version file.
func Write(w io.Writer, s *Current) error {
	return WriteVersion(w, CurrentVersion, s)
}

// WriteVersion encodes doc, which must be the schema document of version
// (*v0.Scene, *v1.Scene or *v2.Scene). Version 0 is written with the legacy
// header.
func WriteVersion(w io.Writer, version uint8, doc encoding.BinaryMarshaler) error {
	if err := checkSchema(version, doc); err != nil {
		return err
	}
	payload, err := doc.MarshalBinary()
	if err != nil {
		return fmt.Errorf("format: encode v%d: %w", version, err)
	}

	var header []byte
	if version == 0 {
		header = []byte(LegacyHeader)
	} else {
		header = append([]byte(VersionedHeader), version)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("format: write header: %w", err)
	}

	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("format: gzip: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("format: write payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("format: write payload: %w", err)
	}
	return nil
}

func checkSchema(version uint8, doc encoding.BinaryMarshaler) error {
	var want uint8
	switch doc.(type) {
	case *v0.Scene:
		want = 0
	case *v1.Scene:
		want = 1
	case *v2.Scene:
		want = 2
	default:
		return fmt.Errorf("format: %T is not a scene schema", doc)
	}
	if want != version {
		return fmt.Errorf("format: %T is the schema of version %d, not %d", doc, want, version)
	}
	return nil
}

// Read decodes a file of any supported version and upgrades it to the
// current schema.
func Read(r io.Reader) (*Current, Info, error) {
	br := bufio.NewReader(r)
	info, err := ReadHeader(br)
	if err != nil {
		return nil, info, err
	}
	logging.Logger().Debug("scene header", "legacy", info.Legacy, "version", info.Version)

	payload, err := decompress(br)
	if err != nil {
		return nil, info, err
	}
	doc, err := Decode(info.Version, payload)
	if err != nil {
		return nil, info, err
	}
	s, err := Upgrade(doc)
	return s, info, err
}

// ReadHeader consumes the header and version byte. Only the bytes of the
// header that matched are read.
func ReadHeader(r io.Reader) (Info, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return Info{}, headerErr(err, "empty input")
	}

	var info Info
	var header string
	switch first[0] {
	case LegacyHeader[0]:
		info.Legacy = true
		header = LegacyHeader
	case VersionedHeader[0]:
		header = VersionedHeader
	default:
		return info, fmt.Errorf("%w: unexpected first byte %#02x", ErrHeaderMismatch, first[0])
	}

	rest := make([]byte, len(header)-1)
	if _, err := io.ReadFull(r, rest); err != nil {
		return info, headerErr(err, "truncated header")
	}
	if string(rest) != header[1:] {
		return info, fmt.Errorf("%w: bad header %q", ErrHeaderMismatch, string(first[:])+string(rest))
	}
	if info.Legacy {
		return info, nil
	}

	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return info, headerErr(err, "missing version byte")
	}
	info.Version = version[0]
	if !Supported(info.Version) {
		return info, &UnsupportedVersionError{Version: info.Version}
	}
	return info, nil
}

func headerErr(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrHeaderMismatch, what)
	}
	return fmt.Errorf("format: read header: %w", err)
}

// readErrRecorder remembers the first non-EOF error of the underlying
// reader so that I/O failures are not reported as corrupt gzip data.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func decompress(r io.Reader) ([]byte, error) {
	rr := &readErrRecorder{r: r}
	zr, err := gzip.NewReader(rr)
	if err == nil {
		var buf bytes.Buffer
		_, err = buf.ReadFrom(zr)
		if err == nil {
			return buf.Bytes(), nil
		}
	}
	if rr.err != nil {
		return nil, fmt.Errorf("format: read payload: %w", rr.err)
	}
	return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
}

// Decode parses a decompressed payload with the schema of version.
func Decode(version uint8, payload []byte) (encoding.BinaryUnmarshaler, error) {
	var doc encoding.BinaryUnmarshaler
	switch version {
	case 0:
		doc = new(v0.Scene)
	case 1:
		doc = new(v1.Scene)
	case 2:
		doc = new(v2.Scene)
	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
	if err := doc.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("%w: v%d: %w", ErrDeserialize, version, err)
	}
	return doc, nil
}

// Upgrade applies the version N -> N+1 conversions until doc reaches the
// current schema.
func Upgrade(doc any) (*Current, error) {
	for {
		switch d := doc.(type) {
		case *v0.Scene:
			logging.Logger().Debug("upgrading scene", "from", 0, "planes", len(d.Planes))
			doc = v1.FromV0(d)
		case *v1.Scene:
			logging.Logger().Debug("upgrading scene", "from", 1, "planes", len(d.Planes))
			doc = v2.FromV1(d)
		case *v2.Scene:
			return d, nil
		default:
			return nil, fmt.Errorf("format: cannot upgrade %T", doc)
		}
	}
}
