package henkan

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format tags the on-disk layout of a dictionary source.
type Format string

const (
	// FormatSKK is the line-oriented "よみ /surface/surface/" format.
	FormatSKK Format = "skk"
	// FormatNative is the compact binary format written by WriteNative.
	FormatNative Format = "native"
)

// SourceDescriptor tells LoadSource where and how to read one source.
type SourceDescriptor struct {
	Path     string
	Encoding string // "utf-8" (default), "euc-jp", "shift_jis"
	Format   Format
	Role     SourceRole
	Priority int
	// Name defaults to Path when empty.
	Name string
}

// LoadSource reads one dictionary source from disk. Failures are
// reported as *LoadError or *EncodingError and never affect other
// sources; the caller decides whether to continue.
func LoadSource(desc SourceDescriptor) (*Source, error) {
	name := desc.Name
	if name == "" {
		name = desc.Path
	}
	f, err := os.Open(desc.Path)
	if err != nil {
		return nil, &LoadError{Path: desc.Path, Err: err}
	}
	defer f.Close()

	src := NewSource(name, desc.Role, desc.Priority)
	switch desc.Format {
	case FormatNative:
		err = readNative(f, src)
	case FormatSKK, "":
		err = readSKK(f, desc, src)
	default:
		err = fmt.Errorf("unknown dictionary format %q", desc.Format)
	}
	if err != nil {
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			return nil, err
		}
		return nil, &LoadError{Path: desc.Path, Err: err}
	}
	return src, nil
}

// decoderFor returns the character decoder for a declared encoding.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	case "euc-jp", "eucjp":
		return japanese.EUCJP.NewDecoder(), nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return japanese.ShiftJIS.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// readSKK parses the SKK line format: "よみ /候補1/候補2;annotation/".
// Comment lines start with ";;". Okuri-ari entries (readings with a
// trailing ASCII letter marking the inflection) are skipped: the
// engine works on plain kana readings only.
func readSKK(f io.Reader, desc SourceDescriptor, src *Source) error {
	dec, err := decoderFor(desc.Encoding)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(transform.NewReader(f, dec))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		// The decoder substitutes U+FFFD for bytes that do not match
		// the declared encoding.
		if strings.ContainsRune(line, utf8.RuneError) {
			return &EncodingError{
				Path:     desc.Path,
				Encoding: desc.Encoding,
				Err:      fmt.Errorf("invalid byte sequence at line %d", lineNo),
			}
		}
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		reading, rest, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("line %d: missing candidate list", lineNo)
		}
		if isOkuriAri(reading) {
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "/") {
			return fmt.Errorf("line %d: candidate list must start with '/'", lineNo)
		}
		for _, surface := range strings.Split(strings.Trim(rest, "/"), "/") {
			// Strip SKK annotations: 候補;補足説明
			if i := strings.IndexByte(surface, ';'); i >= 0 {
				surface = surface[:i]
			}
			src.Add(reading, surface)
		}
	}
	return sc.Err()
}

// isOkuriAri reports whether an SKK reading carries an okurigana
// marker (a trailing ASCII lowercase letter after the kana stem).
func isOkuriAri(reading string) bool {
	if len(reading) < 2 {
		return false
	}
	last := reading[len(reading)-1]
	return last >= 'a' && last <= 'z'
}

// nativeMagic identifies the native binary dictionary format.
const nativeMagic = "HNKD1\n"

// WriteNative writes src in the native binary format:
//
//	magic, uvarint reading-count, then per reading:
//	uvarint len + bytes, uvarint surface-count,
//	per surface uvarint len + bytes.
//
// Readings keep their insertion order so a load round-trips exactly.
func WriteNative(w io.Writer, src *Source) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(nativeMagic); err != nil {
		return err
	}
	var buf [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) error {
		n := binary.PutUvarint(buf[:], v)
		_, err := bw.Write(buf[:n])
		return err
	}
	writeString := func(s string) error {
		if err := writeUvarint(uint64(len(s))); err != nil {
			return err
		}
		_, err := bw.WriteString(s)
		return err
	}

	if err := writeUvarint(uint64(len(src.readings))); err != nil {
		return err
	}
	for _, reading := range src.readings {
		if err := writeString(reading); err != nil {
			return err
		}
		surfaces := src.entries[reading]
		if err := writeUvarint(uint64(len(surfaces))); err != nil {
			return err
		}
		for _, s := range surfaces {
			if err := writeString(s); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// readNative loads the native binary format into src.
func readNative(f io.Reader, src *Source) error {
	br := bufio.NewReader(f)
	magic := make([]byte, len(nativeMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != nativeMagic {
		return fmt.Errorf("not a native dictionary (bad magic %q)", magic)
	}
	readString := func() (string, error) {
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return "", err
		}
		if n > 1<<20 {
			return "", fmt.Errorf("implausible string length %d", n)
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(br, b); err != nil {
			return "", err
		}
		if !utf8.Valid(b) {
			return "", fmt.Errorf("invalid UTF-8 in entry")
		}
		return string(b), nil
	}

	count, err := binary.ReadUvarint(br)
	if err != nil {
		return fmt.Errorf("read entry count: %w", err)
	}
	for i := uint64(0); i < count; i++ {
		reading, err := readString()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		nsurf, err := binary.ReadUvarint(br)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		for j := uint64(0); j < nsurf; j++ {
			surface, err := readString()
			if err != nil {
				return fmt.Errorf("entry %d surface %d: %w", i, j, err)
			}
			src.Add(reading, surface)
		}
	}
	return nil
}
