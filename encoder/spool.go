package encoder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// hashSpool buffers (hash_bytes, record_index) pairs for one column to a
// temp file during Insert, bounding memory during ingestion the same way
// compactindexsized's fileKV spools key/value tuples during index
// construction. SealAndClose reads a spool back in one pass to sort it;
// this module does not implement a multi-pass external merge sort, the
// same limitation compactindexsized's own bucket.mine has (it too calls
// readAll and sorts in memory at seal time).
type hashSpool struct {
	width  uint64
	file   *os.File
	writer *bufio.Writer
	count  uint64
}

func newHashSpool(dir string, col int, width uint64) (*hashSpool, error) {
	f, err := os.CreateTemp(dir, fmt.Sprintf("hashset-col%d-*.spool", col))
	if err != nil {
		return nil, fmt.Errorf("encoder: create hash spool: %w", err)
	}
	return &hashSpool{width: width, file: f, writer: bufio.NewWriterSize(f, 32*1024)}, nil
}

func (s *hashSpool) append(hashBytes []byte, recordIndex uint64) error {
	if uint64(len(hashBytes)) != s.width {
		return fmt.Errorf("encoder: hash is %d bytes, column width is %d", len(hashBytes), s.width)
	}
	if _, err := s.writer.Write(hashBytes); err != nil {
		return fmt.Errorf("encoder: spool hash: %w", err)
	}
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], recordIndex)
	if _, err := s.writer.Write(idx[:]); err != nil {
		return fmt.Errorf("encoder: spool record index: %w", err)
	}
	s.count++
	return nil
}

type hashRecordPair struct {
	hash []byte
	rec  uint64
}

// readAll flushes and rewinds the spool, returning every pair it holds.
func (s *hashSpool) readAll() ([]hashRecordPair, error) {
	if err := s.writer.Flush(); err != nil {
		return nil, fmt.Errorf("encoder: flush hash spool: %w", err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("encoder: rewind hash spool: %w", err)
	}
	stride := s.width + 8
	out := make([]hashRecordPair, 0, s.count)
	r := bufio.NewReaderSize(s.file, 64*1024)
	buf := make([]byte, stride)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("encoder: read hash spool: %w", err)
		}
		hash := make([]byte, s.width)
		copy(hash, buf[:s.width])
		out = append(out, hashRecordPair{hash: hash, rec: binary.LittleEndian.Uint64(buf[s.width:])})
	}
	return out, nil
}

func (s *hashSpool) close() error {
	name := s.file.Name()
	s.file.Close()
	return os.Remove(name)
}

// recordSpool buffers already-marshaled RDAT record bytes to a temp file
// in insertion order. Because chunk.MarshalRDAT's per-field layout is
// exactly "presence byte + width bytes" with no separators, concatenating
// single-record encodings in order produces byte-identical output to
// marshaling the whole record slice at once — so the spool file's
// contents become the RDAT payload verbatim at seal time, with no
// re-encoding pass.
type recordSpool struct {
	file   *os.File
	writer *bufio.Writer
	count  uint64
}

func newRecordSpool(dir string) (*recordSpool, error) {
	f, err := os.CreateTemp(dir, "hashset-records-*.spool")
	if err != nil {
		return nil, fmt.Errorf("encoder: create record spool: %w", err)
	}
	return &recordSpool{file: f, writer: bufio.NewWriterSize(f, 64*1024)}, nil
}

func (s *recordSpool) append(recordBytes []byte) error {
	if _, err := s.writer.Write(recordBytes); err != nil {
		return fmt.Errorf("encoder: spool record: %w", err)
	}
	s.count++
	return nil
}

// copyTo flushes the spool and copies its full contents to w, returning
// the number of bytes copied.
func (s *recordSpool) copyTo(w io.Writer) (int64, error) {
	if err := s.writer.Flush(); err != nil {
		return 0, fmt.Errorf("encoder: flush record spool: %w", err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("encoder: rewind record spool: %w", err)
	}
	n, err := io.Copy(w, s.file)
	if err != nil {
		return n, fmt.Errorf("encoder: copy record spool: %w", err)
	}
	return n, nil
}

func (s *recordSpool) close() error {
	name := s.file.Name()
	s.file.Close()
	return os.Remove(name)
}
