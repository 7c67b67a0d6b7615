package linkbackend

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// aliasMagic tags the blob format version so future encodings can be
// detected and rejected gracefully instead of misparsed.
const aliasMagic uint32 = 0x5354414c // "STAL"

// Darwin records a minimal alias-style record: the target's path, its
// modification time and its size. Resolve returns the recorded path while
// a file still exists there and the fallback path otherwise; it does not
// locate a target that has moved, as a real Finder alias does, and it does
// not use the full byte-for-byte HFS+ alias format (that level of
// fidelity needs Finder/Carbon APIs this module does not link against). The tagged-field layout below is grounded on the encoding
// idiom in the corpus's alias record implementation
// (other_examples/76e7250d_mattetti-cocoa__alias_record.go.go): a fixed
// header of scalar fields followed by the variable-length path, written
// with encoding/binary the same way.
type Darwin struct{}

type aliasRecord struct {
	Magic      uint32
	VolumeDate int64
	TargetSize int64
	PathLen    uint16
	Path       string
}

func (Darwin) Record(target string) ([]byte, error) {
	fi, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	rec := aliasRecord{
		Magic:      aliasMagic,
		VolumeDate: fi.ModTime().Unix(),
		TargetSize: fi.Size(),
		PathLen:    uint16(len(target)),
		Path:       target,
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.BigEndian, rec.Magic); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, rec.VolumeDate); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, rec.TargetSize); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, rec.PathLen); err != nil {
		return nil, err
	}
	buf.WriteString(rec.Path)
	return buf.Bytes(), nil
}

func decodeAliasRecord(blob []byte) (aliasRecord, error) {
	var rec aliasRecord
	r := bytes.NewReader(blob)
	if err := binary.Read(r, binary.BigEndian, &rec.Magic); err != nil {
		return aliasRecord{}, err
	}
	if rec.Magic != aliasMagic {
		return aliasRecord{}, fmt.Errorf("linkbackend: unrecognized alias blob magic %x", rec.Magic)
	}
	if err := binary.Read(r, binary.BigEndian, &rec.VolumeDate); err != nil {
		return aliasRecord{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &rec.TargetSize); err != nil {
		return aliasRecord{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &rec.PathLen); err != nil {
		return aliasRecord{}, err
	}
	pathBytes := make([]byte, rec.PathLen)
	if _, err := r.Read(pathBytes); err != nil {
		return aliasRecord{}, err
	}
	rec.Path = string(pathBytes)
	return rec, nil
}

func (Darwin) Resolve(blob []byte, fallbackPath string) (string, error) {
	if blob == nil {
		return fallbackPath, nil
	}
	rec, err := decodeAliasRecord(blob)
	if err != nil {
		return fallbackPath, nil
	}
	if _, err := os.Stat(rec.Path); err == nil {
		return rec.Path, nil
	}
	return fallbackPath, nil
}

func (d Darwin) Relocate(blob []byte) ([]byte, error) {
	rec, err := decodeAliasRecord(blob)
	if err != nil {
		return blob, nil
	}
	return d.Record(rec.Path)
}
