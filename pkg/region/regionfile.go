package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// regionFile is one on-disk region: a fixed entriesPerRegion-slot header of
// (offset, length) pairs followed by each slot's payload, appended in
// whatever order chunks were first saved. A zero (offset, length) entry
// means the slot has never been written.
//
// This trades the reclaim-on-delete complexity of an append log (as in
// firestar's disk block storage) for simplicity: chunks are rewritten in
// place when they fit, and appended past the current end of file when they
// don't, leaving the old bytes as unreferenced padding. Region files are
// bounded (1024 chunks) and get rewritten wholesale by world tooling when
// that padding becomes worth reclaiming; this store does not compact.
type regionFile struct {
	path string
	mu   sync.Mutex

	header  [entriesPerRegion]regionEntry
	nextEnd int64
}

type regionEntry struct {
	offset uint32
	length uint32
	crc    uint32
}

func openRegionFile(path string) (*regionFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("region: create region dir: %w", err)
	}

	rf := &regionFile{path: path, nextEnd: int64(headerSize)}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("region: stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		if err := writeEmptyHeader(f); err != nil {
			return nil, fmt.Errorf("region: init header %s: %w", path, err)
		}
		return rf, nil
	}

	if info.Size() < int64(headerSize) {
		return nil, fmt.Errorf("region: %s is truncated below header size (%d bytes)", path, info.Size())
	}

	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("region: read header %s: %w", path, err)
	}

	for i := 0; i < entriesPerRegion; i++ {
		base := i * headerEntrySize
		off := binary.LittleEndian.Uint32(raw[base:])
		length := binary.LittleEndian.Uint32(raw[base+4:])
		crc := binary.LittleEndian.Uint32(raw[base+8:])
		rf.header[i] = regionEntry{offset: off, length: length, crc: crc}
		end := int64(off) + int64(length)
		if end > rf.nextEnd {
			rf.nextEnd = end
		}
	}

	// A region file truncated mid-payload (crash during write) still has a
	// valid header for every slot that finished; any slot whose payload
	// would run past the actual file size is treated as absent rather than
	// as a hard error, matching the same tolerance firestar's disk storage
	// applies to a torn write.
	if rf.nextEnd > info.Size() {
		for i := range rf.header {
			e := rf.header[i]
			if e.length == 0 {
				continue
			}
			if int64(e.offset)+int64(e.length) > info.Size() {
				rf.header[i] = regionEntry{}
			}
		}
		rf.nextEnd = int64(headerSize)
		for _, e := range rf.header {
			end := int64(e.offset) + int64(e.length)
			if end > rf.nextEnd {
				rf.nextEnd = end
			}
		}
	}

	return rf, nil
}

func writeEmptyHeader(f *os.File) error {
	zero := make([]byte, headerSize)
	if _, err := f.WriteAt(zero, 0); err != nil {
		return err
	}
	return f.Sync()
}

// read returns the raw (still zstd-compressed) payload stored at slot, or
// ok=false if the slot has never been written.
func (rf *regionFile) read(slot int) ([]byte, bool, error) {
	rf.mu.Lock()
	entry := rf.header[slot]
	rf.mu.Unlock()

	if entry.length == 0 {
		return nil, false, nil
	}

	f, err := os.Open(rf.path)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", rf.path, err)
	}
	defer f.Close()

	payload := make([]byte, entry.length)
	if _, err := f.ReadAt(payload, int64(entry.offset)); err != nil {
		return nil, false, fmt.Errorf("read payload at %d: %w", entry.offset, err)
	}

	if crc32.ChecksumIEEE(payload) != entry.crc {
		return nil, false, errors.New("region: stored chunk failed integrity check")
	}

	return payload, true, nil
}

// write stores payload at slot, appending to the end of the file when the
// slot is empty or the new payload doesn't fit in the old one's space, then
// rewrites the slot's header entry and fsyncs both.
func (rf *regionFile) write(slot int, payload []byte) error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	f, err := os.OpenFile(rf.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", rf.path, err)
	}
	defer f.Close()

	existing := rf.header[slot]
	var offset int64
	if existing.length > 0 && uint32(len(payload)) <= existing.length {
		offset = int64(existing.offset)
	} else {
		offset = rf.nextEnd
	}

	if _, err := f.WriteAt(payload, offset); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync payload: %w", err)
	}

	entry := regionEntry{offset: uint32(offset), length: uint32(len(payload)), crc: crc32.ChecksumIEEE(payload)}
	rf.header[slot] = entry
	if end := offset + int64(len(payload)); end > rf.nextEnd {
		rf.nextEnd = end
	}

	headerBuf := make([]byte, headerEntrySize)
	binary.LittleEndian.PutUint32(headerBuf, entry.offset)
	binary.LittleEndian.PutUint32(headerBuf[4:], entry.length)
	binary.LittleEndian.PutUint32(headerBuf[8:], entry.crc)
	if _, err := f.WriteAt(headerBuf, int64(slot*headerEntrySize)); err != nil {
		return fmt.Errorf("write header entry: %w", err)
	}
	return f.Sync()
}
