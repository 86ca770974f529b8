package resources

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/byte_bpe/types"
)

// OpenResource opens filePath and memory maps its contents. Errors wrap
// types.ErrIO along with the underlying cause.
func OpenResource(filePath string) (*ResourceEntry, error) {
	file, openErr := os.Open(filePath)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrIO, openErr)
	}
	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", types.ErrIO, statErr)
	}
	entry := &ResourceEntry{Path: filePath, file: file}
	// Zero length files cannot be mapped.
	if stat.Size() == 0 {
		entry.Data = []byte{}
	} else {
		data, unmap, mmapErr := readMmap(file)
		if mmapErr != nil {
			file.Close()
			return nil, fmt.Errorf("%w: error trying to mmap %s: %w",
				types.ErrIO, filePath, mmapErr)
		}
		entry.Data = data
		entry.unmap = unmap
	}
	log.Printf("Loaded %s (%s)", filePath,
		humanize.Bytes(uint64(stat.Size())))
	return entry, nil
}

// WriteResource writes buf to filePath, replacing any existing file.
func WriteResource(filePath string, buf *bytes.Buffer) error {
	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	log.Printf("Wrote %s (%s)", filePath,
		humanize.Bytes(uint64(buf.Len())))
	return nil
}
