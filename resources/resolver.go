package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"slices"

	"github.com/wbrown/byte_bpe/types"
)

type ResourceFlag uint8

// Enumeration of resource flags that indicate what the resolver should do
// with the resource.
const (
	RESOURCE_REQUIRED ResourceFlag = 1 << iota
	RESOURCE_OPTIONAL
	RESOURCE_ONEOF
)

// Well known resource names within a tokenizer directory.
const (
	VocabFile        = "vocab.json"
	MergesFile       = "merges.json"
	SpecialsFile     = "specials.json"
	SpecialsTextFile = "specials.txt"
	ConfigFile       = "tokenizer_config.json"
)

type ResourceEntryDefs map[string]ResourceFlag

// GetResourceEntries
// Returns a default map of resource entries that express what files are
// required and optional. Of the RESOURCE_ONEOF entries, the first one found
// in name order is used.
func GetResourceEntries() ResourceEntryDefs {
	return ResourceEntryDefs{
		VocabFile:        RESOURCE_REQUIRED,
		MergesFile:       RESOURCE_REQUIRED,
		SpecialsFile:     RESOURCE_OPTIONAL | RESOURCE_ONEOF,
		SpecialsTextFile: RESOURCE_OPTIONAL | RESOURCE_ONEOF,
		ConfigFile:       RESOURCE_OPTIONAL,
	}
}

// ResourceEntry is the contents of a resource file. Data is only valid until
// Cleanup is called on the Resources holding it.
type ResourceEntry struct {
	Path  string
	Data  []byte
	file  *os.File
	unmap func() error
}

type Resources map[string]*ResourceEntry

func (rsrcs Resources) Cleanup() {
	for name, rsrc := range rsrcs {
		if rsrc.unmap != nil {
			if err := rsrc.unmap(); err != nil {
				log.Printf("error unmapping %s: %v", rsrc.Path, err)
			}
		}
		if rsrc.file != nil {
			rsrc.file.Close()
		}
		delete(rsrcs, name)
	}
}

// AddEntry
// Opens the file at filePath and adds it to the Resources map under name.
func (rsrcs Resources) AddEntry(name string, filePath string) error {
	entry, err := OpenResource(filePath)
	if err != nil {
		return err
	}
	if prior, ok := rsrcs[name]; ok {
		Resources{name: prior}.Cleanup()
	}
	rsrcs[name] = entry
	return nil
}

// Specials returns the special tokens resource, preferring `specials.json`
// over `specials.txt`, along with the name it was found under.
func (rsrcs Resources) Specials() (*ResourceEntry, string, bool) {
	for _, name := range []string{SpecialsFile, SpecialsTextFile} {
		if entry, ok := rsrcs[name]; ok {
			return entry, name, true
		}
	}
	return nil, "", false
}

// ResolveResources resolves all resources in dir. A missing required
// resource is an error wrapping both types.ErrIO and fs.ErrNotExist.
func ResolveResources(dir string) (Resources, error) {
	foundResources := make(Resources, 0)
	defs := GetResourceEntries()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)

	oneOfFound := false
	for _, name := range names {
		flag := defs[name]
		if flag&RESOURCE_ONEOF != 0 && oneOfFound {
			log.Printf("Skipping %s, already resolved an alternative", name)
			continue
		}
		targetPath := path.Join(dir, name)
		log.Printf("Resolving %s... ", targetPath)
		if _, statErr := os.Stat(targetPath); statErr != nil {
			if flag&RESOURCE_REQUIRED != 0 {
				foundResources.Cleanup()
				return nil, fmt.Errorf("%w: cannot resolve required `%s`"+
					" in `%s`: %w", types.ErrIO, name, dir, statErr)
			}
			if !errors.Is(statErr, fs.ErrNotExist) {
				log.Printf("Cannot stat optional %s: %v", targetPath,
					statErr)
			}
			continue
		}
		if err := foundResources.AddEntry(name, targetPath); err != nil {
			foundResources.Cleanup()
			return nil, err
		}
		if flag&RESOURCE_ONEOF != 0 {
			oneOfFound = true
		}
	}
	return foundResources, nil
}
