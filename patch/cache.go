package patch

import (
	"github.com/dgryski/go-tinylfu"

	"github.com/martin-sucha/archivepatch/zip"
)

// entryCacheSize bounds how many old-archive local sections Apply
// keeps parsed in memory at once. COPY/REFRESH/PATCH directives
// commonly reference the same handful of old entries in a row (runs of
// unchanged resource files between a few patched ones); caching avoids
// re-parsing a LocalFile header and re-slicing its payload out of the
// old archive image on every reference.
const entryCacheSize = 256

// entryCache memoizes zip.ReadLocalSectionAt by old-archive offset.
type entryCache struct {
	data    []byte
	central map[string]*zip.CentralDirectoryFile
	cache   *tinylfu.T[uint32, *zip.LocalSectionParts]
}

func newEntryCache(data []byte, central map[string]*zip.CentralDirectoryFile) *entryCache {
	return &entryCache{
		data:    data,
		central: central,
		cache:   tinylfu.New[uint32, *zip.LocalSectionParts](entryCacheSize, entryCacheSize*10, offsetHash),
	}
}

func offsetHash(offset uint32) uint64 { return uint64(offset) * 0x9e3779b97f4a7c15 }

func (e *entryCache) get(offset uint32) (*zip.LocalSectionParts, error) {
	if ls, ok := e.cache.Get(offset); ok {
		return ls, nil
	}
	ls, err := zip.ReadLocalSectionAt(e.data, e.central, offset)
	if err != nil {
		return nil, err
	}
	e.cache.Add(offset, ls)
	return ls, nil
}
