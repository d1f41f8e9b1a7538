package storage

import (
	"fmt"
	"net/url"
	"path"
	"time"
)

// DiskStorage keeps one file per key under RootFolder. Writes go to a
// temporary file first and are renamed into place.
type DiskStorage struct {
	RootFolder string
}

func NewDiskStorage(rootFolder string) *DiskStorage {
	return &DiskStorage{
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) GetFileName(key string) (string, string) {
	fileName := path.Join(ds.RootFolder, url.PathEscape(key)+".json")
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}
