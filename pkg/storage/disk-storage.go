package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
)

func (d *DiskStorage) Get(key string) ([]byte, bool, error) {
	fileName, _ := d.GetFileName(key)
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

func (d *DiskStorage) Set(key string, value []byte) error {
	if err := os.MkdirAll(d.RootFolder, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", d.RootFolder, err)
	}
	fileName, tmpFileName := d.GetFileName(key)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	if _, err = file.Write(value); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFileName)
		return err
	}

	if err = file.Close(); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}

	if err = os.Rename(tmpFileName, fileName); err != nil {
		log.Printf("error renaming file: %v", err)
		_ = os.Remove(tmpFileName)
		return err
	}
	return nil
}

func (d *DiskStorage) Remove(key string) error {
	fileName, _ := d.GetFileName(key)
	if err := os.Remove(fileName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
