package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

const cacheFileName = "paradox2mqtt_cache.json"

// Data is what survives a restart: the panel identity and its labels, so the
// bridge can publish before the first label pass completes.
type Data struct {
	Panel      paradox.Announcement                               `json:"panel"`
	Labels     map[paradox.EntityClass]map[int]paradox.Properties `json:"labels"`
	LastUpdate time.Time                                          `json:"last_update"`
}

// Matches reports whether the cache was written for the panel ann.
func (d *Data) Matches(ann paradox.Announcement) bool {
	return d != nil && d.Panel.PanelID == ann.PanelID && d.Panel.ProductID == ann.ProductID
}

func SaveCache(dir string, cacheData Data) error {
	if cacheData.LastUpdate.IsZero() {
		cacheData.LastUpdate = time.Now()
	}
	data, err := json.Marshal(cacheData)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}

	cacheFilePath := filepath.Join(dir, cacheFileName)
	err = os.WriteFile(cacheFilePath, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write cache file: %v", err)
	}

	return nil
}

// LoadCache returns nil without error when no cache was written yet.
func LoadCache(dir string) (*Data, error) {
	cacheFilePath := filepath.Join(dir, cacheFileName)
	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %v", err)
	}

	var cacheData Data
	err = json.Unmarshal(data, &cacheData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %v", err)
	}

	return &cacheData, nil
}

func DeleteCache(dir string) error {
	cacheFilePath := filepath.Join(dir, cacheFileName)
	err := os.Remove(cacheFilePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %v", err)
	}

	return nil
}

// Dir returns the default cache directory under the user's home.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".cache", "paradox2mqtt"), nil
}
