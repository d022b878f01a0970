package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir))
	assert.True(t, strings.HasSuffix(dir, "brandpulse"))
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, "config.json"))
}

func TestLoadGlobalConfig_FileNotExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.json")

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadGlobalConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testConfig := GlobalConfig{
		APIKey: "bp_0123456789abcdef0123456789abcdef",
		APIURL: "http://localhost:8080",
	}
	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, testConfig.APIKey, config.APIKey)
	assert.Equal(t, testConfig.APIURL, config.APIURL)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	require.NoError(t, os.WriteFile(configPath, []byte("{not valid json"), 0600))

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	config, err := LoadGlobalConfig()
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveGlobalConfig_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, "brandpulse")
	configPath := filepath.Join(configDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return configDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	}()

	config := &GlobalConfig{
		APIKey: "bp_0123456789abcdef0123456789abcdef",
		APIURL: "http://localhost:8080",
	}

	err := SaveGlobalConfig(config)
	require.NoError(t, err)

	assert.DirExists(t, configDir)
	assert.FileExists(t, configPath)
}

func TestSaveGlobalConfig_SetCorrectPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	}()

	config := &GlobalConfig{
		APIKey: "bp_0123456789abcdef0123456789abcdef",
		APIURL: "http://localhost:8080",
	}

	err := SaveGlobalConfig(config)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveGlobalConfig_ValidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	}()

	config := &GlobalConfig{
		APIKey: "bp_0123456789abcdef0123456789abcdef",
		APIURL: "http://localhost:8080",
	}

	err := SaveGlobalConfig(config)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded GlobalConfig
	err = json.Unmarshal(data, &loaded)
	require.NoError(t, err)
	assert.Equal(t, config.APIKey, loaded.APIKey)
	assert.Equal(t, config.APIURL, loaded.APIURL)
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	err := SaveGlobalConfig(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}

func TestDeleteGlobalConfig_FileExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0600))

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	err := DeleteGlobalConfig()
	require.NoError(t, err)
	assert.NoFileExists(t, configPath)
}

func TestDeleteGlobalConfig_FileNotExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.json")

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() { getConfigPathFunc = oldGetConfigPath }()

	err := DeleteGlobalConfig()
	require.NoError(t, err)
}

func TestRoundTrip_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	oldGetConfigDir := getConfigDirFunc
	oldGetConfigPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	defer func() {
		getConfigDirFunc = oldGetConfigDir
		getConfigPathFunc = oldGetConfigPath
	}()

	originalConfig := &GlobalConfig{
		APIKey: "bp_0123456789abcdef0123456789abcdef",
		APIURL: "http://localhost:8080",
	}
	err := SaveGlobalConfig(originalConfig)
	require.NoError(t, err)

	loadedConfig, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, loadedConfig)

	assert.Equal(t, originalConfig.APIKey, loadedConfig.APIKey)
	assert.Equal(t, originalConfig.APIURL, loadedConfig.APIURL)
}
