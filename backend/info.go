package backend

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/logger"
)

const (
	UNKNOWN         = "unknown"
	OS_RELEASE_FILE = "/etc/os-release"
)

var osVersion string

type ServerDeviceInfo struct {
	Hostname   string   `json:"hostname"`
	OSPlatform string   `json:"os_platform"`
	OSVersion  string   `json:"os_version"`
	APISW      string   `json:"api_sw"`
	APIVersion string   `json:"api_version"`
	Backends   Backends `json:"backends"`
}

type Backends struct {
	Flow   bool `json:"flow"`
	Helmet bool `json:"helmet"`
	Alert  bool `json:"alert"`
}

func init() {
	osVersion = readOSRelease()
}

func (b *Backend) GetServerDeviceInfo() (*ServerDeviceInfo, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = UNKNOWN
	}

	return &ServerDeviceInfo{
		Hostname:   hostname,
		OSPlatform: runtime.GOOS,
		OSVersion:  osVersion,
		APISW:      config.AppName,
		APIVersion: config.AppVersion,
		Backends: Backends{
			Flow:   b.Flow != nil,
			Helmet: b.Helmet != nil,
			Alert:  b.Alert != nil,
		},
	}, nil
}

func readOSRelease() string {
	file, err := os.Open(OS_RELEASE_FILE)
	if err != nil {
		return UNKNOWN
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Debug("[backend] failed to close %s: %v", OS_RELEASE_FILE, err)
		}
	}()
	return parseOSRelease(file)
}

func parseOSRelease(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if value, found := strings.CutPrefix(line, "PRETTY_NAME="); found {
			return strings.Trim(value, `"`)
		}
	}
	return UNKNOWN
}
