package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ridealert/go-helmet-api/logger"
)

const (
	AppName     = "helmet-api"
	AppVersion  = "0.1.0"
	serviceType = "_http._tcp"
	domain      = "local."

	// Serial Port Profile UUID, used by the helmet firmware for both the
	// command service and its single writable characteristic.
	sppUUID = "00001101-0000-1000-8000-00805f9b34fb"

	defaultHelmetName = "Smart Helmet X1"
	defaultSMSBody    = "SOS - Emergency alert from Smart Helmet"
	defaultMapsURL    = "https://www.google.com/maps/search/?api=1&query="
)

type Config struct {
	Api      *ApiConfig
	Store    *StoreConfig
	Flow     *FlowConfig
	Helmet   *HelmetConfig
	Alert    *AlertConfig
	Zeroconf *ZeroConfig
	LogLevel logger.Level
}

type ApiConfig struct {
	Enabled bool
	Port    int
	Listens []string
	SSE     bool
	CORS    *CORSConfig
}

type CORSConfig struct {
	Origins []string
}

type StoreConfig struct {
	DataDir string
	Watch   bool
}

type FlowConfig struct {
	// Cosmetic startup delay shown before the permission sequence.
	LoadingDelay time.Duration
}

type HelmetConfig struct {
	Enabled     bool
	DefaultName string
	NamePrefix  string
	ServiceUUID string
	CharUUID    string
	ScanWindow  time.Duration
	Timeout     time.Duration
	KnownTTL    time.Duration
}

type AlertConfig struct {
	Enabled bool
	SMSBody string
	Opener  string
	MapsURL string
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
	Listen       []net.Interface
}

// parseLogLevel converts a string to a logger.Level
func parseLogLevel(levelStr string) logger.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return logger.DEBUG
	case "INFO":
		return logger.INFO
	case "WARN":
		return logger.WARN
	case "ERROR":
		return logger.ERROR
	case "FATAL":
		return logger.FATAL
	default:
		return logger.WARN // default
	}
}

func interfaceForIP(ip string) (*net.Interface, error) {
	if ip == "127.0.0.1" {
		return nil, nil
	}
	listenIP := net.ParseIP(ip)
	if listenIP == nil {
		return nil, fmt.Errorf("invalid bind: %s", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			var ifaceIP net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}

			if ifaceIP != nil && ifaceIP.Equal(listenIP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found for IP %s", ip)
}

func defaultDataDir() string {
	if xdg, ok := os.LookupEnv("XDG_DATA_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/var/lib", AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

func New() (*Config, error) {
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.port", 8087)
	viper.SetDefault("api.sse", true)

	viper.SetDefault("store.watch", true)

	viper.SetDefault("flow.loading_delay", "1500ms")

	viper.SetDefault("helmet.enabled", true)
	viper.SetDefault("helmet.name", defaultHelmetName)
	viper.SetDefault("helmet.name_prefix", "")
	viper.SetDefault("helmet.service_uuid", sppUUID)
	viper.SetDefault("helmet.characteristic_uuid", sppUUID)
	viper.SetDefault("helmet.scan_window", "10s")
	viper.SetDefault("helmet.timeout", "5s")
	viper.SetDefault("helmet.known_ttl", "5m")

	viper.SetDefault("alert.enabled", true)
	viper.SetDefault("alert.sms_body", defaultSMSBody)
	viper.SetDefault("alert.opener", "xdg-open")
	viper.SetDefault("alert.maps_url", defaultMapsURL)

	viper.SetDefault("zeroconf.enabled", true)

	viper.SetDefault("LogLevel", "WARN")
	viper.SetDefault("bind", "127.0.0.1")
	// Load from configuration file, environment variables, and CLI flags
	viper.SetConfigName("config")                       // name of config file (without extension)
	viper.SetConfigType("yaml")                         // config file format
	viper.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("failed to read config: %v", err)
		}
	}

	port := viper.GetInt("api.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	bind := viper.GetString("bind")
	var interfaces []net.Interface
	inet, err := interfaceForIP(bind)
	if err == nil && inet != nil {
		interfaces = append(interfaces, *inet)
	}

	listens := []string{fmt.Sprintf("127.0.0.1:%d", port)}
	if bind != "127.0.0.1" {
		listens = append(listens, fmt.Sprintf("%s:%d", bind, port))
	}

	var cors *CORSConfig
	if origins := viper.GetStringSlice("api.cors_origins"); len(origins) > 0 {
		cors = &CORSConfig{Origins: origins}
	}

	apiCfg := ApiConfig{
		Enabled: viper.GetBool("api.enabled"),
		Port:    port,
		Listens: listens,
		SSE:     viper.GetBool("api.sse"),
		CORS:    cors,
	}

	dataDir := viper.GetString("store.data_dir")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}
	storeCfg := StoreConfig{
		DataDir: dataDir,
		Watch:   viper.GetBool("store.watch"),
	}

	loadingDelay := viper.GetDuration("flow.loading_delay")
	if loadingDelay < 0 {
		loadingDelay = 0
	}
	flowCfg := FlowConfig{
		LoadingDelay: loadingDelay,
	}

	helmetTimeout := viper.GetDuration("helmet.timeout")
	if helmetTimeout <= 0 {
		helmetTimeout = 5 * time.Second
	}
	scanWindow := viper.GetDuration("helmet.scan_window")
	if scanWindow <= 0 {
		scanWindow = 10 * time.Second
	}
	helmetCfg := HelmetConfig{
		Enabled:     viper.GetBool("helmet.enabled"),
		DefaultName: viper.GetString("helmet.name"),
		NamePrefix:  viper.GetString("helmet.name_prefix"),
		ServiceUUID: viper.GetString("helmet.service_uuid"),
		CharUUID:    viper.GetString("helmet.characteristic_uuid"),
		ScanWindow:  scanWindow,
		Timeout:     helmetTimeout,
		KnownTTL:    viper.GetDuration("helmet.known_ttl"),
	}

	alertCfg := AlertConfig{
		Enabled: viper.GetBool("alert.enabled"),
		SMSBody: viper.GetString("alert.sms_body"),
		Opener:  viper.GetString("alert.opener"),
		MapsURL: viper.GetString("alert.maps_url"),
	}

	zerocfg := ZeroConfig{
		Enabled:      viper.GetBool("zeroconf.enabled"),
		InstanceName: AppName,
		ServiceType:  serviceType,
		Port:         port,
		Domain:       domain,
		TxtRecords:   []string{"version=" + AppVersion},
		Listen:       interfaces,
	}

	cfg := Config{
		Api:      &apiCfg,
		Store:    &storeCfg,
		Flow:     &flowCfg,
		Helmet:   &helmetCfg,
		Alert:    &alertCfg,
		Zeroconf: &zerocfg,
		LogLevel: parseLogLevel(viper.GetString("LogLevel")),
	}

	return &cfg, nil
}
