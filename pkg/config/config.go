package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Open311 struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"open311"`
	ArcGIS struct {
		GeocoderURL    string `yaml:"geocoder_url"`
		LiveAddressURL string `yaml:"live_address_url"`
		OpenSpaceURL   string `yaml:"open_space_url"`
	} `yaml:"arcgis"`
	Salesforce struct {
		OAuthURL       string `yaml:"oauth_url"`
		ConsumerKey    string `yaml:"consumer_key"`
		ConsumerSecret string `yaml:"consumer_secret"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
		SecurityToken  string `yaml:"security_token"`
		Required       bool   `yaml:"required"`
	} `yaml:"salesforce"`
	Elasticsearch struct {
		URL   string `yaml:"url"`
		Index string `yaml:"index"`
	} `yaml:"elasticsearch"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Enabled  bool   `yaml:"enabled"`
	} `yaml:"redis"`
	HTTPProxy string `yaml:"http_proxy"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	// Override with environment variables if set
	if endpoint := os.Getenv("OPEN311_ENDPOINT"); endpoint != "" {
		cfg.Open311.Endpoint = endpoint
	}
	if key := os.Getenv("OPEN311_API_KEY"); key != "" {
		cfg.Open311.APIKey = key
	}
	if u := os.Getenv("ARCGIS_GEOCODER_URL"); u != "" {
		cfg.ArcGIS.GeocoderURL = u
	}
	if u := os.Getenv("ARCGIS_LIVE_ADDRESS_URL"); u != "" {
		cfg.ArcGIS.LiveAddressURL = u
	}
	if u := os.Getenv("ARCGIS_OPEN_SPACE_URL"); u != "" {
		cfg.ArcGIS.OpenSpaceURL = u
	}
	if u := os.Getenv("SALESFORCE_OAUTH_URL"); u != "" {
		cfg.Salesforce.OAuthURL = u
	}
	if key := os.Getenv("SALESFORCE_CONSUMER_KEY"); key != "" {
		cfg.Salesforce.ConsumerKey = key
	}
	if secret := os.Getenv("SALESFORCE_CONSUMER_SECRET"); secret != "" {
		cfg.Salesforce.ConsumerSecret = secret
	}
	if user := os.Getenv("SALESFORCE_USERNAME"); user != "" {
		cfg.Salesforce.Username = user
	}
	if pass := os.Getenv("SALESFORCE_PASSWORD"); pass != "" {
		cfg.Salesforce.Password = pass
	}
	if token := os.Getenv("SALESFORCE_SECURITY_TOKEN"); token != "" {
		cfg.Salesforce.SecurityToken = token
	}
	if u := os.Getenv("ELASTICSEARCH_URL"); u != "" {
		cfg.Elasticsearch.URL = u
	}
	if index := os.Getenv("ELASTICSEARCH_INDEX"); index != "" {
		cfg.Elasticsearch.Index = index
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
		cfg.Redis.Enabled = true
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		portNum, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_PORT value: %v", err)
		}
		cfg.Redis.Port = portNum
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if proxy := os.Getenv("OUTBOUND_HTTP_PROXY"); proxy != "" {
		cfg.HTTPProxy = proxy
	}

	// Set default values
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "cases"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// Validation: missing upstream configuration fails at startup, not at first use
	if cfg.Open311.Endpoint == "" {
		return nil, fmt.Errorf("open311 endpoint is required")
	}
	if cfg.ArcGIS.GeocoderURL == "" {
		return nil, fmt.Errorf("arcgis geocoder_url is required")
	}
	if cfg.ArcGIS.LiveAddressURL == "" {
		return nil, fmt.Errorf("arcgis live_address_url is required")
	}
	if cfg.ArcGIS.OpenSpaceURL == "" {
		return nil, fmt.Errorf("arcgis open_space_url is required")
	}
	if cfg.Elasticsearch.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is required")
	}
	if cfg.Salesforce.Required && !cfg.SalesforceConfigured() {
		return nil, fmt.Errorf("salesforce credentials are required but incomplete")
	}

	return &cfg, nil
}

// SalesforceConfigured reports whether a full credential set is present.
func (c *Config) SalesforceConfigured() bool {
	sf := c.Salesforce
	return sf.OAuthURL != "" && sf.ConsumerKey != "" && sf.ConsumerSecret != "" &&
		sf.Username != "" && sf.Password != ""
}
