package publishers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/opennotify/internal/fileconf"
)

const (
	// Supported publisher types.
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeHTTP      = "http"
	TypeGCPPubSub = "gcp_pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers" toml:"publishers"`
}

// PublisherConfig is one sink declared in the publishers file. Exactly the
// block matching Type is used; Kinds limits which events reach the sink
// (empty means every kind).
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id" toml:"id"`
	Type    string               `json:"type" yaml:"type" toml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled" toml:"enabled"`
	Kinds   []Kind               `json:"kinds" yaml:"kinds" toml:"kinds"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs" toml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns" toml:"sns"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http" toml:"http"`
	PubSub  *GCPPubSubConfig     `json:"gcp_pubsub" yaml:"gcp_pubsub" toml:"gcp_pubsub"`
}

// AWSCredentials optionally pins static credentials; when absent the default
// AWS credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key" toml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token" toml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS settings.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri" toml:"uri"`
	Region      string          `json:"region" yaml:"region" toml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials" toml:"credentials"`
}

func (c SQSPublisherConfig) normalized() *SQSPublisherConfig {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	return &c
}

func (c *SQSPublisherConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("sqs block is required")
	case c.QueueURL == "":
		return errors.New("sqs.uri is required")
	case c.Region == "":
		return errors.New("sqs.region is required")
	}
	return nil
}

// SNSPublisherConfig holds AWS SNS settings.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn" toml:"topic_arn"`
	Region      string          `json:"region" yaml:"region" toml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials" toml:"credentials"`
}

func (c SNSPublisherConfig) normalized() *SNSPublisherConfig {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	return &c
}

func (c *SNSPublisherConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("sns block is required")
	case c.TopicARN == "":
		return errors.New("sns.topic_arn is required")
	case c.Region == "":
		return errors.New("sns.region is required")
	}
	return nil
}

// HTTPPublisherConfig holds webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url" toml:"url"`
	Method         string            `json:"method" yaml:"method" toml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers" toml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

func (c HTTPPublisherConfig) normalized() *HTTPPublisherConfig {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = headers
	return &c
}

func (c *HTTPPublisherConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("http block is required")
	case c.URL == "":
		return errors.New("http.url is required")
	case c.Method != "POST" && c.Method != "PUT":
		return fmt.Errorf("http.method %q not supported (POST or PUT)", c.Method)
	}
	return nil
}

// GCPPubSubConfig holds Google Cloud Pub/Sub settings.
type GCPPubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id" toml:"project_id"`
	Topic           string `json:"topic" yaml:"topic" toml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" toml:"credentials_file"`
}

func (c GCPPubSubConfig) normalized() *GCPPubSubConfig {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	return &c
}

func (c *GCPPubSubConfig) validate() error {
	switch {
	case c == nil:
		return errors.New("gcp_pubsub block is required")
	case c.ProjectID == "" || c.Topic == "":
		return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
	}
	return nil
}

// normalized trims fields, lower-cases type and kinds and fills sink defaults.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	kinds := make([]Kind, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		kinds = append(kinds, Kind(strings.ToLower(strings.TrimSpace(string(k)))))
	}
	cfg.Kinds = kinds
	if cfg.SQS != nil {
		cfg.SQS = cfg.SQS.normalized()
	}
	if cfg.SNS != nil {
		cfg.SNS = cfg.SNS.normalized()
	}
	if cfg.HTTP != nil {
		cfg.HTTP = cfg.HTTP.normalized()
	}
	if cfg.PubSub != nil {
		cfg.PubSub = cfg.PubSub.normalized()
	}
	return cfg
}

// Validate checks the id, type, kinds and the sink block matching the type.
func (cfg PublisherConfig) Validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	for _, k := range cfg.Kinds {
		if !k.valid() {
			return fmt.Errorf("publisher %q: unknown event kind %q", cfg.ID, k)
		}
	}

	var err error
	switch cfg.Type {
	case "":
		err = errors.New("type is required")
	case TypeSQS:
		err = cfg.SQS.validate()
	case TypeSNS:
		err = cfg.SNS.validate()
	case TypeHTTP:
		err = cfg.HTTP.validate()
	case TypeGCPPubSub:
		err = cfg.PubSub.validate()
	default:
		err = fmt.Errorf("unsupported type %q", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Registry is the validated, immutable content of a publishers file.
type Registry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry loads the publishers file (YAML, JSON or TOML).
func LoadRegistry(path string) (*Registry, error) {
	var file configFile
	if err := fileconf.Load(path, &file); err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}
	return NewRegistry(file.Publishers...)
}

// NewRegistry normalizes and validates configs, rejecting duplicate ids.
func NewRegistry(cfgs ...PublisherConfig) (*Registry, error) {
	reg := &Registry{
		publishers: make([]PublisherConfig, 0, len(cfgs)),
		idx:        make(map[string]int, len(cfgs)),
	}
	for i, raw := range cfgs {
		cfg := raw.normalized()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// ByID returns the publisher config by id.
func (r *Registry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns every configured publisher in file order.
func (r *Registry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the publishers whose enabled flag is unset or true.
func (r *Registry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
