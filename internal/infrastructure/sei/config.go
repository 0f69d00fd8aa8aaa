package sei

import (
	"errors"
	"time"

	"github.com/joinville/accounts/internal/infrastructure/config"
)

// DefaultEncoding is the charset SEI uses on its PHP endpoints
const DefaultEncoding = "ISO-8859-1"

// Config holds the SEI endpoints and the ids of the unit, series and
// process types used by the portal
type Config struct {
	// Token authenticates the PHP user endpoints
	Token string
	// URL is the base of the PHP endpoints (/pmj/...)
	URL string
	// VirtualURL is the base of the document and protocol API
	VirtualURL string
	// Encoding is the charset of SEI responses and text documents
	Encoding string

	Unidade          string
	Anexo            string // series of attached PDFs
	Formulario       string // series of text forms
	Procedimento     string
	TipoProcedimento string
	Servico          string

	Timeout time.Duration
}

// Errors for SEI configuration
var (
	ErrConfigMissingToken      = errors.New("sei: token is required")
	ErrConfigMissingURL        = errors.New("sei: url is required")
	ErrConfigMissingVirtualURL = errors.New("sei: virtual url is required")
)

// NewConfig converts the application settings
func NewConfig(cfg config.SeiConfig) *Config {
	return &Config{
		Token:            cfg.Token,
		URL:              cfg.URL,
		VirtualURL:       cfg.VirtualURL,
		Encoding:         cfg.Encoding,
		Unidade:          cfg.Unidade,
		Anexo:            cfg.Anexo,
		Formulario:       cfg.Formulario,
		Procedimento:     cfg.Procedimento,
		TipoProcedimento: cfg.TipoProcedimento,
		Servico:          cfg.Servico,
		Timeout:          cfg.Timeout,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrConfigMissingToken
	}
	if c.URL == "" {
		return ErrConfigMissingURL
	}
	if c.VirtualURL == "" {
		return ErrConfigMissingVirtualURL
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
