package sei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"github.com/joinville/accounts/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// maxResponseSize is the maximum accepted response size from SEI (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	pathDocumentCreate = "/SeiDocumentos/Create"
	pathProtocolCreate = "/api/Seiprotocolos/Gerar"
	pathProtocolReopen = "/api/Seiprotocolos/Reabrir"
	pathUser           = "/pmj/cadastro_usuario_externo.php"
	pathUserPassword   = "/pmj/cadastro_usuario_externo_senha.php"
	pathUserQuery      = "/pmj/cadastro_usuario_externo_consulta.php"

	userFoundMessage = "usuário encontrado"
)

// Errors returned by the client. Each one has its own code so callers can
// tell a refused request from an unreachable SEI; all of them answer 502
// except the data conflicts.
var (
	ErrUnavailable           = shared.NewDomainError("SEI_UNAVAILABLE", "Não foi possível comunicar com o SEI. Tente novamente mais tarde.")
	ErrRequestFailed         = shared.NewDomainError("SEI_REQUEST_FAILED", "O SEI recusou a requisição.")
	ErrInvalidResponse       = shared.NewDomainError("SEI_INVALID_RESPONSE", "Resposta inválida do SEI.")
	ErrPasswordChange        = shared.NewDomainError("SEI_PASSWORD_CHANGE_FAILED", "Erro ao alterar a senha no SEI")
	ErrSignatureProvisioning = shared.NewDomainError("SEI_SIGNATURE_PROVISIONING_FAILED", "Erro ao gerar a sua certificação.")
	ErrEmailBoundToOtherCPF  = shared.NewDomainError("SEI_EMAIL_CONFLICT", "Este e-mail está relacionado a outro CPF no SEI")
	ErrPhoneRequired         = shared.NewDomainError("SEI_PHONE_REQUIRED", "Deve ser informado o número de telefone")
	ErrAddressRequired       = shared.NewDomainError("SEI_ADDRESS_REQUIRED", "Endereço não pode ficar em branco.")
)

// ErrDocumentUploadCode is the code of the error returned for a rejected upload
const ErrDocumentUploadCode = "SEI_DOCUMENT_UPLOAD_FAILED"

// ErrDocumentUpload reports a rejected document upload
func ErrDocumentUpload(title string) error {
	return shared.NewDomainError(ErrDocumentUploadCode, "Erro ao enviar o arquivo "+title)
}

// Client talks to SEI over form, multipart and JSON posts
type Client struct {
	config     *Config
	httpClient *http.Client
	charset    encoding.Encoding
	logger     *zap.Logger
}

// Option configures the client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a SEI client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	charset, err := htmlindex.Get(config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("sei: unknown encoding %q: %w", config.Encoding, err)
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		charset:    charset,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("sei")
	return c, nil
}

// ---------------------------------------------------------------------------
// Documents and protocols
// ---------------------------------------------------------------------------

// AddDocument attaches a PDF to the protocol
func (c *Client) AddDocument(ctx context.Context, protocol, title string, pdf []byte) error {
	return c.upload(ctx, protocol, title, title+".pdf", c.config.Anexo, pdf)
}

// AddTextDocument attaches a text form encoded in the SEI charset. Blank
// content is ignored.
func (c *Client) AddTextDocument(ctx context.Context, protocol, title, content string) error {
	if shared.IsBlank(content) {
		return nil
	}
	encoded, err := encoding.ReplaceUnsupported(c.charset.NewEncoder()).String(content)
	if err != nil {
		return fmt.Errorf("sei: failed to encode %q: %w", title, err)
	}
	return c.upload(ctx, protocol, title, TextFileName(title), c.config.Formulario, []byte(encoded))
}

// TextFileName is the file name of a text document: the title without
// accents, lower case, spaces replaced by underscores
func TextFileName(title string) string {
	name := strings.ToLower(shared.RemoveDiacritics(title))
	return strings.ReplaceAll(name, " ", "_") + ".txt"
}

func (c *Client) upload(ctx context.Context, protocol, title, fileName, series string, content []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := [][2]string{
		{"procFormatado", protocol},
		{"idUnidade", c.config.Unidade},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("sei: failed to build upload: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("sei: failed to build upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("sei: failed to build upload: %w", err)
	}
	if err := w.WriteField("descricao", title); err != nil {
		return fmt.Errorf("sei: failed to build upload: %w", err)
	}
	if err := w.WriteField("idSerie", series); err != nil {
		return fmt.Errorf("sei: failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sei: failed to build upload: %w", err)
	}

	_, err = c.doRequest(ctx, c.config.VirtualURL+pathDocumentCreate, w.FormDataContentType(), &body)
	if errors.Is(err, ErrRequestFailed) {
		c.logger.Warn("Document upload rejected", zap.String("protocol", protocol), zap.String("title", title), zap.Error(err))
		return ErrDocumentUpload(title)
	}
	return err
}

// CreateProtocol opens a process with the person as interested party
func (c *Client) CreateProtocol(ctx context.Context, person *account.Person) error {
	payload, err := json.Marshal(protocolRequest{
		IDUnidade:          c.config.Unidade,
		IDProcedimento:     c.config.Procedimento,
		IDTipoProcedimento: c.config.TipoProcedimento,
		IDServico:          c.config.Servico,
		Interessados:       []interested{{Sigla: person.Email, Nome: person.Name}},
	})
	if err != nil {
		return fmt.Errorf("sei: failed to encode protocol request: %w", err)
	}

	body, err := c.doRequest(ctx, c.config.VirtualURL+pathProtocolCreate, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	var resp protocolResponse
	if err := c.decode(body, &resp); err != nil {
		return err
	}
	if resp.ProcedimentoFormatado == "" {
		c.logger.Error("Protocol response without number", zap.String("response", c.text(body)))
		return ErrInvalidResponse
	}
	person.SetProtocol(resp.ProcedimentoFormatado, resp.Link)
	return nil
}

// ReopenProtocol reopens a concluded process
func (c *Client) ReopenProtocol(ctx context.Context, protocol string) error {
	_, err := c.postForm(ctx, c.config.VirtualURL+pathProtocolReopen, url.Values{
		"IdUnidade":             {c.config.Unidade},
		"ProcedimentoFormatado": {protocol},
		"IdTipoProcedimento":    {c.config.TipoProcedimento},
		"IdServico":             {c.config.Servico},
	})
	return err
}

// ---------------------------------------------------------------------------
// External users
// ---------------------------------------------------------------------------

// ChangePassword sets the SEI password of the person. Nothing happens when
// the person has no SEI user. Revoking sends status P, which puts the
// external user back to pending, and resets the local signature status.
func (c *Client) ChangePassword(ctx context.Context, person *account.Person, password string, revoke bool) error {
	if !person.HasSeiUser() {
		return nil
	}

	values := url.Values{
		"token":      {c.config.Token},
		"id_usuario": {strconv.FormatInt(*person.SeiID, 10)},
		"nova_senha": {password},
	}
	if revoke {
		values.Set("status", "P")
	}

	body, err := c.postForm(ctx, c.config.URL+pathUserPassword, values)
	if err != nil {
		return err
	}
	var resp statusResponse
	if err := c.decode(body, &resp); err != nil {
		return err
	}
	if resp.Status != 1 {
		c.logger.Warn("Password change refused", zap.Int64("sei_id", *person.SeiID), zap.String("msg", resp.Msg))
		return ErrPasswordChange
	}

	if revoke {
		person.RevokeSignature()
	}
	return nil
}

// FindPersonByID looks up an external user by SEI id
func (c *Client) FindPersonByID(ctx context.Context, id int64) (*account.Person, error) {
	return c.findPerson(ctx, "id_usuario", strconv.FormatInt(id, 10))
}

// FindPersonByEmail looks up an external user by email
func (c *Client) FindPersonByEmail(ctx context.Context, email string) (*account.Person, error) {
	return c.findPerson(ctx, "email", email)
}

func (c *Client) findPerson(ctx context.Context, key, value string) (*account.Person, error) {
	body, err := c.postForm(ctx, c.config.URL+pathUserQuery, url.Values{
		"token": {c.config.Token},
		key:     {value},
	})
	if err != nil {
		return nil, err
	}

	var resp userResponse
	if err := c.decode(body, &resp); err != nil {
		return nil, err
	}
	if strings.ToLower(resp.Msg) != userFoundMessage {
		return nil, nil
	}

	p := &account.Person{
		CPF:             shared.PadLeft(string(resp.CPF), account.CPFLength, '0'),
		Email:           resp.Email,
		RG:              resp.RG,
		Dispatcher:      resp.OrgaoExpedidor,
		SignatureStatus: account.SignatureUnsolicited,
	}
	p.SetName(resp.Nome)
	if resp.IDUsuario != 0 {
		p.SetSeiID(int64(resp.IDUsuario))
	}
	if strings.Contains(strings.ToLower(resp.StaTipoDescricao), "liberado") {
		p.SignatureStatus = account.SignatureApproved
	}
	return p, nil
}

// CreateOrUpdateUser upserts the external user of the person. An external
// user already registered with the same email is adopted when the CPF
// matches.
func (c *Client) CreateOrUpdateUser(ctx context.Context, person *account.Person, password string) error {
	if len(person.Phones) == 0 {
		return ErrPhoneRequired
	}
	if person.Address == nil {
		return ErrAddressRequired
	}

	existing, err := c.FindPersonByEmail(ctx, person.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.CPF != person.CPF {
			return ErrEmailBoundToOtherCPF
		}
		person.SeiID = existing.SeiID
	}

	addr := person.Address
	values := url.Values{"token": {c.config.Token}}
	if person.HasSeiUser() {
		values.Set("valores[id_usuario]", strconv.FormatInt(*person.SeiID, 10))
	}
	values.Set("valores[nome]", person.Name)
	values.Set("valores[cpf]", person.CPF)
	values.Set("valores[rg]", person.RG)
	values.Set("valores[orgao_expedidor]", person.Dispatcher)
	values.Set("valores[telefone]", person.PhoneLastUpdated())
	values.Set("valores[endereco]", addr.StreetAndNumber())
	values.Set("valores[bairro]", addr.District)
	values.Set("valores[cidade]", addr.City)
	values.Set("valores[estado]", addr.State)
	values.Set("valores[cep]", zipCode(addr))
	values.Set("valores[email]", person.Email)
	values.Set("valores[senha]", password)
	values.Set("valores[senha_confirmacao]", password)

	body, err := c.postForm(ctx, c.config.URL+pathUser, values)
	if err != nil {
		return err
	}
	var resp statusResponse
	if err := c.decode(body, &resp); err != nil {
		return err
	}
	if resp.Status == 0 {
		c.logger.Error("External user provisioning failed",
			logger.Document(person.CPF),
			zap.String("response", c.text(body)),
		)
		return ErrSignatureProvisioning
	}
	if resp.IDUsuario != 0 {
		person.SetSeiID(int64(resp.IDUsuario))
	}
	return nil
}

// UpdateSignatureStatus merges the status reported by SEI into person. A
// local request under approval is kept while SEI still reports nothing.
func (c *Client) UpdateSignatureStatus(ctx context.Context, person *account.Person) error {
	remote, err := c.remoteOf(ctx, person)
	if err != nil || remote == nil {
		return err
	}
	person.ApplySignatureStatus(remote.SignatureStatus)
	return nil
}

// SignatureIsApproved queries SEI directly
func (c *Client) SignatureIsApproved(ctx context.Context, person *account.Person) (bool, error) {
	remote, err := c.remoteOf(ctx, person)
	if err != nil || remote == nil {
		return false, err
	}
	return remote.SignatureStatus == account.SignatureApproved, nil
}

func (c *Client) remoteOf(ctx context.Context, person *account.Person) (*account.Person, error) {
	if !person.HasSeiUser() {
		return nil, nil
	}
	return c.FindPersonByID(ctx, *person.SeiID)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) postForm(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	return c.doRequest(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

func (c *Client) doRequest(ctx context.Context, endpoint, contentType string, body io.Reader) (data []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sei.request", "http.url", endpoint)
	defer func() { telemetry.End(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("sei: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SEI unavailable", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("sei: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrRequestFailed, resp.StatusCode, endpoint)
	}
	return data, nil
}

// text decodes a response from the SEI charset
func (c *Client) text(body []byte) string {
	decoded, err := c.charset.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func (c *Client) decode(body []byte, v any) error {
	if err := json.Unmarshal([]byte(c.text(body)), v); err != nil {
		c.logger.Error("Invalid SEI response", zap.String("response", c.text(body)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func zipCode(a *account.Address) string {
	if a.ZipCode == nil {
		return ""
	}
	return strconv.Itoa(*a.ZipCode)
}

var _ port.SeiGateway = (*Client)(nil)
