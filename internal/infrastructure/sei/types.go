package sei

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexInt accepts a JSON number, a numeric string or null
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a JSON string, a number or null
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}

// statusResponse is returned by the user and password endpoints
type statusResponse struct {
	Status    flexInt `json:"status"`
	IDUsuario flexInt `json:"id_usuario"`
	Msg       string  `json:"msg"`
}

// userResponse is returned by cadastro_usuario_externo_consulta.php
type userResponse struct {
	Msg              string     `json:"msg"`
	Nome             string     `json:"nome"`
	CPF              flexString `json:"cpf"`
	Email            string     `json:"email"`
	RG               string     `json:"rg"`
	OrgaoExpedidor   string     `json:"orgao_expedidor"`
	IDUsuario        flexInt    `json:"id_usuario"`
	StaTipoDescricao string     `json:"sta_tipo_descricao"`
}

// protocolRequest is the body of /api/Seiprotocolos/Gerar
type protocolRequest struct {
	IDUnidade          string       `json:"IdUnidade"`
	IDProcedimento     string       `json:"IdProcedimento"`
	IDTipoProcedimento string       `json:"IdTipoProcedimento"`
	IDServico          string       `json:"IdServico"`
	Interessados       []interested `json:"Interessados"`
}

type interested struct {
	Sigla string `json:"siglaField"`
	Nome  string `json:"nomeField"`
}

// protocolResponse is returned by /api/Seiprotocolos/Gerar
type protocolResponse struct {
	ProcedimentoFormatado string `json:"ProcedimentoFormatado"`
	Link                  string `json:"Link"`
}
