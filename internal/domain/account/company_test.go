package account

import (
	"testing"

	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompany(t *testing.T) {
	c, err := NewCompany(CompanyData{
		CNPJ:        "11.222.333/0001-81",
		Email:       "contato@empresa.com.br",
		Name:        "PADARIA DO JOÃO",
		CompanyName: "JOÃO E FILHOS LTDA",
	}, validAddress(t))
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", c.CNPJ)
	assert.Equal(t, "Padaria do João", c.Name)
	assert.Equal(t, "João e Filhos Ltda", c.CompanyName)
}

func TestNewCompany_InvalidCNPJ(t *testing.T) {
	_, err := NewCompany(CompanyData{CNPJ: "11222333000182", Email: "x@y.com", Name: "A", CompanyName: "B"}, nil)
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "CNPJ Inválido", ve.Errors[0].Message)
}
