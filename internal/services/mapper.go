package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nexconsult/cnpj-enricher/internal/models"
)

var errEmptyPayload = errors.New("resposta inválida da API: payload nulo")

// companyPayload is the subset of the BrasilAPI CNPJ response the reports use.
// JSON null and absent fields decode to "".
type companyPayload struct {
	RazaoSocial         string `json:"razao_social"`
	NomeFantasia        string `json:"nome_fantasia"`
	InscricoesEstaduais []struct {
		InscricaoEstadual string `json:"inscricao_estadual"`
	} `json:"inscricoes_estaduais"`
	CEP               string `json:"cep"`
	Logradouro        string `json:"logradouro"`
	Numero            string `json:"numero"`
	Complemento       string `json:"complemento"`
	Bairro            string `json:"bairro"`
	Municipio         string `json:"municipio"`
	UF                string `json:"uf"`
	DDDTelefone1      string `json:"ddd_telefone_1"`
	CorreioEletronico string `json:"correio_eletronico"`
}

// MapRecord turns a lookup outcome into a report row. Lookup errors are
// returned unchanged; payloads whose fields have unexpected types yield an
// error instead of a partial record.
func MapRecord(cnpj string, outcome models.LookupOutcome) (*models.CompanyRecord, error) {
	if outcome.Err != nil {
		return nil, outcome.Err
	}

	var p *companyPayload
	if err := json.Unmarshal(outcome.Payload, &p); err != nil {
		return nil, fmt.Errorf("resposta inválida da API: %w", err)
	}
	if p == nil {
		return nil, errEmptyPayload
	}

	record := &models.CompanyRecord{
		CNPJ:         cnpj,
		RazaoSocial:  p.RazaoSocial,
		NomeFantasia: p.NomeFantasia,
		CEP:          p.CEP,
		Endereco:     p.Logradouro,
		Numero:       p.Numero,
		Complemento:  p.Complemento,
		Bairro:       p.Bairro,
		Cidade:       p.Municipio,
		UF:           p.UF,
		Telefone:     p.DDDTelefone1,
		Email:        p.CorreioEletronico,
	}
	if len(p.InscricoesEstaduais) > 0 {
		record.InscricaoEstadual = p.InscricoesEstaduais[0].InscricaoEstadual
	}

	return record, nil
}
