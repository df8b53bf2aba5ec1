package models

import (
	"encoding/json"
	"time"

	"github.com/nexconsult/cnpj-enricher/internal/utils"
)

// CompanyRecord is one row of the success report
type CompanyRecord struct {
	CNPJ              string `json:"cnpj" example:"11444777000161"`
	RazaoSocial       string `json:"razao_social" example:"EMPRESA EXEMPLO LTDA"`
	NomeFantasia      string `json:"nome_fantasia" example:"Empresa Exemplo"`
	InscricaoEstadual string `json:"inscricao_estadual" example:"123456789"`
	CEP               string `json:"cep" example:"01234567"`
	Endereco          string `json:"endereco" example:"RUA EXEMPLO"`
	Numero            string `json:"numero" example:"123"`
	Complemento       string `json:"complemento" example:"SALA 456"`
	Bairro            string `json:"bairro" example:"CENTRO"`
	Cidade            string `json:"cidade" example:"SAO PAULO"`
	UF                string `json:"uf" example:"SP"`
	Telefone          string `json:"telefone" example:"1133334444"`
	Email             string `json:"email" example:"contato@exemplo.com.br"`
}

// CompanyRecordHeader returns the success report header in column order
func CompanyRecordHeader() []string {
	return []string{
		"CNPJ",
		"Razao Social",
		"Nome Fantasia",
		"Inscrição Estadual",
		"Cep",
		"Endereço",
		"Numero",
		"Complemento",
		"Bairro",
		"Cidade",
		"UF",
		"Telefone",
		"E-mail",
	}
}

// Values returns the record fields in CompanyRecordHeader order
func (r CompanyRecord) Values() []string {
	return []string{
		r.CNPJ,
		r.RazaoSocial,
		r.NomeFantasia,
		r.InscricaoEstadual,
		r.CEP,
		r.Endereco,
		r.Numero,
		r.Complemento,
		r.Bairro,
		r.Cidade,
		r.UF,
		r.Telefone,
		r.Email,
	}
}

// Failure is one row of the error report
type Failure struct {
	CNPJ string `json:"cnpj" example:"00000000000000"`
	Erro string `json:"erro" example:"invalid sequence"`
}

// FailureHeader returns the error report header in column order
func FailureHeader() []string {
	return []string{"CNPJ", "Erro"}
}

// Values returns the failure fields in FailureHeader order
func (f Failure) Values() []string {
	return []string{f.CNPJ, f.Erro}
}

// LookupOutcome is what the lookup client hands to the record mapper:
// either a raw success payload or an error.
type LookupOutcome struct {
	Payload json.RawMessage
	Err     error
}

// InputTable holds the identifiers read from the input file, in file order
type InputTable struct {
	Source      string   `json:"source"`
	Identifiers []string `json:"-"`
}

// Len returns the number of rows in the table
func (t *InputTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Identifiers)
}

// RunResult accumulates the outcome of one pipeline execution
type RunResult struct {
	Successes  []CompanyRecord `json:"successes"`
	Failures   []Failure       `json:"failures"`
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Cancelled  bool            `json:"cancelled"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid input file"`
	Message   string    `json:"message" example:"Coluna 'CNPJ' não encontrada"`
	Code      string    `json:"code,omitempty" example:"INVALID_INPUT"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/jobs"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status    string    `json:"status" example:"healthy"`
	LastCheck time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	Error     string    `json:"error,omitempty"`
}

// ValidateBatchRequest is the body of the batch validation endpoint
type ValidateBatchRequest struct {
	CNPJs []string `json:"cnpjs" binding:"required,min=1,max=1000" example:"11.444.777/0001-61,00000000000000"`
}

// ValidateBatchResponse reports normalization and validation per identifier
type ValidateBatchResponse struct {
	Results []utils.CNPJInfo `json:"results"`
	Total   int              `json:"total" example:"2"`
	Valid   int              `json:"valid" example:"1"`
	Invalid int              `json:"invalid" example:"1"`
}
