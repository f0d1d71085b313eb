package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the triage state of an intake application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// PartnerApplication is a submitted partner onboarding request. Document
// fields hold storage paths in the partner-documents bucket, never public
// URLs. The IVA documents are required only when HasIVA is set.
type PartnerApplication struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	FullName          string            `json:"full_name" db:"full_name"`
	AndeBillPath      *string           `json:"ande_bill_path" db:"ande_bill_path"`
	CedulaFrontPath   *string           `json:"cedula_front_path" db:"cedula_front_path"`
	CedulaBackPath    *string           `json:"cedula_back_path" db:"cedula_back_path"`
	HasIVA            bool              `json:"has_iva" db:"has_iva"`
	IVAMovementsPath  *string           `json:"iva_movements_path" db:"iva_movements_path"`
	TaxCompliancePath *string           `json:"tax_compliance_path" db:"tax_compliance_path"`
	Status            ApplicationStatus `json:"status" db:"status"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// CreditApplication is a submitted credit request with the applicant's
// financial profile. Financial fields are immutable once inserted; only
// Status moves afterwards.
type CreditApplication struct {
	ID                  uuid.UUID         `json:"id" db:"id"`
	FullName            string            `json:"full_name" db:"full_name"`
	DocumentNumber      string            `json:"document_number" db:"document_number"`
	Address             string            `json:"address" db:"address"`
	Amount              float64           `json:"amount" db:"amount"`
	TermMonths          int               `json:"term_months" db:"term_months"`
	MonthlyIncome       float64           `json:"monthly_income" db:"monthly_income"`
	MonthlyExpenses     float64           `json:"monthly_expenses" db:"monthly_expenses"`
	FamilyExpenses      float64           `json:"family_expenses" db:"family_expenses"`
	UtilityExpenses     float64           `json:"utility_expenses" db:"utility_expenses"`
	RentExpenses        float64           `json:"rent_expenses" db:"rent_expenses"`
	FuelExpenses        float64           `json:"fuel_expenses" db:"fuel_expenses"`
	InternetExpenses    float64           `json:"internet_expenses" db:"internet_expenses"`
	BankInstallments    *string           `json:"bank_installments" db:"bank_installments"`
	DeclaredSalesIncome *float64          `json:"declared_sales_income" db:"declared_sales_income"`
	Reference1          ReferenceContact  `json:"reference1"`
	Reference2          ReferenceContact  `json:"reference2"`
	CedulaFrontPath     *string           `json:"cedula_front_path" db:"cedula_front_path"`
	CedulaBackPath      *string           `json:"cedula_back_path" db:"cedula_back_path"`
	AndeBillPath        *string           `json:"ande_bill_path" db:"ande_bill_path"`
	WorkCertificatePath *string           `json:"work_certificate_path" db:"work_certificate_path"`
	Status              ApplicationStatus `json:"status" db:"status"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" db:"updated_at"`
}

// ReferenceContact is one of the two personal references on a credit
// application.
type ReferenceContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
