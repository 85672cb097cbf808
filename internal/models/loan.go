// internal/models/loan.go
package models

import "encoding/json"

// LoanContext is the loan-application data a document is checked against.
// It is resolved by the caller before any validation or scoring run.
type LoanContext struct {
	LoanID      string                 `json:"loanId"`
	Borrower    Borrower               `json:"borrower"`
	Employment  Employment             `json:"employment"`
	Property    Property               `json:"property"`
	MISMO       MISMO                  `json:"mismo"`
	Ratios      Ratios                 `json:"ratios"`
	Transaction Transaction            `json:"transaction"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}

type Borrower struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type Employment struct {
	EmployerName string  `json:"employerName"`
	BaseIncome   float64 `json:"baseIncome"` // annual
	SelfEmployed bool    `json:"selfEmployed"`
}

type Property struct {
	Address   string `json:"address"`
	State     string `json:"state"`
	Type      string `json:"type,omitempty"`
	Occupancy string `json:"occupancy,omitempty"`
}

// MISMO holds the subset of MISMO loan attributes the rules reference.
type MISMO struct {
	LoanAmountRequested float64 `json:"loanAmountRequested"`
	LoanProductType     string  `json:"loanProductType"`
	LoanPurpose         string  `json:"loanPurpose,omitempty"`
	MonthlyPayment      float64 `json:"monthlyPayment"`
	PropertyState       string  `json:"propertyState,omitempty"`
}

type Ratios struct {
	GrossMonthlyIncome float64 `json:"grossMonthlyIncome"`
	DebtToIncome       float64 `json:"debtToIncome,omitempty"`
}

type Transaction struct {
	CashToClose float64 `json:"cashToClose"`
	GiftFunds   float64 `json:"giftFunds,omitempty"`
}

// PropertyState prefers the MISMO state and falls back to the property record.
func (l *LoanContext) PropertyState() string {
	if l.MISMO.PropertyState != "" {
		return l.MISMO.PropertyState
	}
	return l.Property.State
}

// Document returns the loan as a generic JSON-shaped tree, the form
// requirement predicates are evaluated against.
func (l *LoanContext) Document() (map[string]interface{}, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
