// pkg/catalog/schema.go
package catalog

// Catalog is the versioned rule configuration: the document types a loan may
// need, how each is validated, and how readiness is weighted.
type Catalog struct {
	Version       string             `json:"version"`
	LastUpdated   string             `json:"lastUpdated"`
	DocumentTypes []DocumentType     `json:"documentTypes"`
	Scoring       ScoringWeights     `json:"scoring"`
	MaxLTV        map[string]float64 `json:"maxLtv,omitempty"`

	index map[string]int
}

type DocumentType struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Category           string                 `json:"category"`
	Required           bool                   `json:"required"`
	Conditions         []RequirementCondition `json:"conditions,omitempty"`
	Fields             []FieldRule            `json:"fields"`
	Rules              []DocumentRule         `json:"rules,omitempty"`
	ExtractionGuidance string                 `json:"extractionGuidance,omitempty"`
}

type FieldRule struct {
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Validator string    `json:"validator,omitempty"`
}

type DocumentRule struct {
	ID       string                 `json:"id"`
	Severity string                 `json:"severity"`
	Message  string                 `json:"message"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

// RequirementCondition is one predicate over loan data. All conditions of a
// document type must hold for it to be required.
type RequirementCondition struct {
	Path     string      `json:"path"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// ScoringWeights are the readiness sub-score weights. Together with the fixed
// 25 point readiness bonus they must total 100.
type ScoringWeights struct {
	Completeness int `json:"completeness"`
	Accuracy     int `json:"accuracy"`
	Compliance   int `json:"compliance"`
}

func (w ScoringWeights) Total() int {
	return w.Completeness + w.Accuracy + w.Compliance
}

type FieldType string

const (
	TypeString   FieldType = "string"
	TypeDate     FieldType = "date"
	TypeCurrency FieldType = "currency"
	TypeBoolean  FieldType = "boolean"
	TypeList     FieldType = "list"
)

type Operator string

const (
	OpEquals      Operator = "equals"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpIn          Operator = "in"
	OpContains    Operator = "contains"
)

// Field validator ids.
const (
	ValidatorBorrowerName    = "mustMatchBorrowerName"
	ValidatorBorrowerDOB     = "mustMatchBorrowerDOB"
	ValidatorNotExpired      = "mustNotBeExpired"
	ValidatorWithin30Days    = "within30Days"
	ValidatorWithin60Days    = "within60Days"
	ValidatorSubjectProperty = "mustMatchSubjectProperty"
	ValidatorLoanApplication = "mustMatchLoanApplication"
)

// Document rule ids.
const (
	RuleDocumentNotExpired        = "documentNotExpired"
	RuleNameMatches               = "nameMatches"
	RuleStatementNotTooOld        = "statementNotTooOld"
	RuleLargeDepositsNeedSourcing = "largeDepositsNeedSourcing"
	RuleNSFFeesPresent            = "nsfFeesPresent"
	RuleTwoYearsRequired          = "twoYearsRequired"
	RuleCoverageAdequate          = "coverageAdequate"
	RuleValueSupportsLoan         = "valueSupportsLoan"
)

// Well-known document type ids referenced by the deep-check registry.
const (
	DocPaystub       = "paystub"
	DocW2            = "w2"
	DocBankStatement = "bank_statement"
)

const (
	DefaultMaxLTV          = 97.0
	ReadinessBonus         = 25
	ExpectedScoringTotal   = 100 - ReadinessBonus
	defaultCompleteness    = 30
	defaultAccuracy        = 25
	defaultCompliance      = 20
	SeverityCriticalString = "critical"
	SeverityWarningString  = "warning"
	SeverityInfoString     = "info"
)

var knownValidators = map[string]bool{
	ValidatorBorrowerName:    true,
	ValidatorBorrowerDOB:     true,
	ValidatorNotExpired:      true,
	ValidatorWithin30Days:    true,
	ValidatorWithin60Days:    true,
	ValidatorSubjectProperty: true,
	ValidatorLoanApplication: true,
}

var knownOperators = map[Operator]bool{
	OpEquals:      true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpIn:          true,
	OpContains:    true,
}
