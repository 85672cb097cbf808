// cmd/tools/catalog-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/pkg/catalog"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	requiredCmd := flag.NewFlagSet("required", flag.ExitOnError)
	documentCmd := flag.NewFlagSet("document", flag.ExitOnError)

	validatePath := validateCmd.String("path", "", "Path to catalog file (default: embedded catalog)")
	listPath := listCmd.String("path", "", "Path to catalog file (default: embedded catalog)")

	requiredPath := requiredCmd.String("path", "", "Path to catalog file (default: embedded catalog)")
	requiredLoan := requiredCmd.String("loan", "", "Path to loan context JSON")

	documentPath := documentCmd.String("path", "", "Path to catalog file (default: embedded catalog)")
	documentLoan := documentCmd.String("loan", "", "Path to loan context JSON")
	documentFile := documentCmd.String("document", "", "Path to extracted document JSON")
	documentType := documentCmd.String("type", "", "Document type (default: the document's documentType)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = runValidate(os.Stdout, *validatePath)

	case "list":
		listCmd.Parse(os.Args[2:])
		err = runList(os.Stdout, *listPath)

	case "required":
		requiredCmd.Parse(os.Args[2:])
		if *requiredLoan == "" {
			fmt.Println("Error: -loan is required.")
			requiredCmd.Usage()
			os.Exit(1)
		}
		err = runRequired(os.Stdout, *requiredPath, *requiredLoan)

	case "document":
		documentCmd.Parse(os.Args[2:])
		if *documentLoan == "" || *documentFile == "" {
			fmt.Println("Error: -loan and -document are required.")
			documentCmd.Usage()
			os.Exit(1)
		}
		err = runDocument(os.Stdout, *documentPath, *documentLoan, *documentFile, *documentType)

	case "help":
		fallthrough
	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadCatalog(path)
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func runValidate(w io.Writer, path string) error {
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}

	ruleCount := 0
	for _, dt := range c.DocumentTypes {
		ruleCount += len(dt.Rules)
	}
	fmt.Fprintf(w, "Catalog %s is valid: %d document types, %d rules, scoring weights %d/%d/%d.\n",
		c.Version, len(c.DocumentTypes), ruleCount,
		c.Scoring.Completeness, c.Scoring.Accuracy, c.Scoring.Compliance)
	return nil
}

func runList(w io.Writer, path string) error {
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}

	for _, dt := range c.DocumentTypes {
		required := "optional"
		switch {
		case len(dt.Conditions) > 0:
			required = "conditional"
		case dt.Required:
			required = "required"
		}
		fmt.Fprintf(w, "%-24s %-12s %-12s %d fields, %d rules\n", dt.ID, dt.Category, required, len(dt.Fields), len(dt.Rules))
	}
	if len(c.MaxLTV) > 0 {
		products := make([]string, 0, len(c.MaxLTV))
		for p := range c.MaxLTV {
			products = append(products, p)
		}
		sort.Strings(products)
		for _, p := range products {
			fmt.Fprintf(w, "max LTV %-15s %.2f\n", p, c.MaxLTV[p])
		}
	}
	return nil
}

func runRequired(w io.Writer, path, loanPath string) error {
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}
	var loan models.LoanContext
	if err := readJSON(loanPath, &loan); err != nil {
		return err
	}

	required, err := rules.RequiredDocuments(&loan, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Loan %s requires %d documents:\n", loan.LoanID, len(required))
	for _, dt := range required {
		fmt.Fprintf(w, "  %-24s %s\n", dt.ID, dt.Name)
	}
	return nil
}

func runDocument(w io.Writer, path, loanPath, docPath, docType string) error {
	c, err := loadCatalog(path)
	if err != nil {
		return err
	}
	var loan models.LoanContext
	if err := readJSON(loanPath, &loan); err != nil {
		return err
	}
	var doc models.ExtractedDocument
	if err := readJSON(docPath, &doc); err != nil {
		return err
	}
	if docType == "" {
		docType = doc.DocumentType
	}

	v := rules.NewValidator(c, nil, logger.NewNoOpLogger()).WithClock(func() time.Time { return time.Now().UTC() })
	result, err := v.ValidateDocument(&doc, docType, &loan)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func help() {
	fmt.Print(`
Usage: catalog-check <command> [flags]

Commands:
  validate  Load and validate a rule catalog
  list      List the catalog's document types
  required  Show the documents a loan must supply
  document  Validate an extracted document against a loan
  help      Show this help message

Examples:
  catalog-check validate -path configs/rule-catalog.json
  catalog-check required -loan testdata/loan.json
  catalog-check document -loan testdata/loan.json -document testdata/w2.json -type w2

Use 'catalog-check <command> -h' for more information about a command.
`, "\n")
}
