package newsletter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/scene-ouverte/newsletter-core/internal/models"
	"github.com/xuri/excelize/v2"
)

// Column aliases seen across the spreadsheets operators actually upload.
// Matching is case-insensitive; the first non-empty value across a field's
// alias list wins.
var fieldAliases = map[string][]string{
	"email":     {"email", "e-mail", "mail", "courriel", "adresse email", "adresse e-mail"},
	"firstName": {"firstname", "first_name", "first name", "prenom", "prénom"},
	"lastName":  {"lastname", "last_name", "last name", "nom", "nom de famille"},
}

// Importer turns heterogeneous tabular uploads into subscriber records,
// deduplicating against the store. Import is best-effort and row-independent:
// a failing row never aborts the rest, and nothing is rolled back.
type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// ImportFile parses an uploaded .csv/.xlsx/.xls file and imports its rows.
// Unsupported extensions and unparseable files are hard errors raised before
// any row is processed.
func (im *Importer) ImportFile(filename string, r io.Reader) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xls":
		rows, err = readSpreadsheet(r)
	default:
		return nil, validationErrorf("unsupported file format %q, expected .csv, .xlsx or .xls", ext)
	}
	if err != nil {
		return nil, validationErrorf("unreadable file %q: %v", filename, err)
	}
	return im.ImportRows(rows), nil
}

// ImportRows imports pre-parsed tabular data. The first row is the header;
// an empty table is a zero result, not an error.
func (im *Importer) ImportRows(rows [][]string) *ImportResult {
	result := &ImportResult{Errors: []ImportError{}}
	if len(rows) < 2 {
		return result
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(stripBOM(h)))
	}

	for _, row := range rows[1:] {
		result.Total++

		email := normalizeEmail(pickField(header, row, fieldAliases["email"]))
		if !strings.Contains(email, "@") {
			result.Invalid++
			continue
		}

		existing, err := im.store.FindByEmail(email)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Email: email, Error: err.Error()})
			continue
		}
		if existing != nil {
			result.Duplicates++
			continue
		}

		if err := im.insertOne(email, header, row); err != nil {
			// The unique index closes the race between the pre-check above
			// and a concurrent import of the same address.
			if errors.Is(err, ErrDuplicate) {
				result.Duplicates++
				continue
			}
			result.Errors = append(result.Errors, ImportError{Email: email, Error: err.Error()})
			continue
		}
		result.Imported++
	}
	return result
}

func (im *Importer) insertOne(email string, header, row []string) error {
	token, err := IssueToken()
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	sub := &models.SubscriberModel{
		Email:            email,
		FirstName:        strings.TrimSpace(pickField(header, row, fieldAliases["firstName"])),
		LastName:         strings.TrimSpace(pickField(header, row, fieldAliases["lastName"])),
		Status:           models.SubscriberActive,
		UnsubscribeToken: token,
		Source:           "import",
		Tags:             models.StringArray{"import"},
	}
	return im.store.Insert(sub)
}

// pickField returns the first non-empty cell whose header matches one of the
// aliases, in alias-priority order.
func pickField(header, row []string, aliases []string) string {
	for _, alias := range aliases {
		for i, h := range header {
			if h != alias || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// readCSV reads all records, sniffing the delimiter: exported French
// spreadsheets routinely use semicolons.
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rows, nil
}

func sniffDelimiter(data string) rune {
	firstLine := data
	if idx := strings.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// readSpreadsheet decodes the first sheet of an Excel workbook.
func readSpreadsheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
