package meddata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS medications (
    id                    TEXT PRIMARY KEY,
    dosage                TEXT NOT NULL,
    prescription_required BOOLEAN NOT NULL,
    price_usd             REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS medication_i18n (
    medication_id     TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
    language          TEXT NOT NULL,
    name              TEXT NOT NULL,
    active_ingredient TEXT NOT NULL,
    usage_instructions TEXT NOT NULL,
    warnings          TEXT NOT NULL,
    category          TEXT NOT NULL,
    PRIMARY KEY (medication_id, language)
);

CREATE INDEX IF NOT EXISTS idx_medication_i18n_lang ON medication_i18n(language);
`

var catalogLanguages = []string{"en", "he", "ru", "ar"}

// SQLiteSource serves the catalog from a sqlite database, seeding it from
// the medications JSON file when the stored set of ids drifts from the file.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLiteSource opens (creating if needed) the catalog database at dbPath
// and synchronizes it with the JSON file at seedPath.
func OpenSQLiteSource(dbPath, seedPath string) (*SQLiteSource, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create catalog data directory: %w", err)
		}
	}

	dsn := dbPath
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}

	src := &SQLiteSource{db: db}
	if err := src.seed(seedPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// seed reloads the catalog from the JSON file unless the stored ids already
// match it exactly.
func (s *SQLiteSource) seed(seedPath string) error {
	meds, err := LoadMedications(seedPath)
	if err != nil {
		return err
	}

	expected := make(map[string]bool, len(meds))
	for _, med := range meds {
		if med.ID != "" {
			expected[med.ID] = true
		}
	}

	existing := make(map[string]bool)
	rows, err := s.db.Query(`SELECT id FROM medications`)
	if err != nil {
		return fmt.Errorf("list catalog ids: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	if len(existing) > 0 && sameIDSet(existing, expected) {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM medication_i18n`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM medications`); err != nil {
		return err
	}

	for _, med := range meds {
		if _, err := tx.Exec(
			`INSERT INTO medications (id, dosage, prescription_required, price_usd) VALUES (?, ?, ?, ?)`,
			med.ID, med.Dosage, med.PrescriptionRequired, med.PriceUSD,
		); err != nil {
			return fmt.Errorf("seed medication %s: %w", med.ID, err)
		}
		for _, lang := range catalogLanguages {
			if _, err := tx.Exec(
				`INSERT INTO medication_i18n (medication_id, language, name, active_ingredient, usage_instructions, warnings, category)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				med.ID, lang,
				med.Names[lang], med.ActiveIngredient[lang],
				med.UsageInstructions[lang], med.Warnings[lang], med.Category[lang],
			); err != nil {
				return fmt.Errorf("seed medication %s translations: %w", med.ID, err)
			}
		}
	}

	return tx.Commit()
}

func sameIDSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func (s *SQLiteSource) MedicationByID(ctx context.Context, id string) (*Medication, error) {
	if id == "" {
		return nil, nil
	}
	return s.load(ctx, id)
}

func (s *SQLiteSource) MedicationByName(ctx context.Context, name, lang string) (*NameMatch, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT medication_id FROM medication_i18n WHERE language = ? AND lower(trim(name)) = ?`,
		lang, foldCase(name),
	).Scan(&id)
	switch {
	case err == nil:
		med, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return &NameMatch{Medication: med}, nil
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("lookup medication by name: %w", err)
	}

	normalized := Normalize(name)
	if normalized == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT medication_id, name FROM medication_i18n WHERE language = ?`, lang)
	if err != nil {
		return nil, fmt.Errorf("list medication names: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var medID, medName string
		if err := rows.Scan(&medID, &medName); err != nil {
			return nil, err
		}
		if medName == "" {
			continue
		}
		d := Levenshtein(normalized, Normalize(medName), maxNameDistance)
		if d <= maxNameDistance {
			candidates = append(candidates, Candidate{ID: medID, Name: medName, Distance: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		med, err := s.load(ctx, candidates[0].ID)
		if err != nil {
			return nil, err
		}
		return &NameMatch{Medication: med}, nil
	default:
		return &NameMatch{Candidates: candidates}, nil
	}
}

func (s *SQLiteSource) SearchByIngredient(ctx context.Context, ingredient, lang string) ([]*Medication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT medication_id FROM medication_i18n WHERE language = ? AND lower(trim(active_ingredient)) = ?`,
		lang, foldCase(ingredient))
	if err != nil {
		return nil, fmt.Errorf("search by ingredient: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []*Medication
	for _, id := range ids {
		med, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if med != nil {
			results = append(results, med)
		}
	}
	return results, nil
}

// load assembles one medication with all its translations.
func (s *SQLiteSource) load(ctx context.Context, id string) (*Medication, error) {
	med := &Medication{
		Names:             map[string]string{},
		ActiveIngredient:  map[string]string{},
		UsageInstructions: map[string]string{},
		Warnings:          map[string]string{},
		Category:          map[string]string{},
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dosage, prescription_required, price_usd FROM medications WHERE id = ?`, id,
	).Scan(&med.ID, &med.Dosage, &med.PrescriptionRequired, &med.PriceUSD)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load medication %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT language, name, active_ingredient, usage_instructions, warnings, category
		 FROM medication_i18n WHERE medication_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load medication %s translations: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var lang, name, ingredient, instructions, warnings, category string
		if err := rows.Scan(&lang, &name, &ingredient, &instructions, &warnings, &category); err != nil {
			return nil, err
		}
		med.Names[lang] = name
		med.ActiveIngredient[lang] = ingredient
		med.UsageInstructions[lang] = instructions
		med.Warnings[lang] = warnings
		med.Category[lang] = category
	}
	return med, rows.Err()
}
