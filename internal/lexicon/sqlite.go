package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS senses (
		id TEXT PRIMARY KEY,
		lemma TEXT NOT NULL,
		pos TEXT NOT NULL,
		sense_num INTEGER NOT NULL,
		gloss TEXT
	);

	-- Direct hyponym edges; closures are computed in memory.
	CREATE TABLE IF NOT EXISTS hyponyms (
		parent TEXT NOT NULL,
		child TEXT NOT NULL,
		PRIMARY KEY (parent, child)
	);

	-- Word index: rank orders a lemma's senses, most frequent first.
	CREATE TABLE IF NOT EXISTS lemmas (
		lemma TEXT NOT NULL,
		pos TEXT NOT NULL,
		rank INTEGER NOT NULL,
		sense_id TEXT NOT NULL,
		PRIMARY KEY (lemma, pos, rank)
	);

	CREATE TABLE IF NOT EXISTS exceptions (
		pos TEXT NOT NULL,
		form TEXT NOT NULL,
		base TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hyponyms_parent ON hyponyms(parent);
`

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	return db, nil
}

// WriteSQLite replaces the contents of the lexicon database at path with data.
func WriteSQLite(ctx context.Context, path string, data Data) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating lexicon schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lexicon write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"senses", "hyponyms", "lemmas", "exceptions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	if err := insertAll(ctx, tx, `INSERT INTO senses (id, lemma, pos, sense_num, gloss) VALUES (?, ?, ?, ?, ?)`,
		len(data.Senses), func(i int) []any {
			s := data.Senses[i]
			return []any{string(s.ID), s.Lemma, s.POS.String(), s.Number, s.Gloss}
		}); err != nil {
		return fmt.Errorf("inserting senses: %w", err)
	}

	if err := insertAll(ctx, tx, `INSERT OR IGNORE INTO hyponyms (parent, child) VALUES (?, ?)`,
		len(data.Hyponyms), func(i int) []any {
			e := data.Hyponyms[i]
			return []any{string(e.Parent), string(e.Child)}
		}); err != nil {
		return fmt.Errorf("inserting hyponyms: %w", err)
	}

	var lemmaRows [][]any
	for _, l := range data.Lemmas {
		for rank, id := range l.Senses {
			lemmaRows = append(lemmaRows, []any{l.Lemma, l.POS.String(), rank, string(id)})
		}
	}
	if err := insertAll(ctx, tx, `INSERT INTO lemmas (lemma, pos, rank, sense_id) VALUES (?, ?, ?, ?)`,
		len(lemmaRows), func(i int) []any { return lemmaRows[i] }); err != nil {
		return fmt.Errorf("inserting lemmas: %w", err)
	}

	var excRows [][]any
	for _, x := range data.Exceptions {
		for _, base := range x.Bases {
			excRows = append(excRows, []any{x.POS.String(), x.Form, base})
		}
	}
	if err := insertAll(ctx, tx, `INSERT INTO exceptions (pos, form, base) VALUES (?, ?, ?)`,
		len(excRows), func(i int) []any { return excRows[i] }); err != nil {
		return fmt.Errorf("inserting exceptions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lexicon write: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// OpenSQLite loads the lexicon database at path into memory.
func OpenSQLite(ctx context.Context, path string) (*Ontology, error) {
	// sql.Open would silently create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("lexicon database: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	data, err := readData(ctx, db)
	if err != nil {
		return nil, err
	}
	return New(data)
}

func readData(ctx context.Context, db *sql.DB) (Data, error) {
	var data Data

	rows, err := db.QueryContext(ctx, `SELECT id, lemma, pos, sense_num, COALESCE(gloss, '') FROM senses ORDER BY id`)
	if err != nil {
		return Data{}, fmt.Errorf("querying senses: %w", err)
	}
	for rows.Next() {
		var s Sense
		var id, pos string
		if err := rows.Scan(&id, &s.Lemma, &pos, &s.Number, &s.Gloss); err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("scanning sense: %w", err)
		}
		if s.POS, err = ParsePOS(pos); err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("sense %s: %w", id, err)
		}
		s.ID = SenseID(id)
		data.Senses = append(data.Senses, s)
	}
	if err := closeRows(rows); err != nil {
		return Data{}, fmt.Errorf("reading senses: %w", err)
	}

	rows, err = db.QueryContext(ctx, `SELECT parent, child FROM hyponyms ORDER BY parent, child`)
	if err != nil {
		return Data{}, fmt.Errorf("querying hyponyms: %w", err)
	}
	for rows.Next() {
		var parent, child string
		if err := rows.Scan(&parent, &child); err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("scanning hyponym: %w", err)
		}
		data.Hyponyms = append(data.Hyponyms, Edge{Parent: SenseID(parent), Child: SenseID(child)})
	}
	if err := closeRows(rows); err != nil {
		return Data{}, fmt.Errorf("reading hyponyms: %w", err)
	}

	rows, err = db.QueryContext(ctx, `SELECT lemma, pos, sense_id FROM lemmas ORDER BY lemma, pos, rank`)
	if err != nil {
		return Data{}, fmt.Errorf("querying lemmas: %w", err)
	}
	for rows.Next() {
		var lemma, pos, id string
		if err := rows.Scan(&lemma, &pos, &id); err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("scanning lemma: %w", err)
		}
		p, err := ParsePOS(pos)
		if err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("lemma %s: %w", lemma, err)
		}
		n := len(data.Lemmas)
		if n > 0 && data.Lemmas[n-1].Lemma == lemma && data.Lemmas[n-1].POS == p {
			data.Lemmas[n-1].Senses = append(data.Lemmas[n-1].Senses, SenseID(id))
			continue
		}
		data.Lemmas = append(data.Lemmas, LemmaEntry{Lemma: lemma, POS: p, Senses: []SenseID{SenseID(id)}})
	}
	if err := closeRows(rows); err != nil {
		return Data{}, fmt.Errorf("reading lemmas: %w", err)
	}

	rows, err = db.QueryContext(ctx, `SELECT pos, form, base FROM exceptions ORDER BY rowid`)
	if err != nil {
		return Data{}, fmt.Errorf("querying exceptions: %w", err)
	}
	for rows.Next() {
		var pos, form, base string
		if err := rows.Scan(&pos, &form, &base); err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("scanning exception: %w", err)
		}
		p, err := ParsePOS(pos)
		if err != nil {
			rows.Close()
			return Data{}, fmt.Errorf("exception %s: %w", form, err)
		}
		n := len(data.Exceptions)
		if n > 0 && data.Exceptions[n-1].Form == form && data.Exceptions[n-1].POS == p {
			data.Exceptions[n-1].Bases = append(data.Exceptions[n-1].Bases, base)
			continue
		}
		data.Exceptions = append(data.Exceptions, Exception{POS: p, Form: form, Bases: []string{base}})
	}
	if err := closeRows(rows); err != nil {
		return Data{}, fmt.Errorf("reading exceptions: %w", err)
	}

	return data, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
