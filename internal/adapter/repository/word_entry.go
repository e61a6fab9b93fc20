package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/database"
	"github.com/eslsoft/wordindex/internal/infrastructure/database/types"
	"github.com/eslsoft/wordindex/internal/repository"
)

const wordEntryColumns = `id, word, folded, pronunciation, ipa_notation, syllables, meaning, extended_meaning,
	morphology, geo_locations, variants, variant_text, etymology, media_links, definitions, submitted_by,
	state, created_at, updated_at`

const insertWordEntrySQL = `INSERT INTO word_entries (word, folded, pronunciation, ipa_notation, syllables, meaning,
	extended_meaning, morphology, geo_locations, variants, variant_text, etymology, media_links, definitions,
	submitted_by, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type wordEntryRepository struct {
	db      *sql.DB
	dialect dialect
}

// NewWordEntryRepository returns a SQL backed entry store.
func NewWordEntryRepository(db *database.DB) repository.WordEntryRepository {
	return &wordEntryRepository{db: db.DB, dialect: dialectFor(db.Driver)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *wordEntryRepository) Create(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(insertWordEntrySQL), insertArgs(entry)...); err != nil {
		return nil, translateWordEntryError("create word entry", err)
	}
	return r.GetByWord(ctx, entry.Word)
}

func (r *wordEntryRepository) CreateBatch(ctx context.Context, entries []*entity.WordEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind(insertWordEntrySQL))
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err = stmt.ExecContext(ctx, insertArgs(entry)...); err != nil {
			return fmt.Errorf("insert %q: %w", entry.Word, translateWordEntryError("batch insert", err))
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (r *wordEntryRepository) Update(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	const q = `UPDATE word_entries SET folded = ?, pronunciation = ?, ipa_notation = ?, syllables = ?, meaning = ?,
		extended_meaning = ?, morphology = ?, geo_locations = ?, variants = ?, variant_text = ?, etymology = ?,
		media_links = ?, definitions = ?, submitted_by = ?, state = ?, updated_at = ?
		WHERE word = ?`
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(q),
		entry.Folded(),
		entry.Pronunciation,
		entry.IPANotation,
		entry.Syllables,
		entry.Meaning,
		entry.ExtendedMeaning,
		entry.Morphology,
		types.StringList(entry.GeoLocations),
		types.Variants(entry.Variants),
		entry.VariantText(),
		types.Etymology(entry.Etymology),
		types.MediaLinks(entry.MediaLinks),
		types.Definitions(entry.Definitions),
		entry.SubmittedBy,
		string(entry.State),
		entry.UpdatedAt.UTC(),
		entry.Word,
	)
	if err != nil {
		return nil, translateWordEntryError("update word entry", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, entity.ErrWordEntryNotFound
	}
	return r.GetByWord(ctx, entry.Word)
}

func (r *wordEntryRepository) GetByWord(ctx context.Context, word string) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := `SELECT ` + wordEntryColumns + ` FROM word_entries WHERE word = ?`
	entry, err := scanWordEntry(r.db.QueryRowContext(ctx, r.dialect.rebind(q), word))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrWordEntryNotFound
		}
		return nil, fmt.Errorf("get word entry: %w", err)
	}
	return entry, nil
}

func (r *wordEntryRepository) FindByWords(ctx context.Context, words []string) ([]*entity.WordEntry, error) {
	if len(words) == 0 {
		return []*entity.WordEntry{}, nil
	}
	args := make([]any, 0, len(words))
	for _, w := range words {
		args = append(args, w)
	}
	q := `SELECT ` + wordEntryColumns + ` FROM word_entries WHERE word IN (` + placeholders(len(words)) + `) ORDER BY id`
	return r.query(ctx, "find word entries", q, args...)
}

func (r *wordEntryRepository) ExistsAsVariant(ctx context.Context, word string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	const q = `SELECT COUNT(*) FROM word_entries WHERE variant_text LIKE ? ESCAPE '\' AND word <> ?`
	var count int64
	pattern := "%|" + escapeLike(word) + "|%"
	if err := r.db.QueryRowContext(ctx, r.dialect.rebind(q), pattern, word).Scan(&count); err != nil {
		return false, fmt.Errorf("lookup variant: %w", err)
	}
	return count > 0, nil
}

func (r *wordEntryRepository) List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if query == nil {
		query = &repository.ListWordEntryQuery{}
	}
	where, args := stateClause(query.States)

	var total int64
	countQ := `SELECT COUNT(*) FROM word_entries` + where
	if err := r.db.QueryRowContext(ctx, r.dialect.rebind(countQ), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count word entries: %w", err)
	}

	q := `SELECT ` + wordEntryColumns + ` FROM word_entries` + where + ` ORDER BY id`
	if query.PageSize > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, query.PageSize, query.Offset())
	}
	entries, err := r.query(ctx, "list word entries", q, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *wordEntryRepository) Delete(ctx context.Context, word string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM word_entries WHERE word = ?`), word)
	if err != nil {
		return fmt.Errorf("delete word entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entity.ErrWordEntryNotFound
	}
	return nil
}

func (r *wordEntryRepository) UpdateStates(ctx context.Context, words []string, state entity.State, at time.Time) (int64, error) {
	if len(words) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	args := make([]any, 0, len(words)+2)
	args = append(args, string(state), at.UTC())
	for _, w := range words {
		args = append(args, w)
	}
	q := `UPDATE word_entries SET state = ?, updated_at = ? WHERE word IN (` + placeholders(len(words)) + `)`
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("update states: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update states: %w", err)
	}
	return affected, nil
}

func (r *wordEntryRepository) WalkWords(ctx context.Context, fn func(word string) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT word FROM word_entries ORDER BY id`)
	if err != nil {
		return fmt.Errorf("walk words: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return fmt.Errorf("walk words: %w", err)
		}
		if err := fn(word); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *wordEntryRepository) FindExact(ctx context.Context, word string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	return r.match(ctx, "exact match", `word = ?`, []any{word}, filter)
}

func (r *wordEntryRepository) FindFolded(ctx context.Context, folded string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	return r.match(ctx, "folded match", `folded = ?`, []any{folded}, filter)
}

func (r *wordEntryRepository) FindByPrefix(ctx context.Context, prefix string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	return r.match(ctx, "prefix match", `word LIKE ? ESCAPE '\'`, []any{escapeLike(prefix) + "%"}, filter)
}

func (r *wordEntryRepository) FindContaining(ctx context.Context, term string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	folded := "%" + escapeLike(entity.FoldAccents(term)) + "%"
	cond := `(word LIKE ? ESCAPE '\' OR folded LIKE ? ESCAPE '\' OR LOWER(meaning) LIKE ? ESCAPE '\'
		OR LOWER(extended_meaning) LIKE ? ESCAPE '\' OR variant_text LIKE ? ESCAPE '\')`
	return r.match(ctx, "containment match", cond, []any{pattern, folded, pattern, pattern, pattern}, filter)
}

func (r *wordEntryRepository) CountByState(ctx context.Context, state entity.State) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	q := r.dialect.rebind(`SELECT COUNT(*) FROM word_entries WHERE state = ?`)
	if err := r.db.QueryRowContext(ctx, q, string(state)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by state: %w", err)
	}
	return count, nil
}

func (r *wordEntryRepository) match(ctx context.Context, op, cond string, args []any, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := `SELECT ` + wordEntryColumns + ` FROM word_entries WHERE ` + cond
	if len(filter.States) > 0 {
		q += ` AND state IN (` + placeholders(len(filter.States)) + `)`
		for _, s := range filter.States {
			args = append(args, string(s))
		}
	}
	q += ` ORDER BY id`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return r.query(ctx, op, q, args...)
}

func (r *wordEntryRepository) query(ctx context.Context, op, q string, args ...any) ([]*entity.WordEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries := make([]*entity.WordEntry, 0)
	for rows.Next() {
		entry, err := scanWordEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func scanWordEntry(row rowScanner) (*entity.WordEntry, error) {
	var (
		e           entity.WordEntry
		folded      string
		variantText string
		state       string
		geo         types.StringList
		variants    types.Variants
		etymology   types.Etymology
		media       types.MediaLinks
		definitions types.Definitions
	)
	if err := row.Scan(
		&e.ID, &e.Word, &folded, &e.Pronunciation, &e.IPANotation, &e.Syllables, &e.Meaning,
		&e.ExtendedMeaning, &e.Morphology, &geo, &variants, &variantText, &etymology, &media,
		&definitions, &e.SubmittedBy, &state, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.State = entity.State(state)
	e.GeoLocations = []string(geo)
	e.Variants = []entity.Variant(variants)
	e.Etymology = []entity.EtymologySegment(etymology)
	e.MediaLinks = []entity.MediaLink(media)
	e.Definitions = []entity.Definition(definitions)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func insertArgs(entry *entity.WordEntry) []any {
	return []any{
		entry.Word,
		entry.Folded(),
		entry.Pronunciation,
		entry.IPANotation,
		entry.Syllables,
		entry.Meaning,
		entry.ExtendedMeaning,
		entry.Morphology,
		types.StringList(entry.GeoLocations),
		types.Variants(entry.Variants),
		entry.VariantText(),
		types.Etymology(entry.Etymology),
		types.MediaLinks(entry.MediaLinks),
		types.Definitions(entry.Definitions),
		entry.SubmittedBy,
		string(entry.State),
		entry.CreatedAt.UTC(),
		entry.UpdatedAt.UTC(),
	}
}

func stateClause(states []entity.State) (string, []any) {
	if len(states) == 0 {
		return "", nil
	}
	args := make([]any, 0, len(states))
	for _, s := range states {
		args = append(args, string(s))
	}
	return ` WHERE state IN (` + placeholders(len(states)) + `)`, args
}
