// Package sqlite implements an address space that is persisted in a SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/retroenv/retrosvd/internal/target"
	"github.com/rs/xid"
)

var (
	// ErrInvalidRegion is returned for empty regions and sections.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrUnknownFunction is returned when removing a function that does not exist.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrTransaction is returned for unbalanced transaction calls.
	ErrTransaction = errors.New("transaction error")
)

var (
	_ target.AddressSpace = &Database{}
	_ target.Reader       = &Database{}
	_ target.Seeder       = &Database{}
)

const loadAddressKey = "load_address"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS regions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start INTEGER NOT NULL,
		length INTEGER NOT NULL,
		flags INTEGER NOT NULL,
		UNIQUE (start, length)
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		start INTEGER NOT NULL,
		length INTEGER NOT NULL,
		semantics INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		address INTEGER PRIMARY KEY,
		kind INTEGER NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS data_variables (
		address INTEGER PRIMARY KEY,
		type_name TEXT NOT NULL,
		width INTEGER NOT NULL,
		pointer INTEGER NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		address INTEGER PRIMARY KEY,
		text TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS functions (
		start INTEGER PRIMARY KEY,
		length INTEGER NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		started TEXT NOT NULL,
		committed TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		created TEXT NOT NULL,
		symbols INTEGER NOT NULL,
		data_variables INTEGER NOT NULL
	)`,
}

// executor is implemented by both the database and an open transaction.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Database is an address space stored in a SQLite file. All mutations
// between BeginTransaction and CommitTransaction are written in a single
// database transaction.
// The read accessors of the target.Reader interface can not return errors,
// the first read error is kept and returned by Err.
type Database struct {
	db *sql.DB
	tx *sql.Tx

	transactionID      string
	transactionStarted time.Time

	readErr error
}

// Open opens or creates the database at the given path.
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database '%s': %w", path, err)
	}
	// an in-memory database only exists for a single connection
	db.SetMaxOpenConns(1)

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Database{db: db}, nil
}

// Close rolls back an open transaction and closes the database.
func (d *Database) Close() error {
	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Err returns the first error that occurred in a read accessor.
func (d *Database) Err() error {
	return d.readErr
}

func (d *Database) executor() executor {
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

func (d *Database) setReadErr(err error) {
	if d.readErr == nil {
		d.readErr = err
	}
}

// SetLoadAddress stores the address that the base region has to contain.
func (d *Database) SetLoadAddress(address uint64) error {
	_, err := d.executor().Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		loadAddressKey, strconv.FormatUint(address, 10))
	if err != nil {
		return fmt.Errorf("storing load address: %w", err)
	}
	return nil
}

func (d *Database) loadAddress() (uint64, bool, error) {
	var value string
	err := d.executor().QueryRow(`SELECT value FROM meta WHERE key = ?`, loadAddressKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading load address: %w", err)
	}

	address, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing load address '%s': %w", value, err)
	}
	return address, true, nil
}

// BaseRegion returns the read-only region that contains the load address.
// Without a load address the lowest mapped address is used.
func (d *Database) BaseRegion() (target.Region, bool) {
	address, ok, err := d.loadAddress()
	if err != nil {
		d.setReadErr(err)
		return target.Region{}, false
	}
	return target.FindBaseRegion(d.Regions(), address, ok)
}

// AddRegion adds a region. A region with the same start and length replaces the existing one.
func (d *Database) AddRegion(name string, start, length uint64, flags target.SegmentFlag) error {
	if length == 0 {
		return fmt.Errorf("adding region '%s': %w: empty range at 0x%x", name, ErrInvalidRegion, start)
	}

	_, err := d.executor().Exec(
		`INSERT INTO regions (name, start, length, flags) VALUES (?, ?, ?, ?)
		ON CONFLICT (start, length) DO UPDATE SET name = excluded.name, flags = excluded.flags`,
		name, toDB(start), toDB(length), int64(flags))
	if err != nil {
		return fmt.Errorf("adding region '%s': %w", name, err)
	}
	return nil
}

// AddSection adds a section. A section with the same name replaces the existing one.
func (d *Database) AddSection(name string, start, length uint64, semantics target.Semantics) error {
	if length == 0 {
		return fmt.Errorf("adding section '%s': %w: empty range at 0x%x", name, ErrInvalidRegion, start)
	}

	_, err := d.executor().Exec(
		`INSERT INTO sections (name, start, length, semantics) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET start = excluded.start, length = excluded.length,
		semantics = excluded.semantics`,
		name, toDB(start), toDB(length), int64(semantics))
	if err != nil {
		return fmt.Errorf("adding section '%s': %w", name, err)
	}
	return nil
}

// DefineSymbol binds the name to the address.
func (d *Database) DefineSymbol(kind target.SymbolKind, address uint64, name string) error {
	_, err := d.executor().Exec(
		`INSERT INTO symbols (address, kind, name) VALUES (?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET kind = excluded.kind, name = excluded.name`,
		toDB(address), int64(kind), name)
	if err != nil {
		return fmt.Errorf("defining symbol '%s': %w", name, err)
	}
	return nil
}

// DefineDataVariable defines a typed variable at the address.
func (d *Database) DefineDataVariable(address uint64, typ target.Type, name string) error {
	_, err := d.executor().Exec(
		`INSERT INTO data_variables (address, type_name, width, pointer, name) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET type_name = excluded.type_name, width = excluded.width,
		pointer = excluded.pointer, name = excluded.name`,
		toDB(address), typ.Name, int64(typ.Width), typ.Pointer, name)
	if err != nil {
		return fmt.Errorf("defining data variable '%s': %w", name, err)
	}
	return nil
}

// SetComment sets the comment at the address, an empty text removes it.
func (d *Database) SetComment(address uint64, text string) error {
	var err error
	if text == "" {
		_, err = d.executor().Exec(`DELETE FROM comments WHERE address = ?`, toDB(address))
	} else {
		_, err = d.executor().Exec(
			`INSERT INTO comments (address, text) VALUES (?, ?)
			ON CONFLICT (address) DO UPDATE SET text = excluded.text`,
			toDB(address), text)
	}
	if err != nil {
		return fmt.Errorf("setting comment at 0x%x: %w", address, err)
	}
	return nil
}

// AddFunction adds a function as if the analysis had found it.
func (d *Database) AddFunction(fn target.Function) error {
	_, err := d.executor().Exec(
		`INSERT INTO functions (start, length, name) VALUES (?, ?, ?)
		ON CONFLICT (start) DO UPDATE SET length = excluded.length, name = excluded.name`,
		toDB(fn.Start), toDB(fn.Length), fn.Name)
	if err != nil {
		return fmt.Errorf("adding function '%s': %w", fn.Name, err)
	}
	return nil
}

// FunctionsContaining returns all functions whose body contains the address.
func (d *Database) FunctionsContaining(address uint64) ([]target.Function, error) {
	functions, err := d.functions()
	if err != nil {
		return nil, err
	}

	var result []target.Function
	for _, fn := range functions {
		if fn.Contains(address) {
			result = append(result, fn)
		}
	}
	return result, nil
}

// RemoveFunction removes the function with the same start address.
func (d *Database) RemoveFunction(fn target.Function) error {
	result, err := d.executor().Exec(`DELETE FROM functions WHERE start = ?`, toDB(fn.Start))
	if err != nil {
		return fmt.Errorf("removing function at 0x%x: %w", fn.Start, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing function at 0x%x: %w", fn.Start, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w at 0x%x", ErrUnknownFunction, fn.Start)
	}
	return nil
}

// Functions returns all functions ordered by start address.
func (d *Database) Functions() ([]target.Function, error) {
	return d.functions()
}

func (d *Database) functions() ([]target.Function, error) {
	rows, err := d.executor().Query(`SELECT start, length, name FROM functions`)
	if err != nil {
		return nil, fmt.Errorf("querying functions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []target.Function
	for rows.Next() {
		var start, length int64
		var fn target.Function
		if err := rows.Scan(&start, &length, &fn.Name); err != nil {
			return nil, fmt.Errorf("scanning function: %w", err)
		}
		fn.Start = fromDB(start)
		fn.Length = fromDB(length)
		result = append(result, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying functions: %w", err)
	}

	sortFunctions(result)
	return result, nil
}

// BeginTransaction starts a database transaction, transactions can not be nested.
func (d *Database) BeginTransaction() error {
	if d.tx != nil {
		return fmt.Errorf("%w: transaction %s already started", ErrTransaction, d.transactionID)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	d.tx = tx
	d.transactionID = xid.New().String()
	d.transactionStarted = time.Now().UTC()
	return nil
}

// CommitTransaction records the transaction and commits it.
func (d *Database) CommitTransaction() error {
	if d.tx == nil {
		return fmt.Errorf("%w: no transaction started", ErrTransaction)
	}

	tx := d.tx
	d.tx = nil

	_, err := tx.Exec(`INSERT INTO transactions (id, started, committed) VALUES (?, ?, ?)`,
		d.transactionID,
		d.transactionStarted.Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording transaction %s: %w", d.transactionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction %s: %w", d.transactionID, err)
	}
	return nil
}

// Rollback discards all changes of the open transaction.
func (d *Database) Rollback() error {
	if d.tx == nil {
		return fmt.Errorf("%w: no transaction started", ErrTransaction)
	}

	tx := d.tx
	d.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction %s: %w", d.transactionID, err)
	}
	return nil
}

// RefreshAnalysis records an analysis run with the current symbol counts.
func (d *Database) RefreshAnalysis() error {
	var symbolCount, variableCount int64
	err := d.executor().QueryRow(
		`SELECT (SELECT COUNT(*) FROM symbols), (SELECT COUNT(*) FROM data_variables)`,
	).Scan(&symbolCount, &variableCount)
	if err != nil {
		return fmt.Errorf("counting symbols: %w", err)
	}

	_, err = d.executor().Exec(
		`INSERT INTO analysis_runs (id, created, symbols, data_variables) VALUES (?, ?, ?, ?)`,
		xid.New().String(), time.Now().UTC().Format(time.RFC3339Nano), symbolCount, variableCount)
	if err != nil {
		return fmt.Errorf("recording analysis run: %w", err)
	}
	return nil
}

// AnalysisRuns returns the number of recorded analysis runs.
func (d *Database) AnalysisRuns() (int, error) {
	var count int
	if err := d.executor().QueryRow(`SELECT COUNT(*) FROM analysis_runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting analysis runs: %w", err)
	}
	return count, nil
}

// Transactions returns the number of committed transactions.
func (d *Database) Transactions() (int, error) {
	var count int
	if err := d.executor().QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return count, nil
}

// SymbolAt returns the symbol at the address.
func (d *Database) SymbolAt(address uint64) (target.Symbol, bool) {
	var kind int64
	symbol := target.Symbol{Address: address}
	err := d.executor().QueryRow(`SELECT kind, name FROM symbols WHERE address = ?`, toDB(address)).
		Scan(&kind, &symbol.Name)
	if !d.found(err, "symbol", address) {
		return target.Symbol{}, false
	}
	symbol.Kind = target.SymbolKind(kind)
	return symbol, true
}

// DataVariableAt returns the data variable at the address.
func (d *Database) DataVariableAt(address uint64) (target.DataVariable, bool) {
	var width int64
	variable := target.DataVariable{Address: address}
	err := d.executor().QueryRow(
		`SELECT type_name, width, pointer, name FROM data_variables WHERE address = ?`, toDB(address)).
		Scan(&variable.Type.Name, &width, &variable.Type.Pointer, &variable.Name)
	if !d.found(err, "data variable", address) {
		return target.DataVariable{}, false
	}
	variable.Type.Width = uint32(width)
	return variable, true
}

// CommentAt returns the comment at the address.
func (d *Database) CommentAt(address uint64) (string, bool) {
	var text string
	err := d.executor().QueryRow(`SELECT text FROM comments WHERE address = ?`, toDB(address)).Scan(&text)
	if !d.found(err, "comment", address) {
		return "", false
	}
	return text, true
}

func (d *Database) found(err error, what string, address uint64) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, sql.ErrNoRows) {
		d.setReadErr(fmt.Errorf("reading %s at 0x%x: %w", what, address, err))
	}
	return false
}

// Regions returns all regions in the order they were added.
func (d *Database) Regions() []target.Region {
	rows, err := d.executor().Query(`SELECT name, start, length, flags FROM regions ORDER BY seq`)
	if err != nil {
		d.setReadErr(fmt.Errorf("querying regions: %w", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	var result []target.Region
	for rows.Next() {
		var start, length, flags int64
		var region target.Region
		if err := rows.Scan(&region.Name, &start, &length, &flags); err != nil {
			d.setReadErr(fmt.Errorf("scanning region: %w", err))
			return nil
		}
		region.Start = fromDB(start)
		region.Length = fromDB(length)
		region.Flags = target.SegmentFlag(flags)
		result = append(result, region)
	}
	if err := rows.Err(); err != nil {
		d.setReadErr(fmt.Errorf("querying regions: %w", err))
		return nil
	}
	return result
}

// Sections returns all sections in the order they were added.
func (d *Database) Sections() []target.Section {
	rows, err := d.executor().Query(`SELECT name, start, length, semantics FROM sections ORDER BY seq`)
	if err != nil {
		d.setReadErr(fmt.Errorf("querying sections: %w", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	var result []target.Section
	for rows.Next() {
		var start, length, semantics int64
		var section target.Section
		if err := rows.Scan(&section.Name, &start, &length, &semantics); err != nil {
			d.setReadErr(fmt.Errorf("scanning section: %w", err))
			return nil
		}
		section.Start = fromDB(start)
		section.Length = fromDB(length)
		section.Semantics = target.Semantics(semantics)
		result = append(result, section)
	}
	if err := rows.Err(); err != nil {
		d.setReadErr(fmt.Errorf("querying sections: %w", err))
		return nil
	}
	return result
}
