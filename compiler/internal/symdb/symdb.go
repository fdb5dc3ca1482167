// Package symdb exports the symbols and object layout of a compilation to a SQLite database. Several builds
// may share one database file, each keyed by its build id.
package symdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/codegen"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS types (
		build_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sig TEXT NOT NULL,
		type_id INTEGER NOT NULL,
		is_interface INTEGER NOT NULL,
		super TEXT,
		object_size INTEGER NOT NULL,
		PRIMARY KEY (build_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS fields (
		build_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		field_type TEXT NOT NULL,
		is_static INTEGER NOT NULL,
		label TEXT,
		field_offset INTEGER,
		PRIMARY KEY (build_id, owner, name)
	)`,
	`CREATE TABLE IF NOT EXISTS methods (
		build_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		method_key TEXT NOT NULL,
		label TEXT NOT NULL,
		is_static INTEGER NOT NULL,
		is_constructor INTEGER NOT NULL,
		slot INTEGER,
		selector INTEGER,
		PRIMARY KEY (build_id, owner, method_key)
	)`,
}

// Export writes the types, fields and methods of a compilation under buildID into the database at path,
// creating the tables when they are missing. The build is written in one transaction.
func Export(ctx context.Context, path string, buildID string, info *semantic.Info, layout *codegen.Layout) error {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("open symbol database %s: %w", path, err)
	}
	defer db.Close()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create symbol tables: %w", err)
		}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	exporter := &exporter{ctx: ctx, tx: tx, buildID: buildID, info: info, layout: layout}
	if err := exporter.export(); err != nil {
		tx.Rollback()
		return fmt.Errorf("export build %s: %w", buildID, err)
	}
	return tx.Commit()
}

type exporter struct {
	ctx     context.Context
	tx      *sql.Tx
	buildID string
	info    *semantic.Info
	layout  *codegen.Layout
}

func (e *exporter) export() error {
	if _, err := e.tx.ExecContext(e.ctx, `INSERT INTO builds (id, created_at) VALUES (?, ?)`,
		e.buildID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	for _, decl := range e.info.Global.Types() {
		if err := e.exportType(decl); err != nil {
			return err
		}
	}
	return nil
}

func (e *exporter) exportType(decl *ast.TypeDecl) error {
	var super sql.NullString
	if parent := e.info.Supers[decl]; parent != nil {
		super = sql.NullString{String: parent.FullName(), Valid: true}
	}
	size := 0
	if !decl.IsInterface {
		size = e.layout.ObjectSize(decl)
	}
	_, err := e.tx.ExecContext(e.ctx,
		`INSERT INTO types (build_id, name, sig, type_id, is_interface, super, object_size) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.buildID, decl.FullName(), codegen.ClassSig(decl), e.layout.TypeID(semantic.ClassType{Decl: decl}),
		decl.IsInterface, super, size)
	if err != nil {
		return err
	}
	for _, field := range decl.Fields {
		if err := e.exportField(field); err != nil {
			return err
		}
	}
	for _, method := range decl.Methods {
		if err := e.exportMethod(decl, method); err != nil {
			return err
		}
	}
	return nil
}

func (e *exporter) exportField(field *ast.FieldDecl) error {
	var (
		label  sql.NullString
		offset sql.NullInt64
	)
	if field.IsStatic() {
		label = sql.NullString{String: codegen.FieldSig(field), Valid: true}
	} else {
		offset = sql.NullInt64{Int64: int64(e.layout.FieldOffset(field)), Valid: true}
	}
	_, err := e.tx.ExecContext(e.ctx,
		`INSERT INTO fields (build_id, owner, name, field_type, is_static, label, field_offset) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.buildID, field.Owner.FullName(), field.Name, e.info.Resolve(field.Type).String(), field.IsStatic(), label, offset)
	return err
}

func (e *exporter) exportMethod(decl *ast.TypeDecl, method *ast.MethodDecl) error {
	key := e.info.MethodKey(method)
	var slot, selector sql.NullInt64
	if !method.IsStatic() && !method.IsConstructor {
		if s, ok := e.layout.Slot(decl, key); ok && !decl.IsInterface {
			slot = sql.NullInt64{Int64: int64(s), Valid: true}
		}
		if s, ok := e.layout.Selector(key); ok {
			selector = sql.NullInt64{Int64: int64(s), Valid: true}
		}
	}
	_, err := e.tx.ExecContext(e.ctx,
		`INSERT INTO methods (build_id, owner, method_key, label, is_static, is_constructor, slot, selector) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.buildID, decl.FullName(), key, codegen.ImplLabel(e.info, method), method.IsStatic(), method.IsConstructor, slot, selector)
	return err
}

// MethodRow is one exported method.
type MethodRow struct {
	Owner    string
	Key      string
	Label    string
	Slot     sql.NullInt64
	Selector sql.NullInt64
}

// Methods reads back the methods exported under buildID, ordered by owner and key.
func Methods(ctx context.Context, path string, buildID string) ([]MethodRow, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx,
		`SELECT owner, method_key, label, slot, selector FROM methods WHERE build_id = ? ORDER BY owner, method_key`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []MethodRow
	for rows.Next() {
		var row MethodRow
		if err := rows.Scan(&row.Owner, &row.Key, &row.Label, &row.Slot, &row.Selector); err != nil {
			return nil, err
		}
		methods = append(methods, row)
	}
	return methods, rows.Err()
}
