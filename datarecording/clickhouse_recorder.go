package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// ClickHouseRecorder is a DataRecorder that batches entries in memory and
// sends them to ClickHouse with bulk inserts.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*table
	tableNames []string
	entryCount int
	closed     bool

	execRecorder *execRecorder
}

// NewClickHouseRecorder connects to the server described by the DSN, for
// example clickhouse://default:@localhost:9000/wlanexp.
func NewClickHouseRecorder(dsn string, batchSize int) (*ClickHouseRecorder, error) {
	if batchSize == 0 {
		batchSize = 100000
	}

	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid ClickHouse DSN: %w", err)
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	err = conn.Ping(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return newClickHouseRecorderWithConn(conn, batchSize), nil
}

func newClickHouseRecorderWithConn(
	conn clickhouse.Conn,
	batchSize int,
) *ClickHouseRecorder {
	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() {
		r.Flush()
	})

	r.execRecorder = newExecRecorder(r)
	r.execRecorder.Start()

	return r
}

// clickHouseType maps a Go kind to the ClickHouse column type.
func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	}

	panic(fmt.Sprintf("unsupported kind %s", kind))
}

// createTableSQL builds the MergeTree table definition of an entry type.
func createTableSQL(tableName string, sampleEntry any) string {
	t := reflect.TypeOf(sampleEntry)
	columns := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		columns = append(columns,
			fmt.Sprintf("%s %s", f.Name, clickHouseType(f.Type.Kind())))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY tuple()",
		tableName, strings.Join(columns, ",\n\t"))
}

// rowValues returns the fields of an entry, widening int and uint to their
// 64-bit column types.
func rowValues(entry any) []any {
	v := reflect.ValueOf(entry)
	values := make([]any, 0, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)

		switch f.Kind() {
		case reflect.Int:
			values = append(values, f.Int())
		case reflect.Uint:
			values = append(values, f.Uint())
		default:
			values = append(values, f.Interface())
		}
	}

	return values
}

// CreateTable creates the table if it does not exist yet.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(fmt.Errorf("cannot create table %s: %w", tableName, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.conn.Exec(context.Background(),
		createTableSQL(tableName, sampleEntry))
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	t, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	t.entries = append(t.entries, entry)
	r.entryCount++

	if r.entryCount >= r.batchSize {
		r.mu.Unlock()
		r.Flush()

		return
	}

	r.mu.Unlock()
}

// ListTables returns all table names
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, len(r.tableNames))
	copy(tables, r.tableNames)

	return tables
}

// RecordExecInfo adds a property to the exec_info table.
func (r *ClickHouseRecorder) RecordExecInfo(property, value string) {
	r.execRecorder.Add(property, value)
}

// Flush writes all batched data to ClickHouse using bulk inserts
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 || r.closed {
		return
	}

	ctx := context.Background()

	for _, name := range r.tableNames {
		t := r.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		r.flushTable(ctx, name, t)
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) flushTable(
	ctx context.Context,
	tableName string,
	t *table,
) {
	columns := strings.Join(structs.Names(reflect.New(t.structType).Elem().Interface()), ", ")

	batch, err := r.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s (%s)", tableName, columns))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, entry := range t.entries {
		err = batch.Append(rowValues(entry)...)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	t.entries = t.entries[:0]
}

// Close flushes remaining data and closes the connection
func (r *ClickHouseRecorder) Close() error {
	if r.closed {
		return nil
	}

	r.execRecorder.End()
	r.Flush()
	r.closed = true

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
