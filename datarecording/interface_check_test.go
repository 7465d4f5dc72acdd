package datarecording

var _ DataRecorder = (*ClickHouseRecorder)(nil)
var _ DataRecorder = (*sqliteWriter)(nil)
var _ ExecInfoRecorder = (*ClickHouseRecorder)(nil)
var _ ExecInfoRecorder = (*sqliteWriter)(nil)
