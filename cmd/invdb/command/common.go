// Package command implements the invdb CLI's subcommands: thin argument
// parsing wrappers over the invdb library surface, no core logic.
package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/invdb/invdb"
	"github.com/invdb/invdb/internal/rowcodec"
)

func loggerFromLevel(levelName string) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func openDB(path, logLevel string) (*invdb.Db, error) {
	return invdb.Open(path, loggerFromLevel(logLevel))
}

// loadConfig reads and decodes the YAML config file at configPath, the
// same configDecoder.Decode(config) shape ListenCommand uses.
func loadConfig(configPath string) (invdb.Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return invdb.Config{}, err
	}
	defer configFile.Close()
	return invdb.DecodeConfig(configFile)
}

// resolvePathAndLogger applies an optional config file over the -path
// and -log-level flags: when configPath is set, its Path/LogLevel win.
func resolvePathAndLogger(configPath, path, logLevel string) (string, *logrus.Logger, error) {
	if configPath == "" {
		return path, loggerFromLevel(logLevel), nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", nil, err
	}
	if cfg.Path != "" {
		path = cfg.Path
	}
	return path, cfg.Logger(), nil
}

func printErr(err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	return 1
}

// parseColType maps a CLI type name onto its ColType. Command-layer
// concern only; the schema codec itself never sees these strings.
func parseColType(name string) (rowcodec.ColType, error) {
	switch strings.ToLower(name) {
	case "u32":
		return rowcodec.ColU32, nil
	case "u64":
		return rowcodec.ColU64, nil
	case "i64":
		return rowcodec.ColI64, nil
	case "bool":
		return rowcodec.ColBool, nil
	case "bytes":
		return rowcodec.ColBytes, nil
	case "string":
		return rowcodec.ColString, nil
	default:
		return 0, fmt.Errorf("unknown column type %q (want u32|u64|i64|bool|bytes|string)", name)
	}
}

// parseColumns parses "name:type[:nullable],..." into a schema.
func parseColumns(spec string) (rowcodec.Schema, error) {
	parts := strings.Split(spec, ",")
	cols := make([]rowcodec.Column, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 2 {
			return rowcodec.Schema{}, fmt.Errorf("malformed column spec %q, want name:type[:nullable]", part)
		}
		ty, err := parseColType(fields[1])
		if err != nil {
			return rowcodec.Schema{}, err
		}
		nullable := len(fields) >= 3 && fields[2] == "nullable"
		cols = append(cols, rowcodec.Column{Name: fields[0], Type: ty, Nullable: nullable})
	}
	return rowcodec.NewSchema(cols)
}

// parseValues parses "v1,v2,..." into row values against schema's column
// types, in order. An empty field means null for a nullable column.
func parseValues(schema rowcodec.Schema, spec string) (rowcodec.Row, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != schema.Len() {
		return rowcodec.Row{}, fmt.Errorf("expected %d values, got %d", schema.Len(), len(parts))
	}

	values := make([]rowcodec.Value, len(parts))
	for i, col := range schema.Columns {
		raw := strings.TrimSpace(parts[i])
		if raw == "" && col.Nullable {
			values[i] = rowcodec.NullValue()
			continue
		}
		switch col.Type {
		case rowcodec.ColU32:
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return rowcodec.Row{}, err
			}
			values[i] = rowcodec.U32Value(uint32(v))
		case rowcodec.ColU64:
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return rowcodec.Row{}, err
			}
			values[i] = rowcodec.U64Value(v)
		case rowcodec.ColI64:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return rowcodec.Row{}, err
			}
			values[i] = rowcodec.I64Value(v)
		case rowcodec.ColBool:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return rowcodec.Row{}, err
			}
			values[i] = rowcodec.BoolValue(v)
		case rowcodec.ColBytes:
			values[i] = rowcodec.BytesValue([]byte(raw))
		case rowcodec.ColString:
			values[i] = rowcodec.StringValue(raw)
		}
	}
	return rowcodec.Row{Values: values}, nil
}

func formatValue(v rowcodec.Value) string {
	switch v.Tag {
	case rowcodec.TagNull:
		return "null"
	case rowcodec.TagU32:
		return strconv.FormatUint(uint64(v.U32()), 10)
	case rowcodec.TagU64:
		return strconv.FormatUint(v.U64(), 10)
	case rowcodec.TagI64:
		return strconv.FormatInt(v.I64(), 10)
	case rowcodec.TagBool:
		return strconv.FormatBool(v.Bool())
	case rowcodec.TagBytes:
		return fmt.Sprintf("%x", v.Bytes())
	case rowcodec.TagString:
		return v.String()
	default:
		return "?"
	}
}
