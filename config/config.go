// Package config loads the field-table configuration document (bit_config,
// output_data_elements, mci_parameter_tables) that drives the codecs in
// iso8583, ipm and paramtable. A Config is read-only once loaded and may be
// shared across any number of codec instances.
package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strconv"

	"github.com/adelosa/go-cardutil/record"
)

// DefaultConfigFileName is the file name looked for inside the directory
// named by CARDUTIL_CONFIG, or passed directly via --config-file.
const DefaultConfigFileName = "cardutil.json"

// EnvConfigDir is the environment variable naming a directory containing
// DefaultConfigFileName.
const EnvConfigDir = "CARDUTIL_CONFIG"

// ColumnLayout is a single column of a parameter-table row: a half-open
// character range [Start, End) within the record's field-48 text.
type ColumnLayout struct {
	Start int `json:"start"`
	End   int `json:"end"`
	// Type, when "datetime", instructs the extractor to parse this column
	// using DatePattern and CenturyPivot.
	Type string `json:"type,omitempty"`
	// DatePattern is a YYMMDD-style pattern, e.g. "YYMMDD" or "YYYYMMDD".
	DatePattern string `json:"date_pattern,omitempty"`
	// CenturyPivot is the 2-digit pivot used to resolve a YY year: values
	// strictly less than the pivot are taken as 20xx, others as 19xx.
	CenturyPivot int `json:"century_pivot,omitempty"`
}

// TableLayout is the positional column layout for one mci_parameter_tables
// entry, keyed by table_id value.
type TableLayout struct {
	// TableIDColumn names the column within Columns whose value identifies
	// the table_id of a row (by convention "table_id").
	TableIDColumn string `json:"table_id_column"`
	// Columns maps column name to its character range within the row.
	Columns map[string]ColumnLayout `json:"columns"`
}

// ColumnNames returns the table's column names sorted by starting offset.
func (tl TableLayout) ColumnNames() []string {
	names := make([]string, 0, len(tl.Columns))
	for name := range tl.Columns {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return tl.Columns[names[i]].Start < tl.Columns[names[j]].Start
	})
	return names
}

// BitConfig is the field table, keyed by decimal field index 2..128. Field
// 1 (the secondary-bitmap flag) is not accepted as a key.
type BitConfig map[int]FieldDescriptor

// UnmarshalJSON decodes a JSON object whose keys are decimal field indices
// encoded as strings, the way the wire configuration represents them.
func (bc *BitConfig) UnmarshalJSON(b []byte) error {
	raw := map[string]FieldDescriptor{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(BitConfig, len(raw))
	for k, fd := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("cardutil: bit_config key %q is not a decimal field index: %w", k, err)
		}
		if n < 2 || n > 128 {
			return fmt.Errorf("cardutil: bit_config key %d out of range 2..128", n)
		}
		out[n] = fd
	}
	*bc = out
	return nil
}

// Config is the single configuration object driving the field table,
// output projection, and parameter-table layouts.
type Config struct {
	BitConfig          BitConfig              `json:"bit_config"`
	OutputDataElements []string               `json:"output_data_elements"`
	MciParameterTables map[string]TableLayout `json:"mci_parameter_tables"`

	// Field43Layout, when set, decomposes the text of field 43 into
	// "DE43_<COLUMN>" projected keys on decode, per the declared half-open
	// character ranges. Optional.
	Field43Layout map[string]ColumnLayout `json:"field_43_layout,omitempty"`
	// ICCField, when non-zero, names the field index whose raw bytes are
	// additionally exposed, unparsed, under the "ICC_DATA" key (as uppercase
	// hex text when the decode view has HexBin set). Optional.
	ICCField int `json:"icc_field,omitempty"`
}

// Load reads and parses the configuration document at path within filesystem.
func Load(filesystem fs.FS, path string) (*Config, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil, &record.ConfigError{Msg: fmt.Sprintf("failed to open %s", path), Err: err}
	}
	defer f.Close()

	cfg := &Config{}
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, &record.ConfigError{Msg: fmt.Sprintf("failed to parse %s", path), Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every field descriptor is internally consistent.
func (c *Config) Validate() error {
	if len(c.BitConfig) == 0 {
		return &record.ConfigError{Msg: "bit_config is empty"}
	}
	for index, fd := range c.BitConfig {
		if err := fd.Validate(index); err != nil {
			return err
		}
	}
	containers := c.ContainerFields()
	if len(containers) > 1 {
		for _, index := range containers {
			fd, _ := c.Field(index)
			if fd.PDSTagMax == 0 {
				return &record.ConfigError{Msg: fmt.Sprintf("field %d: pds_tag_min/pds_tag_max are required when more than one container field is configured", index)}
			}
		}
		for i, a := range containers {
			fda, _ := c.Field(a)
			for _, b := range containers[i+1:] {
				fdb, _ := c.Field(b)
				if fda.PDSTagMin <= fdb.PDSTagMax && fdb.PDSTagMin <= fda.PDSTagMax {
					return &record.ConfigError{Msg: fmt.Sprintf("fields %d and %d: pds_tag ranges overlap", a, b)}
				}
			}
		}
	}
	return nil
}

// ContainerForPDSTag returns the configured container field whose declared
// tag range owns tag. When exactly one container field is configured, that
// container is always returned regardless of range (matching the
// single-container default where no range need be declared).
func (c *Config) ContainerForPDSTag(tag int) (int, bool) {
	containers := c.ContainerFields()
	if len(containers) == 1 {
		return containers[0], true
	}
	for _, index := range containers {
		fd, _ := c.Field(index)
		if fd.OwnsPDSTag(tag) {
			return index, true
		}
	}
	return 0, false
}

// ContainerFields returns the field indices configured as PDS containers,
// in ascending order.
func (c *Config) ContainerFields() []int {
	out := make([]int, 0)
	for index, fd := range c.BitConfig {
		if fd.Subfields {
			out = append(out, index)
		}
	}
	sort.Ints(out)
	return out
}

// Field looks up a field descriptor by index, reporting whether it was
// configured.
func (c *Config) Field(index int) (FieldDescriptor, bool) {
	fd, ok := c.BitConfig[index]
	return fd, ok
}
